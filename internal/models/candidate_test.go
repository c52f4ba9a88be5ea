package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventCandidateQID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"http://www.wikidata.org/entity/Q48314", "Q48314"},
		{"http://www.wikidata.org/entity/P31", ""},
		{"http://www.wikidata.org/entity/Q", ""},
		{"http://www.wikidata.org/entity/Q12x", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EventCandidate{SourceURL: tt.url}.QID(), tt.url)
	}
}

func TestEventCandidateMediaFlags(t *testing.T) {
	c := EventCandidate{ImageURL: StringPtr(""), YouTubeVideoID: StringPtr("abc123")}
	assert.False(t, c.HasImage())
	assert.True(t, c.HasVideo())

	c.ImageURL = StringPtr("http://commons.wikimedia.org/wiki/Special:FilePath/x.jpg")
	assert.True(t, c.HasImage())
}

func TestSnapshotJSONKeys(t *testing.T) {
	retrieved := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	src := WikidataSource(retrieved)
	prov := src.Provenance()
	snap := Snapshot{
		Sources: []SourceRecord{src},
		Events: []EventCandidate{{
			Title:      "Battle of Hastings",
			TimeStart:  1066,
			SourceURL:  "http://www.wikidata.org/entity/Q83207",
			Provenance: &prov,
			TypeLabel:  "battle",
		}},
	}

	raw, err := json.Marshal(snap)
	require.NoError(t, err)

	var generic map[string][]map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &generic))
	event := generic["events"][0]
	assert.Contains(t, event, "time_start")
	assert.Contains(t, event, "image_url")
	assert.Equal(t, "battle", event["type_label"])
	assert.Equal(t, "CC0", event["provenance"].(map[string]interface{})["license"])
	assert.Equal(t, "wikidata-source", generic["sources"][0]["id"])
}
