package ingest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"earthistory/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSnapshot(t *testing.T) {
	retrieved := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	cands := []models.EventCandidate{
		{Title: "Moon landing", TimeStart: 1969, SourceURL: "http://www.wikidata.org/entity/Q43653"},
		{Title: "Marathon", TimeStart: -490, SourceURL: "http://www.wikidata.org/entity/Q102", License: "CC0"},
		{Title: "Sputnik", TimeStart: 1957, SourceURL: "http://www.wikidata.org/entity/Q80811",
			Provenance: &models.Provenance{SourceID: "old"}},
	}

	snap := BuildSnapshot(cands, retrieved)
	require.Len(t, snap.Sources, 1)
	assert.Equal(t, models.WikidataSourceID, snap.Sources[0].ID)
	assert.Equal(t, retrieved, snap.Sources[0].RetrievedAt)

	require.Len(t, snap.Events, 3)
	titles := []string{snap.Events[0].Title, snap.Events[1].Title, snap.Events[2].Title}
	assert.Equal(t, []string{"Marathon", "Sputnik", "Moon landing"}, titles)
	for i, e := range snap.Events {
		assert.Equal(t, "wd-"+string(rune('0'+i)), e.ID)
		assert.Equal(t, models.WikidataSourceID, e.SourceID)
		assert.Equal(t, "CC0", e.License)
		assert.Nil(t, e.Provenance)
	}

	// input is untouched
	assert.Equal(t, "", cands[0].ID)
	assert.NotNil(t, cands[2].Provenance)
}

func TestSnapshotRoundTripOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "events.seed.json")

	_, err := LoadSnapshot(path)
	assert.True(t, os.IsNotExist(err))

	snap := BuildSnapshot([]models.EventCandidate{{Title: "Marathon", TimeStart: -490, SourceURL: "u"}}, time.Now())
	require.NoError(t, WriteSnapshot(path, snap))

	loaded, err := LoadSnapshot(path)
	require.NoError(t, err)
	require.Len(t, loaded.Events, 1)
	assert.Equal(t, -490, loaded.Events[0].TimeStart)

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err = LoadSnapshot(path)
	assert.Error(t, err)
	assert.False(t, os.IsNotExist(err))
}
