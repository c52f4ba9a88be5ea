package normalize

import (
	"testing"
	"time"

	"earthistory/internal/models"
	"earthistory/internal/sparql"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseYear(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"1066-10-14T00:00:00Z", 1066, true},
		{"-0202-01-01T00:00:00Z", -202, true},
		{"+1492-10-12T00:00:00Z", 1492, true},
		{"0000-01-01T00:00:00Z", 0, true},
		{"t1234", 0, false},
		{"", 0, false},
		{"unknown", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseYear(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePoint(t *testing.T) {
	lat, lng, ok := ParsePoint("Point(28.98 41.01)")
	require.True(t, ok)
	assert.InDelta(t, 41.01, lat, 1e-9)
	assert.InDelta(t, 28.98, lng, 1e-9)

	lat, lng, ok = ParsePoint("Point(-0.08 -51.7)")
	require.True(t, ok)
	assert.InDelta(t, -51.7, lat, 1e-9)
	assert.InDelta(t, -0.08, lng, 1e-9)

	lat, lng, ok = ParsePoint("<http://www.wikidata.org/entity/Q2> Point(12.49 41.89)")
	require.True(t, ok)
	assert.InDelta(t, 41.89, lat, 1e-9)
	assert.InDelta(t, 12.49, lng, 1e-9)

	for _, bad := range []string{
		"Point(bad bad)", "", "Point(1.2)", "Point(1-2 3)", "Point(10 95)", "Point(200 10)",
		"<http://www.wikidata.org/entity/Q405> Point(23.47 0.67)",
		"<http://www.wikidata.org/entity/Q111> Point(-137.4 -4.6)",
		"MULTIPOINT(Point(1 2))",
		"Point(1 2) trailing",
	} {
		_, _, ok := ParsePoint(bad)
		assert.False(t, ok, bad)
	}
}

func TestCategorize(t *testing.T) {
	c := NewCategorizer(nil)
	tests := []struct {
		label string
		want  string
	}{
		{"naval battle", models.CategoryWar},
		{"Battle", models.CategoryWar},
		{"peace treaty", models.CategoryPolitics},
		{"coup d'état", models.CategoryPolitics},
		{"oil painting", models.CategoryCulture},
		{"capital city", models.CategoryCivilization},
		{"crewed space mission", models.CategoryExploration},
		{"scientific discovery", models.CategoryScience},
		{"invention", models.CategoryTechnology},
		{"religious movement", models.CategoryReligion},
		{"volcanic eruption", models.CategoryHistory},
		{"unknown gizmo", models.CategoryHistory},
		{"", models.CategoryHistory},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Categorize(tt.label))
		})
	}
}

func TestCategorizerRuleOrder(t *testing.T) {
	c := NewCategorizer([]Rule{
		{"ship", models.CategoryExploration},
		{"shipwreck", models.CategoryHistory},
	})
	// exact match beats an earlier substring rule
	assert.Equal(t, models.CategoryHistory, c.Categorize("shipwreck"))
	// otherwise the first matching rule wins
	assert.Equal(t, models.CategoryExploration, c.Categorize("famous shipwreck"))
}

func binding(vals map[string]string) sparql.Binding {
	b := sparql.Binding{}
	for k, v := range vals {
		b[k] = sparql.Term{Type: "literal", Value: v}
	}
	return b
}

func fixedNormalizer() *Normalizer {
	n := NewNormalizer(nil, "CC0")
	n.SetNow(func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) })
	return n
}

func TestNormalize(t *testing.T) {
	n := fixedNormalizer()
	c, reason := n.Normalize(binding(map[string]string{
		"event":        "http://www.wikidata.org/entity/Q48314",
		"eventLabel":   "Battle of Cannae",
		"date":         "-0216-08-02T00:00:00Z",
		"endDate":      "-0216-08-03T00:00:00Z",
		"coord":        "Point(16.1322 41.3064)",
		"image":        "http://commons.wikimedia.org/wiki/Special:FilePath/Cannae.jpg",
		"typeLabel":    "battle",
		"countryLabel": "Italy",
	}))
	require.Equal(t, Kept, reason)

	assert.Equal(t, "Battle of Cannae", c.Title)
	assert.Equal(t, models.MissingSummary, c.Summary)
	assert.Equal(t, models.CategoryWar, c.Category)
	assert.Equal(t, -216, c.TimeStart)
	require.NotNil(t, c.TimeEnd)
	assert.Equal(t, -216, *c.TimeEnd)
	assert.InDelta(t, 41.3064, c.Lat, 1e-9)
	assert.InDelta(t, 16.1322, c.Lng, 1e-9)
	assert.Equal(t, "Italy", *c.RegionName)
	assert.True(t, c.HasImage())
	assert.Nil(t, c.WikipediaURL)
	assert.Nil(t, c.YouTubeVideoID)
	assert.Equal(t, "CC0", c.License)
	assert.Equal(t, models.PrecisionYear, c.PrecisionLevel)
	assert.Equal(t, 1.0, c.ConfidenceScore)
	assert.Equal(t, "Q48314", c.QID())
}

func TestNormalizeDrops(t *testing.T) {
	n := fixedNormalizer()
	base := map[string]string{
		"event":      "http://www.wikidata.org/entity/Q1",
		"eventLabel": "Something",
		"date":       "1900-01-01T00:00:00Z",
		"coord":      "Point(1 2)",
	}
	with := func(k, v string) sparql.Binding {
		m := map[string]string{}
		for kk, vv := range base {
			m[kk] = vv
		}
		if v == "" {
			delete(m, k)
		} else {
			m[k] = v
		}
		return binding(m)
	}

	tests := []struct {
		name string
		row  sparql.Binding
		want SkipReason
	}{
		{"no entity", with("event", ""), SkipNoEntity},
		{"no title", with("eventLabel", ""), SkipNoTitle},
		{"label is qid", with("eventLabel", "Q1"), SkipNoTitle},
		{"bad geometry", with("coord", "Point(bad bad)"), SkipBadCoords},
		{"lunar geometry", with("coord", "<http://www.wikidata.org/entity/Q405> Point(23.47 0.67)"), SkipBadCoords},
		{"missing date", with("date", ""), SkipBadYear},
		{"unparsable date", with("date", "circa 1900"), SkipBadYear},
		{"future eclipse", binding(map[string]string{
			"event":      "http://www.wikidata.org/entity/Q2",
			"eventLabel": "Solar eclipse of August 12, 2045",
			"date":       "2045-08-12T00:00:00Z",
			"coord":      "Point(1 2)",
		}), SkipNoise},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, reason := n.Normalize(tt.row)
			assert.Equal(t, tt.want, reason)
		})
	}
}

func TestNormalizeAllCountsDrops(t *testing.T) {
	n := fixedNormalizer()
	rows := []sparql.Binding{
		binding(map[string]string{"event": "http://www.wikidata.org/entity/Q1", "eventLabel": "A", "date": "1066", "coord": "Point(1 1)"}),
		binding(map[string]string{"event": "http://www.wikidata.org/entity/Q2", "eventLabel": "B", "date": "x", "coord": "Point(1 1)"}),
		binding(map[string]string{"event": "http://www.wikidata.org/entity/Q3", "eventLabel": "C", "date": "1067", "coord": "nope"}),
	}

	out, dropped := n.NormalizeAll(rows)
	require.Len(t, out, 1)
	assert.Equal(t, "A", out[0].Title)
	assert.Equal(t, 1, dropped[SkipBadYear])
	assert.Equal(t, 1, dropped[SkipBadCoords])
}

func TestIsNoise(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, IsNoise("Solar eclipse of March 30, 2033", 2033, now))
	assert.False(t, IsNoise("Solar eclipse of May 29, 1919", 1919, now))
	assert.False(t, IsNoise("Moon landing", 2030, now))
}
