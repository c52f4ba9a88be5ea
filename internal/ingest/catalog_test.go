package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"earthistory/internal/sparql"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	require.Len(t, c.Queries, 21)

	for _, e := range c.Queries {
		q, err := e.Query()
		require.NoError(t, err, e.Name)
		assert.Contains(t, q, "LIMIT", e.Name)
	}

	broad := c.Queries[len(c.Queries)-1]
	q, err := broad.Query()
	require.NoError(t, err)
	assert.Contains(t, q, "wd:"+sparql.OccurrenceQID)
	assert.Contains(t, q, "FILTER(YEAR(?date) >= 1950)")
}

func TestCatalogFilter(t *testing.T) {
	c := DefaultCatalog()

	tests := []struct {
		era  string
		want int
	}{
		{"", 21},
		{"battles", 3},
		{"MEDIEVAL", 2},
		{"contemporary", 1},
		{"jurassic", 0},
	}
	for _, tt := range tests {
		t.Run(tt.era, func(t *testing.T) {
			assert.Len(t, c.Filter(tt.era), tt.want)
		})
	}
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()

	t.Run("empty path is default", func(t *testing.T) {
		c, err := LoadCatalog("")
		require.NoError(t, err)
		assert.Len(t, c.Queries, 21)
	})

	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(dir, "catalog.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`queries:
  - name: Sieges
    type: Q188055
    to: 1500
    limit: 50
  - name: Recent sweep
    from: 2000
    limit: 20
`), 0o644))

		c, err := LoadCatalog(path)
		require.NoError(t, err)
		require.Len(t, c.Queries, 2)
		assert.Equal(t, "Q188055", c.Queries[0].Type)
		require.NotNil(t, c.Queries[0].To)
		assert.Equal(t, 1500, *c.Queries[0].To)
		assert.Nil(t, c.Queries[0].From)
		assert.Equal(t, "", c.Queries[1].Type)
	})

	t.Run("invalid type", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("queries:\n  - name: x\n    type: P31\n    limit: 1\n"), 0o644))
		_, err := LoadCatalog(path)
		assert.ErrorIs(t, err, sparql.ErrInvalidEntityID)
	})

	t.Run("empty", func(t *testing.T) {
		path := filepath.Join(dir, "empty.yaml")
		require.NoError(t, os.WriteFile(path, []byte("queries: []\n"), 0o644))
		_, err := LoadCatalog(path)
		assert.Error(t, err)
	})
}
