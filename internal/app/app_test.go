package app

import (
	"os"
	"path/filepath"
	"testing"

	"earthistory/internal/cache"
	"earthistory/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPipeline(t *testing.T) {
	cfg := config.Load()
	client := NewClient(cfg, cache.NewMemory(), nil)

	p, err := NewPipeline(cfg, client, nil, nil)
	require.NoError(t, err)
	assert.False(t, p.HasStore())
}

func TestNewPipelineBadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("queries: []\n"), 0o644))

	cfg := config.Load()
	cfg.CatalogPath = path

	_, err := NewPipeline(cfg, NewClient(cfg, nil, nil), nil, nil)
	assert.Error(t, err)
}
