package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 5, cfg.RateLimitMax)
	assert.Equal(t, time.Second, cfg.RateLimitWindow)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 50, cfg.EnrichBatchSize)
	assert.Equal(t, []string{"CC0", "CC BY 4.0", "ODbL"}, cfg.AllowedLicenses)
	assert.Equal(t, time.Duration(0), cfg.IngestInterval)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("RATE_LIMIT_MAX", "10")
	t.Setenv("RATE_LIMIT_WINDOW", "2s")
	t.Setenv("QUERY_DELAY", "250")
	t.Setenv("ALLOWED_LICENSES", "CC0, ODbL ,")
	t.Setenv("FETCH_MAX_ATTEMPTS", "not-a-number")

	cfg := Load()

	assert.Equal(t, 10, cfg.RateLimitMax)
	assert.Equal(t, 2*time.Second, cfg.RateLimitWindow)
	assert.Equal(t, 250*time.Millisecond, cfg.QueryDelay)
	assert.Equal(t, []string{"CC0", "ODbL"}, cfg.AllowedLicenses)
	assert.Equal(t, 3, cfg.MaxAttempts)
}
