// Package config loads ingestion settings from the environment
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds ingestion configuration
type Config struct {
	// Endpoints
	SPARQLEndpoint  string
	EntitySearchURL string
	WikipediaAPIURL string // e.g. https://%s.wikipedia.org/w/api.php, %s is the language code
	WikipediaREST   string
	UserAgent       string

	// Throughput control
	RateLimitMax    int
	RateLimitWindow time.Duration
	RateLimitBuffer time.Duration
	MaxAttempts     int
	BaseBackoff     time.Duration
	QueryDelay      time.Duration // polite delay between catalog queries and enrichment batches
	HTTPTimeout     time.Duration

	// Pipeline
	TopicLimit      int
	EnrichBatchSize int
	AllowedLicenses []string
	CatalogPath     string // optional YAML override for the bulk catalog
	SeedPath        string
	NormalizedPath  string
	AuditPath       string
	IngestInterval  time.Duration // 0 disables the periodic re-ingestion worker

	// Infrastructure
	RedisAddr     string
	TopicCacheTTL time.Duration
	Port          string
	AdminPassword string
	LogMode       string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		SPARQLEndpoint:  getEnv("SPARQL_ENDPOINT", "https://query.wikidata.org/sparql"),
		EntitySearchURL: getEnv("ENTITY_SEARCH_URL", "https://www.wikidata.org/w/api.php"),
		WikipediaAPIURL: getEnv("WIKIPEDIA_API_URL", "https://%s.wikipedia.org/w/api.php"),
		WikipediaREST:   getEnv("WIKIPEDIA_REST_URL", "https://en.wikipedia.org/api/rest_v1/page/summary"),
		UserAgent:       getEnv("USER_AGENT", "Earthistory/1.0 (https://github.com/seasu/earthistory; educational)"),

		RateLimitMax:    getEnvInt("RATE_LIMIT_MAX", 5),
		RateLimitWindow: getEnvDuration("RATE_LIMIT_WINDOW", time.Second),
		RateLimitBuffer: getEnvDuration("RATE_LIMIT_BUFFER", 100*time.Millisecond),
		MaxAttempts:     getEnvInt("FETCH_MAX_ATTEMPTS", 3),
		BaseBackoff:     getEnvDuration("FETCH_BACKOFF", 2*time.Second),
		QueryDelay:      getEnvDuration("QUERY_DELAY", 1500*time.Millisecond),
		HTTPTimeout:     getEnvDuration("HTTP_TIMEOUT", 60*time.Second),

		TopicLimit:      getEnvInt("TOPIC_LIMIT", 500),
		EnrichBatchSize: getEnvInt("ENRICH_BATCH_SIZE", 50),
		AllowedLicenses: getEnvList("ALLOWED_LICENSES", []string{"CC0", "CC BY 4.0", "ODbL"}),
		CatalogPath:     getEnv("INGEST_CATALOG", ""),
		SeedPath:        getEnv("SEED_PATH", "infra/data/seed/events.seed.json"),
		NormalizedPath:  getEnv("NORMALIZED_PATH", "infra/data/normalized/events.normalized.json"),
		AuditPath:       getEnv("AUDIT_PATH", "infra/data/normalized/license-audit.json"),
		IngestInterval:  getEnvDuration("INGEST_INTERVAL", 0),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		TopicCacheTTL: getEnvDuration("TOPIC_CACHE_TTL", 24*time.Hour),
		Port:          getEnv("PORT", "8080"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),
		LogMode:       getEnv("LOG_MODE", "development"),
	}
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// getEnvDuration accepts Go duration strings ("1500ms") or bare milliseconds ("1500")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, e.g. ALLOWED_LICENSES="CC0,CC BY 4.0"
func getEnvList(key string, defaultValue []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
