// Package app assembles the ingestion stack from configuration for the
// server and the command line tools.
package app

import (
	"fmt"

	"earthistory/internal/cache"
	"earthistory/internal/config"
	"earthistory/internal/enrich"
	"earthistory/internal/fetch"
	"earthistory/internal/ingest"
	"earthistory/internal/logger"
	"earthistory/internal/normalize"
	"earthistory/internal/provenance"
	"earthistory/internal/ratelimit"
	"earthistory/internal/wikidata"
)

// NewClient builds a Wikidata client with one shared limiter. A non-nil
// topicCache is used for topic resolutions.
func NewClient(cfg *config.Config, topicCache cache.TopicCache, log *logger.Logger) *wikidata.Client {
	limiter := ratelimit.New(cfg.RateLimitMax, cfg.RateLimitWindow, ratelimit.WithBuffer(cfg.RateLimitBuffer))
	fetcher := fetch.NewFetcher(nil, limiter, fetch.Config{
		UserAgent:   cfg.UserAgent,
		MaxAttempts: cfg.MaxAttempts,
		BaseBackoff: cfg.BaseBackoff,
		Timeout:     cfg.HTTPTimeout,
	}, log)

	client := wikidata.NewClient(fetcher, wikidata.Endpoints{
		SPARQL:        cfg.SPARQLEndpoint,
		EntitySearch:  cfg.EntitySearchURL,
		WikipediaAPI:  cfg.WikipediaAPIURL,
		WikipediaREST: cfg.WikipediaREST,
	}, log)
	if topicCache != nil {
		client.WithTopicCache(topicCache, cfg.TopicCacheTTL)
	}
	return client
}

// NewGate builds the license gate writing to the configured paths
func NewGate(cfg *config.Config, log *logger.Logger) *provenance.Gate {
	return provenance.NewGate(cfg.AllowedLicenses, cfg.NormalizedPath, cfg.AuditPath, log)
}

// NewPipeline builds the ingestion pipeline. persister may be nil.
func NewPipeline(cfg *config.Config, client *wikidata.Client, persister ingest.Persister, log *logger.Logger) (*ingest.Pipeline, error) {
	catalog, err := ingest.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	// Wikidata content is CC0
	normalizer := normalize.NewNormalizer(nil, "CC0")
	youtube := enrich.NewYouTubeEnricher(client, cfg.EnrichBatchSize, cfg.QueryDelay, log)
	images := enrich.NewImageEnricher(client, cfg.QueryDelay, log)

	return ingest.NewPipeline(client, catalog, normalizer, youtube, images, NewGate(cfg, log), persister, ingest.Options{
		QueryDelay: cfg.QueryDelay,
		TopicLimit: cfg.TopicLimit,
		SeedPath:   cfg.SeedPath,
	}, log), nil
}
