// Package wikidata talks to the Wikidata query service, the entity search API
// and the Wikipedia API. Every request goes through one rate-limited fetcher.
package wikidata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"earthistory/internal/cache"
	"earthistory/internal/fetch"
	"earthistory/internal/logger"
	"earthistory/internal/metrics"
	"earthistory/internal/sparql"
)

// Endpoints holds the upstream base URLs
type Endpoints struct {
	SPARQL        string // https://query.wikidata.org/sparql
	EntitySearch  string // https://www.wikidata.org/w/api.php
	WikipediaAPI  string // https://%s.wikipedia.org/w/api.php, %s is the language code
	WikipediaREST string // https://en.wikipedia.org/api/rest_v1/page/summary
}

// Client issues queries against Wikidata and Wikipedia
type Client struct {
	fetcher   *fetch.Fetcher
	endpoints Endpoints
	log       *logger.Logger

	topicCache cache.TopicCache
	cacheTTL   time.Duration
}

// NewClient creates a client
func NewClient(fetcher *fetch.Fetcher, endpoints Endpoints, log *logger.Logger) *Client {
	if log == nil {
		log = logger.NewNop()
	}
	return &Client{
		fetcher:   fetcher,
		endpoints: endpoints,
		log:       log.With("service", "WikidataClient"),
	}
}

// WithTopicCache enables caching of topic resolutions
func (c *Client) WithTopicCache(tc cache.TopicCache, ttl time.Duration) *Client {
	c.topicCache = tc
	c.cacheTTL = ttl
	return c
}

// ErrNoData is returned when the endpoint refused the query with a non-retryable status
var ErrNoData = errors.New("query returned no data")

// RunQuery executes a SPARQL query and returns its rows.
// A non-retryable rejection wraps ErrNoData; exhausted retries return the last error.
func (c *Client) RunQuery(ctx context.Context, query string) ([]sparql.Binding, error) {
	res := c.fetcher.Get(ctx, sparql.RequestURL(c.endpoints.SPARQL, query))
	switch res.Kind {
	case fetch.Success:
		return sparql.DecodeBindings(res.Body)
	case fetch.FatalFailure:
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrNoData, res.Failure())
	default:
		return nil, fmt.Errorf("SPARQL request failed: %w", res.Failure())
	}
}

// FetchRelatedEvents runs the topic query for qid and returns its rows
func (c *Client) FetchRelatedEvents(ctx context.Context, qid string, limit int) ([]sparql.Binding, error) {
	query, err := sparql.TopicEventsQuery(qid, limit)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := c.RunQuery(ctx, query)
	metrics.QueryDuration.WithLabelValues("topic").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events for %s: %w", qid, err)
	}
	c.log.Info("📥 fetched related events", "qid", qid, "rows", len(rows))
	return rows, nil
}
