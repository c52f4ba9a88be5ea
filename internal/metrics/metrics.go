// Package metrics holds the Prometheus collectors for the ingestion pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FetchRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "earthistory_fetch_requests_total",
		Help: "HTTP requests issued to upstream endpoints, labelled by outcome.",
	}, []string{"outcome"})

	FetchRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "earthistory_fetch_retries_total",
		Help: "Retries scheduled after a transient upstream failure.",
	})

	RateLimitWaits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "earthistory_rate_limit_waits_total",
		Help: "Times a request had to wait for the sliding window to free a slot.",
	})

	RowsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "earthistory_rows_dropped_total",
		Help: "Query result rows dropped during normalization, labelled by reason.",
	}, []string{"reason"})

	CandidatesMerged = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "earthistory_candidates_merged_total",
		Help: "Merge decisions, labelled by outcome (inserted, kept, image_filled).",
	}, []string{"outcome"})

	EnrichedVideos = promauto.NewCounter(prometheus.CounterOpts{
		Name: "earthistory_enriched_videos_total",
		Help: "YouTube ids attached by the enrichment pass.",
	})

	GateViolations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "earthistory_license_violations_total",
		Help: "License violations found by the provenance gate.",
	})

	GateDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "earthistory_gate_decisions_total",
		Help: "Provenance gate outcomes (validated, rejected).",
	}, []string{"state"})

	QueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "earthistory_query_duration_seconds",
		Help:    "Wall time of a single catalog or topic query including retries.",
		Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"mode"})
)
