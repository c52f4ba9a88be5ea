// Package enrich fills optional media fields on merged candidates.
package enrich

import (
	"context"
	"time"

	"earthistory/internal/logger"
	"earthistory/internal/metadata"
	"earthistory/internal/metrics"
	"earthistory/internal/models"
	"earthistory/internal/ratelimit"
	"earthistory/internal/sparql"
)

// QueryRunner executes a SPARQL query
type QueryRunner interface {
	RunQuery(ctx context.Context, query string) ([]sparql.Binding, error)
}

// SummaryFetcher looks up a Wikipedia page summary; nil means no such page
type SummaryFetcher interface {
	FetchPageSummary(ctx context.Context, title string) (*metadata.PageSummary, error)
}

// SleepFunc pauses between requests
type SleepFunc func(ctx context.Context, d time.Duration) error

// DefaultBatchSize is the number of items joined per YouTube query
const DefaultBatchSize = 50

// YouTubeEnricher attaches YouTube video ids (P1651) through batched VALUES queries
type YouTubeEnricher struct {
	runner    QueryRunner
	batchSize int
	delay     time.Duration
	sleep     SleepFunc
	log       *logger.Logger
}

// NewYouTubeEnricher creates an enricher; delay separates consecutive batches
func NewYouTubeEnricher(runner QueryRunner, batchSize int, delay time.Duration, log *logger.Logger) *YouTubeEnricher {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &YouTubeEnricher{
		runner:    runner,
		batchSize: batchSize,
		delay:     delay,
		sleep:     ratelimit.Sleep,
		log:       log.With("service", "YouTubeEnricher"),
	}
}

// SetSleep replaces the inter-batch sleep, used by tests
func (e *YouTubeEnricher) SetSleep(sleep SleepFunc) {
	e.sleep = sleep
}

// Enrich sets youtube_video_id on candidates that lack one and have a QID.
// Only that field is touched. A failed batch is logged and skipped.
// It returns the number of ids attached; the error is only non-nil when ctx is done.
func (e *YouTubeEnricher) Enrich(ctx context.Context, cands []models.EventCandidate) (int, error) {
	var need []int
	for i, c := range cands {
		if !c.HasVideo() && c.QID() != "" {
			need = append(need, i)
		}
	}
	if len(need) == 0 {
		return 0, nil
	}

	enriched := 0
	for start := 0; start < len(need); start += e.batchSize {
		end := start + e.batchSize
		if end > len(need) {
			end = len(need)
		}
		batch := need[start:end]

		if start > 0 && e.delay > 0 {
			if err := e.sleep(ctx, e.delay); err != nil {
				return enriched, err
			}
		}

		qids := make([]string, len(batch))
		for j, idx := range batch {
			qids[j] = cands[idx].QID()
		}

		rows, err := e.runner.RunQuery(ctx, sparql.YouTubeBatchQuery(qids))
		if err != nil {
			if ctx.Err() != nil {
				return enriched, ctx.Err()
			}
			e.log.Warn("⚠️ YouTube batch enrichment failed", "batch_start", start, "size", len(batch), "error", err)
			continue
		}

		byURI := make(map[string]string, len(rows))
		for _, row := range rows {
			uri, yt := row.Value("event"), row.Value("youtube")
			if uri != "" && yt != "" {
				if _, dup := byURI[uri]; !dup {
					byURI[uri] = yt
				}
			}
		}

		for _, idx := range batch {
			if yt, ok := byURI[cands[idx].SourceURL]; ok {
				cands[idx].YouTubeVideoID = models.StringPtr(yt)
				enriched++
			}
		}
	}

	metrics.EnrichedVideos.Add(float64(enriched))
	e.log.Info("🎬 YouTube enrichment complete", "candidates", len(need), "found", enriched)
	return enriched, nil
}
