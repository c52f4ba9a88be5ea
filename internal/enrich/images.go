package enrich

import (
	"context"
	"net/url"
	"strings"
	"time"

	"earthistory/internal/logger"
	"earthistory/internal/models"
	"earthistory/internal/ratelimit"
)

// ImageStats summarizes an image enrichment pass
type ImageStats struct {
	Enriched int
	Skipped  int
	Missing  int
}

// ImageEnricher fills missing images from Wikipedia page summaries
type ImageEnricher struct {
	summaries SummaryFetcher
	delay     time.Duration
	sleep     SleepFunc
	log       *logger.Logger
}

// NewImageEnricher creates an image enricher; delay separates page lookups
func NewImageEnricher(summaries SummaryFetcher, delay time.Duration, log *logger.Logger) *ImageEnricher {
	if log == nil {
		log = logger.NewNop()
	}
	return &ImageEnricher{
		summaries: summaries,
		delay:     delay,
		sleep:     ratelimit.Sleep,
		log:       log.With("service", "ImageEnricher"),
	}
}

// SetSleep replaces the inter-lookup sleep, used by tests
func (e *ImageEnricher) SetSleep(sleep SleepFunc) {
	e.sleep = sleep
}

// PageTitle picks the Wikipedia title to look up: the linked article when
// there is one, the event title otherwise.
func PageTitle(c models.EventCandidate) string {
	if c.WikipediaURL != nil {
		if u, err := url.Parse(*c.WikipediaURL); err == nil {
			if i := strings.Index(u.Path, "/wiki/"); i >= 0 {
				if title := u.Path[i+len("/wiki/"):]; title != "" {
					return strings.ReplaceAll(title, "_", " ")
				}
			}
		}
	}
	return c.Title
}

// Enrich looks up every candidate without an image. An image is only ever
// added, never replaced; the article link and placeholder summary are filled
// when they are empty.
func (e *ImageEnricher) Enrich(ctx context.Context, cands []models.EventCandidate) (ImageStats, error) {
	var stats ImageStats
	looked := 0
	for i := range cands {
		c := &cands[i]
		if c.HasImage() {
			stats.Skipped++
			continue
		}

		if looked > 0 && e.delay > 0 {
			if err := e.sleep(ctx, e.delay); err != nil {
				return stats, err
			}
		}
		looked++

		title := PageTitle(*c)
		summary, err := e.summaries.FetchPageSummary(ctx, title)
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			e.log.Warn("⚠️ page summary lookup failed", "title", title, "error", err)
			stats.Missing++
			continue
		}
		if summary == nil || summary.ImageURL == "" {
			stats.Missing++
			continue
		}

		c.ImageURL = models.StringPtr(summary.ImageURL)
		if c.WikipediaURL == nil && summary.PageURL != "" {
			c.WikipediaURL = models.StringPtr(summary.PageURL)
		}
		if c.Summary == models.MissingSummary && summary.Extract != "" {
			c.Summary = summary.Extract
		}
		stats.Enriched++
	}

	e.log.Info("🖼️ image enrichment complete", "enriched", stats.Enriched, "skipped", stats.Skipped, "missing", stats.Missing)
	return stats, nil
}
