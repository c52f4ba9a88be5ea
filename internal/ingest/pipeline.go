// Package ingest orchestrates bulk and topic ingestion runs: query, normalize,
// merge, enrich, gate and hand off to storage.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"earthistory/internal/enrich"
	"earthistory/internal/logger"
	"earthistory/internal/merge"
	"earthistory/internal/metrics"
	"earthistory/internal/models"
	"earthistory/internal/normalize"
	"earthistory/internal/provenance"
	"earthistory/internal/ratelimit"
	"earthistory/internal/sparql"
	"earthistory/internal/store"
	"earthistory/internal/wikidata"
)

var (
	// ErrTopicNotFound is returned when no search language resolves the topic
	ErrTopicNotFound = errors.New("topic not found on Wikidata")
	// ErrNoStore is returned when a write is requested without a database
	ErrNoStore = errors.New("database not available")
)

// Graph is the upstream the pipeline reads from
type Graph interface {
	RunQuery(ctx context.Context, query string) ([]sparql.Binding, error)
	ResolveTopic(ctx context.Context, text string) (wikidata.Topic, bool, error)
	FetchRelatedEvents(ctx context.Context, qid string, limit int) ([]sparql.Binding, error)
}

// Persister stores admitted output
type Persister interface {
	Persist(ctx context.Context, out *provenance.Output) (store.PersistResult, error)
}

// Options tunes a pipeline
type Options struct {
	QueryDelay time.Duration // between catalog queries
	TopicLimit int
	SeedPath   string
}

// Pipeline wires the ingestion stages together. Each run owns its accumulator.
type Pipeline struct {
	graph      Graph
	catalog    *Catalog
	normalizer *normalize.Normalizer
	youtube    *enrich.YouTubeEnricher
	images     *enrich.ImageEnricher
	gate       *provenance.Gate
	persister  Persister
	options    Options
	log        *logger.Logger

	now   func() time.Time
	sleep enrich.SleepFunc
}

// NewPipeline creates a pipeline. images and persister may be nil.
func NewPipeline(
	graph Graph,
	catalog *Catalog,
	normalizer *normalize.Normalizer,
	youtube *enrich.YouTubeEnricher,
	images *enrich.ImageEnricher,
	gate *provenance.Gate,
	persister Persister,
	options Options,
	log *logger.Logger,
) *Pipeline {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if options.TopicLimit <= 0 {
		options.TopicLimit = 500
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Pipeline{
		graph:      graph,
		catalog:    catalog,
		normalizer: normalizer,
		youtube:    youtube,
		images:     images,
		gate:       gate,
		persister:  persister,
		options:    options,
		log:        log.With("service", "IngestPipeline"),
		now:        time.Now,
		sleep:      ratelimit.Sleep,
	}
}

// SetClock replaces the clock and the inter-query sleep, used by tests
func (p *Pipeline) SetClock(now func() time.Time, sleep enrich.SleepFunc) {
	p.now = now
	p.sleep = sleep
	p.normalizer.SetNow(now)
}

// HasStore reports whether admitted events can be persisted
func (p *Pipeline) HasStore() bool {
	return p.persister != nil
}

// BulkOptions selects what a bulk run does
type BulkOptions struct {
	Era     string // keep only catalog entries whose name contains this
	DryRun  bool   // no files written, nothing persisted
	Images  bool   // run the Wikipedia image pass
	Persist bool   // hand admitted output to the store
}

// QueryReport is the outcome of one catalog query
type QueryReport struct {
	Name    string                       `json:"name"`
	Rows    int                          `json:"rows"`
	Added   int                          `json:"added"`
	Dropped map[normalize.SkipReason]int `json:"dropped,omitempty"`
	Error   string                       `json:"error,omitempty"`
}

// BulkResult describes a finished bulk run
type BulkResult struct {
	Seeded     int                  `json:"seeded"`
	NewRecords int                  `json:"new_records"`
	Queries    []QueryReport        `json:"queries"`
	Videos     int                  `json:"videos"`
	Images     enrich.ImageStats    `json:"images"`
	Summary    Summary              `json:"summary"`
	Decision   *provenance.Decision `json:"-"`
	Output     *provenance.Output   `json:"-"`
	Persisted  *store.PersistResult `json:"persisted,omitempty"`
}

// RunCounts reports rows fetched, records added (or stored, when persisted)
// and license violations
func (r *BulkResult) RunCounts() (fetched, inserted, violations int) {
	for _, q := range r.Queries {
		fetched += q.Rows
	}
	inserted = r.NewRecords
	if r.Persisted != nil {
		inserted = r.Persisted.Inserted
	}
	if r.Decision != nil {
		violations = len(r.Decision.Violations)
	}
	return fetched, inserted, violations
}

// RunBulk walks the catalog sequentially. A failed query is logged and skipped;
// each query's rows are merged before the next query starts.
func (p *Pipeline) RunBulk(ctx context.Context, opts BulkOptions) (*BulkResult, error) {
	result := &BulkResult{}
	started := p.now()
	acc := merge.NewAccumulator()

	prior, err := LoadSnapshot(p.options.SeedPath)
	switch {
	case err == nil:
		result.Seeded = acc.Seed(prior.Events, started)
		p.log.Info("📦 preserved existing image-bearing events", "count", result.Seeded)
	case os.IsNotExist(err) || p.options.SeedPath == "":
		p.log.Info("📦 no existing seed file, starting fresh")
	default:
		p.log.Warn("⚠️ ignoring unreadable seed file", "path", p.options.SeedPath, "error", err)
	}

	entries := p.catalog.Filter(opts.Era)
	for i, entry := range entries {
		if i > 0 && p.options.QueryDelay > 0 {
			if err := p.sleep(ctx, p.options.QueryDelay); err != nil {
				return result, err
			}
		}
		report, err := p.runEntry(ctx, entry, acc)
		if err != nil {
			return result, err
		}
		result.NewRecords += report.Added
		result.Queries = append(result.Queries, report)
	}

	cands := acc.Candidates()
	p.log.Info("🧮 merged candidates", "total", len(cands), "new", result.NewRecords)

	if p.youtube != nil {
		n, err := p.youtube.Enrich(ctx, cands)
		if err != nil {
			return result, err
		}
		result.Videos = n
	}
	if opts.Images && p.images != nil {
		stats, err := p.images.Enrich(ctx, cands)
		if err != nil {
			return result, err
		}
		result.Images = stats
	}
	acc.Update(cands)

	result.Summary = Summarize(cands)
	if opts.DryRun {
		p.log.Info("🧪 dry run complete, no files written")
		return result, nil
	}

	snap := BuildSnapshot(cands, started)
	if p.options.SeedPath != "" {
		if err := WriteSnapshot(p.options.SeedPath, snap); err != nil {
			return result, fmt.Errorf("failed to write seed snapshot: %w", err)
		}
		p.log.Info("📝 wrote seed snapshot", "events", len(snap.Events), "path", p.options.SeedPath)
	}

	out, err := provenance.BuildOutput(*snap, p.now())
	if err != nil {
		return result, err
	}
	result.Output = out

	decision, err := p.gate.Admit(out)
	result.Decision = &decision
	if err != nil {
		return result, err
	}

	if opts.Persist {
		if p.persister == nil {
			return result, ErrNoStore
		}
		persisted, err := p.persister.Persist(ctx, out)
		if err != nil {
			return result, err
		}
		result.Persisted = &persisted
	}
	return result, nil
}

func (p *Pipeline) runEntry(ctx context.Context, entry CatalogEntry, acc *merge.Accumulator) (QueryReport, error) {
	report := QueryReport{Name: entry.Name}
	p.log.Info("🔍 querying", "name", entry.Name)

	query, err := entry.Query()
	if err != nil {
		report.Error = err.Error()
		p.log.Error("❌ invalid catalog entry", "name", entry.Name, "error", err)
		return report, nil
	}

	start := time.Now()
	rows, err := p.graph.RunQuery(ctx, query)
	metrics.QueryDuration.WithLabelValues("bulk").Observe(time.Since(start).Seconds())
	if err != nil {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		report.Error = err.Error()
		p.log.Error("❌ query failed", "name", entry.Name, "error", err)
		return report, nil
	}

	cands, dropped := p.normalizer.NormalizeAll(rows)
	stats := acc.Merge(cands)

	report.Rows = len(rows)
	report.Added = stats.Inserted
	if len(dropped) > 0 {
		report.Dropped = dropped
	}
	p.log.Info("→ query complete", "name", entry.Name, "rows", len(rows), "new", stats.Inserted, "dropped", len(rows)-len(cands))
	return report, nil
}

// TopicResult is a resolved topic and its unique candidates
type TopicResult struct {
	Topic      wikidata.Topic               `json:"topic"`
	Rows       int                          `json:"rows"`
	Candidates []models.EventCandidate      `json:"candidates"`
	Dropped    map[normalize.SkipReason]int `json:"dropped,omitempty"`
}

// RunTopic resolves text to an item and fetches its related events.
// A query the endpoint refuses yields an empty result; exhausted retries are
// returned to the caller.
func (p *Pipeline) RunTopic(ctx context.Context, text string) (*TopicResult, error) {
	topic, found, err := p.graph.ResolveTopic(ctx, text)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %q", ErrTopicNotFound, text)
	}
	return p.FetchTopic(ctx, topic)
}

// FetchTopic fetches, normalizes and deduplicates the events of an already resolved item
func (p *Pipeline) FetchTopic(ctx context.Context, topic wikidata.Topic) (*TopicResult, error) {
	rows, err := p.graph.FetchRelatedEvents(ctx, topic.ID, p.options.TopicLimit)
	if errors.Is(err, wikidata.ErrNoData) {
		p.log.Warn("⚠️ topic query refused, treating as no data", "topic", topic.Label, "qid", topic.ID, "error", err)
		return &TopicResult{Topic: topic, Candidates: []models.EventCandidate{}}, nil
	}
	if err != nil {
		return nil, err
	}

	cands, dropped := p.normalizer.NormalizeAll(rows)
	acc := merge.NewAccumulator()
	acc.Merge(cands)

	result := &TopicResult{
		Topic:      topic,
		Rows:       len(rows),
		Candidates: acc.Candidates(),
	}
	if len(dropped) > 0 {
		result.Dropped = dropped
	}
	p.log.Info("📥 topic fetched", "topic", topic.Label, "qid", topic.ID, "rows", len(rows), "events", len(result.Candidates))
	return result, nil
}

// Commit gates candidates on license and hands them to the store. Nothing is
// written when any candidate is rejected.
func (p *Pipeline) Commit(ctx context.Context, cands []models.EventCandidate) (store.PersistResult, error) {
	if p.persister == nil {
		return store.PersistResult{}, ErrNoStore
	}

	snap := BuildSnapshot(cands, p.now())
	out, err := provenance.BuildOutput(*snap, p.now())
	if err != nil {
		return store.PersistResult{}, err
	}

	decision := p.gate.Validate(out)
	if decision.State != provenance.Validated {
		return store.PersistResult{}, fmt.Errorf("%w: %d event(s) rejected", provenance.ErrLicenseViolation, len(decision.Violations))
	}
	return p.persister.Persist(ctx, out)
}
