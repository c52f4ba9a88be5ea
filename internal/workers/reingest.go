package workers

import (
	"context"
	"errors"
	"sync"
	"time"

	"earthistory/internal/ingest"
	"earthistory/internal/logger"
	"earthistory/internal/models"
	"earthistory/internal/provenance"
)

// BulkRunner runs one bulk ingestion
type BulkRunner interface {
	RunBulk(ctx context.Context, opts ingest.BulkOptions) (*ingest.BulkResult, error)
}

// RunRecorder records ingestion runs
type RunRecorder interface {
	Start(ctx context.Context, mode, topic string) (*models.IngestionRun, error)
	Finish(ctx context.Context, run *models.IngestionRun, status string, summary interface{}, runErr error) error
}

// ReingestConfig holds configuration for periodic re-ingestion
type ReingestConfig struct {
	Interval time.Duration      // How often to re-run the catalog
	Options  ingest.BulkOptions // Passed to every run
}

// ReingestWorker periodically re-runs the bulk catalog so new Wikidata items
// and images accumulate on top of the seed snapshot
type ReingestWorker struct {
	runner   BulkRunner
	runs     RunRecorder
	config   ReingestConfig
	log      *logger.Logger
	ticker   *time.Ticker
	stopChan chan bool
	stopOnce sync.Once

	mu       sync.RWMutex
	busy     bool
	lastRun  time.Time
	lastErr  error
	lastNew  int
	runCount int
}

// NewReingestWorker creates a new re-ingestion worker. runs may be nil.
func NewReingestWorker(runner BulkRunner, runs RunRecorder, config ReingestConfig, log *logger.Logger) *ReingestWorker {
	if log == nil {
		log = logger.NewNop()
	}
	return &ReingestWorker{
		runner:   runner,
		runs:     runs,
		config:   config,
		log:      log.With("worker", "reingest"),
		stopChan: make(chan bool),
	}
}

// Start begins the periodic process. An initial run starts immediately.
func (w *ReingestWorker) Start(ctx context.Context) {
	w.ticker = time.NewTicker(w.config.Interval)

	w.log.Info("🔄 Starting re-ingestion worker",
		"interval", w.config.Interval,
		"era", w.config.Options.Era,
		"images", w.config.Options.Images,
		"persist", w.config.Options.Persist)

	go w.RunOnce(ctx)

	go func() {
		for {
			select {
			case <-ctx.Done():
				w.log.Info("🛑 Re-ingestion worker stopping due to context cancellation")
				return
			case <-w.stopChan:
				w.log.Info("🛑 Re-ingestion worker stopping")
				return
			case <-w.ticker.C:
				w.RunOnce(ctx)
			}
		}
	}()
}

// Stop stops the worker
func (w *ReingestWorker) Stop() {
	if w.ticker != nil {
		w.ticker.Stop()
	}
	w.stopOnce.Do(func() { close(w.stopChan) })
	w.log.Info("✅ Re-ingestion worker stopped")
}

// RunOnce performs one bulk run. It returns false without running when a
// previous run is still in progress.
func (w *ReingestWorker) RunOnce(ctx context.Context) bool {
	if !w.Claim() {
		w.log.Warn("⏭️ Previous re-ingestion still running, skipping tick")
		return false
	}
	w.RunClaimed(ctx)
	return true
}

// Claim marks the worker busy and reports whether it was idle. A successful
// claim must be followed by RunClaimed, which releases it.
func (w *ReingestWorker) Claim() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.busy {
		return false
	}
	w.busy = true
	return true
}

// RunClaimed performs one bulk run for a worker already claimed with Claim
func (w *ReingestWorker) RunClaimed(ctx context.Context) {
	var run *models.IngestionRun
	if w.runs != nil {
		var err error
		if run, err = w.runs.Start(ctx, "bulk", w.config.Options.Era); err != nil {
			w.log.Warn("⚠️ Failed to record re-ingestion run", "error", err)
		}
	}

	started := time.Now()
	result, err := w.runner.RunBulk(ctx, w.config.Options)

	newRecords := 0
	if result != nil {
		newRecords = result.NewRecords
	}
	if err != nil {
		w.log.Error("❌ Error in periodic re-ingestion", "error", err, "duration", time.Since(started))
	} else {
		w.log.Info("✅ Re-ingestion complete", "new", newRecords, "total", result.Summary.Total, "duration", time.Since(started))
	}

	if run != nil {
		status := models.RunStatusCompleted
		switch {
		case errors.Is(err, provenance.ErrLicenseViolation):
			status = models.RunStatusRejected
		case err != nil:
			status = models.RunStatusFailed
		}
		var summary interface{}
		if result != nil {
			summary = result
		}
		if ferr := w.runs.Finish(context.WithoutCancel(ctx), run, status, summary, err); ferr != nil {
			w.log.Warn("⚠️ Failed to finish re-ingestion run", "error", ferr)
		}
	}

	w.mu.Lock()
	w.busy = false
	w.lastRun = started
	w.lastErr = err
	w.lastNew = newRecords
	w.runCount++
	w.mu.Unlock()
}

// GetStats returns statistics about the worker
func (w *ReingestWorker) GetStats() *ReingestStats {
	w.mu.RLock()
	defer w.mu.RUnlock()

	stats := &ReingestStats{
		Interval:   w.config.Interval.String(),
		Busy:       w.busy,
		Runs:       w.runCount,
		NewRecords: w.lastNew,
	}
	if !w.lastRun.IsZero() {
		last := w.lastRun
		stats.LastRun = &last
	}
	if w.lastErr != nil {
		stats.LastError = w.lastErr.Error()
	}
	return stats
}

// ReingestStats holds statistics about re-ingestion status
type ReingestStats struct {
	Interval   string     `json:"interval"`
	Busy       bool       `json:"busy"`
	Runs       int        `json:"runs"`
	LastRun    *time.Time `json:"last_run,omitempty"`
	NewRecords int        `json:"last_new_records"`
	LastError  string     `json:"last_error,omitempty"`
}
