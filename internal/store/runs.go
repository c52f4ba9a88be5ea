package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"earthistory/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RunStore records ingestion runs
type RunStore struct {
	db *gorm.DB
}

// NewRunStore creates a run store
func NewRunStore(db *gorm.DB) *RunStore {
	return &RunStore{db: db}
}

// Start inserts a running record
func (s *RunStore) Start(ctx context.Context, mode, topic string) (*models.IngestionRun, error) {
	run := &models.IngestionRun{
		Mode:      mode,
		Topic:     topic,
		Status:    models.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}
	return run, nil
}

// RunCounter is implemented by run summaries that carry totals
type RunCounter interface {
	RunCounts() (fetched, inserted, violations int)
}

// Finish stores the outcome of run. summary is encoded as JSON and, when it
// is a RunCounter, also fills the count columns.
func (s *RunStore) Finish(ctx context.Context, run *models.IngestionRun, status string, summary interface{}, runErr error) error {
	now := time.Now().UTC()
	run.Status = status
	run.FinishedAt = &now
	if runErr != nil {
		run.Error = runErr.Error()
	}
	if c, ok := summary.(RunCounter); ok {
		run.Fetched, run.Inserted, run.Violations = c.RunCounts()
	}
	if summary != nil {
		raw, err := json.Marshal(summary)
		if err != nil {
			return fmt.Errorf("failed to encode run summary: %w", err)
		}
		run.Summary = datatypes.JSON(raw)
	}
	return s.db.WithContext(ctx).Save(run).Error
}

// Recent returns the latest runs, newest first
func (s *RunStore) Recent(ctx context.Context, limit int) ([]models.IngestionRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []models.IngestionRun
	err := s.db.WithContext(ctx).Order("started_at DESC").Limit(limit).Find(&runs).Error
	return runs, err
}

// Get returns one run
func (s *RunStore) Get(ctx context.Context, id string) (*models.IngestionRun, error) {
	var run models.IngestionRun
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&run).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}
