// Package store persists admitted events, topic hierarchies and run records through gorm.
package store

import (
	"context"
	"fmt"
	"time"

	"earthistory/internal/logger"
	"earthistory/internal/models"
	"earthistory/internal/provenance"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const insertBatchSize = 100

// EventStore writes sources and events
type EventStore struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewEventStore creates an event store
func NewEventStore(db *gorm.DB, log *logger.Logger) *EventStore {
	if log == nil {
		log = logger.NewNop()
	}
	return &EventStore{db: db, log: log.With("service", "EventStore")}
}

// PersistResult counts what a hand-off wrote
type PersistResult struct {
	Sources  int `json:"sources"`
	Scanned  int `json:"scanned"`
	Inserted int `json:"inserted"`
}

// EnsureSource upserts a source by (source_name, source_url), refreshing its
// license, attribution and retrieval time, and returns the stored row.
func (s *EventStore) EnsureSource(ctx context.Context, rec provenance.Source) (*models.Source, error) {
	row := models.Source{
		SourceName:      rec.SourceName,
		SourceURL:       rec.SourceURL,
		License:         rec.License,
		AttributionText: rec.AttributionText,
		RetrievedAt:     rec.RetrievedAt,
	}
	if row.RetrievedAt.IsZero() {
		row.RetrievedAt = time.Now().UTC()
	}

	db := s.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source_name"}, {Name: "source_url"}},
		DoUpdates: clause.AssignmentColumns([]string{"license", "attribution_text", "retrieved_at", "updated_at"}),
	}).Omit(clause.Associations).Create(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert source %q: %w", rec.SourceName, err)
	}

	var stored models.Source
	if err := db.Where("source_name = ? AND source_url = ?", rec.SourceName, rec.SourceURL).First(&stored).Error; err != nil {
		return nil, fmt.Errorf("failed to load source %q: %w", rec.SourceName, err)
	}
	return &stored, nil
}

// UpsertEvents inserts events for one stored source, skipping any whose
// source_url already exists. It returns the number of rows inserted.
func (s *EventStore) UpsertEvents(ctx context.Context, sourceID uuid.UUID, events []provenance.Event) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}
	rows := make([]models.Event, 0, len(events))
	for _, e := range events {
		rows = append(rows, toModel(sourceID, e))
	}

	var inserted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "source_url"}},
			DoNothing: true,
		}).Omit(clause.Associations).CreateInBatches(&rows, insertBatchSize)
		if res.Error != nil {
			return res.Error
		}
		inserted = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to insert events: %w", err)
	}
	return int(inserted), nil
}

// Persist hands an admitted output to the database: every source is ensured,
// then each source's events are inserted.
func (s *EventStore) Persist(ctx context.Context, out *provenance.Output) (PersistResult, error) {
	result := PersistResult{Scanned: len(out.Events)}

	stored := make(map[string]uuid.UUID, len(out.Sources))
	for _, src := range out.Sources {
		row, err := s.EnsureSource(ctx, src)
		if err != nil {
			return result, err
		}
		stored[src.ID] = row.ID
		result.Sources++
	}

	bySource := make(map[string][]provenance.Event)
	var order []string
	for _, e := range out.Events {
		if _, ok := stored[e.SourceID]; !ok {
			return result, fmt.Errorf("event %s cites unknown source %q", e.ID, e.SourceID)
		}
		if _, seen := bySource[e.SourceID]; !seen {
			order = append(order, e.SourceID)
		}
		bySource[e.SourceID] = append(bySource[e.SourceID], e)
	}

	for _, id := range order {
		n, err := s.UpsertEvents(ctx, stored[id], bySource[id])
		if err != nil {
			return result, err
		}
		result.Inserted += n
	}

	s.log.Info("💾 persisted events", "sources", result.Sources, "scanned", result.Scanned, "inserted", result.Inserted)
	return result, nil
}

// RunCounts reports the persisted totals of a run
func (r PersistResult) RunCounts() (fetched, inserted, violations int) {
	return r.Scanned, r.Inserted, 0
}

// Count returns the number of stored events
func (s *EventStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Event{}).Count(&n).Error
	return n, err
}

func toModel(sourceID uuid.UUID, e provenance.Event) models.Event {
	license := e.License
	if license == "" && e.Provenance != nil {
		license = e.Provenance.License
	}
	return models.Event{
		SourceID:        sourceID,
		Title:           e.Title,
		Summary:         e.Summary,
		Category:        e.Category,
		RegionName:      models.StringPtr(e.RegionName),
		PrecisionLevel:  e.PrecisionLevel,
		ConfidenceScore: e.ConfidenceScore,
		TimeStart:       e.TimeStart,
		TimeEnd:         e.TimeEnd,
		Lat:             e.Lat,
		Lng:             e.Lng,
		SourceURL:       e.SourceURL,
		ImageURL:        e.ImageURL,
		WikipediaURL:    e.WikipediaURL,
		YouTubeVideoID:  e.YouTubeVideoID,
		License:         license,
		Tags:            pq.StringArray(e.Tags),
	}
}
