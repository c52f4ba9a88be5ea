package services

import (
	"context"
	"errors"
	"fmt"

	"earthistory/internal/ingest"
	"earthistory/internal/logger"
	"earthistory/internal/models"
	"earthistory/internal/provenance"
	"earthistory/internal/store"
	"earthistory/internal/wikidata"
)

// ErrNoEvents is returned when a confirmed topic yields no events
var ErrNoEvents = errors.New("no events found")

// devPreviewSize is how many events a dev-mode ingest echoes back
const devPreviewSize = 5

// TopicPipeline is the part of the ingestion pipeline topic requests use
type TopicPipeline interface {
	RunTopic(ctx context.Context, text string) (*ingest.TopicResult, error)
	FetchTopic(ctx context.Context, topic wikidata.Topic) (*ingest.TopicResult, error)
	Commit(ctx context.Context, cands []models.EventCandidate) (store.PersistResult, error)
	HasStore() bool
}

// RunRecorder records ingestion runs
type RunRecorder interface {
	Start(ctx context.Context, mode, topic string) (*models.IngestionRun, error)
	Finish(ctx context.Context, run *models.IngestionRun, status string, summary interface{}, runErr error) error
}

// IngestionService drives topic ingestion requests
type IngestionService struct {
	pipeline    TopicPipeline
	suggestions *SuggestionService
	runs        RunRecorder
	log         *logger.Logger
}

// NewIngestionService creates an IngestionService. runs may be nil.
func NewIngestionService(pipeline TopicPipeline, suggestions *SuggestionService, runs RunRecorder, log *logger.Logger) *IngestionService {
	if log == nil {
		log = logger.NewNop()
	}
	return &IngestionService{
		pipeline:    pipeline,
		suggestions: suggestions,
		runs:        runs,
		log:         log.With("service", "IngestionService"),
	}
}

// DevMode reports whether events cannot be persisted
func (s *IngestionService) DevMode() bool {
	return !s.pipeline.HasStore()
}

// Suggest returns alternative topics for text
func (s *IngestionService) Suggest(ctx context.Context, text string) []string {
	if s.suggestions == nil {
		manual, _ := ManualSuggestions(text)
		return manual
	}
	return s.suggestions.Suggest(ctx, text)
}

// PreviewEvent is the subset of a candidate shown before confirming
type PreviewEvent struct {
	Title        string  `json:"title"`
	Summary      string  `json:"summary"`
	TimeStart    int     `json:"timeStart"`
	TimeEnd      *int    `json:"timeEnd"`
	Category     string  `json:"category"`
	RegionName   *string `json:"regionName"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	WikipediaURL *string `json:"wikipediaUrl"`
	SourceURL    string  `json:"sourceUrl"`
}

func toPreview(cands []models.EventCandidate) []PreviewEvent {
	out := make([]PreviewEvent, 0, len(cands))
	for _, c := range cands {
		out = append(out, PreviewEvent{
			Title:        c.Title,
			Summary:      c.Summary,
			TimeStart:    c.TimeStart,
			TimeEnd:      c.TimeEnd,
			Category:     c.Category,
			RegionName:   c.RegionName,
			Lat:          c.Lat,
			Lng:          c.Lng,
			WikipediaURL: c.WikipediaURL,
			SourceURL:    c.SourceURL,
		})
	}
	return out
}

// PreviewResult lists a topic's events without writing anything
type PreviewResult struct {
	Message     string         `json:"message,omitempty"`
	QID         string         `json:"qid"`
	TopicLabel  string         `json:"topicLabel"`
	Events      []PreviewEvent `json:"events"`
	Suggestions []string       `json:"suggestions,omitempty"`
}

// Preview resolves text and returns its events. An empty result carries suggestions.
func (s *IngestionService) Preview(ctx context.Context, text string) (*PreviewResult, error) {
	res, err := s.pipeline.RunTopic(ctx, text)
	if err != nil {
		return nil, err
	}

	out := &PreviewResult{
		QID:        res.Topic.ID,
		TopicLabel: res.Topic.Label,
		Events:     toPreview(res.Candidates),
	}
	if len(res.Candidates) == 0 {
		out.Message = fmt.Sprintf("No events found for topic: %s", res.Topic.Label)
		out.Suggestions = s.Suggest(ctx, text)
	}
	return out, nil
}

// IngestResult reports a write
type IngestResult struct {
	Message     string         `json:"message"`
	QID         string         `json:"qid"`
	Scanned     int            `json:"scanned"`
	Inserted    int            `json:"inserted"`
	DevMode     bool           `json:"devMode,omitempty"`
	Events      []PreviewEvent `json:"events,omitempty"`
	Suggestions []string       `json:"suggestions,omitempty"`
}

// Confirm re-fetches qid's events so the write reflects current data, then gates and stores them
func (s *IngestionService) Confirm(ctx context.Context, text, qid string) (*IngestResult, error) {
	if s.DevMode() {
		return nil, ingest.ErrNoStore
	}

	run := s.startRun(ctx, "confirm", text)
	res, err := s.pipeline.FetchTopic(ctx, wikidata.Topic{ID: qid, Label: text})
	if err != nil {
		s.finishRun(ctx, run, nil, err)
		return nil, err
	}
	if len(res.Candidates) == 0 {
		s.finishRun(ctx, run, nil, ErrNoEvents)
		return nil, ErrNoEvents
	}

	persisted, err := s.pipeline.Commit(ctx, res.Candidates)
	s.finishRun(ctx, run, persisted, err)
	if err != nil {
		return nil, err
	}
	return &IngestResult{
		Message:  fmt.Sprintf("Successfully ingested %d events for topic: %s", persisted.Inserted, text),
		QID:      qid,
		Scanned:  len(res.Candidates),
		Inserted: persisted.Inserted,
	}, nil
}

// Ingest resolves, fetches and stores in one step. Without a database it
// returns a short preview instead.
func (s *IngestionService) Ingest(ctx context.Context, text string) (*IngestResult, error) {
	run := s.startRun(ctx, "topic", text)
	res, err := s.pipeline.RunTopic(ctx, text)
	if err != nil {
		s.finishRun(ctx, run, nil, err)
		return nil, err
	}

	if len(res.Candidates) == 0 {
		s.finishRun(ctx, run, nil, nil)
		return &IngestResult{
			Message:     fmt.Sprintf("No events found for topic: %s", res.Topic.Label),
			QID:         res.Topic.ID,
			Suggestions: s.Suggest(ctx, text),
		}, nil
	}

	if s.DevMode() {
		s.log.Warn("⚠️ database not available, events will not be persisted", "topic", text)
		preview := res.Candidates
		if len(preview) > devPreviewSize {
			preview = preview[:devPreviewSize]
		}
		s.finishRun(ctx, run, nil, nil)
		return &IngestResult{
			Message: fmt.Sprintf("[DEV MODE] Found %d events for topic: %s (not persisted to database)", len(res.Candidates), res.Topic.Label),
			QID:     res.Topic.ID,
			Scanned: len(res.Candidates),
			DevMode: true,
			Events:  toPreview(preview),
		}, nil
	}

	persisted, err := s.pipeline.Commit(ctx, res.Candidates)
	s.finishRun(ctx, run, persisted, err)
	if err != nil {
		return nil, err
	}
	return &IngestResult{
		Message:  fmt.Sprintf("Successfully ingested events for topic: %s", res.Topic.Label),
		QID:      res.Topic.ID,
		Scanned:  len(res.Candidates),
		Inserted: persisted.Inserted,
	}, nil
}

// BatchItem is the outcome of one topic in a batch
type BatchItem struct {
	Topic  string `json:"topic"`
	Events int    `json:"events"`
	Status string `json:"status"`
}

// BatchResult reports a batch ingestion
type BatchResult struct {
	Message       string      `json:"message"`
	TotalInserted int         `json:"totalInserted"`
	Results       []BatchItem `json:"results"`
}

// RunCounts reports the batch totals
func (r *BatchResult) RunCounts() (fetched, inserted, violations int) {
	return 0, r.TotalInserted, 0
}

// Batch ingests topics one after another; an empty list means CuratedTopics.
// A failing topic is recorded and the batch continues.
func (s *IngestionService) Batch(ctx context.Context, topics []string) (*BatchResult, error) {
	if s.DevMode() {
		return nil, ingest.ErrNoStore
	}
	if len(topics) == 0 {
		topics = CuratedTopics
	}

	s.log.Info("🚀 batch ingestion starting", "topics", len(topics))
	run := s.startRun(ctx, "batch", "")
	out := &BatchResult{Results: make([]BatchItem, 0, len(topics))}

	for _, topic := range topics {
		if err := ctx.Err(); err != nil {
			s.finishRun(ctx, run, out, err)
			return out, err
		}

		item := BatchItem{Topic: topic}
		res, err := s.pipeline.RunTopic(ctx, topic)
		switch {
		case errors.Is(err, ingest.ErrTopicNotFound):
			item.Status = "not_found"
		case err != nil:
			item.Status = "error: " + err.Error()
		default:
			persisted, err := s.pipeline.Commit(ctx, res.Candidates)
			if err != nil {
				item.Status = "error: " + err.Error()
				break
			}
			item.Events = persisted.Inserted
			item.Status = "ok"
			s.log.Info("→ topic ingested", "topic", topic, "inserted", persisted.Inserted)
		}

		out.TotalInserted += item.Events
		out.Results = append(out.Results, item)
	}

	out.Message = fmt.Sprintf("Batch ingestion complete: %d total events from %d topics", out.TotalInserted, len(topics))
	s.finishRun(ctx, run, out, nil)
	return out, nil
}

func (s *IngestionService) startRun(ctx context.Context, mode, topic string) *models.IngestionRun {
	if s.runs == nil {
		return nil
	}
	run, err := s.runs.Start(ctx, mode, topic)
	if err != nil {
		s.log.Warn("⚠️ failed to record ingestion run", "mode", mode, "error", err)
		return nil
	}
	return run
}

func (s *IngestionService) finishRun(ctx context.Context, run *models.IngestionRun, summary interface{}, runErr error) {
	if run == nil {
		return
	}
	status := models.RunStatusCompleted
	switch {
	case errors.Is(runErr, provenance.ErrLicenseViolation):
		status = models.RunStatusRejected
	case runErr != nil:
		status = models.RunStatusFailed
	}
	if err := s.runs.Finish(context.WithoutCancel(ctx), run, status, summary, runErr); err != nil {
		s.log.Warn("⚠️ failed to finish ingestion run", "run", run.ID, "error", err)
	}
}
