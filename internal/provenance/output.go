// Package provenance builds the normalized event output and gates it on license.
package provenance

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"earthistory/internal/models"
)

// ErrMissingField is returned when a snapshot record lacks a required field
var ErrMissingField = errors.New("missing required field")

// ProvenanceFields lists the keys every event's provenance block carries
var ProvenanceFields = []string{
	"sourceId", "sourceName", "sourceUrl", "license", "attributionText", "retrievedAt",
}

// Source is a normalized source record
type Source struct {
	ID              string    `json:"id"`
	SourceName      string    `json:"sourceName"`
	SourceURL       string    `json:"sourceUrl"`
	License         string    `json:"license"`
	AttributionText string    `json:"attributionText"`
	RetrievedAt     time.Time `json:"retrievedAt"`
}

// Event is a normalized event with its provenance attached
type Event struct {
	ID              string             `json:"id"`
	Title           string             `json:"title"`
	Summary         string             `json:"summary"`
	Category        string             `json:"category"`
	RegionName      string             `json:"regionName"`
	PrecisionLevel  string             `json:"precisionLevel"`
	ConfidenceScore float64            `json:"confidenceScore"`
	TimeStart       int                `json:"timeStart"`
	TimeEnd         *int               `json:"timeEnd"`
	SourceID        string             `json:"sourceId"`
	SourceURL       string             `json:"sourceUrl"`
	Lat             float64            `json:"lat"`
	Lng             float64            `json:"lng"`
	ImageURL        *string            `json:"imageUrl"`
	WikipediaURL    *string            `json:"wikipediaUrl"`
	YouTubeVideoID  *string            `json:"youtubeVideoId"`
	License         string             `json:"license"`
	Tags            []string           `json:"tags,omitempty"`
	Provenance      *models.Provenance `json:"provenance"`
}

// Output is the normalized artifact handed to storage
type Output struct {
	GeneratedAt      time.Time `json:"generatedAt"`
	Sources          []Source  `json:"sources"`
	ProvenanceFields []string  `json:"provenanceFields"`
	Events           []Event   `json:"events"`
}

func requireField(value, name, record string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s (%s)", ErrMissingField, name, record)
	}
	return nil
}

func normalizeSource(s models.SourceRecord) (Source, error) {
	record := "source id=" + s.ID
	for _, f := range []struct{ value, name string }{
		{s.SourceName, "source_name"},
		{s.SourceURL, "source_url"},
		{s.License, "license"},
		{s.AttributionText, "attribution_text"},
	} {
		if err := requireField(f.value, f.name, record); err != nil {
			return Source{}, err
		}
	}
	if s.RetrievedAt.IsZero() {
		return Source{}, fmt.Errorf("%w: retrieved_at (%s)", ErrMissingField, record)
	}
	return Source{
		ID:              s.ID,
		SourceName:      strings.TrimSpace(s.SourceName),
		SourceURL:       strings.TrimSpace(s.SourceURL),
		License:         strings.TrimSpace(s.License),
		AttributionText: strings.TrimSpace(s.AttributionText),
		RetrievedAt:     s.RetrievedAt,
	}, nil
}

func normalizeEvent(e models.EventCandidate) (Event, error) {
	record := "event id=" + e.ID
	for _, f := range []struct{ value, name string }{
		{e.Title, "title"},
		{e.Summary, "summary"},
		{e.Category, "category"},
		{e.PrecisionLevel, "precision_level"},
		{e.SourceID, "source_id"},
	} {
		if err := requireField(f.value, f.name, record); err != nil {
			return Event{}, err
		}
	}

	region := ""
	if e.RegionName != nil {
		region = strings.TrimSpace(*e.RegionName)
	}
	var tags []string
	if label := strings.TrimSpace(e.TypeLabel); label != "" {
		tags = []string{label}
	}
	return Event{
		ID:              e.ID,
		Title:           strings.TrimSpace(e.Title),
		Summary:         strings.TrimSpace(e.Summary),
		Category:        strings.TrimSpace(e.Category),
		RegionName:      region,
		PrecisionLevel:  e.PrecisionLevel,
		ConfidenceScore: e.ConfidenceScore,
		TimeStart:       e.TimeStart,
		TimeEnd:         e.TimeEnd,
		SourceID:        e.SourceID,
		SourceURL:       strings.TrimSpace(e.SourceURL),
		Lat:             e.Lat,
		Lng:             e.Lng,
		ImageURL:        e.ImageURL,
		WikipediaURL:    e.WikipediaURL,
		YouTubeVideoID:  e.YouTubeVideoID,
		License:         strings.TrimSpace(e.License),
		Tags:            tags,
	}, nil
}

// BuildOutput normalizes a snapshot and attaches each event's source provenance.
// Structural problems (missing required fields) are errors; an event whose source
// is unknown keeps a nil provenance and is rejected by the gate. An event without
// its own license inherits its source's.
func BuildOutput(snap models.Snapshot, generatedAt time.Time) (*Output, error) {
	out := &Output{
		GeneratedAt:      generatedAt.UTC(),
		Sources:          make([]Source, 0, len(snap.Sources)),
		ProvenanceFields: ProvenanceFields,
		Events:           make([]Event, 0, len(snap.Events)),
	}

	byID := make(map[string]Source, len(snap.Sources))
	for _, s := range snap.Sources {
		ns, err := normalizeSource(s)
		if err != nil {
			return nil, err
		}
		out.Sources = append(out.Sources, ns)
		byID[ns.ID] = ns
	}

	for _, e := range snap.Events {
		ne, err := normalizeEvent(e)
		if err != nil {
			return nil, err
		}
		if src, ok := byID[ne.SourceID]; ok {
			ne.Provenance = &models.Provenance{
				SourceID:        src.ID,
				SourceName:      src.SourceName,
				SourceURL:       src.SourceURL,
				License:         src.License,
				AttributionText: src.AttributionText,
				RetrievedAt:     src.RetrievedAt,
			}
			if ne.License == "" {
				ne.License = src.License
			}
		}
		out.Events = append(out.Events, ne)
	}

	return out, nil
}
