// Package normalize turns SPARQL result rows into event candidates.
package normalize

import (
	"strings"
	"time"

	"earthistory/internal/metrics"
	"earthistory/internal/models"
	"earthistory/internal/sparql"
)

// SkipReason says why a row was dropped; empty means it was kept
type SkipReason string

const (
	Kept          SkipReason = ""
	SkipNoTitle   SkipReason = "no_title"
	SkipBadCoords SkipReason = "bad_coordinates"
	SkipBadYear   SkipReason = "bad_year"
	SkipNoEntity  SkipReason = "no_entity"
	SkipNoise     SkipReason = "noise"
)

// Normalizer converts bindings, stamping the license of the source they came from
type Normalizer struct {
	categorizer *Categorizer
	license     string
	now         func() time.Time
}

// NewNormalizer creates a normalizer; a nil categorizer uses DefaultRules
func NewNormalizer(categorizer *Categorizer, license string) *Normalizer {
	if categorizer == nil {
		categorizer = NewCategorizer(nil)
	}
	return &Normalizer{categorizer: categorizer, license: license, now: time.Now}
}

// SetNow pins the ingestion clock used by the noise filter
func (n *Normalizer) SetNow(now func() time.Time) {
	n.now = now
}

// Normalize converts one binding. Variables read: event, eventLabel,
// eventDescription, date, endDate, coord, article, image, typeLabel,
// countryLabel, youtube.
func (n *Normalizer) Normalize(b sparql.Binding) (models.EventCandidate, SkipReason) {
	uri := b.Value("event")
	if uri == "" {
		return models.EventCandidate{}, SkipNoEntity
	}

	title := b.Value("eventLabel")
	// The label service echoes the QID when no label exists in any requested language
	if title == "" || title == sparql.QIDFromURI(uri) {
		return models.EventCandidate{}, SkipNoTitle
	}

	lat, lng, ok := ParsePoint(b.Value("coord"))
	if !ok {
		return models.EventCandidate{}, SkipBadCoords
	}

	year, ok := ParseYear(b.Value("date"))
	if !ok {
		return models.EventCandidate{}, SkipBadYear
	}

	if IsNoise(title, year, n.now()) {
		return models.EventCandidate{}, SkipNoise
	}

	var end *int
	if y, ok := ParseYear(b.Value("endDate")); ok {
		end = &y
	}

	summary := b.Value("eventDescription")
	if summary == "" {
		summary = models.MissingSummary
	}

	typeLabel := b.Value("typeLabel")
	return models.EventCandidate{
		Title:           title,
		Summary:         summary,
		Category:        n.categorizer.Categorize(typeLabel),
		RegionName:      models.StringPtr(b.Value("countryLabel")),
		PrecisionLevel:  models.PrecisionYear,
		ConfidenceScore: 1,
		TimeStart:       year,
		TimeEnd:         end,
		SourceURL:       uri,
		Lat:             lat,
		Lng:             lng,
		ImageURL:        models.StringPtr(b.Value("image")),
		WikipediaURL:    models.StringPtr(b.Value("article")),
		YouTubeVideoID:  models.StringPtr(b.Value("youtube")),
		License:         n.license,
		TypeLabel:       typeLabel,
	}, Kept
}

// NormalizeAll converts rows in order, dropping the ones that fail and counting why
func (n *Normalizer) NormalizeAll(rows []sparql.Binding) ([]models.EventCandidate, map[SkipReason]int) {
	out := make([]models.EventCandidate, 0, len(rows))
	dropped := make(map[SkipReason]int)
	for _, row := range rows {
		c, reason := n.Normalize(row)
		if reason != Kept {
			dropped[reason]++
			metrics.RowsDropped.WithLabelValues(string(reason)).Inc()
			continue
		}
		out = append(out, c)
	}
	return out, dropped
}

// IsNoise flags mechanically predicted solar eclipses dated after now
func IsNoise(title string, year int, now time.Time) bool {
	return strings.Contains(strings.ToLower(title), "solar eclipse") && year > now.Year()
}
