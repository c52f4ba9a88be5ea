package models

import (
	"strings"
	"time"
)

// Categories an event can be filed under
const (
	CategoryWar          = "war"
	CategoryPolitics     = "politics"
	CategoryCulture      = "culture"
	CategoryCivilization = "civilization"
	CategoryExploration  = "exploration"
	CategoryScience      = "science"
	CategoryTechnology   = "technology"
	CategoryReligion     = "religion"
	CategoryHistory      = "history"
)

// Categories lists every valid category, history last as the fallback
var Categories = []string{
	CategoryWar, CategoryPolitics, CategoryCulture, CategoryCivilization, CategoryExploration,
	CategoryScience, CategoryTechnology, CategoryReligion, CategoryHistory,
}

// PrecisionYear is the only precision graph records carry
const PrecisionYear = "year"

// MissingSummary replaces an absent description
const MissingSummary = "No description available."

// Provenance is the per-event attribution block
type Provenance struct {
	SourceID        string    `json:"sourceId"`
	SourceName      string    `json:"sourceName"`
	SourceURL       string    `json:"sourceUrl"`
	License         string    `json:"license"`
	AttributionText string    `json:"attributionText"`
	RetrievedAt     time.Time `json:"retrievedAt"`
}

// EventCandidate is a normalized event before it is admitted and stored
type EventCandidate struct {
	ID              string      `json:"id,omitempty"`
	SourceID        string      `json:"source_id,omitempty"`
	Title           string      `json:"title"`
	Summary         string      `json:"summary"`
	Category        string      `json:"category"`
	RegionName      *string     `json:"region_name"`
	PrecisionLevel  string      `json:"precision_level"`
	ConfidenceScore float64     `json:"confidence_score"`
	TimeStart       int         `json:"time_start"`
	TimeEnd         *int        `json:"time_end"`
	SourceURL       string      `json:"source_url"`
	Lat             float64     `json:"lat"`
	Lng             float64     `json:"lng"`
	ImageURL        *string     `json:"image_url"`
	WikipediaURL    *string     `json:"wikipedia_url"`
	YouTubeVideoID  *string     `json:"youtube_video_id"`
	License         string      `json:"license,omitempty"`
	Provenance      *Provenance `json:"provenance,omitempty"`

	// TypeLabel is the raw instance-of label the category was derived from
	TypeLabel string `json:"type_label,omitempty"`
}

// QID returns the Wikidata item id from SourceURL, or "" when it is not an entity URI
func (c EventCandidate) QID() string {
	i := strings.LastIndex(c.SourceURL, "/")
	if i < 0 {
		return ""
	}
	id := c.SourceURL[i+1:]
	if len(id) < 2 || id[0] != 'Q' {
		return ""
	}
	for _, r := range id[1:] {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return id
}

// HasImage reports whether an image URL is set
func (c EventCandidate) HasImage() bool {
	return c.ImageURL != nil && *c.ImageURL != ""
}

// HasVideo reports whether a YouTube id is set
func (c EventCandidate) HasVideo() bool {
	return c.YouTubeVideoID != nil && *c.YouTubeVideoID != ""
}

// Snapshot is the seed file: every source plus every event citing one of them
type Snapshot struct {
	Sources []SourceRecord   `json:"sources"`
	Events  []EventCandidate `json:"events"`
}

// StringPtr returns a pointer to s, or nil when s is empty
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
