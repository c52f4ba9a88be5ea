package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Source is the stored provenance record every event points to
type Source struct {
	ID              uuid.UUID `json:"id" db:"id" gorm:"primaryKey;type:uuid"`
	SourceName      string    `json:"source_name" db:"source_name" gorm:"not null;uniqueIndex:idx_sources_name_url"`
	SourceURL       string    `json:"source_url" db:"source_url" gorm:"not null;uniqueIndex:idx_sources_name_url"`
	License         string    `json:"license" db:"license" gorm:"not null"`
	AttributionText string    `json:"attribution_text" db:"attribution_text" gorm:"not null"`
	RetrievedAt     time.Time `json:"retrieved_at" db:"retrieved_at"`
	CreatedAt       time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	Events []Event `json:"events,omitempty" gorm:"foreignKey:SourceID"`
}

// TableName sets the table name for the Source model
func (Source) TableName() string {
	return "sources"
}

// BeforeCreate assigns a primary key when the caller did not
func (s *Source) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// SourceRecord is a source as it appears in the seed snapshot
type SourceRecord struct {
	ID              string    `json:"id"`
	SourceName      string    `json:"source_name"`
	SourceURL       string    `json:"source_url"`
	License         string    `json:"license"`
	AttributionText string    `json:"attribution_text"`
	RetrievedAt     time.Time `json:"retrieved_at"`
}

// Provenance returns the provenance block for events citing this source
func (s SourceRecord) Provenance() Provenance {
	return Provenance{
		SourceID:        s.ID,
		SourceName:      s.SourceName,
		SourceURL:       s.SourceURL,
		License:         s.License,
		AttributionText: s.AttributionText,
		RetrievedAt:     s.RetrievedAt,
	}
}

// WikidataSourceID is the snapshot id of the Wikidata source
const WikidataSourceID = "wikidata-source"

// WikidataSource describes Wikidata, whose content is CC0
func WikidataSource(retrievedAt time.Time) SourceRecord {
	return SourceRecord{
		ID:              WikidataSourceID,
		SourceName:      "Wikidata",
		SourceURL:       "https://www.wikidata.org/",
		License:         "CC0",
		AttributionText: "Data from Wikidata",
		RetrievedAt:     retrievedAt.UTC(),
	}
}
