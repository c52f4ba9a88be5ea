package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Event is a stored historical event. SourceURL, the Wikidata entity URI, is the natural key.
type Event struct {
	ID              uuid.UUID      `json:"id" db:"id" gorm:"primaryKey;type:uuid"`
	SourceID        uuid.UUID      `json:"source_id" db:"source_id" gorm:"type:uuid;not null;index"`
	Title           string         `json:"title" db:"title" gorm:"not null"`
	Summary         string         `json:"summary" db:"summary" gorm:"type:text;not null"`
	Category        string         `json:"category" db:"category" gorm:"not null;index"`
	RegionName      *string        `json:"region_name" db:"region_name"`
	PrecisionLevel  string         `json:"precision_level" db:"precision_level" gorm:"not null;default:'year'"`
	ConfidenceScore float64        `json:"confidence_score" db:"confidence_score" gorm:"not null;default:1"`
	TimeStart       int            `json:"time_start" db:"time_start" gorm:"not null;index"`
	TimeEnd         *int           `json:"time_end" db:"time_end"`
	Lat             float64        `json:"lat" db:"lat" gorm:"not null"`
	Lng             float64        `json:"lng" db:"lng" gorm:"not null"`
	SourceURL       string         `json:"source_url" db:"source_url" gorm:"not null;uniqueIndex"`
	ImageURL        *string        `json:"image_url" db:"image_url"`
	WikipediaURL    *string        `json:"wikipedia_url" db:"wikipedia_url"`
	YouTubeVideoID  *string        `json:"youtube_video_id" db:"youtube_video_id"`
	License         string         `json:"license" db:"license" gorm:"not null"`
	Tags            pq.StringArray `json:"tags" db:"tags" gorm:"type:text"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time      `json:"updated_at" db:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	Source Source `json:"source,omitempty" gorm:"foreignKey:SourceID"`
}

// TableName sets the table name for the Event model
func (Event) TableName() string {
	return "events"
}

// BeforeCreate assigns a primary key when the caller did not
func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
