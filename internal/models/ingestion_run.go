package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Run statuses
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusRejected  = "rejected"
	RunStatusFailed    = "failed"
)

// IngestionRun records one bulk or topic ingestion and its outcome
type IngestionRun struct {
	ID         uuid.UUID      `json:"id" db:"id" gorm:"primaryKey;type:uuid"`
	Mode       string         `json:"mode" db:"mode" gorm:"not null"` // bulk, topic, batch
	Topic      string         `json:"topic,omitempty" db:"topic"`
	Status     string         `json:"status" db:"status" gorm:"not null;index"`
	Fetched    int            `json:"fetched" db:"fetched"`
	Inserted   int            `json:"inserted" db:"inserted"`
	Violations int            `json:"violations" db:"violations"`
	Error      string         `json:"error,omitempty" db:"error"`
	Summary    datatypes.JSON `json:"summary" db:"summary"`
	StartedAt  time.Time      `json:"started_at" db:"started_at"`
	FinishedAt *time.Time     `json:"finished_at" db:"finished_at"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at" gorm:"autoCreateTime"`
}

// TableName sets the table name for the IngestionRun model
func (IngestionRun) TableName() string {
	return "ingestion_runs"
}

// BeforeCreate assigns a primary key when the caller did not
func (r *IngestionRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
