package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Topic is a Wikipedia category remembered from suggestion lookups.
// Subcategories point at their parent through ParentID.
type Topic struct {
	ID        uuid.UUID  `json:"id" db:"id" gorm:"primaryKey;type:uuid"`
	Name      string     `json:"name" db:"name" gorm:"not null;uniqueIndex:idx_topics_name_language"`
	Language  string     `json:"language" db:"language" gorm:"not null;default:'en';uniqueIndex:idx_topics_name_language"`
	EntityID  *string    `json:"entity_id" db:"entity_id"`
	ParentID  *uuid.UUID `json:"parent_id" db:"parent_id" gorm:"type:uuid;index"`
	CreatedAt time.Time  `json:"created_at" db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	Children []Topic `json:"children,omitempty" gorm:"foreignKey:ParentID"`
}

// TableName sets the table name for the Topic model
func (Topic) TableName() string {
	return "topics"
}

// BeforeCreate assigns a primary key when the caller did not
func (t *Topic) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
