package store

import (
	"context"
	"errors"
	"fmt"

	"earthistory/internal/logger"
	"earthistory/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TopicStore remembers Wikipedia category hierarchies found while suggesting topics
type TopicStore struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewTopicStore creates a topic store
func NewTopicStore(db *gorm.DB, log *logger.Logger) *TopicStore {
	if log == nil {
		log = logger.NewNop()
	}
	return &TopicStore{db: db, log: log.With("service", "TopicStore")}
}

// SaveTopicHierarchy upserts parent and inserts each child under it.
// Children that already exist keep their current parent.
func (s *TopicStore) SaveTopicHierarchy(ctx context.Context, parent string, children []string, lang string) error {
	if lang == "" {
		lang = "en"
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p := models.Topic{Name: parent, Language: lang}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}, {Name: "language"}},
			DoUpdates: clause.AssignmentColumns([]string{"updated_at"}),
		}).Omit(clause.Associations).Create(&p).Error; err != nil {
			return fmt.Errorf("failed to upsert topic %q: %w", parent, err)
		}

		var stored models.Topic
		if err := tx.Where("name = ? AND language = ?", parent, lang).First(&stored).Error; err != nil {
			return fmt.Errorf("failed to load topic %q: %w", parent, err)
		}

		for _, name := range children {
			if name == "" || name == parent {
				continue
			}
			child := models.Topic{Name: name, Language: lang, ParentID: &stored.ID}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}, {Name: "language"}},
				DoNothing: true,
			}).Omit(clause.Associations).Create(&child).Error; err != nil {
				return fmt.Errorf("failed to insert topic %q: %w", name, err)
			}
		}

		s.log.Info("🌳 saved topic hierarchy", "parent", parent, "children", len(children), "lang", lang)
		return nil
	})
}

// FindTopic returns the topic with name in lang, or nil when there is none
func (s *TopicStore) FindTopic(ctx context.Context, name, lang string) (*models.Topic, error) {
	var t models.Topic
	err := s.db.WithContext(ctx).Where("name = ? AND language = ?", name, lang).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Children returns up to ten child topic names of parentID
func (s *TopicStore) Children(ctx context.Context, parentID uuid.UUID) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).Model(&models.Topic{}).
		Where("parent_id = ?", parentID).
		Order("name").
		Limit(10).
		Pluck("name", &names).Error
	return names, err
}
