package services

import (
	"context"
	"strings"

	"earthistory/internal/logger"
)

// maxSuggestions caps the Wikipedia-derived suggestions returned to a caller
const maxSuggestions = 5

// CategoryLookup reads Wikipedia category structure
type CategoryLookup interface {
	FetchCategoryMembers(ctx context.Context, topic, lang string) ([]string, error)
	FetchPageCategories(ctx context.Context, topic, lang string) ([]string, error)
}

// HierarchySaver remembers parent/child topic pairs
type HierarchySaver interface {
	SaveTopicHierarchy(ctx context.Context, parent string, children []string, lang string) error
}

// SuggestionService proposes better topics when one yields no events
type SuggestionService struct {
	wiki   CategoryLookup
	topics HierarchySaver
	log    *logger.Logger
}

// NewSuggestionService creates a SuggestionService. topics may be nil when no database is configured.
func NewSuggestionService(wiki CategoryLookup, topics HierarchySaver, log *logger.Logger) *SuggestionService {
	if log == nil {
		log = logger.NewNop()
	}
	return &SuggestionService{
		wiki:   wiki,
		topics: topics,
		log:    log.With("service", "SuggestionService"),
	}
}

// ManualSuggestions returns curated hints for topic and the Wikipedia language to search in
func ManualSuggestions(topic string) ([]string, string) {
	lower := strings.ToLower(topic)
	switch {
	case containsAny(lower, "chinese", "中華", "中国", "中國"):
		return []string{"Tang Dynasty", "Ming Dynasty", "Qing Dynasty", "Han Dynasty", "Song Dynasty"}, "zh"
	case containsAny(lower, "culture", "文化"):
		return []string{"Try a specific dynasty or time period", "Try a specific historical event", "Try a specific war or empire"}, "en"
	case containsAny(lower, "european", "europe"):
		return []string{"Roman Empire", "Ancient Rome", "Ancient Greece", "Renaissance", "French Revolution"}, "en"
	default:
		return []string{"Try a more specific topic", "Try a historical event name", "Try a dynasty, empire, or time period"}, "en"
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Suggest tries Wikipedia sub-categories, then the page's own categories, and
// falls back to the curated hints. Wikipedia results are saved as a topic hierarchy.
func (s *SuggestionService) Suggest(ctx context.Context, topic string) []string {
	manual, lang := ManualSuggestions(topic)

	found, err := s.wiki.FetchCategoryMembers(ctx, topic, lang)
	if err != nil {
		s.log.Warn("⚠️ failed to fetch category members", "topic", topic, "error", err)
	}
	if len(found) == 0 {
		found, err = s.wiki.FetchPageCategories(ctx, topic, lang)
		if err != nil {
			s.log.Warn("⚠️ failed to fetch page categories", "topic", topic, "error", err)
		}
	}
	if len(found) == 0 {
		return manual
	}

	if s.topics != nil {
		if err := s.topics.SaveTopicHierarchy(ctx, topic, found, lang); err != nil {
			s.log.Warn("⚠️ failed to save topic hierarchy", "topic", topic, "error", err)
		} else {
			s.log.Info("🌳 saved topic hierarchy", "topic", topic, "children", len(found))
		}
	}

	if len(found) > maxSuggestions {
		found = found[:maxSuggestions]
	}
	return found
}
