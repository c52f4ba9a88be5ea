package normalize

import (
	"strings"

	"earthistory/internal/models"
)

// Rule maps a lowercase type label to a category
type Rule struct {
	Label    string
	Category string
}

// DefaultRules is the category table, in match priority order for substring lookups
var DefaultRules = []Rule{
	{"war", models.CategoryWar},
	{"battle", models.CategoryWar},
	{"siege", models.CategoryWar},
	{"military campaign", models.CategoryWar},
	{"conflict", models.CategoryWar},
	{"invasion", models.CategoryWar},
	{"military operation", models.CategoryWar},
	{"naval battle", models.CategoryWar},
	{"aerial bombing", models.CategoryWar},

	{"election", models.CategoryPolitics},
	{"treaty", models.CategoryPolitics},
	{"assassination", models.CategoryPolitics},
	{"coup d'état", models.CategoryPolitics},
	{"protest", models.CategoryPolitics},
	{"revolution", models.CategoryPolitics},
	{"diplomatic mission", models.CategoryPolitics},
	{"peace treaty", models.CategoryPolitics},

	{"painting", models.CategoryCulture},
	{"sculpture", models.CategoryCulture},
	{"novel", models.CategoryCulture},
	{"film", models.CategoryCulture},
	{"literary work", models.CategoryCulture},
	{"composition", models.CategoryCulture},
	{"museum", models.CategoryCulture},
	{"festival", models.CategoryCulture},
	{"world heritage site", models.CategoryCulture},

	{"city", models.CategoryCivilization},
	{"capital city", models.CategoryCivilization},
	{"archaeological site", models.CategoryCivilization},
	{"empire", models.CategoryCivilization},
	{"civilization", models.CategoryCivilization},
	{"dynasty", models.CategoryCivilization},

	{"discovery", models.CategoryExploration},
	{"expedition", models.CategoryExploration},
	{"first ascent", models.CategoryExploration},
	{"space mission", models.CategoryExploration},
	{"human spaceflight", models.CategoryExploration},
	{"voyage", models.CategoryExploration},

	{"scientific discovery", models.CategoryScience},
	{"invention", models.CategoryTechnology},
	{"technological development", models.CategoryTechnology},

	{"religion", models.CategoryReligion},
	{"religious movement", models.CategoryReligion},

	{"earthquake", models.CategoryHistory},
	{"volcanic eruption", models.CategoryHistory},
	{"epidemic", models.CategoryHistory},
	{"famine", models.CategoryHistory},
	{"flood", models.CategoryHistory},
	{"pandemic", models.CategoryHistory},
	{"disaster", models.CategoryHistory},
}

// Categorizer resolves type labels against an ordered rule list.
// An exact label match wins; otherwise the first rule whose label is contained
// in the type label; otherwise history.
type Categorizer struct {
	rules []Rule
	exact map[string]string
}

// NewCategorizer builds a categorizer; nil rules means DefaultRules
func NewCategorizer(rules []Rule) *Categorizer {
	if rules == nil {
		rules = DefaultRules
	}
	exact := make(map[string]string, len(rules))
	for _, r := range rules {
		if _, seen := exact[r.Label]; !seen {
			exact[r.Label] = r.Category
		}
	}
	return &Categorizer{rules: rules, exact: exact}
}

// Categorize returns the category for typeLabel
func (c *Categorizer) Categorize(typeLabel string) string {
	lower := strings.ToLower(strings.TrimSpace(typeLabel))
	if lower == "" {
		return models.CategoryHistory
	}
	if cat, ok := c.exact[lower]; ok {
		return cat
	}
	for _, r := range c.rules {
		if strings.Contains(lower, r.Label) {
			return r.Category
		}
	}
	return models.CategoryHistory
}
