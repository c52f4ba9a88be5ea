package ingest

import (
	"fmt"
	"os"
	"strings"

	"earthistory/internal/sparql"

	"gopkg.in/yaml.v3"
)

// CatalogEntry is one bounded bulk query. An empty Type means the broad occurrence sweep.
type CatalogEntry struct {
	Name  string `yaml:"name"`
	Type  string `yaml:"type,omitempty"`
	From  *int   `yaml:"from,omitempty"`
	To    *int   `yaml:"to,omitempty"`
	Limit int    `yaml:"limit"`
}

// Query renders the entry's SPARQL
func (e CatalogEntry) Query() (string, error) {
	if e.Type == "" {
		return sparql.BroadQuery(e.From, e.To, e.Limit), nil
	}
	return sparql.TypeQuery(e.Type, e.From, e.To, e.Limit)
}

// Catalog is the ordered list of bulk queries
type Catalog struct {
	Queries []CatalogEntry `yaml:"queries"`
}

func year(y int) *int { return sparql.Year(y) }

// DefaultCatalog partitions the graph by event type and era so each query stays
// inside the endpoint's execution budget.
func DefaultCatalog() *Catalog {
	return &Catalog{Queries: []CatalogEntry{
		// Wars and battles
		{Name: "Battles (ancient–medieval)", Type: "Q178561", To: year(1500), Limit: 400},
		{Name: "Battles (1500–1800)", Type: "Q178561", From: year(1500), To: year(1800), Limit: 400},
		{Name: "Battles (1800–present)", Type: "Q178561", From: year(1800), Limit: 400},
		{Name: "Wars", Type: "Q198", Limit: 300},
		{Name: "Sieges", Type: "Q188055", Limit: 200},

		// Politics
		{Name: "Treaties", Type: "Q131569", Limit: 300},
		{Name: "Revolutions", Type: "Q10931", Limit: 200},
		{Name: "Assassinations", Type: "Q3882219", Limit: 200},

		// Exploration
		{Name: "Expeditions", Type: "Q2401485", Limit: 200},
		{Name: "Space missions", Type: "Q5916", Limit: 300},

		// Culture and civilization
		{Name: "Archaeological sites", Type: "Q839954", Limit: 300},
		{Name: "World Heritage Sites", Type: "Q9259", Limit: 300},

		// Science and technology
		{Name: "Inventions", Type: "Q39546", Limit: 200},

		// Disasters
		{Name: "Earthquakes", Type: "Q7944", Limit: 300},
		{Name: "Volcanic eruptions", Type: "Q7692360", Limit: 200},

		// Religion (church buildings)
		{Name: "Religious events/buildings", Type: "Q16970", Limit: 200},

		// Broad sweeps by era
		{Name: "Events with images (ancient: <500)", To: year(500), Limit: 300},
		{Name: "Events with images (medieval: 500–1500)", From: year(500), To: year(1500), Limit: 400},
		{Name: "Events with images (early modern: 1500–1800)", From: year(1500), To: year(1800), Limit: 400},
		{Name: "Events with images (modern: 1800–1950)", From: year(1800), To: year(1950), Limit: 500},
		{Name: "Events with images (contemporary: 1950–present)", From: year(1950), Limit: 500},
	}}
}

// LoadCatalog reads a YAML catalog; an empty path returns DefaultCatalog
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}
	if len(c.Queries) == 0 {
		return nil, fmt.Errorf("catalog %s has no queries", path)
	}
	for i, e := range c.Queries {
		if strings.TrimSpace(e.Name) == "" {
			return nil, fmt.Errorf("catalog %s: query %d has no name", path, i)
		}
		if e.Type != "" && !sparql.ValidQID(e.Type) {
			return nil, fmt.Errorf("catalog %s: query %q: %w", path, e.Name, sparql.ErrInvalidEntityID)
		}
	}
	return &c, nil
}

// Filter keeps entries whose name contains era, case-insensitively. An empty era keeps all.
func (c *Catalog) Filter(era string) []CatalogEntry {
	era = strings.ToLower(strings.TrimSpace(era))
	if era == "" {
		return c.Queries
	}
	var out []CatalogEntry
	for _, e := range c.Queries {
		if strings.Contains(strings.ToLower(e.Name), era) {
			out = append(out, e)
		}
	}
	return out
}
