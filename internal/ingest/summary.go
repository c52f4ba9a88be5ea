package ingest

import (
	"fmt"
	"sort"
	"strings"

	"earthistory/internal/models"
)

// CenturyCount is one bar of the century histogram; Century is the first year (e.g. 1800, -300)
type CenturyCount struct {
	Century int `json:"century"`
	Count   int `json:"count"`
}

// Summary is the coverage report printed after a run
type Summary struct {
	Total       int            `json:"total"`
	WithImage   int            `json:"with_image"`
	WithYouTube int            `json:"with_youtube"`
	Categories  map[string]int `json:"categories"`
	Centuries   []CenturyCount `json:"centuries"`
}

// CenturyOf floors year to its century start, so -250 is in -300
func CenturyOf(year int) int {
	c := year / 100
	if year%100 != 0 && year < 0 {
		c--
	}
	return c * 100
}

// Summarize counts media coverage, categories and the ten busiest centuries
func Summarize(cands []models.EventCandidate) Summary {
	s := Summary{Total: len(cands), Categories: map[string]int{}}
	centuries := map[int]int{}
	for _, c := range cands {
		if c.HasImage() {
			s.WithImage++
		}
		if c.HasVideo() {
			s.WithYouTube++
		}
		s.Categories[c.Category]++
		centuries[CenturyOf(c.TimeStart)]++
	}

	for century, count := range centuries {
		s.Centuries = append(s.Centuries, CenturyCount{Century: century, Count: count})
	}
	sort.Slice(s.Centuries, func(i, j int) bool {
		if s.Centuries[i].Count != s.Centuries[j].Count {
			return s.Centuries[i].Count > s.Centuries[j].Count
		}
		return s.Centuries[i].Century < s.Centuries[j].Century
	})
	if len(s.Centuries) > 10 {
		s.Centuries = s.Centuries[:10]
	}
	return s
}

// ImageCoverage returns the share of events with an image, in percent
func (s Summary) ImageCoverage() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.WithImage) / float64(s.Total) * 100
}

// String renders the summary for terminal output
func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total events:  %d\n", s.Total)
	fmt.Fprintf(&b, "With images:   %d (%.1f%%)\n", s.WithImage, s.ImageCoverage())
	fmt.Fprintf(&b, "With YouTube:  %d\n", s.WithYouTube)

	cats := make([]string, 0, len(s.Categories))
	for _, cat := range models.Categories {
		if n := s.Categories[cat]; n > 0 {
			cats = append(cats, fmt.Sprintf("%s=%d", cat, n))
		}
	}
	fmt.Fprintf(&b, "Categories:    %s\n", strings.Join(cats, " "))
	b.WriteString("Century distribution (top 10):\n")
	for _, c := range s.Centuries {
		fmt.Fprintf(&b, "  %ds: %d\n", c.Century, c.Count)
	}
	return b.String()
}
