// Package merge deduplicates event candidates across queries.
//
// Candidates are keyed by source URL. The first candidate seen for a key is
// kept; later duplicates only fill in an image the kept entry lacks.
package merge

import (
	"time"

	"earthistory/internal/metrics"
	"earthistory/internal/models"
	"earthistory/internal/normalize"
)

// Outcome of adding one candidate
type Outcome int

const (
	Inserted Outcome = iota
	Kept
	ImageFilled
	Rejected // no source URL
)

func (o Outcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case Kept:
		return "kept"
	case ImageFilled:
		return "image_filled"
	default:
		return "rejected"
	}
}

// Stats counts outcomes of a Merge call
type Stats struct {
	Inserted    int
	Kept        int
	ImageFilled int
	Rejected    int
}

// Accumulator holds unique candidates in first-insertion order. It is owned by one run.
type Accumulator struct {
	index map[string]int
	items []models.EventCandidate
}

// NewAccumulator creates an empty accumulator
func NewAccumulator() *Accumulator {
	return &Accumulator{index: make(map[string]int)}
}

// Add merges one candidate
func (a *Accumulator) Add(c models.EventCandidate) Outcome {
	key := c.SourceURL
	if key == "" {
		return Rejected
	}
	i, exists := a.index[key]
	if !exists {
		a.index[key] = len(a.items)
		a.items = append(a.items, c)
		return Inserted
	}
	if !a.items[i].HasImage() && c.HasImage() {
		img := *c.ImageURL
		a.items[i].ImageURL = &img
		return ImageFilled
	}
	return Kept
}

// Merge adds candidates in order
func (a *Accumulator) Merge(cands []models.EventCandidate) Stats {
	var s Stats
	for _, c := range cands {
		outcome := a.Add(c)
		metrics.CandidatesMerged.WithLabelValues(outcome.String()).Inc()
		switch outcome {
		case Inserted:
			s.Inserted++
		case Kept:
			s.Kept++
		case ImageFilled:
			s.ImageFilled++
		case Rejected:
			s.Rejected++
		}
	}
	return s
}

// Seed pre-loads prior records that carry an image and are not noise, so re-runs
// accumulate on earlier enrichment. It returns the number of records seeded.
func (a *Accumulator) Seed(prior []models.EventCandidate, now time.Time) int {
	seeded := 0
	for _, c := range prior {
		if !c.HasImage() || normalize.IsNoise(c.Title, c.TimeStart, now) {
			continue
		}
		if a.Add(c) == Inserted {
			seeded++
		}
	}
	return seeded
}

// Len returns the number of unique candidates
func (a *Accumulator) Len() int {
	return len(a.items)
}

// Has reports whether sourceURL is already present
func (a *Accumulator) Has(sourceURL string) bool {
	_, ok := a.index[sourceURL]
	return ok
}

// Candidates returns a copy of the accumulated candidates in insertion order
func (a *Accumulator) Candidates() []models.EventCandidate {
	out := make([]models.EventCandidate, len(a.items))
	copy(out, a.items)
	return out
}

// Update replaces the candidates in place after an enrichment pass.
// Entries whose source URL is unknown are ignored.
func (a *Accumulator) Update(cands []models.EventCandidate) {
	for _, c := range cands {
		if i, ok := a.index[c.SourceURL]; ok {
			a.items[i] = c
		}
	}
}
