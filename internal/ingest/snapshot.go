package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"earthistory/internal/models"
	"earthistory/internal/provenance"
)

// LoadSnapshot reads a seed snapshot. A missing file returns an error satisfying os.IsNotExist.
func LoadSnapshot(path string) (*models.Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap models.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot %s: %w", path, err)
	}
	return &snap, nil
}

// WriteSnapshot atomically replaces the snapshot at path
func WriteSnapshot(path string, snap *models.Snapshot) error {
	return provenance.WriteJSONAtomic(path, snap)
}

// BuildSnapshot orders candidates by start year and assigns stable ids
// (wd-0, wd-1, ...) citing the Wikidata source.
func BuildSnapshot(cands []models.EventCandidate, retrievedAt time.Time) *models.Snapshot {
	events := make([]models.EventCandidate, len(cands))
	copy(events, cands)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].TimeStart < events[j].TimeStart
	})

	for i := range events {
		events[i].ID = fmt.Sprintf("wd-%d", i)
		events[i].SourceID = models.WikidataSourceID
		events[i].Provenance = nil
		if events[i].License == "" {
			events[i].License = "CC0"
		}
	}

	return &models.Snapshot{
		Sources: []models.SourceRecord{models.WikidataSource(retrievedAt)},
		Events:  events,
	}
}
