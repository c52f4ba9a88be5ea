package provenance

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"earthistory/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var retrieved = time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

func event(n int, sourceID string) models.EventCandidate {
	return models.EventCandidate{
		ID:             fmt.Sprintf("wd-%d", n),
		SourceID:       sourceID,
		Title:          fmt.Sprintf(" Event %d ", n),
		Summary:        models.MissingSummary,
		Category:       models.CategoryWar,
		PrecisionLevel: models.PrecisionYear,
		TimeStart:      1000 + n,
		SourceURL:      fmt.Sprintf("http://www.wikidata.org/entity/Q%d", n),
	}
}

func snapshotWithBadSource(total, bad int) models.Snapshot {
	snap := models.Snapshot{
		Sources: []models.SourceRecord{
			models.WikidataSource(retrieved),
			{ID: "blog", SourceName: "Some blog", SourceURL: "https://blog.example", License: "All rights reserved", AttributionText: "Blog", RetrievedAt: retrieved},
		},
	}
	for i := 1; i <= total; i++ {
		src := models.WikidataSourceID
		if i <= bad {
			src = "blog"
		}
		snap.Events = append(snap.Events, event(i, src))
	}
	return snap
}

func newTestGate(t *testing.T) (*Gate, string, string) {
	t.Helper()
	dir := t.TempDir()
	out := filepath.Join(dir, "normalized", "events.normalized.json")
	audit := filepath.Join(dir, "normalized", "license-audit.json")
	return NewGate(nil, out, audit, nil), out, audit
}

func readAudit(t *testing.T, path string) Audit {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var a Audit
	require.NoError(t, json.Unmarshal(raw, &a))
	return a
}

func TestBuildOutput(t *testing.T) {
	out, err := BuildOutput(snapshotWithBadSource(2, 0), retrieved)
	require.NoError(t, err)

	require.Len(t, out.Events, 2)
	assert.Equal(t, ProvenanceFields, out.ProvenanceFields)
	e := out.Events[0]
	assert.Equal(t, "Event 1", e.Title)
	require.NotNil(t, e.Provenance)
	assert.Equal(t, "CC0", e.Provenance.License)
	assert.Equal(t, "Wikidata", e.Provenance.SourceName)
	assert.Equal(t, retrieved, e.Provenance.RetrievedAt)

	raw, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"timeStart":1001`)
	assert.Contains(t, string(raw), `"provenanceFields":["sourceId"`)
}

func TestBuildOutputMissingField(t *testing.T) {
	snap := snapshotWithBadSource(1, 0)
	snap.Events[0].Category = "  "
	_, err := BuildOutput(snap, retrieved)
	assert.ErrorIs(t, err, ErrMissingField)

	snap = snapshotWithBadSource(1, 0)
	snap.Sources[0].AttributionText = ""
	_, err = BuildOutput(snap, retrieved)
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestAdmitValidated(t *testing.T) {
	gate, outPath, auditPath := newTestGate(t)
	out, err := BuildOutput(snapshotWithBadSource(10, 0), retrieved)
	require.NoError(t, err)

	d, err := gate.Admit(out)
	require.NoError(t, err)
	assert.Equal(t, Validated, d.State)

	raw, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var written Output
	require.NoError(t, json.Unmarshal(raw, &written))
	assert.Len(t, written.Events, 10)

	audit := readAudit(t, auditPath)
	assert.True(t, audit.OK)
	assert.Empty(t, audit.Violations)
	assert.Equal(t, DefaultAllowedLicenses, audit.AllowedLicenses)
}

func TestAdmitIsAllOrNothing(t *testing.T) {
	gate, outPath, auditPath := newTestGate(t)
	out, err := BuildOutput(snapshotWithBadSource(10, 1), retrieved)
	require.NoError(t, err)

	d, err := gate.Admit(out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLicenseViolation))
	assert.Equal(t, Rejected, d.State)

	_, statErr := os.Stat(outPath)
	assert.True(t, os.IsNotExist(statErr), "normalized output must not be written")

	audit := readAudit(t, auditPath)
	assert.False(t, audit.OK)
	require.Len(t, audit.Violations, 1)
	assert.Equal(t, Violation{EventID: "wd-1", SourceID: "blog", License: "All rights reserved"}, audit.Violations[0])
}

func TestAdmitRejectionKeepsPreviousOutput(t *testing.T) {
	gate, outPath, _ := newTestGate(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(outPath), 0o755))
	require.NoError(t, os.WriteFile(outPath, []byte(`{"previous":true}`), 0o644))

	out, err := BuildOutput(snapshotWithBadSource(3, 3), retrieved)
	require.NoError(t, err)
	d, err := gate.Admit(out)
	require.ErrorIs(t, err, ErrLicenseViolation)
	assert.Len(t, d.Violations, 3)

	raw, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, `{"previous":true}`, string(raw))
}

func TestValidateUnknownSource(t *testing.T) {
	snap := snapshotWithBadSource(2, 0)
	snap.Events[1].SourceID = "ghost"
	out, err := BuildOutput(snap, retrieved)
	require.NoError(t, err)
	assert.Nil(t, out.Events[1].Provenance)

	gate, _, _ := newTestGate(t)
	d := gate.Validate(out)
	assert.Equal(t, Rejected, d.State)
	assert.Equal(t, []Violation{{EventID: "wd-2", SourceID: "ghost"}}, d.Violations)
}

func TestValidateEventLicenseMismatch(t *testing.T) {
	snap := snapshotWithBadSource(3, 0)
	snap.Events[0].License = "CC0"
	snap.Events[2].License = "All rights reserved"
	out, err := BuildOutput(snap, retrieved)
	require.NoError(t, err)
	assert.Equal(t, "CC0", out.Events[0].License)
	assert.Equal(t, "CC0", out.Events[1].License, "inherits the source license")
	assert.Equal(t, "All rights reserved", out.Events[2].License)

	gate, _, _ := newTestGate(t)
	d := gate.Validate(out)
	assert.Equal(t, Rejected, d.State)
	assert.Equal(t, []Violation{{EventID: "wd-3", SourceID: models.WikidataSourceID, License: "All rights reserved"}}, d.Violations)
}

func TestValidateMismatchOnAllowedLicense(t *testing.T) {
	snap := snapshotWithBadSource(1, 0)
	snap.Events[0].License = "ODbL"
	out, err := BuildOutput(snap, retrieved)
	require.NoError(t, err)

	gate, _, _ := newTestGate(t)
	d := gate.Validate(out)
	require.Len(t, d.Violations, 1)
	assert.Equal(t, "ODbL", d.Violations[0].License)
}

func TestCustomAllowList(t *testing.T) {
	gate := NewGate([]string{"CC BY-SA 4.0"}, "", "", nil)
	assert.True(t, gate.Allowed("CC BY-SA 4.0"))
	assert.False(t, gate.Allowed("CC0"))
}

func TestWriteJSONAtomicLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.json")
	require.NoError(t, WriteJSONAtomic(path, map[string]int{"a": 1}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "x.json", entries[0].Name())
}
