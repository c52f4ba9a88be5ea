package provenance

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"earthistory/internal/logger"
	"earthistory/internal/metrics"
)

// ErrLicenseViolation is returned when any event cites a source outside the allow-list
var ErrLicenseViolation = errors.New("license violation")

// DefaultAllowedLicenses is the license allow-list
var DefaultAllowedLicenses = []string{"CC0", "CC BY 4.0", "ODbL"}

// State of a gate run
type State string

const (
	Pending   State = "pending"
	Validated State = "validated"
	Rejected  State = "rejected"
)

// Violation is one event whose license is not allowed or disagrees with its
// source's. License is empty when the event's source could not be found.
type Violation struct {
	EventID  string `json:"eventId"`
	SourceID string `json:"sourceId"`
	License  string `json:"license"`
}

// Audit is the license report written on every gate run
type Audit struct {
	GeneratedAt     time.Time   `json:"generatedAt"`
	OK              bool        `json:"ok"`
	AllowedLicenses []string    `json:"allowedLicenses"`
	Violations      []Violation `json:"violations"`
}

// Decision is the result of checking an output
type Decision struct {
	State      State
	Violations []Violation
}

// Gate admits normalized output only when every event's license is allowed
type Gate struct {
	allowed    []string
	allowedSet map[string]bool
	outputPath string
	auditPath  string
	log        *logger.Logger
}

// NewGate creates a gate; a nil allow-list uses DefaultAllowedLicenses
func NewGate(allowed []string, outputPath, auditPath string, log *logger.Logger) *Gate {
	if len(allowed) == 0 {
		allowed = DefaultAllowedLicenses
	}
	set := make(map[string]bool, len(allowed))
	for _, l := range allowed {
		set[l] = true
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Gate{
		allowed:    allowed,
		allowedSet: set,
		outputPath: outputPath,
		auditPath:  auditPath,
		log:        log.With("service", "ProvenanceGate"),
	}
}

// Allowed reports whether license is on the allow-list
func (g *Gate) Allowed(license string) bool {
	return g.allowedSet[license]
}

// Validate checks every event and collects all violations. It writes nothing.
func (g *Gate) Validate(out *Output) Decision {
	d := Decision{State: Validated}
	for _, e := range out.Events {
		if e.Provenance == nil {
			d.Violations = append(d.Violations, Violation{EventID: e.ID, SourceID: e.SourceID})
			continue
		}
		license := e.Provenance.License
		if e.License != "" && e.License != license {
			license = e.License
		}
		if license != e.Provenance.License || !g.allowedSet[license] {
			d.Violations = append(d.Violations, Violation{
				EventID:  e.ID,
				SourceID: e.SourceID,
				License:  license,
			})
		}
	}
	if len(d.Violations) > 0 {
		d.State = Rejected
	}
	metrics.GateViolations.Add(float64(len(d.Violations)))
	metrics.GateDecisions.WithLabelValues(string(d.State)).Inc()
	return d
}

// Admit validates out, writes the normalized output only when there are no
// violations, and always writes the audit. A rejection returns ErrLicenseViolation
// together with the decision.
func (g *Gate) Admit(out *Output) (Decision, error) {
	d := g.Validate(out)

	var writeErr error
	if d.State == Validated {
		if err := WriteJSONAtomic(g.outputPath, out); err != nil {
			writeErr = fmt.Errorf("failed to write normalized output: %w", err)
		}
	}

	audit := Audit{
		GeneratedAt:     out.GeneratedAt,
		OK:              d.State == Validated && writeErr == nil,
		AllowedLicenses: g.allowed,
		Violations:      d.Violations,
	}
	if audit.Violations == nil {
		audit.Violations = []Violation{}
	}
	if err := WriteJSONAtomic(g.auditPath, audit); err != nil {
		return d, errors.Join(writeErr, fmt.Errorf("failed to write license audit: %w", err))
	}
	if writeErr != nil {
		return d, writeErr
	}

	if d.State == Rejected {
		g.log.Error("❌ license gate rejected output", "violations", len(d.Violations), "audit", g.auditPath)
		return d, fmt.Errorf("%w: %d event(s) cite a disallowed license, see %s", ErrLicenseViolation, len(d.Violations), g.auditPath)
	}

	g.log.Info("✅ license gate validated output", "events", len(out.Events), "sources", len(out.Sources), "output", g.outputPath)
	return d, nil
}

// WriteJSONAtomic writes v as indented JSON to a temp file next to path and
// renames it into place, so readers never observe a partial file.
func WriteJSONAtomic(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
