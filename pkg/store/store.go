// Package store implements the Artifact Store (C4): the fixed on-disk run
// directory layout, typed JSON read/write helpers, and the append-only
// event log. Run artifacts are read and written only here — every write the
// workflow engine makes goes through a Store method.
package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/qlip-csp/orchestrator/pkg/model"
)

// Store owns a single workspace directory (<workspace>/runs/<run_id>/...).
// A Store has no mutable state of its own; the run directory, not the
// Store struct, is what a command exclusively owns for its duration.
type Store struct {
	workspace string
}

// New creates a Store rooted at workspace. workspace is created lazily —
// New does not touch the filesystem.
func New(workspace string) *Store {
	return &Store{workspace: workspace}
}

// Workspace returns the root directory this Store was created with.
func (s *Store) Workspace() string {
	return s.workspace
}

// RunDir returns the directory for runID, which may not yet exist.
func (s *Store) RunDir(runID string) string {
	return filepath.Join(s.workspace, "runs", runID)
}

func (s *Store) candidatesDir(runID string) string   { return filepath.Join(s.RunDir(runID), "candidates") }
func (s *Store) validationDir(runID string) string   { return filepath.Join(s.RunDir(runID), "validation") }
func (s *Store) exportsDir(runID string) string      { return filepath.Join(s.RunDir(runID), "exports") }
func (s *Store) manifestPath(runID string) string    { return filepath.Join(s.RunDir(runID), "run_manifest.json") }
func (s *Store) constraintsPath(runID string) string { return filepath.Join(s.RunDir(runID), "constraints.json") }
func (s *Store) eventsPath(runID string) string      { return filepath.Join(s.RunDir(runID), "events.jsonl") }
func (s *Store) summaryPath(runID string) string     { return filepath.Join(s.validationDir(runID), "summary.json") }

func (s *Store) reportPath(runID, candidateID string) string {
	return filepath.Join(s.validationDir(runID), fmt.Sprintf("report_%s.json", candidateID))
}

func (s *Store) candidatePath(runID, candidateID string) string {
	return filepath.Join(s.candidatesDir(runID), candidateID+".cif")
}

func (s *Store) iterationPath(runID string, n int) string {
	return filepath.Join(s.RunDir(runID), fmt.Sprintf("iteration_%d.json", n))
}

// RunExists reports whether runID already has a manifest on disk.
func (s *Store) RunExists(runID string) bool {
	_, err := os.Stat(s.manifestPath(runID))
	return err == nil
}

// EnsureRunDirs creates the run directory and all of its fixed
// subdirectories (candidates/, validation/, exports/). Safe to call
// repeatedly.
func (s *Store) EnsureRunDirs(runID string) error {
	for _, dir := range []string{
		s.RunDir(runID),
		s.candidatesDir(runID),
		s.validationDir(runID),
		s.exportsDir(runID),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("store: create %q: %w", dir, err)
		}
	}
	return nil
}

// writeJSON pretty-prints v (2-space indent, per spec.md §6) and writes it
// to path via a temp-file-then-rename, so a reader never observes a
// partially written file.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("store: marshal %q: %w", path, err)
	}
	return writeFileAtomic(path, data)
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("store: create parent dir for %q: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("store: write %q: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("store: rename %q to %q: %w", tmp, path, err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("store: read %q: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("store: unmarshal %q: %w", path, err)
	}
	return nil
}

// WriteManifest overwrites run_manifest.json in full.
func (s *Store) WriteManifest(runID string, m *model.RunManifest) error {
	return writeJSON(s.manifestPath(runID), m)
}

// ReadManifest loads run_manifest.json.
func (s *Store) ReadManifest(runID string) (*model.RunManifest, error) {
	var m model.RunManifest
	if err := readJSON(s.manifestPath(runID), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// WriteConstraints overwrites constraints.json in full (spec.md: rewritten
// in full each iteration; history lives only in Adjustments).
func (s *Store) WriteConstraints(runID string, c *model.ConstraintsSpec) error {
	return writeJSON(s.constraintsPath(runID), c)
}

// ReadConstraints loads constraints.json.
func (s *Store) ReadConstraints(runID string) (*model.ConstraintsSpec, error) {
	var c model.ConstraintsSpec
	if err := readJSON(s.constraintsPath(runID), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// AppendEvent appends one JSON object line to events.jsonl. Events are
// never rewritten or reordered — this is the one genuinely append-only
// artifact in the store.
func (s *Store) AppendEvent(runID string, evt model.Event) error {
	path := s.eventsPath(runID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("store: create parent dir for %q: %w", path, err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("store: open %q: %w", path, err)
	}
	defer f.Close()

	line, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("store: marshal event: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("store: append event to %q: %w", path, err)
	}
	return nil
}

// ReadEvents loads every event in events.jsonl, in log order.
func (s *Store) ReadEvents(runID string) ([]model.Event, error) {
	f, err := os.Open(s.eventsPath(runID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: open events log: %w", err)
	}
	defer f.Close()

	var events []model.Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var evt model.Event
		if err := json.Unmarshal([]byte(line), &evt); err != nil {
			return nil, fmt.Errorf("store: parse event line: %w", err)
		}
		events = append(events, evt)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("store: scan events log: %w", err)
	}
	return events, nil
}

// WriteCandidate writes candidates/<id>.cif, overwriting any prior file
// with the same id (candidates are immutable within an iteration, but a
// later iteration may legitimately regenerate the same id).
func (s *Store) WriteCandidate(runID string, c model.Candidate) error {
	return writeFileAtomic(s.candidatePath(runID, c.CandidateID), []byte(c.Content))
}

// ReadCandidateIDs returns the candidate ids present on disk, in ascending
// filename order (spec.md §4.9 Validate: "loads existing candidates from
// filenames sorted ascending").
func (s *Store) ReadCandidateIDs(runID string) ([]string, error) {
	entries, err := os.ReadDir(s.candidatesDir(runID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: list candidates: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".cif") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".cif"))
	}
	sort.Strings(ids)
	return ids, nil
}

// ReadCandidate reads one candidate's CIF content back from disk. Score is
// not recoverable from the file alone (it lives only in validation reports
// and the original tool response), so callers that need a full Candidate
// for revalidation build it from the report's truth score or treat score as
// unknown — see workflow.Validate.
func (s *Store) ReadCandidate(runID, candidateID string) (string, error) {
	data, err := os.ReadFile(s.candidatePath(runID, candidateID))
	if err != nil {
		return "", fmt.Errorf("store: read candidate %q: %w", candidateID, err)
	}
	return string(data), nil
}

// WriteValidationReport writes validation/report_<id>.json.
func (s *Store) WriteValidationReport(runID string, r model.ValidationReport) error {
	return writeJSON(s.reportPath(runID, r.CandidateID), r)
}

// ReadValidationReports reads every report_*.json file, ordered by
// candidate id ascending (matching candidate file order).
func (s *Store) ReadValidationReports(runID string) ([]model.ValidationReport, error) {
	entries, err := os.ReadDir(s.validationDir(runID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: list validation reports: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), "report_") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	reports := make([]model.ValidationReport, 0, len(names))
	for _, name := range names {
		var r model.ValidationReport
		if err := readJSON(filepath.Join(s.validationDir(runID), name), &r); err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, nil
}

// WriteValidationSummary writes validation/summary.json.
func (s *Store) WriteValidationSummary(runID string, sum *model.ValidationSummary) error {
	return writeJSON(s.summaryPath(runID), sum)
}

// ReadValidationSummary reads validation/summary.json.
func (s *Store) ReadValidationSummary(runID string) (*model.ValidationSummary, error) {
	var sum model.ValidationSummary
	if err := readJSON(s.summaryPath(runID), &sum); err != nil {
		return nil, err
	}
	return &sum, nil
}

// WriteIterationRecord writes iteration_<n>.json (n >= 1).
func (s *Store) WriteIterationRecord(runID string, n int, record any) error {
	return writeJSON(s.iterationPath(runID, n), record)
}

// WriteExport writes exports/<candidateID>.<ext> with the given content.
func (s *Store) WriteExport(runID, candidateID, ext, content string) error {
	path := filepath.Join(s.exportsDir(runID), fmt.Sprintf("%s.%s", candidateID, ext))
	return writeFileAtomic(path, []byte(content))
}
