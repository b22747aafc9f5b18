package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qlip-csp/orchestrator/pkg/model"
)

func TestEnsureRunDirs_CreatesFixedLayout(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.EnsureRunDirs("run_1_deadbeef"))

	for _, dir := range []string{
		s.RunDir("run_1_deadbeef"),
		s.candidatesDir("run_1_deadbeef"),
		s.validationDir("run_1_deadbeef"),
		s.exportsDir("run_1_deadbeef"),
	} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestManifestRoundTrip(t *testing.T) {
	s := New(t.TempDir())
	runID := "run_1_abcd1234"
	require.NoError(t, s.EnsureRunDirs(runID))

	m := &model.RunManifest{RunID: runID, Status: model.RunStatusRunning, Iteration: 0, MaxIters: 5}
	require.NoError(t, s.WriteManifest(runID, m))

	assert.True(t, s.RunExists(runID))

	got, err := s.ReadManifest(runID)
	require.NoError(t, err)
	assert.Equal(t, m.RunID, got.RunID)
	assert.Equal(t, m.Status, got.Status)
}

func TestEventsAppendOnly_PreservesOrder(t *testing.T) {
	s := New(t.TempDir())
	runID := "run_1_eeee0000"
	require.NoError(t, s.EnsureRunDirs(runID))

	require.NoError(t, s.AppendEvent(runID, model.NewEvent("run_manifest", "t1", nil)))
	require.NoError(t, s.AppendEvent(runID, model.NewEvent("run_started", "t2", nil)))
	require.NoError(t, s.AppendEvent(runID, model.NewEvent("tool_call_ok", "t3", map[string]any{"tool": "suggest_chemistries"})))

	events, err := s.ReadEvents(runID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "run_manifest", events[0]["event"])
	assert.Equal(t, "run_started", events[1]["event"])
	assert.Equal(t, "tool_call_ok", events[2]["event"])
}

func TestCandidateRoundTrip_SortedAscending(t *testing.T) {
	s := New(t.TempDir())
	runID := "run_1_ffff0000"
	require.NoError(t, s.EnsureRunDirs(runID))

	for _, id := range []string{"cand_0003", "cand_0001", "cand_0002"} {
		require.NoError(t, s.WriteCandidate(runID, model.Candidate{CandidateID: id, Content: "data_" + id}))
	}

	ids, err := s.ReadCandidateIDs(runID)
	require.NoError(t, err)
	assert.Equal(t, []string{"cand_0001", "cand_0002", "cand_0003"}, ids)

	content, err := s.ReadCandidate(runID, "cand_0002")
	require.NoError(t, err)
	assert.Equal(t, "data_cand_0002", content)
}

func TestValidationReportsRoundTrip(t *testing.T) {
	s := New(t.TempDir())
	runID := "run_1_99990000"
	require.NoError(t, s.EnsureRunDirs(runID))

	require.NoError(t, s.WriteValidationReport(runID, model.ValidationReport{CandidateID: "cand_0002", TruthScore: 0.5}))
	require.NoError(t, s.WriteValidationReport(runID, model.ValidationReport{CandidateID: "cand_0001", TruthScore: 0.9}))

	reports, err := s.ReadValidationReports(runID)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "cand_0001", reports[0].CandidateID)
	assert.Equal(t, "cand_0002", reports[1].CandidateID)
}

func TestSummaryRoundTrip(t *testing.T) {
	s := New(t.TempDir())
	runID := "run_1_77770000"
	require.NoError(t, s.EnsureRunDirs(runID))

	sum := &model.ValidationSummary{Total: 5, Accepted: 1, Rejected: 4, BestCandidateID: "cand_0001"}
	require.NoError(t, s.WriteValidationSummary(runID, sum))

	got, err := s.ReadValidationSummary(runID)
	require.NoError(t, err)
	assert.Equal(t, sum.BestCandidateID, got.BestCandidateID)
	assert.Equal(t, sum.Total, got.Total)
}

func TestWriteExport_UsesExtension(t *testing.T) {
	s := New(t.TempDir())
	runID := "run_1_55550000"
	require.NoError(t, s.EnsureRunDirs(runID))

	require.NoError(t, s.WriteExport(runID, "cand_0001", "poscar", "# POSCAR placeholder for cand_0001\ndata"))

	path := filepath.Join(s.exportsDir(runID), "cand_0001.poscar")
	_, err := os.Stat(path)
	require.NoError(t, err)
}
