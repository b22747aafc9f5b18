package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/qlip-csp/orchestrator/pkg/model"
)

func check(name model.CheckName, passed bool) model.ValidationCheck {
	return model.ValidationCheck{Name: name, Passed: passed}
}

func TestAggregate_RecomputesAcceptAgainstThreshold(t *testing.T) {
	reports := []model.ValidationReport{
		{CandidateID: "cand_0001", TruthScore: 0.9, Accept: false}, // stub said false, should be corrected
		{CandidateID: "cand_0002", TruthScore: 0.5, Accept: true},  // stub said true, should be corrected
	}
	corrected, summary := Aggregate(reports, 0.8)

	assert.True(t, corrected[0].Accept)
	assert.False(t, corrected[1].Accept)
	assert.Equal(t, 1, summary.Accepted)
	assert.Equal(t, 1, summary.Rejected)
	assert.Equal(t, 2, summary.Total)
}

func TestAggregate_TopCandidatesSortedDescWithLexTieBreak(t *testing.T) {
	reports := []model.ValidationReport{
		{CandidateID: "cand_0003", TruthScore: 0.7},
		{CandidateID: "cand_0001", TruthScore: 0.9},
		{CandidateID: "cand_0002", TruthScore: 0.9},
	}
	_, summary := Aggregate(reports, 0.8)

	assert.Equal(t, []model.TopCandidate{
		{CandidateID: "cand_0001", TruthScore: 0.9},
		{CandidateID: "cand_0002", TruthScore: 0.9},
		{CandidateID: "cand_0003", TruthScore: 0.7},
	}, summary.TopCandidates)
	assert.Equal(t, "cand_0001", summary.BestCandidateID)
}

func TestAggregate_FailureHistogramAlwaysHasAllSixKeys(t *testing.T) {
	reports := []model.ValidationReport{
		{
			CandidateID: "cand_0001",
			TruthScore:  0.9,
			Checks: []model.ValidationCheck{
				check(model.CheckParseable, true),
				check(model.CheckMinDistance, false),
			},
		},
	}
	_, summary := Aggregate(reports, 0.8)

	assert.Len(t, summary.FailureHistogram, len(model.AllCheckNames))
	assert.Equal(t, 1, summary.FailureHistogram[string(model.CheckMinDistance)])
	assert.Equal(t, 0, summary.FailureHistogram[string(model.CheckSymmetryMatch)])
}

func TestAggregate_EmptyReports(t *testing.T) {
	_, summary := Aggregate(nil, 0.8)

	assert.Equal(t, 0, summary.Total)
	assert.Empty(t, summary.BestCandidateID)
	assert.Empty(t, summary.TopCandidates)
	assert.Len(t, summary.FailureHistogram, len(model.AllCheckNames))
}

func TestAggregate_TruthScoresKeyedByCandidateID(t *testing.T) {
	reports := []model.ValidationReport{
		{CandidateID: "cand_0001", TruthScore: 0.42},
	}
	_, summary := Aggregate(reports, 0.8)

	assert.Equal(t, 0.42, summary.TruthScores["cand_0001"])
}
