// Package verify implements the Verification Aggregator (C7): a pure
// reduction of a batch of ValidationReports into a single ValidationSummary.
package verify

import (
	"sort"

	"github.com/qlip-csp/orchestrator/pkg/model"
)

// Aggregate recomputes each report's Accept field against threshold (never
// trusting whatever a tool call set it to) and reduces the corrected reports
// into a ValidationSummary. It returns the corrected reports alongside the
// summary so callers persist both consistently.
//
// Per spec.md §9, callers must always recompute the summary locally — the
// stub tool client's own summary field is diagnostic only and must never be
// treated as authoritative.
func Aggregate(reports []model.ValidationReport, threshold float64) ([]model.ValidationReport, *model.ValidationSummary) {
	corrected := make([]model.ValidationReport, len(reports))
	truthScores := make(map[string]float64, len(reports))
	histogram := make(map[string]int, len(model.AllCheckNames))
	for _, name := range model.AllCheckNames {
		histogram[string(name)] = 0
	}

	accepted := 0
	for i, r := range reports {
		r.Accept = r.TruthScore >= threshold
		corrected[i] = r

		truthScores[r.CandidateID] = r.TruthScore
		if r.Accept {
			accepted++
		}
		for _, c := range r.Checks {
			if !c.Passed {
				histogram[string(c.Name)]++
			}
		}
	}

	top := make([]model.TopCandidate, len(corrected))
	for i, r := range corrected {
		top[i] = model.TopCandidate{CandidateID: r.CandidateID, TruthScore: r.TruthScore}
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].TruthScore != top[j].TruthScore {
			return top[i].TruthScore > top[j].TruthScore
		}
		return top[i].CandidateID < top[j].CandidateID
	})

	best := ""
	if len(top) > 0 {
		best = top[0].CandidateID
	} else if len(reports) > 0 {
		// Degenerate case per spec.md §4.7: an empty top_candidates list with
		// a non-empty report set falls back to the first report's id.
		best = reports[0].CandidateID
	}

	summary := &model.ValidationSummary{
		Total:            len(corrected),
		Accepted:         accepted,
		Rejected:         len(corrected) - accepted,
		BestCandidateID:  best,
		TruthScores:      truthScores,
		FailureHistogram: histogram,
		TopCandidates:    top,
	}
	return corrected, summary
}
