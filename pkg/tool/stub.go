package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/qlip-csp/orchestrator/pkg/model"
	"github.com/qlip-csp/orchestrator/pkg/prng"
	"github.com/qlip-csp/orchestrator/pkg/verify"
)

// chemistryTables holds the three fixed 3-element suggestion tables
// suggest_chemistries selects from, indexed by next_int(0, 2).
var chemistryTables = [3][]model.ChemistrySuggestion{
	{
		{ChemSystem: "Li-Fe-P-O", Rationale: "layered polyanion framework favors Li mobility", Confidence: 0.82},
		{ChemSystem: "Na-Mn-O", Rationale: "well-studied layered oxide cathode family", Confidence: 0.74},
		{ChemSystem: "Mg-Al-O", Rationale: "spinel-forming oxide with wide stability window", Confidence: 0.65},
	},
	{
		{ChemSystem: "Li-Ti-S", Rationale: "sulfide analog with lower migration barrier", Confidence: 0.70},
		{ChemSystem: "Na-Fe-S", Rationale: "earth-abundant sulfide with layered ordering", Confidence: 0.61},
		{ChemSystem: "Mg-Sb-S", Rationale: "divalent sulfide candidate for multivalent transport", Confidence: 0.55},
	},
	{
		{ChemSystem: "Li-V-P-O", Rationale: "vanadium polyanion with multiple accessible oxidation states", Confidence: 0.78},
		{ChemSystem: "K-Fe-O", Rationale: "large-cation layered oxide", Confidence: 0.58},
		{ChemSystem: "Ca-Ti-O", Rationale: "perovskite-forming oxide, structurally well characterized", Confidence: 0.69},
	},
}

// priorRows holds the three fixed ChemistryPriors rows fetch_priors selects
// from, indexed by next_int(0, 2).
var priorRows = [3]model.ChemistryPriors{
	func() model.ChemistryPriors {
		p := model.ChemistryPriors{
			DensityRange: [2]float64{2.0, 4.5},
			OxidationStateConstraints: map[string][]int{
				"Li": {1}, "Fe": {2, 3}, "P": {5}, "O": {-2},
			},
			Prototypes: []string{"olivine", "spinel"},
		}
		p.LatticePrior.Symmetry = "orthorhombic"
		return p
	}(),
	func() model.ChemistryPriors {
		p := model.ChemistryPriors{
			DensityRange: [2]float64{1.8, 3.6},
			OxidationStateConstraints: map[string][]int{
				"Na": {1}, "Mn": {3, 4}, "O": {-2},
			},
			Prototypes: []string{"layered_oxide", "rock_salt"},
		}
		p.LatticePrior.Symmetry = "hexagonal"
		return p
	}(),
	func() model.ChemistryPriors {
		p := model.ChemistryPriors{
			DensityRange: [2]float64{2.5, 5.0},
			OxidationStateConstraints: map[string][]int{
				"Mg": {2}, "Al": {3}, "O": {-2},
			},
			Prototypes: []string{"spinel", "perovskite"},
		}
		p.LatticePrior.Symmetry = "cubic"
		return p
	}(),
}

// truthScoreBase is the candidate-position baseline batch_validate perturbs
// with PRNG noise; positions beyond index 4 (run_qlip only ever emits 5
// candidates, but the baseline is defined for any length input) extend with
// 0.4 per spec.md §4.6.
var truthScoreBase = []float64{0.85, 0.72, 0.60, 0.48, 0.35}

// checkThresholds pairs each fixed check name with the truth_score threshold it
// passes at, in the fixed evaluation order spec.md §4.6 specifies.
var checkThresholds = []struct {
	name      model.CheckName
	threshold float64
}{
	{model.CheckParseable, -1}, // always passes
	{model.CheckMinDistance, 0.40},
	{model.CheckDensityInRange, 0.50},
	{model.CheckChargeNeutralityFeasible, 0.55},
	{model.CheckCoordinationReasonable, 0.65},
	{model.CheckSymmetryMatch, 0.70},
}

// Stub is the deterministic Tool Client Interface implementation (C6). It
// is driven solely by an internal PRNG stream seeded from the command's
// --seed, independent of any PRNG the workflow engine itself owns.
type Stub struct {
	seed int64
	rng  *prng.PRNG
}

// NewStub constructs a Stub seeded directly from seed. --dry-run forces
// this implementation regardless of other configuration (spec.md §4.5).
func NewStub(seed int64) *Stub {
	return &Stub{seed: seed, rng: prng.New(seed)}
}

// Call dispatches name to the matching internal method and marshals its
// result. A known tool name fails only when input is not that tool's input
// struct; an unknown name is a caller bug, not a runtime condition, and
// fails fast with ErrUnknownTool.
func (s *Stub) Call(_ context.Context, name Name, input any) (json.RawMessage, error) {
	switch name {
	case SuggestChemistries:
		in, ok := input.(SuggestChemistriesInput)
		if !ok {
			return nil, fmt.Errorf("tool: stub %s: unexpected input type %T", name, input)
		}
		return marshalOutput(s.suggestChemistries(in))
	case FetchPriors:
		in, ok := input.(FetchPriorsInput)
		if !ok {
			return nil, fmt.Errorf("tool: stub %s: unexpected input type %T", name, input)
		}
		return marshalOutput(s.fetchPriors(in))
	case BuildConstraints:
		in, ok := input.(BuildConstraintsInput)
		if !ok {
			return nil, fmt.Errorf("tool: stub %s: unexpected input type %T", name, input)
		}
		return marshalOutput(s.buildConstraints(in))
	case RunQLIP:
		in, ok := input.(RunQLIPInput)
		if !ok {
			return nil, fmt.Errorf("tool: stub %s: unexpected input type %T", name, input)
		}
		return marshalOutput(s.runQLIP(in))
	case BatchValidate:
		in, ok := input.(BatchValidateInput)
		if !ok {
			return nil, fmt.Errorf("tool: stub %s: unexpected input type %T", name, input)
		}
		return marshalOutput(s.batchValidate(in))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
}

func (s *Stub) suggestChemistries(SuggestChemistriesInput) SuggestChemistriesOutput {
	idx := s.rng.NextInt(0, len(chemistryTables)-1)
	table := chemistryTables[idx]
	out := make([]model.ChemistrySuggestion, len(table))
	copy(out, table)
	return SuggestChemistriesOutput{Chemistries: out}
}

func (s *Stub) fetchPriors(FetchPriorsInput) FetchPriorsOutput {
	idx := s.rng.NextInt(0, len(priorRows)-1)
	return FetchPriorsOutput{Priors: priorRows[idx].Clone()}
}

// buildConstraints is a pure copy with no PRNG consumption, per spec.md §4.6.
func (s *Stub) buildConstraints(in BuildConstraintsInput) BuildConstraintsOutput {
	return BuildConstraintsOutput{
		Constraints: model.ConstraintsSpec{
			ChemSystem: in.ChemSystem,
			Priors:     in.Priors.Clone(),
			Overrides:  in.Overrides,
		},
	}
}

func (s *Stub) runQLIP(RunQLIPInput) RunQLIPOutput {
	const n = 5
	candidates := make([]model.Candidate, n)
	for i := 0; i < n; i++ {
		score := round4(s.rng.NextFloat(0.2, 0.95))
		id := fmt.Sprintf("cand_%04d", i+1)
		candidates[i] = model.Candidate{
			CandidateID: id,
			Score:       score,
			Format:      "cif",
			Content:     placeholderCIF(id, i),
		}
	}
	return RunQLIPOutput{Candidates: candidates}
}

func placeholderCIF(id string, index int) string {
	cell := fmt.Sprintf("5.%d0", index)
	return fmt.Sprintf(
		"data_%s\n_cell_length_a %s\n_cell_length_b %s\n_cell_length_c %s\n_cell_angle_alpha 90.0\n_cell_angle_beta 90.0\n_cell_angle_gamma 90.0\n",
		id, cell, cell, cell,
	)
}

// batchValidate derives each candidate's noise from a fresh sub-stream
// forked off the stub's seed and the candidate's own id, not from s.rng's
// current position. A bare s.rng.NextFloat here would make the noise depend
// on how many suggest_chemistries/fetch_priors/run_qlip draws happened
// earlier in the same process, so a standalone csp:validate invocation
// (which never makes those earlier calls) could never reproduce the
// truth_scores — and therefore the summary_hash — that csp:discover
// recorded for the same run. Keying on candidate id instead of position
// also survives a shorter or reordered candidate list between calls.
func (s *Stub) batchValidate(in BatchValidateInput) BatchValidateOutput {
	reports := make([]model.ValidationReport, len(in.Candidates))
	for i, c := range in.Candidates {
		base := 0.4
		if i < len(truthScoreBase) {
			base = truthScoreBase[i]
		}
		noise := prng.New(s.seed).Fork("batch_validate:"+c.CandidateID).NextFloat(-0.02, 0.02)
		truthScore := round4(clamp(base+noise, 0, 1))

		checks := make([]model.ValidationCheck, len(checkThresholds))
		for j, ct := range checkThresholds {
			v := truthScore
			passed := ct.threshold < 0 || truthScore >= ct.threshold
			checks[j] = model.ValidationCheck{
				Name:    ct.name,
				Passed:  passed,
				Value:   &v,
				Message: fmt.Sprintf("truth_score %.4f vs threshold %.2f", truthScore, math.Max(ct.threshold, 0)),
			}
			if !passed {
				checks[j].Severity = model.SeverityFail
			} else {
				checks[j].Severity = model.SeverityInfo
			}
		}

		reports[i] = model.ValidationReport{
			CandidateID: c.CandidateID,
			TruthScore:  truthScore,
			Accept:      truthScore >= in.TruthAcceptThreshold,
			Checks:      checks,
		}
	}

	// The returned summary is diagnostic only — callers must recompute
	// locally (spec.md §9) rather than trust this mirror.
	_, summary := verify.Aggregate(reports, in.TruthAcceptThreshold)
	return BatchValidateOutput{Reports: reports, Summary: summary}
}

func round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
