package tool

import "github.com/qlip-csp/orchestrator/pkg/model"

// SuggestChemistriesInput carries the objective text driving the
// suggestion (unused by the deterministic stub, present for the real
// client's prompt/query construction).
type SuggestChemistriesInput struct {
	Objective string `json:"objective"`
}

// SuggestChemistriesOutput wraps the returned suggestion list.
type SuggestChemistriesOutput struct {
	Chemistries []model.ChemistrySuggestion `json:"chemistries"`
}

// FetchPriorsInput selects which chemistry to fetch priors for.
type FetchPriorsInput struct {
	ChemSystem string `json:"chem_system"`
}

// FetchPriorsOutput wraps the returned priors.
type FetchPriorsOutput struct {
	Priors model.ChemistryPriors `json:"priors"`
}

// BuildConstraintsInput carries the chemistry, priors, and any solver
// tuning overrides to compile into a ConstraintsSpec.
type BuildConstraintsInput struct {
	ChemSystem string                `json:"chem_system"`
	Priors     model.ChemistryPriors `json:"priors"`
	Overrides  map[string]any        `json:"overrides"`
}

// BuildConstraintsOutput wraps the compiled spec.
type BuildConstraintsOutput struct {
	Constraints model.ConstraintsSpec `json:"constraints"`
}

// RunQLIPInput carries the constraints the MILP solver should honor.
type RunQLIPInput struct {
	Constraints model.ConstraintsSpec `json:"constraints"`
	Solver      string                `json:"solver"`
}

// RunQLIPOutput wraps the generated candidates.
type RunQLIPOutput struct {
	Candidates []model.Candidate `json:"candidates"`
}

// BatchValidateInput carries the candidates to validate and the
// acceptance threshold each report's Accept field is computed against.
type BatchValidateInput struct {
	Candidates           []model.Candidate `json:"candidates"`
	TruthAcceptThreshold float64           `json:"truth_accept_threshold"`
}

// BatchValidateOutput wraps the per-candidate reports plus a diagnostic
// summary mirror. Per spec.md §9 (Open Question), callers MUST recompute
// the summary locally via pkg/verify and MUST NOT treat Summary as
// authoritative — it exists only so the tool's own response is
// self-describing for debugging.
type BatchValidateOutput struct {
	Reports []model.ValidationReport `json:"reports"`
	Summary *model.ValidationSummary `json:"summary,omitempty"`
}
