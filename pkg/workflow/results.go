package workflow

// DiscoverResult is Discover's success payload, shaped for direct JSON
// emission by the CLI dispatcher (spec.md §4.9 step 11).
type DiscoverResult struct {
	RunID             string   `json:"run_id"`
	Status            string   `json:"status"`
	RunDir            string   `json:"run_dir"`
	SelectedChemistry string   `json:"selected_chemistry"`
	ChosenCandidateID string   `json:"chosen_candidate_id"`
	TruthScore        float64  `json:"truth_score"`
	CandidateIDs      []string `json:"candidate_ids"`
	SummaryHash       string   `json:"summary_hash"`
	Iteration         int      `json:"iteration"`
}

// IterateResult is Iterate's success payload.
type IterateResult struct {
	RunID             string  `json:"run_id"`
	Status            string  `json:"status"`
	Iteration         int     `json:"iteration"`
	Mode              string  `json:"mode"`
	Action            string  `json:"action"`
	ChosenCandidateID string  `json:"chosen_candidate_id"`
	TruthScore        float64 `json:"truth_score"`
	SummaryHash       string  `json:"summary_hash"`
}

// ValidateResult is Validate's success payload.
type ValidateResult struct {
	RunID           string   `json:"run_id"`
	CandidateIDs    []string `json:"candidate_ids"`
	BestCandidateID string   `json:"best_candidate_id"`
	TruthScore      float64  `json:"truth_score"`
	SummaryHash     string   `json:"summary_hash"`
}

// ExportResult is Export's success payload.
type ExportResult struct {
	RunID    string   `json:"run_id"`
	Format   string   `json:"format"`
	Exported []string `json:"exported"`
}
