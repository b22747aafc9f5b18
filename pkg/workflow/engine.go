// Package workflow implements the Workflow Engine (C9): the single
// ordered sequencing of tool calls, PRNG draws, and artifact writes behind
// the four CLI commands. The engine owns no filesystem state of its own —
// every read or write goes through the injected Store, and every
// external-ish call goes through the injected tool.Client.
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/qlip-csp/orchestrator/pkg/canonical"
	"github.com/qlip-csp/orchestrator/pkg/config"
	"github.com/qlip-csp/orchestrator/pkg/model"
	"github.com/qlip-csp/orchestrator/pkg/policy"
	"github.com/qlip-csp/orchestrator/pkg/prng"
	"github.com/qlip-csp/orchestrator/pkg/store"
	"github.com/qlip-csp/orchestrator/pkg/tool"
	"github.com/qlip-csp/orchestrator/pkg/verify"
)

// chemistryForkSalt is the fixed salt spec.md §4.9 step 4 names for
// deriving the chemistry-suggestion-index sub-stream from the engine's own
// PRNG: prng.fork(0x3f1c2b).
const chemistryForkSalt = 0x3f1c2b

// Engine sequences Discover/Iterate/Validate/Export. It is cheap to
// construct and holds no run-specific state between calls — every method
// takes a run_id (except Discover, which mints one).
type Engine struct {
	Store  *store.Store
	Tool   tool.Client
	Config config.Config

	// now is injectable so tests can assert manifest timestamps without
	// depending on wall-clock time; production callers leave it nil and
	// get time.Now().
	now func() time.Time
}

// New constructs an Engine. now may be nil (defaults to time.Now).
func New(st *store.Store, cl tool.Client, cfg config.Config, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{Store: st, Tool: cl, Config: cfg, now: now}
}

func (e *Engine) nowRFC3339() string {
	return e.now().UTC().Format(time.RFC3339)
}

// Discover runs the full scout→priors→constraints→solve→validate sequence
// for a brand-new run, per spec.md §4.9.
func (e *Engine) Discover(ctx context.Context, objective, chemSystemOverride string, seed int64) (*DiscoverResult, error) {
	runSeed := seed ^ int64(prng.HashString(objective))
	engineRNG := prng.New(runSeed)
	runID := fmt.Sprintf("run_%d_%s", seed, engineRNG.NextHex(8))

	if err := e.Store.EnsureRunDirs(runID); err != nil {
		return nil, fmt.Errorf("workflow: discover %s: %w", runID, err)
	}

	now := e.nowRFC3339()
	manifest := &model.RunManifest{
		RunID:          runID,
		Status:         model.RunStatusRunning,
		Objective:      objective,
		Seed:           seed,
		CreatedAt:      now,
		UpdatedAt:      now,
		Iteration:      0,
		MaxIters:       e.Config.Policy.MaxIters,
		ConfigSnapshot: e.Config.Snapshot(),
	}
	if err := e.Store.WriteManifest(runID, manifest); err != nil {
		return nil, fmt.Errorf("workflow: discover %s: %w", runID, err)
	}
	if err := e.Store.AppendEvent(runID, model.NewEvent("run_manifest", now, map[string]any{"manifest": manifest})); err != nil {
		return nil, fmt.Errorf("workflow: discover %s: %w", runID, err)
	}
	if err := e.Store.AppendEvent(runID, model.NewEvent("run_started", now, map[string]any{"objective": objective, "seed": seed})); err != nil {
		return nil, fmt.Errorf("workflow: discover %s: %w", runID, err)
	}

	selected, err := e.chooseChemistry(ctx, runID, manifest, objective, chemSystemOverride, engineRNG)
	if err != nil {
		return nil, err
	}

	priorsOut, err := tool.CallTyped[tool.FetchPriorsOutput](ctx, e.Tool, tool.FetchPriors, tool.FetchPriorsInput{ChemSystem: selected.ChemSystem})
	if err != nil {
		return nil, e.failRun(runID, manifest, string(tool.FetchPriors), err)
	}
	if err := e.emitToolEvent(runID, tool.FetchPriors, now); err != nil {
		return nil, err
	}

	constraintsOut, err := tool.CallTyped[tool.BuildConstraintsOutput](ctx, e.Tool, tool.BuildConstraints, tool.BuildConstraintsInput{
		ChemSystem: selected.ChemSystem,
		Priors:     priorsOut.Priors,
		Overrides:  map[string]any{},
	})
	if err != nil {
		return nil, e.failRun(runID, manifest, string(tool.BuildConstraints), err)
	}
	if err := e.Store.WriteConstraints(runID, &constraintsOut.Constraints); err != nil {
		return nil, fmt.Errorf("workflow: discover %s: %w", runID, err)
	}
	if err := e.emitToolEvent(runID, tool.BuildConstraints, now); err != nil {
		return nil, err
	}

	candidateIDs, summary, summaryHash, err := e.solveAndValidate(ctx, runID, constraintsOut.Constraints)
	if err != nil {
		return nil, e.failRun(runID, manifest, "solve_and_validate", err)
	}

	truthScore := summary.TruthScores[summary.BestCandidateID]
	manifest.Status = model.RunStatusOK
	manifest.ChemSystem = selected.ChemSystem
	manifest.UpdatedAt = e.nowRFC3339()
	manifest.SelectedCandidateID = summary.BestCandidateID
	manifest.TruthScore = &truthScore
	if err := e.Store.WriteManifest(runID, manifest); err != nil {
		return nil, fmt.Errorf("workflow: discover %s: %w", runID, err)
	}

	return &DiscoverResult{
		RunID:             runID,
		Status:            string(model.RunStatusOK),
		RunDir:            e.Store.RunDir(runID),
		SelectedChemistry: selected.ChemSystem,
		ChosenCandidateID: summary.BestCandidateID,
		TruthScore:        truthScore,
		CandidateIDs:      candidateIDs,
		SummaryHash:       summaryHash,
		Iteration:         0,
	}, nil
}

// chooseChemistry implements spec.md §4.9 step 4: either the user-supplied
// chem_system (wrapped as a synthetic single-suggestion response) or a call
// to suggest_chemistries with the result picked by a forked PRNG substream.
func (e *Engine) chooseChemistry(ctx context.Context, runID string, manifest *model.RunManifest, objective, chemSystemOverride string, engineRNG *prng.PRNG) (model.ChemistrySuggestion, error) {
	if chemSystemOverride != "" {
		return model.ChemistrySuggestion{ChemSystem: chemSystemOverride, Rationale: "provided", Confidence: 1.0}, nil
	}

	out, err := tool.CallTyped[tool.SuggestChemistriesOutput](ctx, e.Tool, tool.SuggestChemistries, tool.SuggestChemistriesInput{Objective: objective})
	if err != nil {
		return model.ChemistrySuggestion{}, e.failRun(runID, manifest, string(tool.SuggestChemistries), err)
	}
	if err := e.emitToolEvent(runID, tool.SuggestChemistries, e.nowRFC3339()); err != nil {
		return model.ChemistrySuggestion{}, err
	}
	if len(out.Chemistries) == 0 {
		return model.ChemistrySuggestion{}, e.failRun(runID, manifest, string(tool.SuggestChemistries), fmt.Errorf("workflow: suggest_chemistries returned no chemistries"))
	}

	idx := engineRNG.ForkInt(chemistryForkSalt).NextInt(0, len(out.Chemistries)-1)
	return out.Chemistries[idx], nil
}

// solveAndValidate runs run_qlip then batch_validate against constraints,
// persisting candidates, corrected reports, and the recomputed summary. It
// is shared by Discover and Iterate (spec.md §4.9 steps 7-9 in both).
func (e *Engine) solveAndValidate(ctx context.Context, runID string, constraints model.ConstraintsSpec) ([]string, *model.ValidationSummary, string, error) {
	qlipOut, err := tool.CallTyped[tool.RunQLIPOutput](ctx, e.Tool, tool.RunQLIP, tool.RunQLIPInput{
		Constraints: constraints,
		Solver:      string(e.Config.Solver),
	})
	if err != nil {
		return nil, nil, "", fmt.Errorf("%s: %w", tool.RunQLIP, err)
	}
	if err := e.emitToolEvent(runID, tool.RunQLIP, e.nowRFC3339()); err != nil {
		return nil, nil, "", err
	}

	candidateIDs := make([]string, len(qlipOut.Candidates))
	for i, c := range qlipOut.Candidates {
		if err := e.Store.WriteCandidate(runID, c); err != nil {
			return nil, nil, "", fmt.Errorf("workflow: persist candidate %s: %w", c.CandidateID, err)
		}
		candidateIDs[i] = c.CandidateID
	}

	validateOut, err := tool.CallTyped[tool.BatchValidateOutput](ctx, e.Tool, tool.BatchValidate, tool.BatchValidateInput{
		Candidates:           qlipOut.Candidates,
		TruthAcceptThreshold: e.Config.Policy.TruthAcceptThreshold,
	})
	if err != nil {
		return nil, nil, "", fmt.Errorf("%s: %w", tool.BatchValidate, err)
	}
	if err := e.emitToolEvent(runID, tool.BatchValidate, e.nowRFC3339()); err != nil {
		return nil, nil, "", err
	}

	// Recompute always (spec.md §9): the tool's own reports/summary are
	// never trusted as authoritative.
	correctedReports, summary := verify.Aggregate(validateOut.Reports, e.Config.Policy.TruthAcceptThreshold)
	for _, r := range correctedReports {
		if err := e.Store.WriteValidationReport(runID, r); err != nil {
			return nil, nil, "", fmt.Errorf("workflow: persist report %s: %w", r.CandidateID, err)
		}
	}
	if err := e.Store.WriteValidationSummary(runID, summary); err != nil {
		return nil, nil, "", fmt.Errorf("workflow: persist summary: %w", err)
	}

	summaryHash, err := canonical.Hash(summary)
	if err != nil {
		return nil, nil, "", fmt.Errorf("workflow: hash summary: %w", err)
	}

	return candidateIDs, summary, summaryHash, nil
}

// Iterate runs one relax/tighten cycle against an existing run, per
// spec.md §4.9 "Iterate".
func (e *Engine) Iterate(ctx context.Context, runID string) (*IterateResult, error) {
	if !e.Store.RunExists(runID) {
		return nil, ErrRunNotFound
	}
	manifest, err := e.Store.ReadManifest(runID)
	if err != nil {
		return nil, fmt.Errorf("workflow: iterate %s: %w", runID, err)
	}
	priorConstraints, err := e.Store.ReadConstraints(runID)
	if err != nil {
		return nil, fmt.Errorf("workflow: iterate %s: %w", runID, err)
	}
	priorSummary, err := e.Store.ReadValidationSummary(runID)
	if err != nil {
		return nil, fmt.Errorf("workflow: iterate %s: %w", runID, err)
	}

	next := manifest.Iteration + 1
	if next > manifest.MaxIters {
		return nil, ErrMaxItersReached
	}

	decision := policy.Decide(priorSummary, e.Config.Policy, next)
	nextConstraints := policy.Apply(*priorConstraints, decision, next)
	if err := e.Store.WriteConstraints(runID, &nextConstraints); err != nil {
		return nil, fmt.Errorf("workflow: iterate %s: %w", runID, err)
	}

	_, summary, summaryHash, err := e.solveAndValidate(ctx, runID, nextConstraints)
	if err != nil {
		return nil, e.failRun(runID, manifest, "solve_and_validate", err)
	}

	truthScore := summary.TruthScores[summary.BestCandidateID]
	record := map[string]any{
		"iteration":           next,
		"decision":            decision,
		"summary_hash":        summaryHash,
		"chosen_candidate_id": summary.BestCandidateID,
		"truth_score":         truthScore,
	}
	if err := e.Store.WriteIterationRecord(runID, next, record); err != nil {
		return nil, fmt.Errorf("workflow: iterate %s: %w", runID, err)
	}

	manifest.Iteration = next
	manifest.Status = model.RunStatusOK
	manifest.SelectedCandidateID = summary.BestCandidateID
	manifest.TruthScore = &truthScore
	manifest.UpdatedAt = e.nowRFC3339()
	if err := e.Store.WriteManifest(runID, manifest); err != nil {
		return nil, fmt.Errorf("workflow: iterate %s: %w", runID, err)
	}

	return &IterateResult{
		RunID:             runID,
		Status:            string(model.RunStatusOK),
		Iteration:         next,
		Mode:              string(decision.Mode),
		Action:            decision.Action,
		ChosenCandidateID: summary.BestCandidateID,
		TruthScore:        truthScore,
		SummaryHash:       summaryHash,
	}, nil
}

// Validate reruns batch_validate against the candidates already on disk,
// without advancing the iteration counter (spec.md §4.9 "Validate").
func (e *Engine) Validate(ctx context.Context, runID string) (*ValidateResult, error) {
	if !e.Store.RunExists(runID) {
		return nil, ErrRunNotFound
	}
	manifest, err := e.Store.ReadManifest(runID)
	if err != nil {
		return nil, fmt.Errorf("workflow: validate %s: %w", runID, err)
	}

	ids, err := e.Store.ReadCandidateIDs(runID)
	if err != nil {
		return nil, fmt.Errorf("workflow: validate %s: %w", runID, err)
	}

	candidates := make([]model.Candidate, len(ids))
	for i, id := range ids {
		content, err := e.Store.ReadCandidate(runID, id)
		if err != nil {
			return nil, fmt.Errorf("workflow: validate %s: %w", runID, err)
		}
		candidates[i] = model.Candidate{CandidateID: id, Format: "cif", Content: content}
	}

	validateOut, err := tool.CallTyped[tool.BatchValidateOutput](ctx, e.Tool, tool.BatchValidate, tool.BatchValidateInput{
		Candidates:           candidates,
		TruthAcceptThreshold: e.Config.Policy.TruthAcceptThreshold,
	})
	if err != nil {
		return nil, e.failRun(runID, manifest, string(tool.BatchValidate), err)
	}
	if err := e.emitToolEvent(runID, tool.BatchValidate, e.nowRFC3339()); err != nil {
		return nil, err
	}

	correctedReports, summary := verify.Aggregate(validateOut.Reports, e.Config.Policy.TruthAcceptThreshold)
	for _, r := range correctedReports {
		if err := e.Store.WriteValidationReport(runID, r); err != nil {
			return nil, fmt.Errorf("workflow: validate %s: %w", runID, err)
		}
	}
	if err := e.Store.WriteValidationSummary(runID, summary); err != nil {
		return nil, fmt.Errorf("workflow: validate %s: %w", runID, err)
	}

	summaryHash, err := canonical.Hash(summary)
	if err != nil {
		return nil, fmt.Errorf("workflow: validate %s: %w", runID, err)
	}

	return &ValidateResult{
		RunID:           runID,
		CandidateIDs:    ids,
		BestCandidateID: summary.BestCandidateID,
		TruthScore:      summary.TruthScores[summary.BestCandidateID],
		SummaryHash:     summaryHash,
	}, nil
}

// Export writes exports/<id>.<ext> for the top-K candidates, ordered by
// the most recent summary's top_candidates, falling back to ascending
// on-disk order if no summary is present (spec.md §4.9 "Export").
func (e *Engine) Export(ctx context.Context, runID string, topK int, format string) (*ExportResult, error) {
	if !e.Store.RunExists(runID) {
		return nil, ErrRunNotFound
	}

	order, err := e.exportOrder(runID)
	if err != nil {
		return nil, fmt.Errorf("workflow: export %s: %w", runID, err)
	}
	if topK > 0 && topK < len(order) {
		order = order[:topK]
	}

	ext := "cif"
	if format == "poscar" {
		ext = "poscar"
	}

	exported := make([]string, 0, len(order))
	for _, id := range order {
		content, err := e.Store.ReadCandidate(runID, id)
		if err != nil {
			return nil, fmt.Errorf("workflow: export %s: %w", runID, err)
		}
		if format == "poscar" {
			content = fmt.Sprintf("# POSCAR placeholder for %s\n%s", id, content)
		}
		if err := e.Store.WriteExport(runID, id, ext, content); err != nil {
			return nil, fmt.Errorf("workflow: export %s: %w", runID, err)
		}
		exported = append(exported, id)
	}

	return &ExportResult{RunID: runID, Format: format, Exported: exported}, nil
}

func (e *Engine) exportOrder(runID string) ([]string, error) {
	summary, err := e.Store.ReadValidationSummary(runID)
	if err == nil && len(summary.TopCandidates) > 0 {
		ids := make([]string, len(summary.TopCandidates))
		for i, tc := range summary.TopCandidates {
			ids[i] = tc.CandidateID
		}
		return ids, nil
	}
	return e.Store.ReadCandidateIDs(runID)
}

// emitToolEvent appends a "tool_call" event recording name's successful
// outcome. Failure outcomes are recorded by failRun instead, since a
// failing call also needs to flip the manifest to status=error.
func (e *Engine) emitToolEvent(runID string, name tool.Name, ts string) error {
	return e.Store.AppendEvent(runID, model.NewEvent("tool_call", ts, map[string]any{"tool": string(name), "outcome": "ok"}))
}

// failRun marks manifest status=error, persists it, records a failure
// event, and returns a wrapped error. op names the step that failed (a
// tool.Name for a single failing call, or a short label like
// "solve_and_validate" when the failure could have come from either of two
// calls inside a shared helper — the underlying cause always names the
// specific tool). Per spec.md §7, the manifest is updated before the error
// surfaces to the caller; partial writes already on disk are left as-is.
func (e *Engine) failRun(runID string, manifest *model.RunManifest, op string, cause error) error {
	ts := e.nowRFC3339()
	manifest.Status = model.RunStatusError
	manifest.UpdatedAt = ts
	_ = e.Store.WriteManifest(runID, manifest)
	_ = e.Store.AppendEvent(runID, model.NewEvent("tool_call", ts, map[string]any{"op": op, "outcome": "error", "error": cause.Error()}))
	return fmt.Errorf("workflow: %s: %w", op, cause)
}
