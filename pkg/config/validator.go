package config

import "fmt"

// validate enforces the enum and range constraints spec.md §4.3/§4.8
// place on a resolved Config.
func validate(cfg *Config) error {
	if cfg.Workspace == "" {
		return NewValidationError("workspace", ErrMissingRequiredField)
	}
	if !cfg.Solver.IsValid() {
		return NewValidationError("solver", fmt.Errorf("%w: %q (must be one of gurobi, cbc, highs)", ErrInvalidValue, cfg.Solver))
	}
	if cfg.Policy.MaxIters < 1 {
		return NewValidationError("policy.max_iters", fmt.Errorf("%w: must be >= 1", ErrInvalidValue))
	}
	if cfg.Policy.TruthAcceptThreshold < 0 || cfg.Policy.TruthAcceptThreshold > 1 {
		return NewValidationError("policy.truth_accept_threshold", fmt.Errorf("%w: must be in [0,1]", ErrInvalidValue))
	}
	return nil
}
