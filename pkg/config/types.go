package config

// PolicyConfig holds the iteration policy's tunable knobs (C8 in
// SPEC_FULL.md). relax_order/tighten_order cycle by iteration number modulo
// their length; an empty list falls back to a fixed default action.
type PolicyConfig struct {
	MaxIters             int      `json:"max_iters"`
	TruthAcceptThreshold float64  `json:"truth_accept_threshold"`
	RelaxOrder           []string `json:"relax_order"`
	TightenOrder         []string `json:"tighten_order"`
}

// Config is the fully resolved configuration for a run: built-in defaults
// merged with an optional config file, merged with CLI overrides.
type Config struct {
	Workspace string       `json:"workspace"`
	Solver    Solver       `json:"solver"`
	Policy    PolicyConfig `json:"policy"`
}

// Snapshot renders Config as a plain map for embedding into a RunManifest's
// config_snapshot field (which must be JSON-shaped, not a Go struct with
// unexported fields or methods).
func (c Config) Snapshot() map[string]any {
	return map[string]any{
		"workspace": c.Workspace,
		"solver":    string(c.Solver),
		"policy": map[string]any{
			"max_iters":              c.Policy.MaxIters,
			"truth_accept_threshold": c.Policy.TruthAcceptThreshold,
			"relax_order":            c.Policy.RelaxOrder,
			"tighten_order":          c.Policy.TightenOrder,
		},
	}
}

// CLIOverrides carries the three flags spec.md assigns CLI-level
// precedence: --workspace, --solver, --max-iters. A nil/zero-value pointer
// means "not supplied" and must not override lower-precedence sources.
type CLIOverrides struct {
	Workspace *string
	Solver    *string
	MaxIters  *int
}
