package config

// DefaultConfig returns the built-in configuration, the lowest-precedence
// layer in the defaults ← file ← CLI merge chain.
func DefaultConfig() Config {
	return Config{
		Workspace: "./csp-workspace",
		Solver:    SolverHighs,
		Policy: PolicyConfig{
			MaxIters:             5,
			TruthAcceptThreshold: 0.8,
			RelaxOrder: []string{
				"widen_lattice",
				"increase_max_atoms",
				"expand_prototypes",
			},
			TightenOrder: []string{
				"increase_min_distance_scale",
				"narrow_density",
				"restrict_prototypes",
			},
		},
	}
}
