package model

// Adjustment is a single entry in a ConstraintsSpec's append-only policy
// decision history.
type Adjustment struct {
	Iteration int    `json:"iteration"`
	Mode      string `json:"mode"` // "relax" | "tighten"
	Action    string `json:"action"`
}

// ConstraintsSpec is the input the solver tool (qlip-mcp.build_constraints /
// run_qlip) consumes. It is rewritten in full on every iteration; history
// lives only in Adjustments, which is append-only across iterations.
type ConstraintsSpec struct {
	ChemSystem  string          `json:"chem_system"`
	Priors      ChemistryPriors `json:"priors"`
	Overrides   map[string]any  `json:"overrides"`
	Adjustments []Adjustment    `json:"adjustments"`
}

// Clone returns a deep copy, used by the iteration policy so that mutation
// of the "next" constraints never aliases the persisted "current" ones.
func (c ConstraintsSpec) Clone() ConstraintsSpec {
	cp := ConstraintsSpec{
		ChemSystem: c.ChemSystem,
		Priors:     c.Priors.Clone(),
	}
	if c.Overrides != nil {
		cp.Overrides = make(map[string]any, len(c.Overrides))
		for k, v := range c.Overrides {
			cp.Overrides[k] = v
		}
	}
	cp.Adjustments = append([]Adjustment(nil), c.Adjustments...)
	return cp
}
