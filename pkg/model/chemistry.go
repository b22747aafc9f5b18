package model

// ChemistrySuggestion is one candidate chemistry system proposed by
// materials-data-mcp's suggest_chemistries tool.
type ChemistrySuggestion struct {
	ChemSystem string  `json:"chem_system"`
	Rationale  string  `json:"rationale"`
	Confidence float64 `json:"confidence"`
}

// ChemistryPriors bounds the MILP search space for a chosen chemistry.
type ChemistryPriors struct {
	LatticePrior struct {
		Symmetry string `json:"symmetry"`
	} `json:"lattice_prior"`
	DensityRange              [2]float64       `json:"density_range"`
	OxidationStateConstraints map[string][]int `json:"oxidation_state_constraints"`
	Prototypes                []string         `json:"prototypes"`
}

// Clone returns a deep copy so callers can mutate the result (e.g. the
// iteration policy widening a density range) without aliasing the source.
func (p ChemistryPriors) Clone() ChemistryPriors {
	cp := ChemistryPriors{
		LatticePrior: p.LatticePrior,
		DensityRange: p.DensityRange,
	}
	if p.OxidationStateConstraints != nil {
		cp.OxidationStateConstraints = make(map[string][]int, len(p.OxidationStateConstraints))
		for k, v := range p.OxidationStateConstraints {
			vc := make([]int, len(v))
			copy(vc, v)
			cp.OxidationStateConstraints[k] = vc
		}
	}
	cp.Prototypes = append([]string(nil), p.Prototypes...)
	return cp
}
