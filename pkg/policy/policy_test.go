package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/qlip-csp/orchestrator/pkg/config"
	"github.com/qlip-csp/orchestrator/pkg/model"
)

func summaryWith(histogram map[string]int) *model.ValidationSummary {
	full := make(map[string]int, len(model.AllCheckNames))
	for _, n := range model.AllCheckNames {
		full[string(n)] = 0
	}
	for k, v := range histogram {
		full[k] = v
	}
	return &model.ValidationSummary{FailureHistogram: full}
}

func TestDecide_TightenWhenMinDistanceDominates(t *testing.T) {
	s := summaryWith(map[string]int{"min_distance": 5})
	pc := config.DefaultConfig().Policy

	d := Decide(s, pc, 2)

	assert.Equal(t, ModeTighten, d.Mode)
	assert.Equal(t, pc.TightenOrder[2%len(pc.TightenOrder)], d.Action)
}

func TestDecide_RelaxOnTie(t *testing.T) {
	s := summaryWith(nil) // all zero, R == T == 0
	pc := config.DefaultConfig().Policy

	d := Decide(s, pc, 0)

	assert.Equal(t, ModeRelax, d.Mode)
	assert.Equal(t, pc.RelaxOrder[0], d.Action)
}

func TestDecide_EmptyOrderFallsBackToFixedAction(t *testing.T) {
	s := summaryWith(map[string]int{"symmetry_match": 3})
	pc := config.PolicyConfig{RelaxOrder: nil, TightenOrder: nil}

	d := Decide(s, pc, 7)

	assert.Equal(t, ModeRelax, d.Mode)
	assert.Equal(t, ActionWidenLattice, d.Action)
}

func TestApply_WidenLattice(t *testing.T) {
	c := model.ConstraintsSpec{Priors: model.ChemistryPriors{DensityRange: [2]float64{1.0, 2.0}}}
	next := Apply(c, Decision{Mode: ModeRelax, Action: ActionWidenLattice}, 1)

	assert.InDelta(t, 0.9, next.Priors.DensityRange[0], 1e-9)
	assert.InDelta(t, 2.2, next.Priors.DensityRange[1], 1e-9)
	assert.Equal(t, []model.Adjustment{{Iteration: 1, Mode: "relax", Action: "widen_lattice"}}, next.Adjustments)
}

func TestApply_WidenLatticeFloorsAtPointOne(t *testing.T) {
	c := model.ConstraintsSpec{Priors: model.ChemistryPriors{DensityRange: [2]float64{0.05, 1.0}}}
	next := Apply(c, Decision{Mode: ModeRelax, Action: ActionWidenLattice}, 1)

	assert.InDelta(t, 0.1, next.Priors.DensityRange[0], 1e-9)
}

func TestApply_IncreaseMaxAtoms_DefaultsTo150WhenAbsent(t *testing.T) {
	c := model.ConstraintsSpec{}
	next := Apply(c, Decision{Mode: ModeRelax, Action: ActionIncreaseMaxAtoms}, 1)

	assert.Equal(t, float64(150), next.Overrides["max_atoms"])
}

func TestApply_IncreaseMaxAtoms_AddsFiveWhenNumeric(t *testing.T) {
	c := model.ConstraintsSpec{Overrides: map[string]any{"max_atoms": float64(100)}}
	next := Apply(c, Decision{Mode: ModeRelax, Action: ActionIncreaseMaxAtoms}, 1)

	assert.Equal(t, float64(105), next.Overrides["max_atoms"])
}

func TestApply_RestrictPrototypesKeepsAtLeastOne(t *testing.T) {
	c := model.ConstraintsSpec{Priors: model.ChemistryPriors{Prototypes: []string{"perovskite"}}}
	next := Apply(c, Decision{Mode: ModeTighten, Action: ActionRestrictPrototypes}, 1)

	assert.Equal(t, []string{"perovskite"}, next.Priors.Prototypes)
}

func TestApply_UnknownActionStillAppendsAdjustment(t *testing.T) {
	c := model.ConstraintsSpec{}
	next := Apply(c, Decision{Mode: ModeRelax, Action: "nonexistent"}, 3)

	assert.Len(t, next.Adjustments, 1)
}

func TestApply_DoesNotAliasInputConstraints(t *testing.T) {
	c := model.ConstraintsSpec{Priors: model.ChemistryPriors{Prototypes: []string{"perovskite"}}}
	_ = Apply(c, Decision{Mode: ModeTighten, Action: ActionExpandPrototypes}, 1)

	assert.Equal(t, []string{"perovskite"}, c.Priors.Prototypes)
}
