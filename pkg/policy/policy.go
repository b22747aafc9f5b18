// Package policy implements the Iteration Policy (C8): a pure
// decide-then-mutate pair of functions with no PRNG consumption and no
// side effects beyond the ConstraintsSpec value returned from Apply.
package policy

import (
	"github.com/qlip-csp/orchestrator/pkg/config"
	"github.com/qlip-csp/orchestrator/pkg/model"
)

// Mode is the two-valued decision the policy can make.
type Mode string

const (
	ModeRelax   Mode = "relax"
	ModeTighten Mode = "tighten"
)

const (
	ActionWidenLattice             = "widen_lattice"
	ActionNarrowDensity            = "narrow_density"
	ActionIncreaseMaxAtoms         = "increase_max_atoms"
	ActionIncreaseMinDistanceScale = "increase_min_distance_scale"
	ActionExpandPrototypes         = "expand_prototypes"
	ActionRestrictPrototypes       = "restrict_prototypes"
)

// Decision is the output of Decide: a mode and the specific action chosen
// for this iteration within that mode.
type Decision struct {
	Mode   Mode
	Action string
}

// Decide inspects summary.FailureHistogram and policy to choose a mode and
// an action, per spec.md §4.8. It never mutates its inputs and never reads
// a PRNG.
func Decide(summary *model.ValidationSummary, policy config.PolicyConfig, iteration int) Decision {
	h := summary.FailureHistogram
	r := h[string(model.CheckDensityInRange)] + h[string(model.CheckChargeNeutralityFeasible)] + h[string(model.CheckSymmetryMatch)]
	t := h[string(model.CheckMinDistance)] + h[string(model.CheckCoordinationReasonable)]

	if r >= t {
		return Decision{Mode: ModeRelax, Action: pickAction(policy.RelaxOrder, iteration, ActionWidenLattice)}
	}
	return Decision{Mode: ModeTighten, Action: pickAction(policy.TightenOrder, iteration, ActionIncreaseMinDistanceScale)}
}

func pickAction(order []string, iteration int, fallback string) string {
	if len(order) == 0 {
		return fallback
	}
	return order[iteration%len(order)]
}

// Apply mutates a deep copy of constraints per decision and returns the
// result, always appending an Adjustment to the history regardless of
// which branch (if any) the action matches.
func Apply(constraints model.ConstraintsSpec, decision Decision, iteration int) model.ConstraintsSpec {
	next := constraints.Clone()
	next.Adjustments = append(next.Adjustments, model.Adjustment{
		Iteration: iteration,
		Mode:      string(decision.Mode),
		Action:    decision.Action,
	})

	switch decision.Action {
	case ActionWidenLattice:
		lo, hi := next.Priors.DensityRange[0], next.Priors.DensityRange[1]
		newLo := lo * 0.9
		if newLo < 0.1 {
			newLo = 0.1
		}
		next.Priors.DensityRange = [2]float64{newLo, hi * 1.1}
	case ActionNarrowDensity:
		lo, hi := next.Priors.DensityRange[0], next.Priors.DensityRange[1]
		newHi := hi * 0.95
		minHi := lo * 1.1
		if newHi < minHi {
			newHi = minHi
		}
		next.Priors.DensityRange = [2]float64{lo * 1.05, newHi}
	case ActionIncreaseMaxAtoms:
		next.Overrides = setOverride(next.Overrides, "max_atoms", func(cur any) any {
			if n, ok := asFloat(cur); ok {
				return n + 5
			}
			return float64(150)
		})
	case ActionIncreaseMinDistanceScale:
		next.Overrides = setOverride(next.Overrides, "min_distance_scale", func(cur any) any {
			if n, ok := asFloat(cur); ok {
				return n + 0.05
			}
			return 1.05
		})
	case ActionExpandPrototypes:
		next.Priors.Prototypes = append(next.Priors.Prototypes, "proto_extra")
	case ActionRestrictPrototypes:
		if len(next.Priors.Prototypes) > 1 {
			next.Priors.Prototypes = next.Priors.Prototypes[:len(next.Priors.Prototypes)-1]
		}
	}

	return next
}

func setOverride(overrides map[string]any, key string, next func(cur any) any) map[string]any {
	if overrides == nil {
		overrides = make(map[string]any, 1)
	}
	overrides[key] = next(overrides[key])
	return overrides
}

// asFloat coerces a decoded JSON numeric override (float64 after
// encoding/json round-trip, but an int if set programmatically in tests)
// into a float64.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
