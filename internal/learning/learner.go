// Package learning adjusts a user's willingness-to-travel score from
// observed switching behaviour and personalizes verdict thresholds.
//
// The update rule is a hand-tuned heuristic, not a fitted estimator. Its
// exact thresholds and increments are load-bearing: stored scores were
// produced by this rule, so any replacement must be introduced behind the
// Learner interface rather than by changing these constants.
package learning

import "math"

// Event is the observed outcome of a past recommendation: the user either
// acted on it or declined.
type Event struct {
	Accepted       bool
	NetSavingShown float64
	DistanceKm     float64
}

// Learner updates a willingness-to-travel score from one observed event.
// Scores are always clamped to [0,1].
type Learner interface {
	Update(score float64, ev Event) float64
}

const (
	// distanceEpsilon avoids division by zero for a same-location store.
	distanceEpsilon = 0.1

	// Value-per-km cutoffs separating "expected" from "surprising" behaviour.
	lowValuePerKm  = 50.0
	highValuePerKm = 100.0

	// Score increments: strong when the behaviour was surprising, weak
	// when it matched expectations.
	strongStep = 0.05
	weakStep   = 0.02
)

// HeuristicLearner is the production willingness-to-travel learner.
type HeuristicLearner struct{}

// NewHeuristicLearner creates the default learner.
func NewHeuristicLearner() *HeuristicLearner {
	return &HeuristicLearner{}
}

// Update applies one switching event to a willingness score.
//
// Accepting a recommendation with little incentive per kilometre means
// the user travels more readily than assumed (strong upward step);
// rejecting one with a large incentive means less readily (strong
// downward step). Everything else nudges the score weakly in the
// direction of the observed action.
func (l *HeuristicLearner) Update(score float64, ev Event) float64 {
	valuePerKm := ev.NetSavingShown / (ev.DistanceKm + distanceEpsilon)

	var adjustment float64
	if ev.Accepted {
		if valuePerKm < lowValuePerKm {
			adjustment = strongStep
		} else {
			adjustment = weakStep
		}
	} else {
		if valuePerKm > highValuePerKm {
			adjustment = -strongStep
		} else {
			adjustment = -weakStep
		}
	}

	return clamp01(score + adjustment)
}

// AdjustThresholds personalizes verdict thresholds for a willingness
// score. scale = 1.5 - willingness, so the default score 0.5 leaves
// thresholds unchanged, a fully willing user halves them and a fully
// unwilling user grows them by 50%.
func AdjustThresholds(baseHigh, baseLow, willingness float64) (high, low float64) {
	scale := 1.5 - willingness
	return baseHigh * scale, baseLow * scale
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
