package score

import (
	"fmt"
	"math"
)

// DecayShape selects how the proximity factor falls off with distance to
// the event. Both shapes are maximal at day zero and reach (or effectively
// reach) zero at the horizon edge; the shape is configuration, not code.
type DecayShape string

const (
	DecayLinear      DecayShape = "linear"
	DecayExponential DecayShape = "exponential"
)

// ParseDecayShape validates a configured decay shape name.
func ParseDecayShape(s string) (DecayShape, error) {
	switch DecayShape(s) {
	case DecayLinear, DecayExponential:
		return DecayShape(s), nil
	}
	return "", fmt.Errorf("unknown decay shape %q", s)
}

// HorizonConfig bounds and shapes event relevance for one event type. The
// past and future sides are independently tunable: residual risk from an
// unresolved reaction decays differently than risk from an approaching date.
type HorizonConfig struct {
	LookbackDays  int        `yaml:"lookback_days"  validate:"gte=0"` // past-side horizon
	LookaheadDays int        `yaml:"lookahead_days" validate:"gte=0"` // future-side horizon
	Shape         DecayShape `yaml:"shape"          validate:"oneof=linear exponential"`
	HalfLifeDays  float64    `yaml:"half_life_days" validate:"gt=0"` // exponential shape only
	PastScale     float64    `yaml:"past_scale"     validate:"gte=0,lte=1"` // damping for events already past
}

// Relevant reports whether a signed day distance falls inside the horizon.
func (h HorizonConfig) Relevant(daysToEvent int) bool {
	if daysToEvent >= 0 {
		return daysToEvent <= h.LookaheadDays
	}
	return -daysToEvent <= h.LookbackDays
}

// Proximity returns the decay factor in [0,1] for a signed day distance:
// 1.0 at day zero, falling to zero at the horizon edge. Past-side values are
// additionally damped by PastScale. Outside the horizon the factor is zero.
func (h HorizonConfig) Proximity(daysToEvent int) float64 {
	if !h.Relevant(daysToEvent) {
		return 0
	}
	if daysToEvent == 0 {
		return 1
	}

	dist := float64(daysToEvent)
	horizon := float64(h.LookaheadDays)
	side := 1.0
	if daysToEvent < 0 {
		dist = -dist
		horizon = float64(h.LookbackDays)
		side = h.PastScale
	}

	var factor float64
	switch h.Shape {
	case DecayExponential:
		factor = math.Exp(-math.Ln2 * dist / h.HalfLifeDays)
	default:
		factor = 1 - dist/horizon
	}
	return math.Max(0, factor) * side
}
