package score

import (
	"math"
	"sort"
	"time"

	"github.com/sawpanic/eventguard/internal/domain"
)

// ScorerConfig holds every tunable of the composite risk score. Thresholds
// and weights live here, not in logic, so recalibration is a config change.
type ScorerConfig struct {
	// Per-event-type relevance horizons and decay shapes.
	Horizons map[domain.EventType]HorizonConfig `yaml:"horizons" validate:"required,dive"`

	// Event-type weights. Regulatory disclosures carry the highest weight:
	// historically the largest and least predictable reactions.
	TypeWeights map[domain.EventType]float64 `yaml:"type_weights" validate:"required"`

	// Term coefficients of the weighted combination. Chosen so no single
	// term alone exceeds 1 before clipping.
	EventTermWeight     float64 `yaml:"event_term_weight"     validate:"gt=0"`
	SentimentTermWeight float64 `yaml:"sentiment_term_weight" validate:"gte=0"`
	VolTermWeight       float64 `yaml:"vol_term_weight"       validate:"gte=0"`

	// EventTermScale saturates proximity*typeWeight: values at or above the
	// scale pin the event term at 1.0.
	EventTermScale float64 `yaml:"event_term_scale" validate:"gt=0"`

	// VolRatioScale maps volatility_ratio excess over 1.0 onto [0,1].
	VolRatioScale float64 `yaml:"vol_ratio_scale" validate:"gt=0"`

	// VolSpikeThreshold flags a volatility spike.
	VolSpikeThreshold float64 `yaml:"vol_spike_threshold" validate:"gt=1"`

	// Tier thresholds (lower bounds, strictly increasing) and the haircut
	// fraction each tier applies.
	TierThresholds TierThresholds `yaml:"tier_thresholds"`
	Haircuts       Haircuts       `yaml:"haircuts"`
}

// TierThresholds are the lower score bounds of the non-None tiers.
type TierThresholds struct {
	Light    float64 `yaml:"light"    validate:"gt=0,lt=1"`
	Moderate float64 `yaml:"moderate" validate:"gt=0,lt=1"`
	Severe   float64 `yaml:"severe"   validate:"gt=0,lt=1"`
}

// Haircuts are the position-size reductions per tier.
type Haircuts struct {
	None     float64 `yaml:"none"     validate:"gte=0,lte=1"`
	Light    float64 `yaml:"light"    validate:"gte=0,lte=1"`
	Moderate float64 `yaml:"moderate" validate:"gte=0,lte=1"`
	Severe   float64 `yaml:"severe"   validate:"gte=0,lte=1"`
}

// DefaultScorerConfig returns the reference calibration.
func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{
		Horizons: map[domain.EventType]HorizonConfig{
			domain.EventRegulatoryDisclosure: {LookbackDays: 10, LookaheadDays: 10, Shape: DecayLinear, HalfLifeDays: 3, PastScale: 0.6},
			domain.EventEarnings:             {LookbackDays: 10, LookaheadDays: 10, Shape: DecayLinear, HalfLifeDays: 3, PastScale: 0.6},
			domain.EventDividendExDate:       {LookbackDays: 3, LookaheadDays: 3, Shape: DecayLinear, HalfLifeDays: 1, PastScale: 0.5},
		},
		TypeWeights: map[domain.EventType]float64{
			domain.EventRegulatoryDisclosure: 3.0,
			domain.EventEarnings:             1.0,
			domain.EventDividendExDate:       1.0,
		},
		EventTermWeight:     0.60,
		SentimentTermWeight: 0.25,
		VolTermWeight:       0.15,
		EventTermScale:      2.0,
		VolRatioScale:       1.0,
		VolSpikeThreshold:   1.35,
		TierThresholds:      TierThresholds{Light: 0.25, Moderate: 0.50, Severe: 0.75},
		Haircuts:            Haircuts{None: 0.0, Light: 0.20, Moderate: 0.45, Severe: 0.70},
	}
}

// Scorer combines event proximity, type weight, sentiment magnitude, and
// the volatility spike ratio into a bounded risk score plus haircut tier.
type Scorer struct {
	config ScorerConfig
}

// NewScorer builds a scorer from validated config.
func NewScorer(config ScorerConfig) *Scorer {
	return &Scorer{config: config}
}

// Result carries the scored outcome before policy translation.
type Result struct {
	Score        float64
	Tier         domain.HaircutTier
	Haircut      float64
	NearestEvent *domain.Event
	DaysToEvent  int
}

// Score computes the composite risk score for a symbol's merged events and
// signal snapshot. Pure: identical inputs give identical results.
func (s *Scorer) Score(events []domain.Event, snap domain.SignalSnapshot) Result {
	nearest, days := s.nearestRelevant(events, snap.AsOf)
	spike := snap.VolatilitySpike(s.config.VolSpikeThreshold)

	// Event-driven-only rule: without a concrete event in horizon or a
	// volatility spike, sentiment alone never triggers a haircut. Noisy
	// text signals have produced too many false positives to act on alone.
	if nearest == nil && !spike {
		return s.resultFor(0, nil, 0)
	}

	type term struct {
		weight float64
		value  float64
	}
	terms := []term{}

	eventTerm := 0.0
	if nearest != nil {
		horizon := s.config.Horizons[nearest.Type]
		weight := s.config.TypeWeights[nearest.Type]
		eventTerm = clamp01(horizon.Proximity(days) * weight / s.config.EventTermScale)
	}
	terms = append(terms, term{s.config.EventTermWeight, eventTerm})

	// Sentiment magnitude drives uncertainty regardless of polarity. A
	// no-data window is excluded and renormalized out, never read as 0.
	if !snap.SentimentNoData {
		terms = append(terms, term{s.config.SentimentTermWeight, math.Abs(snap.SentimentScore)})
	}

	if snap.VolatilityRatio.Valid {
		volTerm := clamp01((snap.VolatilityRatio.Value - 1.0) / s.config.VolRatioScale)
		terms = append(terms, term{s.config.VolTermWeight, volTerm})
	}

	var weighted, totalWeight float64
	for _, t := range terms {
		weighted += t.weight * t.value
		totalWeight += t.weight
	}
	fullWeight := s.config.EventTermWeight + s.config.SentimentTermWeight + s.config.VolTermWeight

	// Renormalize over the available terms so a missing signal never
	// silently drags the score toward "safe". With every term available
	// this is the plain weighted sum.
	raw := 0.0
	if totalWeight > 0 {
		raw = weighted / totalWeight * fullWeight
	}

	return s.resultFor(clamp01(raw), nearest, days)
}

// nearestRelevant picks the event with the smallest absolute day distance
// among events still inside their type-specific horizon.
func (s *Scorer) nearestRelevant(events []domain.Event, asOf time.Time) (*domain.Event, int) {
	var nearest *domain.Event
	nearestDays := 0
	for i := range events {
		ev := events[i]
		horizon, ok := s.config.Horizons[ev.Type]
		if !ok {
			continue
		}
		days := domain.DaysBetween(asOf, ev.Date)
		if !horizon.Relevant(days) {
			continue
		}
		if nearest == nil || absInt(days) < absInt(nearestDays) {
			nearest = &ev
			nearestDays = days
		}
	}
	return nearest, nearestDays
}

func (s *Scorer) resultFor(score float64, nearest *domain.Event, days int) Result {
	tier, haircut := s.tierFor(score)
	return Result{Score: score, Tier: tier, Haircut: haircut, NearestEvent: nearest, DaysToEvent: days}
}

func (s *Scorer) tierFor(score float64) (domain.HaircutTier, float64) {
	t := s.config.TierThresholds
	h := s.config.Haircuts
	switch {
	case score >= t.Severe:
		return domain.TierSevere, h.Severe
	case score >= t.Moderate:
		return domain.TierModerate, h.Moderate
	case score >= t.Light:
		return domain.TierLight, h.Light
	default:
		return domain.TierNone, h.None
	}
}

// SortEventsByProximity orders events by absolute distance to the as-of
// date, closest first. Used by reporting.
func SortEventsByProximity(events []domain.Event, asOf time.Time) {
	sort.Slice(events, func(i, j int) bool {
		return absInt(domain.DaysBetween(asOf, events[i].Date)) <
			absInt(domain.DaysBetween(asOf, events[j].Date))
	})
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
