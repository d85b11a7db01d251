package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType classifies a dated occurrence expected to move a symbol's price.
type EventType string

const (
	EventRegulatoryDisclosure EventType = "regulatory_disclosure"
	EventEarnings             EventType = "earnings"
	EventDividendExDate       EventType = "dividend_ex_date"
)

// ValidEventTypes lists every recognized event type.
var ValidEventTypes = []EventType{
	EventRegulatoryDisclosure,
	EventEarnings,
	EventDividendExDate,
}

// ParseEventType maps a calendar/feed string onto an EventType.
func ParseEventType(s string) (EventType, error) {
	for _, et := range ValidEventTypes {
		if string(et) == s {
			return et, nil
		}
	}
	return "", fmt.Errorf("unknown event type %q", s)
}

// EventSource identifies where an event was observed.
type EventSource string

const (
	SourceScheduled EventSource = "scheduled" // programmatic market-data feed
	SourceManual    EventSource = "manual"    // curated calendar file
)

// Event is a dated, typed occurrence for one symbol. The (Symbol, Type, Date)
// key is never retroactively mutated once observed; duplicates within the
// merge tolerance are collapsed by the catalog merger.
type Event struct {
	ID          uuid.UUID   `json:"id"`
	Symbol      string      `json:"symbol"`
	Type        EventType   `json:"type"`
	Date        time.Time   `json:"date"` // calendar date, UTC midnight
	Source      EventSource `json:"source"`
	Confidence  float64     `json:"confidence"` // 0.0-1.0
	Description string      `json:"description,omitempty"`
}

// Key returns the dedup identity of the event.
func (e Event) Key() string {
	return fmt.Sprintf("%s|%s|%s", e.Symbol, e.Type, e.Date.Format("2006-01-02"))
}

// EventID derives a stable ID from the event key. Deterministic so that
// re-running a cycle on identical inputs reproduces identical assessments.
func EventID(symbol string, etype EventType, date time.Time) uuid.UUID {
	key := fmt.Sprintf("%s|%s|%s", symbol, etype, date.Format("2006-01-02"))
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key))
}

// OptFloat is a float64 that can be marked unavailable. Unavailable is a
// distinct state from zero so degraded computations stay detectable
// downstream instead of hiding behind numeric sentinels.
type OptFloat struct {
	Value float64
	Valid bool
}

// Float wraps a computed value.
func Float(v float64) OptFloat { return OptFloat{Value: v, Valid: true} }

// Unavailable marks a value that could not be computed.
func Unavailable() OptFloat { return OptFloat{} }

// MarshalJSON renders unavailable values as null.
func (o OptFloat) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf("%g", o.Value)), nil
}

// SignalSnapshot holds the per-symbol signals computed fresh each cycle.
// Immutable after creation; lifetime is one trading cycle.
type SignalSnapshot struct {
	Symbol               string    `json:"symbol"`
	AsOf                 time.Time `json:"as_of"`
	SentimentScore       float64   `json:"sentiment_score"` // [-1, 1]
	SentimentNoData      bool      `json:"sentiment_no_data"`
	SentimentWindowHours int       `json:"sentiment_window_hours"`
	RealizedVolatility   OptFloat  `json:"realized_volatility"`
	BaselineVolatility   OptFloat  `json:"baseline_volatility"`
	VolatilityRatio      OptFloat  `json:"volatility_ratio"` // realized/baseline
	RollingBeta          OptFloat  `json:"rolling_beta"`
}

// VolatilitySpike reports whether the realized/baseline ratio clears the
// configured threshold. False when the ratio is unavailable.
func (s SignalSnapshot) VolatilitySpike(threshold float64) bool {
	return s.VolatilityRatio.Valid && s.VolatilityRatio.Value >= threshold
}

// HaircutTier buckets a risk score into a position-size reduction class.
type HaircutTier string

const (
	TierNone     HaircutTier = "none"
	TierLight    HaircutTier = "light"
	TierModerate HaircutTier = "moderate"
	TierSevere   HaircutTier = "severe"
)

// RiskAssessment is the Guard's decision for one symbol on one as-of date.
// Read-only once emitted; downstream stages consume it, never mutate it.
type RiskAssessment struct {
	Symbol          string      `json:"symbol"`
	AsOf            time.Time   `json:"as_of"`
	NearestEvent    *Event      `json:"nearest_event,omitempty"`
	DaysToEvent     int         `json:"days_to_event"` // meaningful only when NearestEvent != nil
	RiskScore       float64     `json:"risk_score"`    // [0, 1]
	Tier            HaircutTier `json:"haircut_tier"`
	HaircutFraction float64     `json:"haircut_fraction"`
	SkipTrading     bool        `json:"skip_trading"`
	SitOutStart     time.Time   `json:"sit_out_start,omitempty"`
	SitOutEnd       time.Time   `json:"sit_out_end,omitempty"`

	// Degraded marks an assessment computed with one or more inputs missing
	// (feed timeout, insufficient history, empty sentiment window).
	Degraded       bool     `json:"degraded"`
	DegradedReason []string `json:"degraded_reasons,omitempty"`

	Snapshot SignalSnapshot `json:"signal_snapshot"`
	Events   []Event        `json:"events,omitempty"`
}

// PositionMultiplier is the factor applied to the nominal position size.
// Zero inside a sit-out window, otherwise 1 - haircut.
func (ra RiskAssessment) PositionMultiplier() float64 {
	if ra.SkipTrading {
		return 0
	}
	return 1 - ra.HaircutFraction
}

// Day truncates t to a UTC calendar date. All event math operates on whole
// days so that feed timestamps and calendar rows compare cleanly.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the signed whole-day distance from 'from' to 'to'.
func DaysBetween(from, to time.Time) int {
	return int(Day(to).Sub(Day(from)).Hours() / 24)
}
