package policy

import (
	"sort"
	"time"

	"github.com/sawpanic/eventguard/internal/domain"
)

// TranslatorConfig holds the protective sit-out buffers per event class.
// These are hard stops: realized historical losses occurred inside these
// windows even when the continuous score stayed below Severe, so proximity
// overrides score magnitude here.
type TranslatorConfig struct {
	// EarningsClassBufferDays guards earnings and regulatory disclosures.
	EarningsClassBufferDays int `yaml:"earnings_class_buffer_days" validate:"gte=0"`
	// DividendBufferDays guards dividend ex-dates.
	DividendBufferDays int `yaml:"dividend_buffer_days" validate:"gte=0"`
}

// DefaultTranslatorConfig returns the reference buffers.
func DefaultTranslatorConfig() TranslatorConfig {
	return TranslatorConfig{
		EarningsClassBufferDays: 3,
		DividendBufferDays:      1,
	}
}

// Decision is the actionable output of the translator.
type Decision struct {
	SkipTrading bool
	SitOutStart time.Time
	SitOutEnd   time.Time
}

// Translator converts event proximity into the skip flag and sit-out
// window. Haircut application outside the window belongs to the caller.
type Translator struct {
	config TranslatorConfig
}

// NewTranslator builds a translator from validated config.
func NewTranslator(config TranslatorConfig) *Translator {
	return &Translator{config: config}
}

// bufferFor returns the protective buffer for an event type.
func (t *Translator) bufferFor(etype domain.EventType) int {
	if etype == domain.EventDividendExDate {
		return t.config.DividendBufferDays
	}
	return t.config.EarningsClassBufferDays
}

type window struct {
	start time.Time
	end   time.Time
}

// Translate decides skip_trading and the sit-out range. The as-of date is
// inside a window when it falls within [event-buffer, event+buffer]
// inclusive; overlapping qualifying windows are reported as their union.
func (t *Translator) Translate(events []domain.Event, asOf time.Time) Decision {
	day := domain.Day(asOf)

	windows := make([]window, 0, len(events))
	for _, ev := range events {
		buf := time.Duration(t.bufferFor(ev.Type)) * 24 * time.Hour
		windows = append(windows, window{
			start: domain.Day(ev.Date).Add(-buf),
			end:   domain.Day(ev.Date).Add(buf),
		})
	}
	sort.Slice(windows, func(i, j int) bool { return windows[i].start.Before(windows[j].start) })

	// Merge overlapping or adjacent windows, then find the one covering
	// the as-of date.
	var merged []window
	for _, w := range windows {
		if n := len(merged); n > 0 && !w.start.After(merged[n-1].end.Add(24*time.Hour)) {
			if w.end.After(merged[n-1].end) {
				merged[n-1].end = w.end
			}
			continue
		}
		merged = append(merged, w)
	}

	for _, w := range merged {
		if !day.Before(w.start) && !day.After(w.end) {
			return Decision{SkipTrading: true, SitOutStart: w.start, SitOutEnd: w.end}
		}
	}
	return Decision{}
}
