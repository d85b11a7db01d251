package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/eventguard/internal/domain"
)

var asOf = time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

func eventAt(etype domain.EventType, daysOut int) domain.Event {
	date := asOf.AddDate(0, 0, daysOut)
	return domain.Event{
		ID:     domain.EventID("TEST", etype, date),
		Symbol: "TEST",
		Type:   etype,
		Date:   date,
		Source: domain.SourceManual,
	}
}

func TestTranslate_NoEvents(t *testing.T) {
	tr := NewTranslator(DefaultTranslatorConfig())
	d := tr.Translate(nil, asOf)
	assert.False(t, d.SkipTrading)
	assert.True(t, d.SitOutStart.IsZero())
	assert.True(t, d.SitOutEnd.IsZero())
}

func TestTranslate_EarningsBuffer(t *testing.T) {
	tr := NewTranslator(DefaultTranslatorConfig())

	tests := []struct {
		daysOut int
		skip    bool
	}{
		{0, true},
		{3, true},  // edge of ±3 buffer, inclusive
		{-3, true},
		{4, false},
		{-4, false},
	}
	for _, tt := range tests {
		d := tr.Translate([]domain.Event{eventAt(domain.EventEarnings, tt.daysOut)}, asOf)
		assert.Equal(t, tt.skip, d.SkipTrading, "daysOut=%d", tt.daysOut)
	}
}

func TestTranslate_RegulatoryUsesEarningsClassBuffer(t *testing.T) {
	tr := NewTranslator(DefaultTranslatorConfig())
	d := tr.Translate([]domain.Event{eventAt(domain.EventRegulatoryDisclosure, 2)}, asOf)
	require.True(t, d.SkipTrading)

	// The window must cover the event date itself.
	eventDay := asOf.AddDate(0, 0, 2)
	assert.False(t, eventDay.Before(d.SitOutStart))
	assert.False(t, eventDay.After(d.SitOutEnd))
}

func TestTranslate_DividendBuffer(t *testing.T) {
	// A dividend ex-date one day out forces a skip purely from the hard
	// buffer, whatever the continuous score said.
	tr := NewTranslator(DefaultTranslatorConfig())

	d := tr.Translate([]domain.Event{eventAt(domain.EventDividendExDate, 1)}, asOf)
	assert.True(t, d.SkipTrading)

	d = tr.Translate([]domain.Event{eventAt(domain.EventDividendExDate, 2)}, asOf)
	assert.False(t, d.SkipTrading)
}

func TestTranslate_SitOutContainment(t *testing.T) {
	tr := NewTranslator(DefaultTranslatorConfig())

	for daysOut := -3; daysOut <= 3; daysOut++ {
		d := tr.Translate([]domain.Event{eventAt(domain.EventEarnings, daysOut)}, asOf)
		require.True(t, d.SkipTrading, "daysOut=%d", daysOut)
		day := domain.Day(asOf)
		assert.False(t, day.Before(d.SitOutStart), "daysOut=%d", daysOut)
		assert.False(t, day.After(d.SitOutEnd), "daysOut=%d", daysOut)
	}
}

func TestTranslate_OverlappingWindowsUnion(t *testing.T) {
	tr := NewTranslator(DefaultTranslatorConfig())

	// Earnings at +2 and regulatory at +6: windows [-1,+5] and [+3,+9]
	// overlap, so the union [-1,+9] is reported.
	events := []domain.Event{
		eventAt(domain.EventEarnings, 2),
		eventAt(domain.EventRegulatoryDisclosure, 6),
	}
	d := tr.Translate(events, asOf)
	require.True(t, d.SkipTrading)
	assert.Equal(t, asOf.AddDate(0, 0, -1), d.SitOutStart)
	assert.Equal(t, asOf.AddDate(0, 0, 9), d.SitOutEnd)
}

func TestTranslate_DisjointWindowPicksCovering(t *testing.T) {
	tr := NewTranslator(DefaultTranslatorConfig())

	// Only the second window covers the as-of date.
	events := []domain.Event{
		eventAt(domain.EventEarnings, -10),
		eventAt(domain.EventEarnings, 1),
	}
	d := tr.Translate(events, asOf)
	require.True(t, d.SkipTrading)
	assert.Equal(t, asOf.AddDate(0, 0, -2), d.SitOutStart)
	assert.Equal(t, asOf.AddDate(0, 0, 4), d.SitOutEnd)
}
