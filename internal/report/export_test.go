package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/eventguard/internal/domain"
)

var asOf = time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

func sampleAssessment() domain.RiskAssessment {
	eventDate := asOf.AddDate(0, 0, 2)
	ev := domain.Event{
		ID:     domain.EventID("AAPL", domain.EventRegulatoryDisclosure, eventDate),
		Symbol: "AAPL",
		Type:   domain.EventRegulatoryDisclosure,
		Date:   eventDate,
		Source: domain.SourceManual,
	}
	return domain.RiskAssessment{
		Symbol:          "AAPL",
		AsOf:            asOf,
		NearestEvent:    &ev,
		DaysToEvent:     2,
		RiskScore:       0.82,
		Tier:            domain.TierSevere,
		HaircutFraction: 0.70,
		SkipTrading:     true,
		SitOutStart:     asOf.AddDate(0, 0, -1),
		SitOutEnd:       asOf.AddDate(0, 0, 5),
		Snapshot: domain.SignalSnapshot{
			Symbol:             "AAPL",
			AsOf:               asOf,
			SentimentScore:     -0.8,
			RealizedVolatility: domain.Float(0.02),
			BaselineVolatility: domain.Float(0.013),
			VolatilityRatio:    domain.Float(1.5),
			RollingBeta:        domain.Unavailable(),
		},
		Events: []domain.Event{ev},
	}
}

func degradedAssessment() domain.RiskAssessment {
	return domain.RiskAssessment{
		Symbol: "NEWCO",
		AsOf:   asOf,
		Tier:   domain.TierNone,
		Snapshot: domain.SignalSnapshot{
			Symbol:             "NEWCO",
			AsOf:               asOf,
			SentimentNoData:    true,
			RealizedVolatility: domain.Unavailable(),
			BaselineVolatility: domain.Unavailable(),
			VolatilityRatio:    domain.Unavailable(),
			RollingBeta:        domain.Unavailable(),
		},
		Degraded:       true,
		DegradedReason: []string{"feed:unavailable", "sentiment:no_data"},
	}
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []domain.RiskAssessment{sampleAssessment(), degradedAssessment()}))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, csvHeader, rows[0])

	header := map[string]int{}
	for i, name := range rows[0] {
		header[name] = i
	}

	full := rows[1]
	assert.Equal(t, "AAPL", full[header["symbol"]])
	assert.Equal(t, "severe", full[header["haircut_tier"]])
	assert.Equal(t, "true", full[header["skip_trading"]])
	assert.Equal(t, "2", full[header["days_to_event"]])
	assert.Equal(t, "0.0000", full[header["position_multiplier"]])
	assert.Equal(t, naMarker, full[header["rolling_beta"]], "unavailable beta must be an explicit marker")

	deg := rows[2]
	assert.Equal(t, "true", deg[header["degraded"]])
	assert.Equal(t, naMarker, deg[header["sentiment_score"]], "no-data sentiment must not read as 0")
	assert.Equal(t, naMarker, deg[header["nearest_event_type"]])
	assert.Equal(t, naMarker, deg[header["vol_ratio"]])
	assert.Empty(t, deg[header["sit_out_start"]])
}

func TestCycleReport_JSON(t *testing.T) {
	rep := BuildCycleReport([]domain.RiskAssessment{sampleAssessment(), degradedAssessment()}, asOf)
	assert.Equal(t, 2, rep.Symbols)
	assert.Equal(t, 1, rep.Degraded)

	var buf bytes.Buffer
	require.NoError(t, rep.WriteJSON(&buf))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	assessments := decoded["assessments"].([]any)
	require.Len(t, assessments, 2)

	// Unavailable fields serialize as explicit nulls, never omitted zeros.
	snap := assessments[1].(map[string]any)["signal_snapshot"].(map[string]any)
	val, present := snap["rolling_beta"]
	assert.True(t, present)
	assert.Nil(t, val)
}

func TestAdapterDoesNotAlterDecisions(t *testing.T) {
	in := sampleAssessment()
	before := in

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []domain.RiskAssessment{in}))
	_ = BuildCycleReport([]domain.RiskAssessment{in}, asOf)

	assert.Equal(t, before, in, "export must be a pure projection")
}
