package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/sawpanic/eventguard/internal/domain"
)

// The adapter is a pure projection of RiskAssessments: it never alters a
// decision, and unavailable fields are rendered as an explicit NA marker so
// degraded computations stay visible in the artifact.

// naMarker represents an unavailable numeric field in the CSV export.
const naMarker = "NA"

// CycleReport is the structured per-cycle document for the visual report.
type CycleReport struct {
	GeneratedAt time.Time               `json:"generated_at"`
	AsOf        time.Time               `json:"as_of"`
	Symbols     int                     `json:"symbols"`
	Degraded    int                     `json:"degraded"`
	Assessments []domain.RiskAssessment `json:"assessments"`
}

// BuildCycleReport assembles the report document.
func BuildCycleReport(assessments []domain.RiskAssessment, asOf time.Time) CycleReport {
	degraded := 0
	for _, ra := range assessments {
		if ra.Degraded {
			degraded++
		}
	}
	return CycleReport{
		GeneratedAt: time.Now().UTC(),
		AsOf:        asOf,
		Symbols:     len(assessments),
		Degraded:    degraded,
		Assessments: assessments,
	}
}

// WriteJSON emits the report document.
func (r CycleReport) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode cycle report: %w", err)
	}
	return nil
}

// WriteJSONFile writes the report document to path.
func (r CycleReport) WriteJSONFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()
	return r.WriteJSON(f)
}

// csvHeader is the wide-export column set. Downstream joins these columns
// onto the prediction/opportunity fields by symbol.
var csvHeader = []string{
	"symbol", "as_of",
	"risk_score", "haircut_tier", "haircut_fraction", "position_multiplier",
	"skip_trading", "sit_out_start", "sit_out_end",
	"nearest_event_type", "nearest_event_date", "days_to_event", "event_source",
	"sentiment_score", "sentiment_no_data",
	"realized_vol", "baseline_vol", "vol_ratio", "rolling_beta",
	"degraded", "degraded_reasons",
}

// WriteCSV emits one row per assessment.
func WriteCSV(w io.Writer, assessments []domain.RiskAssessment) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, ra := range assessments {
		if err := cw.Write(csvRow(ra)); err != nil {
			return fmt.Errorf("write csv row for %s: %w", ra.Symbol, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the wide export to path.
func WriteCSVFile(path string, assessments []domain.RiskAssessment) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()
	return WriteCSV(f, assessments)
}

func csvRow(ra domain.RiskAssessment) []string {
	eventType, eventDate, eventSource, daysTo := naMarker, naMarker, naMarker, naMarker
	if ra.NearestEvent != nil {
		eventType = string(ra.NearestEvent.Type)
		eventDate = ra.NearestEvent.Date.Format("2006-01-02")
		eventSource = string(ra.NearestEvent.Source)
		daysTo = strconv.Itoa(ra.DaysToEvent)
	}

	sitStart, sitEnd := "", ""
	if ra.SkipTrading {
		sitStart = ra.SitOutStart.Format("2006-01-02")
		sitEnd = ra.SitOutEnd.Format("2006-01-02")
	}

	sentiment := naMarker
	if !ra.Snapshot.SentimentNoData {
		sentiment = formatFloat(ra.Snapshot.SentimentScore)
	}

	reasons, _ := json.Marshal(ra.DegradedReason)

	return []string{
		ra.Symbol,
		ra.AsOf.Format("2006-01-02"),
		formatFloat(ra.RiskScore),
		string(ra.Tier),
		formatFloat(ra.HaircutFraction),
		formatFloat(ra.PositionMultiplier()),
		strconv.FormatBool(ra.SkipTrading),
		sitStart,
		sitEnd,
		eventType,
		eventDate,
		daysTo,
		eventSource,
		sentiment,
		strconv.FormatBool(ra.Snapshot.SentimentNoData),
		optFloat(ra.Snapshot.RealizedVolatility),
		optFloat(ra.Snapshot.BaselineVolatility),
		optFloat(ra.Snapshot.VolatilityRatio),
		optFloat(ra.Snapshot.RollingBeta),
		strconv.FormatBool(ra.Degraded),
		string(reasons),
	}
}

func optFloat(v domain.OptFloat) string {
	if !v.Valid {
		return naMarker
	}
	return formatFloat(v.Value)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
