package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/eventguard/internal/domain"
	"github.com/sawpanic/eventguard/internal/metrics"
)

// ManualCalendar holds the curated regulatory disclosure table, loaded once
// per cycle. Updates to the file take effect on the next cycle only.
type ManualCalendar struct {
	events      map[string][]domain.Event // symbol -> events
	rowsSkipped int
}

// LoadManualCalendar reads the curated calendar CSV. Expected columns:
// symbol, event_type, event_date (2006-01-02), note. Malformed rows are
// skipped with a warning; an unreadable file is an error.
func LoadManualCalendar(path string) (*ManualCalendar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manual calendar: %w", err)
	}
	defer f.Close()
	return parseManualCalendar(f, path)
}

func parseManualCalendar(r io.Reader, name string) (*ManualCalendar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // row validation below, not the csv layer

	cal := &ManualCalendar{events: make(map[string][]domain.Event)}
	line := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read manual calendar %s: %w", name, err)
		}
		line++
		if line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), "symbol") {
			continue // header row
		}

		ev, err := parseCalendarRow(record)
		if err != nil {
			cal.rowsSkipped++
			metrics.CalendarRowsSkipped.Inc()
			log.Warn().Str("calendar", name).Int("line", line).Err(err).
				Msg("skipping malformed calendar row")
			continue
		}
		cal.events[ev.Symbol] = append(cal.events[ev.Symbol], ev)
	}

	log.Debug().Str("calendar", name).
		Int("symbols", len(cal.events)).Int("skipped", cal.rowsSkipped).
		Msg("manual calendar loaded")
	return cal, nil
}

func parseCalendarRow(record []string) (domain.Event, error) {
	if len(record) < 3 {
		return domain.Event{}, fmt.Errorf("want at least 3 columns, got %d", len(record))
	}
	symbol := strings.ToUpper(strings.TrimSpace(record[0]))
	if symbol == "" {
		return domain.Event{}, fmt.Errorf("empty symbol")
	}
	etype, err := domain.ParseEventType(strings.TrimSpace(record[1]))
	if err != nil {
		return domain.Event{}, err
	}
	date, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(record[2]), time.UTC)
	if err != nil {
		return domain.Event{}, fmt.Errorf("bad event_date: %w", err)
	}
	note := ""
	if len(record) > 3 {
		note = strings.TrimSpace(record[3])
	}

	return domain.Event{
		ID:          domain.EventID(symbol, etype, date),
		Symbol:      symbol,
		Type:        etype,
		Date:        date,
		Source:      domain.SourceManual,
		Confidence:  manualConfidence,
		Description: note,
	}, nil
}

// manualConfidence is the default confidence assigned to curated rows.
// The curated table evolves slowly and is maintained by hand, so it is
// trusted but below the programmatic feed.
const manualConfidence = 0.8

// EventsFor returns the curated events for a symbol, nil when none exist.
func (mc *ManualCalendar) EventsFor(symbol string) []domain.Event {
	return mc.events[strings.ToUpper(symbol)]
}

// RowsSkipped reports how many malformed rows the loader dropped.
func (mc *ManualCalendar) RowsSkipped() int { return mc.rowsSkipped }

// Symbols lists every symbol with at least one curated event.
func (mc *ManualCalendar) Symbols() []string {
	out := make([]string, 0, len(mc.events))
	for s := range mc.events {
		out = append(out, s)
	}
	return out
}
