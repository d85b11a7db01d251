package datasources

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/eventguard/internal/catalog"
)

// FileFeed serves earnings/dividend dates from a feed snapshot CSV, the
// hand-off format the upstream data job writes once per day. Columns:
// symbol, next_earnings (2006-01-02 or empty), next_dividend_ex (same).
type FileFeed struct {
	dates map[string]catalog.FeedDates
}

// LoadFileFeed parses a feed snapshot. Malformed rows are skipped with a
// warning so one bad row never poisons the whole snapshot.
func LoadFileFeed(path string) (*FileFeed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open feed snapshot: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	feed := &FileFeed{dates: make(map[string]catalog.FeedDates)}
	line := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read feed snapshot: %w", err)
		}
		line++
		if line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), "symbol") {
			continue
		}
		symbol, dates, err := parseFeedRow(record)
		if err != nil {
			log.Warn().Str("feed", path).Int("line", line).Err(err).
				Msg("skipping malformed feed row")
			continue
		}
		feed.dates[symbol] = dates
	}
	return feed, nil
}

func parseFeedRow(record []string) (string, catalog.FeedDates, error) {
	if len(record) < 3 {
		return "", catalog.FeedDates{}, fmt.Errorf("want 3 columns, got %d", len(record))
	}
	symbol := strings.ToUpper(strings.TrimSpace(record[0]))
	if symbol == "" {
		return "", catalog.FeedDates{}, fmt.Errorf("empty symbol")
	}

	var dates catalog.FeedDates
	if v := strings.TrimSpace(record[1]); v != "" {
		t, err := time.ParseInLocation("2006-01-02", v, time.UTC)
		if err != nil {
			return "", catalog.FeedDates{}, fmt.Errorf("bad next_earnings: %w", err)
		}
		dates.NextEarnings = &t
	}
	if v := strings.TrimSpace(record[2]); v != "" {
		t, err := time.ParseInLocation("2006-01-02", v, time.UTC)
		if err != nil {
			return "", catalog.FeedDates{}, fmt.Errorf("bad next_dividend_ex: %w", err)
		}
		dates.NextDividendEx = &t
	}
	return symbol, dates, nil
}

// UpcomingDates implements catalog.MarketDataFeed.
func (ff *FileFeed) UpcomingDates(_ context.Context, symbol string, _ time.Time) (catalog.FeedDates, error) {
	dates, ok := ff.dates[strings.ToUpper(symbol)]
	if !ok {
		return catalog.FeedDates{}, catalog.ErrUnknownSymbol
	}
	return dates, nil
}
