package datasources

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/eventguard/internal/signals"
)

// FileSentiment serves scored sentiment items from the extraction
// pipeline's per-day drop. Columns: symbol, published_at (RFC3339), score,
// exposure (optional).
type FileSentiment struct {
	items map[string][]signals.SentimentItem
}

// LoadFileSentiment parses a sentiment drop, skipping malformed rows.
func LoadFileSentiment(path string) (*FileSentiment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sentiment drop: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	fs := &FileSentiment{items: make(map[string][]signals.SentimentItem)}
	line := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read sentiment drop: %w", err)
		}
		line++
		if line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), "symbol") {
			continue
		}
		item, err := parseSentimentRow(record)
		if err != nil {
			log.Warn().Str("sentiment", path).Int("line", line).Err(err).
				Msg("skipping malformed sentiment row")
			continue
		}
		fs.items[item.Symbol] = append(fs.items[item.Symbol], item)
	}
	return fs, nil
}

func parseSentimentRow(record []string) (signals.SentimentItem, error) {
	if len(record) < 3 {
		return signals.SentimentItem{}, fmt.Errorf("want at least 3 columns, got %d", len(record))
	}
	symbol := strings.ToUpper(strings.TrimSpace(record[0]))
	if symbol == "" {
		return signals.SentimentItem{}, fmt.Errorf("empty symbol")
	}
	at, err := time.Parse(time.RFC3339, strings.TrimSpace(record[1]))
	if err != nil {
		return signals.SentimentItem{}, fmt.Errorf("bad published_at: %w", err)
	}
	score, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
	if err != nil {
		return signals.SentimentItem{}, fmt.Errorf("bad score: %w", err)
	}
	exposure := 1.0
	if len(record) > 3 && strings.TrimSpace(record[3]) != "" {
		exposure, err = strconv.ParseFloat(strings.TrimSpace(record[3]), 64)
		if err != nil {
			return signals.SentimentItem{}, fmt.Errorf("bad exposure: %w", err)
		}
	}
	return signals.SentimentItem{Symbol: symbol, PublishedAt: at, Score: score, Exposure: exposure}, nil
}

// Items implements signals.SentimentProvider.
func (fs *FileSentiment) Items(_ context.Context, symbol string, from, to time.Time) ([]signals.SentimentItem, error) {
	var out []signals.SentimentItem
	for _, item := range fs.items[strings.ToUpper(symbol)] {
		if item.PublishedAt.Before(from) || item.PublishedAt.After(to) {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

// FilePrices serves daily return series. Columns: symbol, date
// (2006-01-02), daily_return. Rows must be appendable in any order; series
// are sorted by date at load.
type FilePrices struct {
	returns map[string][]datedReturn
}

type datedReturn struct {
	date time.Time
	ret  float64
}

// LoadFilePrices parses a returns file, skipping malformed rows.
func LoadFilePrices(path string) (*FilePrices, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open returns file: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	fp := &FilePrices{returns: make(map[string][]datedReturn)}
	line := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read returns file: %w", err)
		}
		line++
		if line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), "symbol") {
			continue
		}
		if len(record) < 3 {
			log.Warn().Str("returns", path).Int("line", line).Msg("skipping short returns row")
			continue
		}
		symbol := strings.ToUpper(strings.TrimSpace(record[0]))
		date, derr := time.ParseInLocation("2006-01-02", strings.TrimSpace(record[1]), time.UTC)
		ret, rerr := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if symbol == "" || derr != nil || rerr != nil {
			log.Warn().Str("returns", path).Int("line", line).Msg("skipping malformed returns row")
			continue
		}
		fp.returns[symbol] = append(fp.returns[symbol], datedReturn{date: date, ret: ret})
	}

	for symbol := range fp.returns {
		series := fp.returns[symbol]
		sort.Slice(series, func(i, j int) bool { return series[i].date.Before(series[j].date) })
		fp.returns[symbol] = series
	}
	return fp, nil
}

// DailyReturns implements signals.PriceHistory: the trailing `days`
// observations at or before the as-of date, oldest first.
func (fp *FilePrices) DailyReturns(_ context.Context, symbol string, asOf time.Time, days int) ([]float64, error) {
	series := fp.returns[strings.ToUpper(symbol)]
	if len(series) == 0 {
		return nil, fmt.Errorf("no return history for %s", symbol)
	}

	var out []float64
	for _, dr := range series {
		if dr.date.After(asOf) {
			break
		}
		out = append(out, dr.ret)
	}
	if len(out) > days {
		out = out[len(out)-days:]
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no return history for %s at or before %s", symbol, asOf.Format("2006-01-02"))
	}
	return out, nil
}
