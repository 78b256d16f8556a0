package yahoo

import (
	"context"
	"fmt"
	"time"

	"CryptoSignal/internal/domain/models"
	"CryptoSignal/pkg/util"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
)

// Source reads bars from the Yahoo Finance chart endpoint, using "BTC-USD" style tickers.
type Source struct {
	now func() time.Time
}

func New() *Source { return &Source{now: time.Now} }

func (s *Source) Name() string { return "yahoo" }

// Ticker converts an exchange pair into a Yahoo ticker.
func Ticker(symbol string) string {
	return models.BaseAsset(symbol) + "-USD"
}

// Window returns the start of a range wide enough to hold limit bars, with one spare period.
func Window(end time.Time, interval string, limit int) (time.Time, error) {
	step, ok := util.IntervalDuration(interval)
	if !ok {
		return time.Time{}, fmt.Errorf("unsupported interval %q", interval)
	}
	return end.Add(-step * time.Duration(limit+1)), nil
}

// Fetch runs the chart iterator; the library call is not context aware so ctx is checked between bars.
func (s *Source) Fetch(ctx context.Context, symbol, interval string, limit int) ([]models.Bar, error) {
	end := s.now()
	start, err := Window(end, interval, limit)
	if err != nil {
		return nil, err
	}
	params := &chart.Params{
		Symbol:   Ticker(symbol),
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.Interval(interval),
	}

	iter := chart.Get(params)
	bars := make([]models.Bar, 0, limit)
	for iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b := iter.Bar()
		ts := time.Unix(int64(b.Timestamp), 0).UTC()
		if n := len(bars); n > 0 && !ts.After(bars[n-1].Timestamp) {
			continue
		}
		bars = append(bars, models.Bar{
			Timestamp: ts,
			Open:      b.Open.InexactFloat64(),
			High:      b.High.InexactFloat64(),
			Low:       b.Low.InexactFloat64(),
			Close:     b.Close.InexactFloat64(),
			Volume:    float64(b.Volume),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("yahoo chart %s: %w", params.Symbol, err)
	}
	if limit > 0 && len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}
	return bars, nil
}
