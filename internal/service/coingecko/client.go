package coingecko

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"CryptoSignal/internal/domain/models"
	"CryptoSignal/internal/service/ratelimit"
	"CryptoSignal/pkg/util"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultBaseURL = "https://api.coingecko.com/api/v3"
	vsCurrency     = "usd"
	maxCatalog     = 100
)

var (
	ErrUnknownCoin         = errors.New("coingecko: unknown coin")
	ErrUnsupportedInterval = errors.New("coingecko: unsupported interval")
)

// Client serves the coin catalog, spot prices and market-chart bars.
// Market charts carry only a price point per period, so Open/High/Low equal Close.
type Client struct {
	client  *resty.Client
	limiter *ratelimit.Limiter
}

func New(baseURL, apiKey string, timeout time.Duration, limiter *ratelimit.Limiter) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(timeout)
	client.SetRetryCount(2)
	client.SetRetryWaitTime(200 * time.Millisecond)
	client.SetHeader("Accept", "application/json")
	if apiKey != "" {
		client.SetHeader("x-cg-demo-api-key", apiKey)
	}
	return &Client{client: client, limiter: limiter}
}

func (c *Client) Name() string { return "coingecko" }

type marketChart struct {
	Prices       [][2]float64 `json:"prices"`
	TotalVolumes [][2]float64 `json:"total_volumes"`
}

// Fetch converts interval x limit into a day window and returns at most limit bars.
// Intervals finer than the chart granularity for that window are rejected; coarser
// ones are built by merging chart points into interval buckets.
func (c *Client) Fetch(ctx context.Context, symbol, interval string, limit int) ([]models.Bar, error) {
	step, ok := util.IntervalDuration(interval)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnsupportedInterval, interval)
	}
	days := int(math.Ceil(float64(limit) * step.Hours() / 24))
	if days < 1 {
		days = 1
	}
	if g := Granularity(days, step); step < g {
		return nil, fmt.Errorf("%w %q: %d day chart has %s points", ErrUnsupportedInterval, interval, days, g)
	}
	params := map[string]string{
		"vs_currency": vsCurrency,
		"days":        strconv.Itoa(days),
	}
	if step >= 24*time.Hour {
		params["interval"] = "daily"
	}

	var chart marketChart
	id := models.CoinID(symbol)
	if err := c.get(ctx, "/coins/"+id+"/market_chart", params, &chart); err != nil {
		return nil, fmt.Errorf("market chart %s: %w", id, err)
	}
	bars := Resample(chartBars(chart), step)
	if limit > 0 && len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}
	return bars, nil
}

// Granularity is the point spacing of a market chart over days:
// 5 minutes for one day, hourly up to 90 days, daily beyond or when daily is requested.
func Granularity(days int, step time.Duration) time.Duration {
	switch {
	case step >= 24*time.Hour || days > 90:
		return 24 * time.Hour
	case days > 1:
		return time.Hour
	default:
		return 5 * time.Minute
	}
}

// Resample merges bars into step-aligned UTC buckets stamped with the bucket start.
// Volume is the chart's rolling 24h total, so the last point of a bucket wins.
func Resample(bars []models.Bar, step time.Duration) []models.Bar {
	out := make([]models.Bar, 0, len(bars))
	for _, b := range bars {
		start := b.Timestamp.Truncate(step)
		if n := len(out); n > 0 && out[n-1].Timestamp.Equal(start) {
			last := &out[n-1]
			last.High = math.Max(last.High, b.High)
			last.Low = math.Min(last.Low, b.Low)
			last.Close = b.Close
			last.Volume = b.Volume
			continue
		}
		b.Timestamp = start
		out = append(out, b)
	}
	return out
}

// chartBars drops points that do not advance the clock; the live point can repeat the last period.
func chartBars(chart marketChart) []models.Bar {
	bars := make([]models.Bar, 0, len(chart.Prices))
	var last int64
	for i, p := range chart.Prices {
		ms := int64(p[0])
		if i > 0 && ms <= last {
			continue
		}
		last = ms
		var vol float64
		if i < len(chart.TotalVolumes) {
			vol = chart.TotalVolumes[i][1]
		}
		bars = append(bars, models.Bar{
			Timestamp: time.UnixMilli(ms).UTC(),
			Open:      p[1],
			High:      p[1],
			Low:       p[1],
			Close:     p[1],
			Volume:    vol,
		})
	}
	return bars
}

// CurrentPrice returns the USD price of the coin behind symbol.
func (c *Client) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	id := models.CoinID(symbol)
	var out map[string]map[string]float64
	err := c.get(ctx, "/simple/price", map[string]string{
		"ids":           id,
		"vs_currencies": vsCurrency,
	}, &out)
	if err != nil {
		return 0, fmt.Errorf("simple price %s: %w", id, err)
	}
	price, ok := out[id][vsCurrency]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownCoin, id)
	}
	return price, nil
}

// ListCoins returns the first entries of the catalog.
func (c *Client) ListCoins(ctx context.Context) ([]models.Coin, error) {
	var coins []models.Coin
	if err := c.get(ctx, "/coins/list", nil, &coins); err != nil {
		return nil, fmt.Errorf("coins list: %w", err)
	}
	if len(coins) > maxCatalog {
		coins = coins[:maxCatalog]
	}
	return coins, nil
}

func (c *Client) get(ctx context.Context, path string, params map[string]string, dest interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, c.Name()); err != nil {
			return err
		}
	}
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(dest).
		Get(path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		if resp.StatusCode() == 404 {
			return ErrUnknownCoin
		}
		return fmt.Errorf("API error %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
