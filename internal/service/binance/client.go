package binance

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"CryptoSignal/internal/domain/models"
	"CryptoSignal/internal/service/ratelimit"
	xhttp "CryptoSignal/pkg/http"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

const (
	DefaultBaseURL = "https://api.binance.com/api/v3"
	maxLimit       = 1000
)

var ErrMalformedResponse = errors.New("binance: malformed response")

// Client reads klines and spot prices from the Binance public REST API.
type Client struct {
	baseURL string
	client  *xhttp.Client
	limiter *ratelimit.Limiter
}

func New(baseURL string, limiter *ratelimit.Limiter, opts ...xhttp.ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  xhttp.NewClient(opts...),
		limiter: limiter,
	}
}

func (c *Client) Name() string { return "binance" }

// Fetch returns up to limit klines for symbol, oldest first.
func (c *Client) Fetch(ctx context.Context, symbol, interval string, limit int) ([]models.Bar, error) {
	if limit <= 0 || limit > maxLimit {
		limit = maxLimit
	}
	var body []byte
	err := c.get(ctx, "/klines", map[string][]string{
		"symbol":   {strings.ToUpper(symbol)},
		"interval": {interval},
		"limit":    {strconv.Itoa(limit)},
	}, &body)
	if err != nil {
		return nil, fmt.Errorf("get klines %s %s: %w", symbol, interval, err)
	}
	return ParseKlines(body)
}

// CurrentPrice returns the last traded price of symbol.
func (c *Client) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	var body []byte
	err := c.get(ctx, "/ticker/price", map[string][]string{
		"symbol": {strings.ToUpper(symbol)},
	}, &body)
	if err != nil {
		return 0, fmt.Errorf("get ticker %s: %w", symbol, err)
	}
	price := gjson.GetBytes(body, "price")
	if !price.Exists() {
		return 0, ErrMalformedResponse
	}
	return parseDecimal(price)
}

func (c *Client) get(ctx context.Context, path string, query map[string][]string, dest *[]byte) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, c.Name()); err != nil {
			return err
		}
	}
	return c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.baseURL + path,
		QueryParams: query,
	}, dest)
}

// ParseKlines decodes the kline array format:
// [openTime, open, high, low, close, volume, closeTime, ...] with prices as strings.
func ParseKlines(body []byte) ([]models.Bar, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrMalformedResponse
	}
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		if msg := root.Get("msg"); msg.Exists() {
			return nil, fmt.Errorf("binance: %s", msg.String())
		}
		return nil, ErrMalformedResponse
	}

	rows := root.Array()
	bars := make([]models.Bar, 0, len(rows))
	for i, row := range rows {
		fields := row.Array()
		if len(fields) < 6 {
			return nil, fmt.Errorf("kline %d: %w", i, ErrMalformedResponse)
		}
		var vals [5]float64
		for j := range vals {
			v, err := parseDecimal(fields[j+1])
			if err != nil {
				return nil, fmt.Errorf("kline %d field %d: %w", i, j+1, err)
			}
			vals[j] = v
		}
		bars = append(bars, models.Bar{
			Timestamp: time.UnixMilli(fields[0].Int()).UTC(),
			Open:      vals[0],
			High:      vals[1],
			Low:       vals[2],
			Close:     vals[3],
			Volume:    vals[4],
		})
	}
	return bars, nil
}

func parseDecimal(r gjson.Result) (float64, error) {
	d, err := decimal.NewFromString(r.String())
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", r.String(), err)
	}
	return d.InexactFloat64(), nil
}
