package models

import "time"

// Bar represents one OHLCV period returned by a market-data source.
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// Closes extracts the close-price series.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

type Coin struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

type PriceQuote struct {
	Coin      string    `json:"coin"`
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// TimeframeConfig describes how one prediction horizon is sourced.
type TimeframeConfig struct {
	Name     string `json:"name"`
	Interval string `json:"interval"`
	Limit    int    `json:"limit"`
	Horizon  int    `json:"horizon"`
}
