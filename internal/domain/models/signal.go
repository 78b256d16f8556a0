package models

import (
	"errors"
	"time"
)

// Trend classifications.
const (
	TrendBullish = "bullish"
	TrendBearish = "bearish"
	TrendNeutral = "neutral"
)

// Actions shared by momentum signals and recommendations.
const (
	ActionStrongBuy  = "strong_buy"
	ActionBuy        = "buy"
	ActionHold       = "hold"
	ActionSell       = "sell"
	ActionStrongSell = "strong_sell"
)

// Model error codes.
const (
	CodeInsufficientData = "ERR_INSUFFICIENT_DATA"
	CodeFitFailure       = "ERR_FIT_FAILURE"
)

var (
	ErrInsufficientData = errors.New("insufficient data")
	ErrFitFailure       = errors.New("fit failure")
)

// ModelError is carried inside model results instead of being returned,
// so a failing model never aborts the pipeline.
type ModelError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ModelError) Error() string { return e.Code + ": " + e.Message }

func (e *ModelError) Unwrap() error {
	switch e.Code {
	case CodeInsufficientData:
		return ErrInsufficientData
	case CodeFitFailure:
		return ErrFitFailure
	}
	return nil
}

func InsufficientData(msg string) *ModelError {
	return &ModelError{Code: CodeInsufficientData, Message: msg}
}

func FitFailure(msg string) *ModelError {
	return &ModelError{Code: CodeFitFailure, Message: msg}
}

type TrendResult struct {
	Predictions []float64   `json:"predictions,omitempty"`
	Trend       string      `json:"trend,omitempty"`
	Slope       float64     `json:"slope"`
	Confidence  float64     `json:"confidence"`
	Error       *ModelError `json:"error,omitempty"`
}

type MomentumResult struct {
	Momentum   float64     `json:"momentum"`
	Volatility float64     `json:"volatility"`
	RecentAvg  float64     `json:"recent_avg"`
	Signal     string      `json:"signal,omitempty"`
	Error      *ModelError `json:"error,omitempty"`
}

type ForecastResult struct {
	Predictions []float64   `json:"predictions,omitempty"`
	Method      string      `json:"method,omitempty"`
	AIC         float64     `json:"aic"`
	Error       *ModelError `json:"error,omitempty"`
}

type Recommendation struct {
	Action     string  `json:"action"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
	Score      int     `json:"score"`
}

// TimeframePrediction is the complete pipeline output for one timeframe.
type TimeframePrediction struct {
	Timeframe      string         `json:"timeframe"`
	CurrentPrice   float64        `json:"current_price"`
	Trend          TrendResult    `json:"trend"`
	Momentum       MomentumResult `json:"momentum"`
	Forecast       ForecastResult `json:"forecast"`
	Recommendation Recommendation `json:"recommendation"`
	Indicators     IndicatorSet   `json:"indicators"`
	GeneratedAt    time.Time      `json:"generated_at"`
}

type Warning struct {
	Timeframe string `json:"timeframe"`
	Reason    string `json:"reason"`
}

// PredictionBundle holds only fully computed timeframes; the rest are listed in Warnings.
type PredictionBundle struct {
	Symbol      string                         `json:"symbol"`
	Predictions map[string]TimeframePrediction `json:"predictions"`
	Warnings    []Warning                      `json:"warnings,omitempty"`
	GeneratedAt time.Time                      `json:"generated_at"`
}

// FallbackPrediction is the minimal heuristic used when the full pipeline fails.
type FallbackPrediction struct {
	Timeframe          string    `json:"timeframe"`
	CurrentPrice       float64   `json:"current_price"`
	PredictedPrice     float64   `json:"predicted_price"`
	PriceChangePercent float64   `json:"price_change_percent"`
	Action             string    `json:"action"`
	Confidence         float64   `json:"confidence"`
	Fallback           bool      `json:"fallback"`
	GeneratedAt        time.Time `json:"generated_at"`
}

type Analysis struct {
	Symbol         string            `json:"symbol"`
	CurrentPrice   float64           `json:"current_price"`
	Indicators     IndicatorSet      `json:"indicators"`
	Interpretation map[string]string `json:"interpretation"`
	GeneratedAt    time.Time         `json:"generated_at"`
}

// PredictionEvent is published after a bundle is freshly computed.
type PredictionEvent struct {
	ID          string            `json:"id"`
	Symbol      string            `json:"symbol"`
	Timeframes  []string          `json:"timeframes"`
	Actions     map[string]string `json:"actions"`
	Warnings    int               `json:"warnings"`
	GeneratedAt time.Time         `json:"generated_at"`
}
