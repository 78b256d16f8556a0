package service

import "CryptoSignal/internal/domain/models"

// TrendModel fits a trend over a price series and extrapolates horizon steps.
type TrendModel interface {
	Fit(prices []float64, horizon int) models.TrendResult
}

// MomentumAnalyzer classifies recent price momentum.
type MomentumAnalyzer interface {
	Analyze(prices []float64) models.MomentumResult
}

// Forecaster produces a best-effort price forecast. It never panics; failures
// are reported through the result's Error marker.
type Forecaster interface {
	Forecast(prices []float64, horizon int) models.ForecastResult
}

// Scorer fuses trend and momentum into a recommendation.
type Scorer interface {
	Score(trend models.TrendResult, momentum models.MomentumResult) models.Recommendation
}

// IndicatorEngine validates a bar series and computes the indicator table.
type IndicatorEngine interface {
	Validate(bars []models.Bar) error
	Compute(bars []models.Bar) *models.IndicatorTable
}
