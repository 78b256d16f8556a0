package analytics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"CryptoSignal/internal/domain/models"
	domsvc "CryptoSignal/internal/domain/service"
)

const trendMinPoints = 5

// LinearTrend fits price = alpha + beta*index by ordinary least squares.
type LinearTrend struct{}

func NewLinearTrend() *LinearTrend { return &LinearTrend{} }

func (m *LinearTrend) Fit(prices []float64, horizon int) models.TrendResult {
	if len(prices) < trendMinPoints {
		return models.TrendResult{Error: models.InsufficientData(
			fmt.Sprintf("trend needs at least %d points, got %d", trendMinPoints, len(prices)))}
	}
	if !allFinite(prices) {
		return models.TrendResult{Error: models.FitFailure("non-finite price in series")}
	}
	if horizon < 1 {
		horizon = 1
	}

	xs := make([]float64, len(prices))
	for i := range xs {
		xs[i] = float64(i)
	}
	alpha, beta := stat.LinearRegression(xs, prices, nil, false)
	if math.IsNaN(alpha) || math.IsNaN(beta) || math.IsInf(beta, 0) {
		return models.TrendResult{Error: models.FitFailure("regression did not converge")}
	}

	// A flat series is fitted exactly; R² is 0/0 there.
	r2 := 1.0
	if stat.Variance(prices, nil) > 0 {
		r2 = stat.RSquared(xs, prices, nil, alpha, beta)
	}
	if math.IsNaN(r2) {
		r2 = 0
	}

	preds := make([]float64, horizon)
	n := float64(len(prices))
	for i := range preds {
		preds[i] = alpha + beta*(n+float64(i))
	}

	trend := models.TrendNeutral
	switch {
	case beta > 0:
		trend = models.TrendBullish
	case beta < 0:
		trend = models.TrendBearish
	}
	return models.TrendResult{
		Predictions: preds,
		Trend:       trend,
		Slope:       beta,
		Confidence:  clamp01(r2),
	}
}

var _ domsvc.TrendModel = (*LinearTrend)(nil)
