package analytics

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CryptoSignal/internal/domain/models"
)

func wavy(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		x := float64(i)
		out[i] = 100 + x + 3*math.Sin(x*0.7) + 2*math.Cos(x*1.3)
	}
	return out
}

func TestLinearTrendPerfectFit(t *testing.T) {
	prices := []float64{100, 102, 104, 106, 108, 110, 112, 114, 116, 118}
	res := NewLinearTrend().Fit(prices, 1)

	require.Nil(t, res.Error)
	assert.Equal(t, models.TrendBullish, res.Trend)
	assert.Greater(t, res.Slope, 0.0)
	assert.InDelta(t, 2.0, res.Slope, 1e-9)
	assert.InDelta(t, 1.0, res.Confidence, 1e-9)
	require.Len(t, res.Predictions, 1)
	assert.InDelta(t, 120.0, res.Predictions[0], 1e-9)
}

func TestLinearTrendClassification(t *testing.T) {
	res := NewLinearTrend().Fit([]float64{10, 9, 8, 7, 6, 5}, 3)
	assert.Equal(t, models.TrendBearish, res.Trend)
	assert.Len(t, res.Predictions, 3)
	assert.InDelta(t, 2.0, res.Predictions[2], 1e-9)

	flat := NewLinearTrend().Fit([]float64{5, 5, 5, 5, 5}, 0)
	require.Nil(t, flat.Error)
	assert.Equal(t, models.TrendNeutral, flat.Trend)
	assert.Equal(t, 1.0, flat.Confidence)
	assert.Len(t, flat.Predictions, 1, "horizon below one is treated as one")
}

func TestLinearTrendFailures(t *testing.T) {
	res := NewLinearTrend().Fit([]float64{1, 2, 3, 4}, 1)
	require.NotNil(t, res.Error)
	assert.True(t, errors.Is(res.Error, models.ErrInsufficientData))
	assert.Empty(t, res.Predictions)

	res = NewLinearTrend().Fit([]float64{1, 2, math.NaN(), 4, 5}, 1)
	require.NotNil(t, res.Error)
	assert.Equal(t, models.CodeFitFailure, res.Error.Code)
}

func TestLinearTrendConfidenceInRange(t *testing.T) {
	res := NewLinearTrend().Fit(wavy(50), 1)
	require.Nil(t, res.Error)
	assert.GreaterOrEqual(t, res.Confidence, 0.0)
	assert.LessOrEqual(t, res.Confidence, 1.0)
}

func TestMomentumStepUp(t *testing.T) {
	prices := make([]float64, 0, 20)
	for i := 0; i < 10; i++ {
		prices = append(prices, 100)
	}
	for i := 0; i < 10; i++ {
		prices = append(prices, 110)
	}
	res := NewMomentum().Analyze(prices)

	require.Nil(t, res.Error)
	assert.InDelta(t, 10.0, res.Momentum, 1e-9)
	assert.Equal(t, models.ActionStrongBuy, res.Signal)
	assert.InDelta(t, 110.0, res.RecentAvg, 1e-9)
	assert.InDelta(t, 5.0, res.Volatility, 1e-9)
}

func TestMomentumShortSeriesUsesFirstWindow(t *testing.T) {
	// 15 points: baseline is the first ten, recent the last ten.
	prices := []float64{100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100}
	res := NewMomentum().Analyze(prices)
	require.Nil(t, res.Error)
	assert.Equal(t, 0.0, res.Momentum)
	assert.Equal(t, models.ActionHold, res.Signal)
	assert.Equal(t, 0.0, res.Volatility)
}

func TestMomentumFailures(t *testing.T) {
	res := NewMomentum().Analyze(make([]float64, 9))
	require.NotNil(t, res.Error)
	assert.True(t, errors.Is(res.Error, models.ErrInsufficientData))

	res = NewMomentum().Analyze(make([]float64, 12))
	require.NotNil(t, res.Error)
	assert.True(t, errors.Is(res.Error, models.ErrFitFailure))
}

func TestMomentumSignalThresholds(t *testing.T) {
	cases := []struct {
		pct  float64
		want string
	}{
		{5.01, models.ActionStrongBuy},
		{5, models.ActionBuy},
		{2.01, models.ActionBuy},
		{2, models.ActionHold},
		{0, models.ActionHold},
		{-1.99, models.ActionHold},
		{-2, models.ActionSell},
		{-4.99, models.ActionSell},
		{-5, models.ActionStrongSell},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, MomentumSignal(c.pct), "pct=%v", c.pct)
	}
}

func TestForecastInsufficient(t *testing.T) {
	res := NewARIMA().Forecast(wavy(19), 1)
	require.NotNil(t, res.Error)
	assert.True(t, errors.Is(res.Error, models.ErrInsufficientData))
	assert.Empty(t, res.Predictions)
}

func TestForecastDegenerateSeries(t *testing.T) {
	prices := make([]float64, 40)
	for i := range prices {
		prices[i] = 50
	}
	var res models.ForecastResult
	assert.NotPanics(t, func() { res = NewARIMA().Forecast(prices, 3) })
	require.NotNil(t, res.Error)
	assert.Equal(t, models.CodeFitFailure, res.Error.Code)
}

func TestForecastProducesHorizon(t *testing.T) {
	prices := wavy(100)
	res := NewARIMA().Forecast(prices, 30)
	require.Nil(t, res.Error)
	assert.Equal(t, "ARIMA(5,1,0)", res.Method)
	require.Len(t, res.Predictions, 30)
	for _, p := range res.Predictions {
		assert.False(t, math.IsNaN(p) || math.IsInf(p, 0))
	}
	assert.False(t, math.IsNaN(res.AIC))

	again := NewARIMA().Forecast(prices, 30)
	assert.Equal(t, res, again)
}

func TestScorerTable(t *testing.T) {
	cases := []struct {
		trend, signal string
		score         int
		action        string
		confidence    float64
	}{
		{models.TrendBullish, models.ActionStrongBuy, 5, models.ActionStrongBuy, 0.9},
		{models.TrendNeutral, models.ActionHold, 0, models.ActionHold, 0.5},
		{models.TrendBearish, models.ActionSell, -3, models.ActionStrongSell, 0.9},
		{models.TrendBearish, models.ActionHold, -2, models.ActionHold, 0.5},
		{models.TrendBullish, models.ActionHold, 2, models.ActionHold, 0.5},
		{models.TrendBullish, models.ActionSell, 1, models.ActionBuy, 0.6},
		{models.TrendBullish, models.ActionStrongSell, -1, models.ActionSell, 0.6},
		{models.TrendNeutral, models.ActionStrongBuy, 3, models.ActionStrongBuy, 0.9},
		{models.TrendBearish, models.ActionStrongSell, -5, models.ActionStrongSell, 0.9},
		{models.TrendNeutral, models.ActionBuy, 1, models.ActionBuy, 0.6},
	}
	s := NewRuleScorer()
	for _, c := range cases {
		rec := s.Score(models.TrendResult{Trend: c.trend}, models.MomentumResult{Signal: c.signal})
		assert.Equal(t, c.score, rec.Score, "%s+%s", c.trend, c.signal)
		assert.Equal(t, c.action, rec.Action, "%s+%s", c.trend, c.signal)
		assert.InDelta(t, c.confidence, rec.Confidence, 1e-9, "%s+%s", c.trend, c.signal)
		assert.LessOrEqual(t, rec.Confidence, 1.0)
	}
}

func TestScorerReason(t *testing.T) {
	rec := NewRuleScorer().Score(
		models.TrendResult{Trend: models.TrendBullish},
		models.MomentumResult{Signal: models.ActionStrongBuy})
	assert.Equal(t, "Trend: bullish, Momentum: strong_buy", rec.Reason)
}

func TestScorerShortCircuits(t *testing.T) {
	s := NewRuleScorer()
	want := models.Recommendation{Action: models.ActionHold, Confidence: 0, Reason: "insufficient data"}

	got := s.Score(models.TrendResult{Error: models.InsufficientData("x")}, models.MomentumResult{Signal: models.ActionStrongBuy})
	assert.Equal(t, want, got)

	got = s.Score(models.TrendResult{Trend: models.TrendBullish}, models.MomentumResult{Error: models.FitFailure("x")})
	assert.Equal(t, want, got)
}
