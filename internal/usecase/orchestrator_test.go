package usecase

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CryptoSignal/internal/domain/models"
)

type fakeSource struct {
	mu    sync.Mutex
	calls int
	fn    func(interval string, limit int) ([]models.Bar, error)
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Fetch(_ context.Context, _ string, interval string, limit int) ([]models.Bar, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.fn(interval, limit)
}

func makeBars(n int) []models.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Bar, n)
	for i := range out {
		x := float64(i)
		c := 100 + 0.5*x + 3*math.Sin(x*0.7) + 2*math.Cos(x*1.3)
		out[i] = models.Bar{Timestamp: start.Add(time.Duration(i) * time.Minute), Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 10}
	}
	return out
}

func newTestOrchestrator(src *fakeSource) *Orchestrator {
	return NewOrchestrator(src, NewDefaultPipeline(), nil, nil)
}

func TestPredictPartialFailure(t *testing.T) {
	// 1m (limit 60), 10m (limit 120) and yearly (limit 730) get no data.
	src := &fakeSource{fn: func(_ string, limit int) ([]models.Bar, error) {
		switch limit {
		case 60, 120, 730:
			return nil, nil
		}
		return makeBars(limit), nil
	}}

	bundle, err := newTestOrchestrator(src).Predict(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Len(t, bundle.Predictions, 5)
	require.Len(t, bundle.Warnings, 3)
	assert.Equal(t, "1m", bundle.Warnings[0].Timeframe)
	assert.Equal(t, "10m", bundle.Warnings[1].Timeframe)
	assert.Equal(t, "yearly", bundle.Warnings[2].Timeframe)
	for _, name := range []string{"5m", "30m", "1h", "daily", "monthly"} {
		p, ok := bundle.Predictions[name]
		require.True(t, ok, name)
		assert.Equal(t, name, p.Timeframe)
		assert.NotEmpty(t, p.Recommendation.Action)
		assert.Nil(t, p.Trend.Error)
		assert.Nil(t, p.Momentum.Error)
	}
	assert.Equal(t, 8, src.calls)
	assert.Len(t, bundle.Predictions["monthly"].Forecast.Predictions, 30)
}

func TestPredictWarningsForErrorsAndShortSeries(t *testing.T) {
	src := &fakeSource{fn: func(interval string, limit int) ([]models.Bar, error) {
		switch interval {
		case "1m":
			return nil, errors.New("boom")
		case "30m":
			return makeBars(5), nil
		}
		return makeBars(limit), nil
	}}

	bundle, err := newTestOrchestrator(src).Predict(context.Background(), "ETHUSDT", "1m", "30m", "1h", "weekly")
	require.NoError(t, err)
	assert.Len(t, bundle.Predictions, 1)
	require.Len(t, bundle.Warnings, 3)
	assert.Equal(t, "weekly", bundle.Warnings[0].Timeframe)
	assert.Equal(t, ErrUnknownTimeframe.Error(), bundle.Warnings[0].Reason)
	assert.Contains(t, bundle.Warnings[1].Reason, "boom")
	assert.Contains(t, bundle.Warnings[2].Reason, "too few bars")
}

func TestPredictTotalFailure(t *testing.T) {
	src := &fakeSource{fn: func(string, int) ([]models.Bar, error) { return nil, nil }}
	bundle, err := newTestOrchestrator(src).Predict(context.Background(), "BTCUSDT")
	assert.ErrorIs(t, err, ErrNoPredictions)
	require.NotNil(t, bundle)
	assert.Empty(t, bundle.Predictions)
	assert.Len(t, bundle.Warnings, 8)
}

func TestPredictAllPipelinesRejectBars(t *testing.T) {
	src := &fakeSource{fn: func(string, int) ([]models.Bar, error) { return makeBars(5), nil }}
	bundle, err := newTestOrchestrator(src).Predict(context.Background(), "BTCUSDT", "1h", "daily")
	assert.ErrorIs(t, err, ErrNoPredictions)
	require.NotNil(t, bundle)
	assert.Empty(t, bundle.Predictions)
	require.Len(t, bundle.Warnings, 2)
	for _, w := range bundle.Warnings {
		assert.Contains(t, w.Reason, "too few bars")
	}
}

func TestPredictOne(t *testing.T) {
	src := &fakeSource{fn: func(_ string, limit int) ([]models.Bar, error) { return makeBars(limit), nil }}
	o := newTestOrchestrator(src)

	res, err := o.PredictOne(context.Background(), "BTCUSDT", "daily")
	require.NoError(t, err)
	require.NotNil(t, res.Prediction)
	assert.Nil(t, res.Fallback)
	assert.Len(t, res.Prediction.Indicators, len(models.IndicatorNames))

	_, err = o.PredictOne(context.Background(), "BTCUSDT", "weekly")
	assert.ErrorIs(t, err, ErrUnknownTimeframe)
}

func TestPredictOneNoData(t *testing.T) {
	src := &fakeSource{fn: func(string, int) ([]models.Bar, error) { return []models.Bar{}, nil }}
	_, err := newTestOrchestrator(src).PredictOne(context.Background(), "BTCUSDT", "1h")
	assert.ErrorIs(t, err, ErrNoMarketData)
}

func TestPredictOneFallsBack(t *testing.T) {
	src := &fakeSource{fn: func(string, int) ([]models.Bar, error) { return makeBars(4), nil }}
	res, err := newTestOrchestrator(src).PredictOne(context.Background(), "BTCUSDT", "1h")
	require.NoError(t, err)
	assert.Nil(t, res.Prediction)
	require.NotNil(t, res.Fallback)
	assert.True(t, res.Fallback.Fallback)
	assert.Equal(t, "1h", res.Fallback.Timeframe)
}

type panickyTrend struct{}

func (panickyTrend) Fit([]float64, int) models.TrendResult { panic("bad model") }

func TestPredictRecoversPipelinePanic(t *testing.T) {
	base := NewDefaultPipeline()
	p := NewPipeline(base.engine, panickyTrend{}, base.momentum, base.forecast, base.scorer)
	src := &fakeSource{fn: func(_ string, limit int) ([]models.Bar, error) { return makeBars(limit), nil }}

	bundle, err := NewOrchestrator(src, p, nil, nil).Predict(context.Background(), "BTCUSDT", "1h", "daily")
	assert.ErrorIs(t, err, ErrNoPredictions)
	require.Len(t, bundle.Warnings, 2)
	assert.Contains(t, bundle.Warnings[0].Reason, "pipeline panic")
}

func TestPipelineIsDeterministic(t *testing.T) {
	p := NewDefaultPipeline()
	fixed := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }
	tf := models.TimeframeConfig{Name: "daily", Interval: "1d", Limit: 100, Horizon: 1}
	bars := makeBars(100)

	a, err := p.Run(tf, bars)
	require.NoError(t, err)
	b, err := p.Run(tf, bars)
	require.NoError(t, err)

	assert.Equal(t, a.Recommendation, b.Recommendation)
	assert.Equal(t, math.Float64bits(a.Recommendation.Confidence), math.Float64bits(b.Recommendation.Confidence))
	for name, av := range a.Indicators {
		bv := b.Indicators[name]
		if av == nil {
			assert.Nil(t, bv, name)
			continue
		}
		require.NotNil(t, bv, name)
		assert.Equal(t, math.Float64bits(*av), math.Float64bits(*bv), name)
	}
	assert.Equal(t, a, b)
}

func TestPipelineRejectsInvalidSeries(t *testing.T) {
	bars := makeBars(20)
	bars[5].Timestamp = bars[4].Timestamp
	_, err := NewDefaultPipeline().Run(models.TimeframeConfig{Name: "1h", Horizon: 1}, bars)
	assert.Error(t, err)
}
