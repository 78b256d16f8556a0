package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CryptoSignal/internal/domain/models"
	svccache "CryptoSignal/internal/service/cache"
	pkgcache "CryptoSignal/pkg/cache"
)

type captureEvents struct {
	mu     sync.Mutex
	events []*models.PredictionEvent
	err    error
}

func (c *captureEvents) PublishPrediction(_ context.Context, ev *models.PredictionEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
	return c.err
}

func (c *captureEvents) Close() error { return nil }

func newTestCacheStore(t *testing.T) *svccache.Store {
	t.Helper()
	mem := pkgcache.NewMemoryCache(pkgcache.WithMemoryCleanup(0))
	t.Cleanup(func() { _ = mem.Close() })
	fixed := time.Unix(1_700_000_000, 0)
	return svccache.NewStore(mem, svccache.DefaultTTLs(), time.Minute, nil).WithClock(func() time.Time { return fixed })
}

func fullSource() *fakeSource {
	return &fakeSource{fn: func(_ string, limit int) ([]models.Bar, error) { return makeBars(limit), nil }}
}

func TestPredictionUseCaseCachesSingle(t *testing.T) {
	src := fullSource()
	uc := NewPredictionUseCase(newTestOrchestrator(src), newTestCacheStore(t), nil, nil)

	first, err := uc.Predict(context.Background(), "bitcoin", "1h")
	require.NoError(t, err)
	require.NotNil(t, first.Prediction)
	assert.Equal(t, "BTCUSDT", first.Symbol)

	second, err := uc.Predict(context.Background(), "bitcoin", "1h")
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls, "second call served from cache")
	assert.Equal(t, first.Prediction.Recommendation, second.Prediction.Recommendation)
	assert.Equal(t, first.Prediction.CurrentPrice, second.Prediction.CurrentPrice)
}

func TestPredictionUseCaseBundlePublishesEvent(t *testing.T) {
	src := fullSource()
	events := &captureEvents{err: errors.New("kafka down")}
	uc := NewPredictionUseCase(newTestOrchestrator(src), newTestCacheStore(t), events, nil)

	bundle, err := uc.PredictAll(context.Background(), "ethereum", nil)
	require.NoError(t, err)
	assert.Len(t, bundle.Predictions, 8)
	require.Len(t, events.events, 1, "publish failure does not fail the request")

	ev := events.events[0]
	assert.Equal(t, "ETHUSDT", ev.Symbol)
	assert.Equal(t, []string{"1m", "5m", "10m", "30m", "1h", "daily", "monthly", "yearly"}, ev.Timeframes)
	assert.NotEmpty(t, ev.ID)

	_, err = uc.PredictAll(context.Background(), "ethereum", nil)
	require.NoError(t, err)
	assert.Equal(t, 8, src.calls)
	assert.Len(t, events.events, 1, "cache hit publishes nothing")
}

func TestPredictionUseCaseDoesNotCacheTotalFailure(t *testing.T) {
	src := &fakeSource{fn: func(string, int) ([]models.Bar, error) { return nil, errors.New("down") }}
	uc := NewPredictionUseCase(newTestOrchestrator(src), newTestCacheStore(t), nil, nil)

	bundle, err := uc.PredictAll(context.Background(), "bitcoin", []string{"1h", "daily"})
	assert.ErrorIs(t, err, ErrNoPredictions)
	require.NotNil(t, bundle)
	assert.Len(t, bundle.Warnings, 2)

	_, err = uc.PredictAll(context.Background(), "bitcoin", []string{"1h", "daily"})
	assert.ErrorIs(t, err, ErrNoPredictions)
	assert.Equal(t, 4, src.calls)
}

func TestRecommendationFromFallback(t *testing.T) {
	src := &fakeSource{fn: func(string, int) ([]models.Bar, error) {
		bars := makeBars(4)
		for i := range bars {
			bars[i].Close = 100 * (1 + 0.05*float64(i))
		}
		return bars, nil
	}}
	uc := NewPredictionUseCase(newTestOrchestrator(src), newTestCacheStore(t), nil, nil)

	rec, err := uc.Recommendation(context.Background(), "solana", "1h")
	require.NoError(t, err)
	assert.True(t, rec.Fallback)
	assert.Equal(t, "SOLUSDT", rec.Symbol)
	assert.Equal(t, models.ActionBuy, rec.Recommendation.Action)
	assert.Equal(t, 0.6, rec.Recommendation.Confidence)
}

func TestRecommendationFromPipeline(t *testing.T) {
	uc := NewPredictionUseCase(newTestOrchestrator(fullSource()), newTestCacheStore(t), nil, nil)
	rec, err := uc.Recommendation(context.Background(), "bitcoin", "daily")
	require.NoError(t, err)
	assert.False(t, rec.Fallback)
	assert.Contains(t, []string{
		models.ActionStrongBuy, models.ActionBuy, models.ActionHold, models.ActionSell, models.ActionStrongSell,
	}, rec.Recommendation.Action)
	assert.Contains(t, rec.Recommendation.Reason, "Trend: ")
}

func TestWarmFillsBundleCache(t *testing.T) {
	src := fullSource()
	events := &captureEvents{}
	uc := NewPredictionUseCase(newTestOrchestrator(src), newTestCacheStore(t), events, nil)

	n, err := uc.Warm(context.Background(), []string{"bitcoin", "cardano"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, events.events, 2)

	_, err = uc.PredictAll(context.Background(), "cardano", nil)
	require.NoError(t, err)
	assert.Equal(t, 16, src.calls)
}
