package marketdata

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"CryptoSignal/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	name  string
	bars  []models.Bar
	err   error
	calls int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(ctx context.Context, symbol, interval string, limit int) ([]models.Bar, error) {
	s.calls++
	return s.bars, s.err
}

type recordingSink struct {
	mu     sync.Mutex
	stored map[string]int
}

func (r *recordingSink) StoreBars(ctx context.Context, symbol, interval string, bars []models.Bar) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stored == nil {
		r.stored = make(map[string]int)
	}
	r.stored[symbol+"/"+interval] += len(bars)
	return nil
}

func someBars(n int) []models.Bar {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Bar, n)
	for i := range out {
		out[i] = models.Bar{Timestamp: t0.Add(time.Duration(i) * time.Minute), Close: float64(100 + i)}
	}
	return out
}

func TestFailoverFallsThrough(t *testing.T) {
	broken := &stubSource{name: "binance", err: errors.New("boom")}
	empty := &stubSource{name: "coingecko"}
	good := &stubSource{name: "yahoo", bars: someBars(3)}
	sink := &recordingSink{}

	f := NewFailover(nil, broken, empty, good).WithSink(sink)
	assert.Equal(t, "failover(binance,coingecko,yahoo)", f.Name())

	bars, err := f.Fetch(context.Background(), "BTCUSDT", "1m", 3)
	require.NoError(t, err)
	assert.Len(t, bars, 3)
	assert.Equal(t, 1, broken.calls)
	assert.Equal(t, 1, empty.calls)
	assert.Equal(t, 3, sink.stored["BTCUSDT/1m"])
}

func TestFailoverStopsAtFirstHit(t *testing.T) {
	first := &stubSource{name: "a", bars: someBars(2)}
	second := &stubSource{name: "b", bars: someBars(5)}

	bars, err := NewFailover(nil, first, second).Fetch(context.Background(), "X", "1d", 5)
	require.NoError(t, err)
	assert.Len(t, bars, 2)
	assert.Zero(t, second.calls)
}

func TestFailoverAllFailed(t *testing.T) {
	e1 := errors.New("down")
	f := NewFailover(nil, &stubSource{name: "a", err: e1}, &stubSource{name: "b"})
	_, err := f.Fetch(context.Background(), "X", "1d", 5)
	assert.ErrorIs(t, err, e1)

	bars, err := NewFailover(nil, &stubSource{name: "a"}).Fetch(context.Background(), "X", "1d", 5)
	require.NoError(t, err)
	assert.Empty(t, bars)

	_, err = NewFailover(nil).Fetch(context.Background(), "X", "1d", 5)
	assert.ErrorIs(t, err, ErrNoSources)
}
