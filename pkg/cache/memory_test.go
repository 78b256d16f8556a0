package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type payload struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

func newTestMemory(clock *fakeClock, opts ...MemoryOption) *MemoryCache {
	opts = append([]MemoryOption{WithMemoryClock(clock.Now), WithMemoryCleanup(0)}, opts...)
	return NewMemoryCache(opts...)
}

func TestMemoryCacheTypedRoundTrip(t *testing.T) {
	ctx := context.Background()
	mc := newTestMemory(&fakeClock{now: time.Unix(0, 0)})
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "p", payload{Symbol: "BTCUSDT", Price: 42}, time.Minute))
	var got payload
	require.NoError(t, mc.Get(ctx, "p", &got))
	assert.Equal(t, payload{Symbol: "BTCUSDT", Price: 42}, got)

	require.NoError(t, mc.Set(ctx, "s", "raw", time.Minute))
	var s string
	require.NoError(t, mc.Get(ctx, "s", &s))
	assert.Equal(t, "raw", s)
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(1000, 0)}
	mc := newTestMemory(clock)
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "k", 1, 60*time.Second))
	clock.Advance(59 * time.Second)
	var v int
	require.NoError(t, mc.Get(ctx, "k", &v))

	clock.Advance(time.Second)
	err := mc.Get(ctx, "k", &v)
	assert.True(t, errors.Is(err, ErrCacheMiss))
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(0, 0)}
	mc := newTestMemory(clock, WithMemoryMaxSize(2))
	defer mc.Close()

	_ = mc.Set(ctx, "a", 1, time.Hour)
	clock.Advance(time.Second)
	_ = mc.Set(ctx, "b", 2, time.Hour)
	clock.Advance(time.Second)
	var v int
	require.NoError(t, mc.Get(ctx, "a", &v))
	clock.Advance(time.Second)
	_ = mc.Set(ctx, "c", 3, time.Hour)

	assert.Equal(t, 2, mc.Len())
	assert.ErrorIs(t, mc.Get(ctx, "b", &v), ErrCacheMiss)
	assert.NoError(t, mc.Get(ctx, "a", &v))
}

func TestMemoryCacheTryLock(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(0, 0)}
	mc := newTestMemory(clock)
	defer mc.Close()

	ok, _ := mc.TryLock(ctx, "lock", time.Second)
	assert.True(t, ok)
	ok, _ = mc.TryLock(ctx, "lock", time.Second)
	assert.False(t, ok)
	clock.Advance(time.Second)
	ok, _ = mc.TryLock(ctx, "lock", time.Second)
	assert.True(t, ok)
	require.NoError(t, mc.Unlock(ctx, "lock"))
}

func TestGenerateKeyWithParams(t *testing.T) {
	assert.Equal(t, "prediction:BTCUSDT:1h:42", GenerateKeyWithParams("prediction", "BTCUSDT", "1h", 42))
	assert.Equal(t, "coins", GenerateKeyWithParams("coins"))
}
