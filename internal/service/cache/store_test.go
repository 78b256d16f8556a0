package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgcache "CryptoSignal/pkg/cache"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	mem := pkgcache.NewMemoryCache(pkgcache.WithMemoryCleanup(0))
	t.Cleanup(func() { _ = mem.Close() })
	return NewStore(mem, DefaultTTLs(), time.Minute, nil)
}

func TestStoreKeysRollOverWithEpoch(t *testing.T) {
	s := newTestStore(t)
	s.now = func() time.Time { return time.Unix(600, 0) }
	assert.Equal(t, "prediction:BTCUSDT:1h:10", s.PredictionKey("BTCUSDT", "1h"))
	assert.Equal(t, "prediction_all:BTCUSDT:1h,daily:10", s.BundleKey("BTCUSDT", []string{"1h", "daily"}))

	s.now = func() time.Time { return time.Unix(660, 0) }
	assert.Equal(t, "prediction:BTCUSDT:1h:11", s.PredictionKey("BTCUSDT", "1h"))
}

func TestStoreGetSet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	var v map[string]int
	assert.False(t, s.Get(ctx, "k", &v))
	require.NoError(t, s.Set(ctx, "k", map[string]int{"a": 1}, time.Minute))
	assert.True(t, s.Get(ctx, "k", &v))
	assert.Equal(t, 1, v["a"])
}

func TestStoreSubSecondEpochClampsToSecond(t *testing.T) {
	mem := pkgcache.NewMemoryCache(pkgcache.WithMemoryCleanup(0))
	t.Cleanup(func() { _ = mem.Close() })

	s := NewStore(mem, DefaultTTLs(), 500*time.Millisecond, nil)
	s.now = func() time.Time { return time.Unix(42, 0) }
	require.NotPanics(t, func() { s.PredictionKey("BTCUSDT", "1h") })
	assert.Equal(t, "prediction:BTCUSDT:1h:42", s.PredictionKey("BTCUSDT", "1h"))
}

func TestStoreConcurrentSetsOnOneKey(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	const writers = 32
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.Set(ctx, "shared", i, time.Minute))
			assert.NoError(t, s.Set(ctx, fmt.Sprintf("own:%d", i), i, time.Minute))
		}(i)
	}
	wg.Wait()

	var got int
	require.True(t, s.Get(ctx, "shared", &got))
	assert.GreaterOrEqual(t, got, 0)
	assert.Less(t, got, writers)

	for i := 0; i < writers; i++ {
		var own int
		require.True(t, s.Get(ctx, fmt.Sprintf("own:%d", i), &own))
		assert.Equal(t, i, own)
	}
}

// stripeNeighbours returns a key sharing held's stripe and one on another stripe.
func stripeNeighbours(t *testing.T, s *Store, held string) (same, other string) {
	t.Helper()
	for i := 0; same == "" || other == ""; i++ {
		require.Less(t, i, 100000)
		k := fmt.Sprintf("key:%d", i)
		if k == held {
			continue
		}
		if s.lockFor(k) == s.lockFor(held) {
			if same == "" {
				same = k
			}
		} else if other == "" {
			other = k
		}
	}
	return same, other
}

func TestStoreSetSerializesPerStripe(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	same, other := stripeNeighbours(t, s, "held")

	mu := s.lockFor("held")
	mu.Lock()

	require.NoError(t, s.Set(ctx, other, 1, time.Minute), "another stripe is not blocked")

	done := make(chan error, 1)
	go func() { done <- s.Set(ctx, same, 2, time.Minute) }()
	select {
	case <-done:
		t.Fatal("write on a held stripe completed")
	case <-time.After(50 * time.Millisecond):
	}

	mu.Unlock()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("write did not resume after unlock")
	}

	var v int
	require.True(t, s.Get(ctx, same, &v))
	assert.Equal(t, 2, v)
}
