package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowRefills(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := New(2, 1)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("binance"))
	assert.True(t, l.Allow("binance"))
	assert.False(t, l.Allow("binance"))
	assert.True(t, l.Allow("coingecko"), "keys have independent buckets")

	now = now.Add(time.Second)
	assert.True(t, l.Allow("binance"))
	assert.False(t, l.Allow("binance"))
}

func TestWaitHonoursContext(t *testing.T) {
	l := New(1, 0.001)
	require.NoError(t, l.Wait(context.Background(), "k"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := l.Wait(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
