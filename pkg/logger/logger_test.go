package logger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	mu      sync.Mutex
	topic   string
	batches [][]DigestEntry
}

func (p *capturePublisher) PublishJSON(_ context.Context, topic, _ string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic = topic
	p.batches = append(p.batches, payload.([]DigestEntry))
	return nil
}

func (p *capturePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.batches)
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud", Format: "json"})
	assert.Error(t, err)
}

func TestDigestDeduplicates(t *testing.T) {
	d := NewDigest(&DigestConfig{Interval: time.Hour})
	defer d.Close()

	fields := map[string]interface{}{"symbol": "BTCUSDT"}
	d.Add("warn", "fetch failed", fields, "a.go:1")
	d.Add("warn", "fetch failed", fields, "a.go:1")
	d.Add("error", "fetch failed", fields, "a.go:1")

	pending := d.Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, 2, pending[0].Count)
	assert.Equal(t, "warn", pending[0].Level)
}

func TestDigestFlushesOnMaxUnique(t *testing.T) {
	pub := &capturePublisher{}
	d := NewDigest(&DigestConfig{Interval: time.Hour, MaxUnique: 2, Topic: "logs", Publisher: pub})
	defer d.Close()

	d.Add("warn", "one", nil, "x")
	d.Add("warn", "two", nil, "x")

	assert.Empty(t, d.Pending())
	require.Eventually(t, func() bool { return pub.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "logs", pub.topic)
}

func TestChildrenShareLateDigest(t *testing.T) {
	root := NewNop()
	child := root.With(String("component", "warmup"))

	root.AttachDigest(&DigestConfig{Interval: time.Hour})
	defer root.DetachDigest()

	child.Warn("warmup failed", Error(errors.New("boom")))
	child.Info("ignored")

	pending := root.digest.get().Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, "warmup failed", pending[0].Message)
	assert.Equal(t, "boom", pending[0].Fields["error"])
}
