package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingWarmer struct {
	mu    sync.Mutex
	calls int
	coins []string
	block chan struct{}
	err   error
}

func (w *countingWarmer) Warm(ctx context.Context, coins []string) (int, error) {
	w.mu.Lock()
	w.calls++
	w.coins = coins
	w.mu.Unlock()
	if w.block != nil {
		<-w.block
	}
	return len(coins), w.err
}

func TestWarmupRunOnce(t *testing.T) {
	w := &countingWarmer{err: errors.New("partial")}
	s := NewWarmupScheduler(w, []string{"bitcoin", "ethereum"}, time.Second, nil)
	s.RunOnce()
	assert.Equal(t, 1, w.calls)
	assert.Equal(t, []string{"bitcoin", "ethereum"}, w.coins)
}

func TestWarmupSkipsOverlappingRuns(t *testing.T) {
	w := &countingWarmer{block: make(chan struct{})}
	s := NewWarmupScheduler(w, []string{"bitcoin"}, time.Second, nil)

	done := make(chan struct{})
	go func() { s.RunOnce(); close(done) }()
	require.Eventually(t, func() bool {
		w.mu.Lock()
		defer w.mu.Unlock()
		return w.calls == 1
	}, time.Second, 5*time.Millisecond)

	s.RunOnce()
	close(w.block)
	<-done
	assert.Equal(t, 1, w.calls)
}

func TestWarmupRegisterRejectsBadSpec(t *testing.T) {
	s := NewWarmupScheduler(&countingWarmer{}, nil, 0, nil)
	assert.Error(t, s.Register("not a spec"))
	require.NoError(t, s.Register("0 */5 * * * *"))
	s.Start()
	s.Stop()
}

type recordingQueue struct {
	msgs []WarmCoinPayload
	fail string
}

func (q *recordingQueue) Enqueue(_ context.Context, msgType string, payload interface{}) error {
	p := payload.(WarmCoinPayload)
	if p.Coin == q.fail {
		return errors.New("redis down")
	}
	q.msgs = append(q.msgs, p)
	return nil
}

func TestWarmupDispatchesToQueue(t *testing.T) {
	w := &countingWarmer{}
	q := &recordingQueue{fail: "ethereum"}
	s := NewWarmupScheduler(w, []string{"bitcoin", "ethereum", "solana"}, time.Second, nil).WithQueue(q)

	s.RunOnce()
	assert.Zero(t, w.calls)
	assert.Equal(t, []WarmCoinPayload{{Coin: "bitcoin"}, {Coin: "solana"}}, q.msgs)
}

func TestWarmCoinJob(t *testing.T) {
	w := &countingWarmer{}
	job := NewWarmCoinJob(w)
	assert.Equal(t, WarmCoinType, job.Type())

	require.NoError(t, job.Handle(context.Background(), json.RawMessage(`{"coin":"solana"}`)))
	assert.Equal(t, []string{"solana"}, w.coins)

	assert.Error(t, job.Handle(context.Background(), json.RawMessage(`{}`)))
	assert.Error(t, job.Handle(context.Background(), 42))
}

type heldLock struct {
	held     bool
	unlocked int
}

func (l *heldLock) TryLock(context.Context, string, time.Duration) (bool, error) {
	if l.held {
		return false, nil
	}
	l.held = true
	return true, nil
}

func (l *heldLock) Unlock(context.Context, string) error {
	l.held = false
	l.unlocked++
	return nil
}

func TestWarmupHonoursSharedLock(t *testing.T) {
	w := &countingWarmer{}
	lock := &heldLock{}
	s := NewWarmupScheduler(w, []string{"bitcoin"}, time.Second, nil).WithLock(lock)

	s.RunOnce()
	assert.Equal(t, 1, w.calls)
	assert.Equal(t, 1, lock.unlocked)

	lock.held = true
	s.RunOnce()
	assert.Equal(t, 1, w.calls)
}

type deadlineWarmer struct{}

func (deadlineWarmer) Warm(ctx context.Context, coins []string) (int, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

func TestWarmupLeavesOverrunLockToExpire(t *testing.T) {
	lock := &heldLock{}
	s := NewWarmupScheduler(deadlineWarmer{}, []string{"bitcoin"}, 20*time.Millisecond, nil).WithLock(lock)

	s.RunOnce()
	assert.Zero(t, lock.unlocked)
	assert.True(t, lock.held)
}
