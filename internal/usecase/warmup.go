package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"CryptoSignal/pkg/logger"
	"CryptoSignal/pkg/queue"

	"github.com/robfig/cron/v3"
)

type warmer interface {
	Warm(ctx context.Context, coins []string) (int, error)
}

// runLocker is satisfied by the shared cache backends.
type runLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

const warmupLockKey = "lock:warmup"

// WarmCoinType is the queue message type carrying one coin to warm.
const WarmCoinType = "warm_coin"

type WarmCoinPayload struct {
	Coin string `json:"coin"`
}

// WarmCoinJob warms one coin per queue message.
type WarmCoinJob struct {
	warmer warmer
}

func NewWarmCoinJob(w warmer) *WarmCoinJob { return &WarmCoinJob{warmer: w} }

func (j *WarmCoinJob) Name() string { return "warm-coin" }
func (j *WarmCoinJob) Type() string { return WarmCoinType }

func (j *WarmCoinJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[WarmCoinPayload](payload)
	if err != nil {
		return err
	}
	if p.Coin == "" {
		return fmt.Errorf("warm coin: empty coin")
	}
	_, err = j.warmer.Warm(ctx, []string{p.Coin})
	return err
}

// WarmupScheduler periodically precomputes bundles so popular coins are served from cache.
type WarmupScheduler struct {
	cron    *cron.Cron
	warmer  warmer
	coins   []string
	timeout time.Duration
	log     *logger.Logger
	queue   queue.Publisher
	lock    runLocker
	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewWarmupScheduler(w warmer, coins []string, timeout time.Duration, log *logger.Logger) *WarmupScheduler {
	if log == nil {
		log = logger.NewNop()
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &WarmupScheduler{
		cron:    cron.New(cron.WithSeconds()),
		warmer:  w,
		coins:   coins,
		timeout: timeout,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// WithQueue makes each run enqueue one message per coin instead of warming locally,
// so replicas sharing the queue split the work.
func (s *WarmupScheduler) WithQueue(q queue.Publisher) *WarmupScheduler {
	s.queue = q
	return s
}

// WithLock makes replicas sharing l take turns: a run that cannot acquire
// the lock is skipped. The lock expires with the run timeout.
func (s *WarmupScheduler) WithLock(l runLocker) *WarmupScheduler {
	s.lock = l
	return s
}

// Register adds the warm-up job under a six-field cron spec.
func (s *WarmupScheduler) Register(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.RunOnce); err != nil {
		return fmt.Errorf("register warmup %q: %w", spec, err)
	}
	return nil
}

func (s *WarmupScheduler) Start() {
	s.cron.Start()
	s.log.Info("warmup scheduler started", logger.Strings("coins", s.coins))
}

// Stop halts scheduling, cancels a running pass and waits for it to return.
func (s *WarmupScheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.log.Info("warmup scheduler stopped")
}

// RunOnce warms every configured coin. Overlapping runs are skipped.
func (s *WarmupScheduler) RunOnce() {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Debug("warmup already running, skipping")
		return
	}
	defer s.running.Store(false)

	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	if s.lock != nil {
		ok, err := s.lock.TryLock(ctx, warmupLockKey, s.timeout)
		if err != nil {
			s.log.Warn("warmup lock failed", logger.Error(err))
			return
		}
		if !ok {
			s.log.Debug("warmup held by another replica, skipping")
			return
		}
		defer func() {
			// Past the deadline the lock TTL has lapsed and the key may belong to another replica.
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				s.log.Warn("warmup overran its lock, leaving it to expire")
				return
			}
			if err := s.lock.Unlock(context.Background(), warmupLockKey); err != nil {
				s.log.Warn("warmup unlock failed", logger.Error(err))
			}
		}()
	}

	if s.queue != nil {
		s.dispatch(ctx)
		return
	}

	start := time.Now()
	ok, err := s.warmer.Warm(ctx, s.coins)
	fields := []logger.Field{
		logger.Int("warmed", ok),
		logger.Int("coins", len(s.coins)),
		logger.Duration("duration_ms", time.Since(start)),
	}
	if err != nil {
		s.log.Warn("warmup finished with errors", append(fields, logger.Error(err))...)
		return
	}
	s.log.Info("warmup finished", fields...)
}

func (s *WarmupScheduler) dispatch(ctx context.Context) {
	queued := 0
	for _, coin := range s.coins {
		if err := s.queue.Enqueue(ctx, WarmCoinType, WarmCoinPayload{Coin: coin}); err != nil {
			s.log.Warn("enqueue warmup failed", logger.String("coin", coin), logger.Error(err))
			continue
		}
		queued++
	}
	s.log.Debug("warmup dispatched", logger.Int("queued", queued), logger.Int("coins", len(s.coins)))
}
