package cache

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	pkgcache "CryptoSignal/pkg/cache"
	"CryptoSignal/pkg/logger"
)

const lockStripes = 64

// TTLs holds the expiry policy per kind of cached value.
type TTLs struct {
	Coins      time.Duration
	Price      time.Duration
	Historical time.Duration
	Prediction time.Duration
	Bundle     time.Duration
	Analysis   time.Duration
	Recommend  time.Duration
}

// DefaultTTLs matches the public API's freshness expectations.
func DefaultTTLs() TTLs {
	return TTLs{
		Coins:      time.Hour,
		Price:      time.Minute,
		Historical: 5 * time.Minute,
		Prediction: time.Minute,
		Bundle:     2 * time.Minute,
		Analysis:   5 * time.Minute,
		Recommend:  time.Minute,
	}
}

// Store wraps a cache backend. Reads go straight through; writes to the
// same key are serialized by a striped mutex so concurrent fills of one
// key cannot interleave. Identical concurrent misses still compute twice.
type Store struct {
	backend pkgcache.Service
	ttls    TTLs
	epoch   time.Duration
	now     func() time.Time
	log     *logger.Logger
	locks   [lockStripes]sync.Mutex
}

func NewStore(backend pkgcache.Service, ttls TTLs, epoch time.Duration, log *logger.Logger) *Store {
	switch {
	case epoch <= 0:
		epoch = time.Minute
	case epoch < time.Second:
		// Epochs count whole seconds.
		epoch = time.Second
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Store{backend: backend, ttls: ttls, epoch: epoch, now: time.Now, log: log}
}

// WithClock replaces the clock used for epoch keys.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) TTLs() TTLs { return s.ttls }

// Epoch buckets wall time so keys roll over every epoch window.
func (s *Store) Epoch() int64 {
	return s.now().Unix() / int64(s.epoch/time.Second)
}

// Key builds an epoch-scoped key for kind.
func (s *Store) Key(kind string, parts ...interface{}) string {
	return pkgcache.GenerateKeyWithParams(kind, append(parts, s.Epoch())...)
}

// StaticKey builds a key without the epoch; expiry alone bounds its age.
func (s *Store) StaticKey(kind string, parts ...interface{}) string {
	return pkgcache.GenerateKeyWithParams(kind, parts...)
}

func (s *Store) PredictionKey(symbol, timeframe string) string {
	return pkgcache.GenerateKeyWithParams("prediction", symbol, timeframe, s.Epoch())
}

func (s *Store) BundleKey(symbol string, timeframes []string) string {
	return pkgcache.GenerateKeyWithParams("prediction_all", symbol, strings.Join(timeframes, ","), s.Epoch())
}

// Get returns false on a miss. Backend errors are logged and treated as misses.
func (s *Store) Get(ctx context.Context, key string, dest interface{}) bool {
	err := s.backend.Get(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, pkgcache.ErrCacheMiss) {
		s.log.Warn("cache get failed", logger.String("key", key), logger.Error(err))
	}
	return false
}

// Set stores value under key with ttl, serialized per key.
func (s *Store) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	mu := s.lockFor(key)
	mu.Lock()
	defer mu.Unlock()
	if err := s.backend.Set(ctx, key, value, ttl); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

func (s *Store) lockFor(key string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &s.locks[h.Sum32()%lockStripes]
}
