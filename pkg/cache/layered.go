package cache

import (
	"context"
	"time"
)

// LayeredCache is a two-level cache: memory in front of Redis.
type LayeredCache struct {
	mem      *MemoryCache
	redis    *RedisCache
	maxL1TTL time.Duration
}

func NewLayeredCache(redisCache *RedisCache, opts ...LayeredOption) *LayeredCache {
	cfg := &LayeredConfig{MemoryMaxSize: 1000, MaxL1TTL: time.Minute}
	for _, opt := range opts {
		opt(cfg)
	}
	return &LayeredCache{
		mem:      NewMemoryCache(WithMemoryMaxSize(cfg.MemoryMaxSize)),
		redis:    redisCache,
		maxL1TTL: cfg.MaxL1TTL,
	}
}

// Set writes through: Redis first, then memory.
func (lc *LayeredCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := encode(value)
	if err != nil {
		return err
	}
	if err := lc.redis.Set(ctx, key, data, expiration); err != nil {
		return err
	}
	lc.mem.setRaw(key, data, lc.l1TTL(expiration))
	return nil
}

func (lc *LayeredCache) Get(ctx context.Context, key string, dest interface{}) error {
	if data, ok := lc.mem.getRaw(key); ok {
		return decode(data, dest)
	}
	data, ttl, err := lc.redis.getWithTTL(ctx, key)
	if err != nil {
		return err
	}
	// Promote with the remaining Redis lifetime so L1 never outlives L2.
	if ttl > 0 {
		lc.mem.setRaw(key, data, lc.l1TTL(ttl))
	}
	return decode(data, dest)
}

func (lc *LayeredCache) l1TTL(d time.Duration) time.Duration {
	if d <= 0 || (lc.maxL1TTL > 0 && d > lc.maxL1TTL) {
		return lc.maxL1TTL
	}
	return d
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.mem.Delete(ctx, keys...)
	return lc.redis.Delete(ctx, keys...)
}

func (lc *LayeredCache) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return lc.redis.TryLock(ctx, key, ttl)
}

func (lc *LayeredCache) Unlock(ctx context.Context, key string) error {
	return lc.redis.Unlock(ctx, key)
}

func (lc *LayeredCache) Close() error {
	_ = lc.mem.Close()
	return lc.redis.Close()
}

var _ Service = (*LayeredCache)(nil)
