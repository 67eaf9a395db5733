package cache

import (
	"context"
	"errors"
	"time"
)

// LayeredCache is a two-level cache: an in-process L1 in front of a shared L2.
type LayeredCache struct {
	l1 *MemoryCache
	l2 Cache
}

// NewLayeredCache creates a layered cache over l2. opts configure the L1.
func NewLayeredCache(l2 Cache, opts ...MemoryOption) *LayeredCache {
	return &LayeredCache{
		l1: NewMemoryCache(opts...),
		l2: l2,
	}
}

// Get tries L1, then L2, promoting L2 hits into L1
func (lc *LayeredCache) Get(ctx context.Context, key string) ([]byte, error) {
	if data, err := lc.l1.Get(ctx, key); err == nil {
		return data, nil
	}

	data, err := lc.l2.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	_ = lc.l1.Set(ctx, key, data, 0)
	return data, nil
}

// Set writes through: L2 first, then L1
func (lc *LayeredCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := lc.l2.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	return lc.l1.Set(ctx, key, value, ttl)
}

// Delete removes keys from both levels
func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.l1.Delete(ctx, keys...)
	return lc.l2.Delete(ctx, keys...)
}

// Close closes both levels
func (lc *LayeredCache) Close() error {
	return errors.Join(lc.l1.Close(), lc.l2.Close())
}
