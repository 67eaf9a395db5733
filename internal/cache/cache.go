// Package cache memoises chart analyses. Entries are opaque byte payloads
// produced by a Codec; backends are an in-process LRU, Redis, or both layered.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/soltixdb/xmrchart/internal/config"
)

var (
	// ErrCacheMiss is returned when a key is absent or expired
	ErrCacheMiss = errors.New("cache: key not found")
)

// Type identifies a cache backend
type Type string

const (
	TypeNone    Type = "none"
	TypeMemory  Type = "memory"
	TypeRedis   Type = "redis"
	TypeLayered Type = "layered"
)

// Cache stores byte payloads with a time to live.
type Cache interface {
	// Get returns ErrCacheMiss when the key is absent
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value. A ttl <= 0 uses the backend default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	Delete(ctx context.Context, keys ...string) error

	Close() error
}

// New creates a cache for cfg. TypeNone returns a nil Cache and no error.
func New(cfg config.CacheConfig) (Cache, error) {
	cacheType := Type(strings.ToLower(cfg.Type))
	if cacheType == "" {
		cacheType = TypeMemory
	}

	switch cacheType {
	case TypeNone:
		return nil, nil

	case TypeMemory:
		return NewMemoryCache(
			WithMemoryMaxSize(cfg.MaxEntries),
			WithMemoryTTL(cfg.TTL),
		), nil

	case TypeRedis:
		return NewRedisCache(
			WithRedisURL(cfg.RedisURL),
			WithRedisPrefix(cfg.Prefix),
			WithRedisTTL(cfg.TTL),
		)

	case TypeLayered:
		redisCache, err := NewRedisCache(
			WithRedisURL(cfg.RedisURL),
			WithRedisPrefix(cfg.Prefix),
			WithRedisTTL(cfg.TTL),
		)
		if err != nil {
			return nil, err
		}
		return NewLayeredCache(redisCache,
			WithMemoryMaxSize(cfg.MaxEntries),
			WithMemoryTTL(cfg.TTL),
		), nil

	default:
		return nil, fmt.Errorf("unsupported cache type: %s (supported: none, memory, redis, layered)", cacheType)
	}
}
