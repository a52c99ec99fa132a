package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned when a key does not exist or has expired. Readers treat
// it as a normal control-flow branch, never as a failure.
var ErrMiss = errors.New("cache: miss")

// ZMember is one member of a sorted set.
type ZMember struct {
	Member string
	Score  float64
}

// Cache is the capability the feed layer needs from any backing store:
// string values with TTL, bounded lists, and a wholesale-replaceable sorted
// set. RedisCache backs it in production; MemoryCache backs it in tests and
// when running without Redis.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	SetEx(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error

	LPush(ctx context.Context, key string, values ...string) error
	LTrim(ctx context.Context, key string, start, stop int64) error
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	LLen(ctx context.Context, key string) (int64, error)
	LSet(ctx context.Context, key string, index int64, value string) error

	// ZReplace clears the set and repopulates it atomically.
	ZReplace(ctx context.Context, key string, members []ZMember) error
	ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) ([]ZMember, error)

	Ping(ctx context.Context) error
	Close() error
}
