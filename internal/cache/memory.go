package cache

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryCache is an in-process Cache implementation. It exists for tests and
// for running the server without a Redis instance; it applies the same TTL
// and miss semantics as RedisCache.
type MemoryCache struct {
	mu      sync.RWMutex
	strings map[string]memoryEntry
	lists   map[string][]string
	zsets   map[string][]ZMember
}

type memoryEntry struct {
	value   string
	expires time.Time // zero means no expiry
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		strings: make(map[string]memoryEntry),
		lists:   make(map[string][]string),
		zsets:   make(map[string][]ZMember),
	}
}

func (mc *MemoryCache) Get(ctx context.Context, key string) (string, error) {
	mc.mu.RLock()
	entry, ok := mc.strings[key]
	mc.mu.RUnlock()

	if !ok {
		return "", ErrMiss
	}
	if !entry.expires.IsZero() && time.Now().After(entry.expires) {
		mc.mu.Lock()
		delete(mc.strings, key)
		mc.mu.Unlock()
		return "", ErrMiss
	}
	return entry.value, nil
}

func (mc *MemoryCache) SetEx(ctx context.Context, key string, value string, ttl time.Duration) error {
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expires = time.Now().Add(ttl)
	}

	mc.mu.Lock()
	mc.strings[key] = entry
	mc.mu.Unlock()
	return nil
}

func (mc *MemoryCache) Del(ctx context.Context, keys ...string) error {
	mc.mu.Lock()
	for _, key := range keys {
		delete(mc.strings, key)
		delete(mc.lists, key)
		delete(mc.zsets, key)
	}
	mc.mu.Unlock()
	return nil
}

func (mc *MemoryCache) LPush(ctx context.Context, key string, values ...string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	// LPUSH semantics: each value is pushed in turn, so the last argument
	// ends up at the head.
	list := mc.lists[key]
	for _, v := range values {
		list = append([]string{v}, list...)
	}
	mc.lists[key] = list
	return nil
}

func (mc *MemoryCache) LTrim(ctx context.Context, key string, start, stop int64) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	list := mc.lists[key]
	n := int64(len(list))
	lo, hi := normalizeRange(start, stop, n)
	if lo > hi || lo >= n {
		delete(mc.lists, key)
		return nil
	}
	mc.lists[key] = list[lo : hi+1]
	return nil
}

func (mc *MemoryCache) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	list := mc.lists[key]
	n := int64(len(list))
	lo, hi := normalizeRange(start, stop, n)
	if lo > hi || lo >= n {
		return []string{}, nil
	}

	out := make([]string, hi-lo+1)
	copy(out, list[lo:hi+1])
	return out, nil
}

func (mc *MemoryCache) LLen(ctx context.Context, key string) (int64, error) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return int64(len(mc.lists[key])), nil
}

func (mc *MemoryCache) LSet(ctx context.Context, key string, index int64, value string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	list := mc.lists[key]
	if index < 0 {
		index += int64(len(list))
	}
	if index < 0 || index >= int64(len(list)) {
		return fmt.Errorf("cache: index out of range for %s", key)
	}
	list[index] = value
	return nil
}

func (mc *MemoryCache) ZReplace(ctx context.Context, key string, members []ZMember) error {
	out := make([]ZMember, len(members))
	copy(out, members)

	mc.mu.Lock()
	if len(out) == 0 {
		delete(mc.zsets, key)
	} else {
		mc.zsets[key] = out
	}
	mc.mu.Unlock()
	return nil
}

func (mc *MemoryCache) ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) ([]ZMember, error) {
	mc.mu.RLock()
	members := make([]ZMember, len(mc.zsets[key]))
	copy(members, mc.zsets[key])
	mc.mu.RUnlock()

	sort.SliceStable(members, func(i, j int) bool {
		return members[i].Score > members[j].Score
	})

	n := int64(len(members))
	lo, hi := normalizeRange(start, stop, n)
	if lo > hi || lo >= n {
		return []ZMember{}, nil
	}
	return members[lo : hi+1], nil
}

func (mc *MemoryCache) Ping(ctx context.Context) error { return nil }

func (mc *MemoryCache) Close() error { return nil }

// normalizeRange resolves redis-style negative indexes against a length n.
func normalizeRange(start, stop, n int64) (int64, int64) {
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	return start, stop
}
