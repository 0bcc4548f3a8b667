package cache

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Stats tracks cache activity counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Cleanups  int64
	Expired   int64
}

// HitRate returns hits / (hits+misses), or 0 when there have been no
// lookups at all.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

type entry[V any] struct {
	value     V
	createdAt time.Time
	expiresAt time.Time
}

// Cache is a capacity-bounded, access-order (LRU) map with per-entry TTL
// expiry and hit/miss statistics. Safe for concurrent use.
type Cache[K comparable, V any] struct {
	mu         sync.Mutex
	inner      *lru.Cache[K, *entry[V]]
	defaultTTL time.Duration
	stats      Stats
}

// New returns a Cache bounded to capacity entries, using defaultTTL for
// any Put call that does not specify its own TTL. A zero or negative
// defaultTTL means entries never expire on their own.
func New[K comparable, V any](capacity int, defaultTTL time.Duration) (*Cache[K, V], error) {
	c := &Cache[K, V]{defaultTTL: defaultTTL}
	inner, err := lru.NewWithEvict[K, *entry[V]](capacity, func(_ K, _ *entry[V]) {
		c.mu.Lock()
		c.stats.Evictions++
		c.mu.Unlock()
	})
	if err != nil {
		return nil, err
	}
	c.inner = inner
	return c, nil
}

// Get returns the value stored at key, promoting it to most-recently-used.
// A present-but-expired entry is evicted and reported as a miss.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.inner.Get(key)
	if !ok {
		c.stats.Misses++
		var zero V
		return zero, false
	}
	if c.isExpired(e) {
		c.inner.Remove(key)
		c.stats.Misses++
		c.stats.Expired++
		var zero V
		return zero, false
	}
	c.stats.Hits++
	return e.value, true
}

// Put inserts or updates key using the cache's default TTL.
func (c *Cache[K, V]) Put(key K, value V) {
	c.PutTTL(key, value, c.defaultTTL)
}

// PutTTL inserts or updates key with an explicit TTL. A zero or negative
// ttl means the entry never expires on its own.
func (c *Cache[K, V]) PutTTL(key K, value V, ttl time.Duration) {
	now := timeNow()
	e := &entry[V]{value: value, createdAt: now}
	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inner.Add(key, e) {
		c.stats.Evictions++
	}
}

// Delete removes key, reporting whether it was present.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inner.Remove(key)
}

// Clear empties the cache and returns how many entries were removed.
func (c *Cache[K, V]) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.inner.Len()
	c.inner.Purge()
	return n
}

// Len returns the current entry count, including not-yet-swept expired
// entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inner.Len()
}

// Stats returns a snapshot of the cache's activity counters.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// SweepExpired removes every currently-expired entry without disturbing
// recency order of the survivors. Returns the number removed.
func (c *Cache[K, V]) SweepExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := timeNow()
	var expired []K
	for _, k := range c.inner.Keys() {
		e, ok := c.inner.Peek(k)
		if ok && !e.expiresAt.IsZero() && now.After(e.expiresAt) {
			expired = append(expired, k)
		}
	}
	for _, k := range expired {
		c.inner.Remove(k)
	}
	c.stats.Expired += int64(len(expired))
	c.stats.Cleanups++
	return len(expired)
}

func (c *Cache[K, V]) isExpired(e *entry[V]) bool {
	return !e.expiresAt.IsZero() && timeNow().After(e.expiresAt)
}

// timeNow is a seam so tests can pin expiry without sleeping.
var timeNow = time.Now
