package kb

import (
	"sync"
	"time"
)

// Clock reports the current time. Tests substitute a fixed clock.
type Clock func() time.Time

type cacheEntry[V any] struct {
	value     V
	expiresAt time.Time
	seq       uint64
}

// Cache is a bounded, TTL-based in-memory cache safe for concurrent use.
// Expired entries are dropped lazily on access; when full, the oldest
// insertion is evicted.
type Cache[V any] struct {
	mu       sync.Mutex
	data     map[string]*cacheEntry[V]
	ttl      time.Duration
	capacity int
	now      Clock
	seq      uint64
	hits     uint64
	misses   uint64
}

type CacheOption func(*cacheSettings)

type cacheSettings struct {
	now Clock
}

// WithClock makes the cache read time from now instead of time.Now.
func WithClock(now Clock) CacheOption {
	return func(s *cacheSettings) {
		s.now = now
	}
}

// NewCache creates a cache holding at most capacity entries for ttl each.
// A non-positive ttl keeps entries until evicted.
func NewCache[V any](ttl time.Duration, capacity int, opts ...CacheOption) *Cache[V] {
	if capacity <= 0 {
		capacity = 256
	}
	settings := cacheSettings{now: time.Now}
	for _, opt := range opts {
		opt(&settings)
	}
	return &Cache[V]{
		data:     make(map[string]*cacheEntry[V]),
		ttl:      ttl,
		capacity: capacity,
		now:      settings.now,
	}
}

func (c *Cache[V]) expired(e *cacheEntry[V], now time.Time) bool {
	return c.ttl > 0 && !now.Before(e.expiresAt)
}

// Get returns the cached value for key.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.data[key]
	if ok && c.expired(e, c.now()) {
		delete(c.data, key)
		ok = false
	}
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	return e.value, true
}

// Set stores value under key, evicting the oldest entry when full.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.data[key]; !exists && len(c.data) >= c.capacity {
		c.evict(now)
	}
	c.seq++
	c.data[key] = &cacheEntry[V]{
		value:     value,
		expiresAt: now.Add(c.ttl),
		seq:       c.seq,
	}
}

// evict drops expired entries, or the oldest one if none had expired.
func (c *Cache[V]) evict(now time.Time) {
	var (
		oldestKey string
		oldestSeq uint64
		found     bool
	)
	for key, e := range c.data {
		if c.expired(e, now) {
			delete(c.data, key)
			continue
		}
		if !found || e.seq < oldestSeq {
			oldestKey, oldestSeq, found = key, e.seq, true
		}
	}
	if len(c.data) >= c.capacity && found {
		delete(c.data, oldestKey)
	}
}

// Clear removes every entry.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	c.data = make(map[string]*cacheEntry[V])
	c.mu.Unlock()
}

// Stats returns hit and miss counters and the current size.
func (c *Cache[V]) Stats() (hits, misses uint64, size int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses, len(c.data)
}
