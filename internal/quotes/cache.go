package quotes

import (
	"sync"
	"time"
)

// ttlCache memoizes fetch results per key for a bounded time. It belongs to
// the gateway so the valuation pass stays pure: callers see identical
// behavior whether a value was just fetched or served from cache.
type ttlCache[V any] struct {
	mu      sync.Mutex
	entries map[string]cacheEntry[V]
}

type cacheEntry[V any] struct {
	value   V
	expires time.Time
}

func newTTLCache[V any]() *ttlCache[V] {
	return &ttlCache[V]{entries: make(map[string]cacheEntry[V])}
}

// getOrFetch returns the cached value for key if it has not expired,
// otherwise calls fetch and caches a successful result for ttl. Fetch errors
// are returned uncached so the next call retries.
func (c *ttlCache[V]) getOrFetch(key string, ttl time.Duration, fetch func() (V, error)) (V, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && time.Now().Before(e.expires) {
		c.mu.Unlock()
		return e.value, nil
	}
	c.mu.Unlock()

	value, err := fetch()
	if err != nil {
		var zero V
		return zero, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry[V]{value: value, expires: time.Now().Add(ttl)}
	c.mu.Unlock()
	return value, nil
}
