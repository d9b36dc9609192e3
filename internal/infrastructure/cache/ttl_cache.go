package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// TTLCache is an in-process key/value memoization layer with per-entry
// expiry. Every aggregation in the metrics service goes through it so a
// dashboard page refresh does not re-query the vendor APIs.
//
// Entries are never evicted except by expiry overwrite or an explicit
// invalidation: the key space is small and fixed by the set of known
// metrics, so unbounded growth is not a concern in practice.
//
// Keys follow the colon-delimited convention
// "<domain>:<metric>:<params...>" (e.g. "metrics:mrr:2024-01-01:2024-03-01");
// the manual refresh endpoint relies on it to target InvalidatePrefix.
type TTLCache struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

type entry struct {
	value     any
	expiresAt time.Time
}

// New creates a cache using the wall clock.
func New() *TTLCache {
	return NewWithClock(time.Now)
}

// NewWithClock creates a cache with an injected clock, so tests can
// advance time deterministically.
func NewWithClock(now func() time.Time) *TTLCache {
	return &TTLCache{
		entries: make(map[string]entry),
		now:     now,
	}
}

// GetOrCompute returns the live cached value for key, or invokes compute,
// stores its result for ttl, and returns it.
//
// Concurrent calls for the same key before the first completes each run
// compute independently; writes are last-write-wins. There is no
// single-flight de-duplication: every computation is pure with respect
// to its inputs, so the only cost is a redundant upstream query.
//
// A failed compute writes nothing — the error propagates and the next
// call retries.
func GetOrCompute[T any](ctx context.Context, c *TTLCache, key string, ttl time.Duration, compute func(context.Context) (T, error)) (T, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && c.now().Before(e.expiresAt) {
		if v, ok := e.value.(T); ok {
			c.mu.Unlock()
			return v, nil
		}
	}
	c.mu.Unlock()

	// Compute outside the lock so a slow upstream call does not block
	// unrelated keys.
	v, err := compute(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	c.mu.Lock()
	c.entries[key] = entry{value: v, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()

	return v, nil
}

// Invalidate removes the entry for key immediately.
func (c *TTLCache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// InvalidatePrefix removes all entries whose key starts with prefix.
func (c *TTLCache) InvalidatePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of entries currently held, expired or not.
func (c *TTLCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
