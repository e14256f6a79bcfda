// Package dedupe remembers URLs recently written to the store so repeat
// batches skip the remote existence check for them.
package dedupe

import (
	"sync"
	"time"
)

type entry struct {
	url string
	ts  time.Time
}

// Cache keeps a fixed-size set of recently written item URLs.
type Cache struct {
	mu       sync.Mutex
	items    map[string]time.Time
	order    []entry
	capacity int
	ttl      time.Duration
}

// NewCache creates a cache with the provided capacity and ttl.
func NewCache(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = 1
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cache{
		items:    make(map[string]time.Time, capacity),
		order:    make([]entry, 0, capacity),
		capacity: capacity,
		ttl:      ttl,
	}
}

// Filter returns the subset of urls not remembered inside the ttl window,
// preserving input order. It never records anything; use Remember for that.
func (c *Cache) Filter(urls []string) []string {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if ts, ok := c.items[u]; ok && now.Sub(ts) <= c.ttl {
			continue
		}
		out = append(out, u)
	}
	return out
}

// Remember records urls as written.
func (c *Cache) Remember(urls ...string) {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, u := range urls {
		c.items[u] = now
		c.order = append(c.order, entry{url: u, ts: now})
	}
	c.compact(now)
}

func (c *Cache) compact(now time.Time) {
	cutoff := now.Add(-c.ttl)

	for len(c.order) > 0 && (len(c.items) > c.capacity || c.order[0].ts.Before(cutoff)) {
		oldest := c.order[0]
		c.order = c.order[1:]

		if ts, ok := c.items[oldest.url]; ok {
			if ts.Equal(oldest.ts) {
				delete(c.items, oldest.url)
			}
		}
	}
}
