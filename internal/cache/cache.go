// Package cache holds resolved Products in memory for a TTL window, bounding
// the upstream call rate. Entries never outlive the process.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/kaorikusaka20/kicksdb-netlify-demo/internal/catalog"
)

type entry struct {
	product    catalog.Product
	capturedAt time.Time
}

// Cache is a process-wide (identifier, market) -> Product map with TTL expiry.
// Get never returns an entry older than the TTL; Sweep only bounds memory.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	nowFunc func() time.Time
}

// New returns an empty Cache with the given TTL.
func New(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
		nowFunc: time.Now,
	}
}

// Key builds the cache key for an identifier in a market.
func Key(identifier, market string) string {
	return identifier + "-" + market
}

// Get returns the cached Product for key if it is still within the TTL.
func (c *Cache) Get(key string) (catalog.Product, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.nowFunc().Sub(e.capturedAt) >= c.ttl {
		return catalog.Product{}, false
	}
	return e.product, true
}

// Put stores the Product under key, unconditionally overwriting any existing
// entry. Concurrent writers for the same key race benignly; last write wins.
func (c *Cache) Put(key string, p catalog.Product) {
	c.mu.Lock()
	c.entries[key] = entry{product: p, capturedAt: c.nowFunc()}
	c.mu.Unlock()
}

// Sweep removes all expired entries and reports how many were dropped.
func (c *Cache) Sweep() int {
	now := c.nowFunc()
	c.mu.Lock()
	defer c.mu.Unlock()
	dropped := 0
	for k, e := range c.entries {
		if now.Sub(e.capturedAt) >= c.ttl {
			delete(c.entries, k)
			dropped++
		}
	}
	return dropped
}

// Len reports the number of entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// StartSweeper runs Sweep every interval until ctx is cancelled. It runs on
// its own timer, unsynchronized with request handling.
func (c *Cache) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Sweep()
			}
		}
	}()
}
