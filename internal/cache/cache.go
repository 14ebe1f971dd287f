// Package cache memoizes per-source collection results for a short window so
// a burst of similar searches does not hammer the same external sources.
package cache

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"

	"github.com/scoutline/sourcing-cli/internal/model"
)

// DefaultTTL is how long a cached source result stays servable.
const DefaultTTL = 10 * time.Minute

type entry struct {
	result   model.SourceResult
	storedAt time.Time
}

// Cache is a process-wide, TTL-evicted map of (source, query, location) to
// SourceResult. Entries are deep-copied on both Put and Get, so a result
// handed to one request is never mutated by another.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]entry

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// New creates a cache with the given TTL. A non-positive TTL falls back to
// DefaultTTL.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]entry),
		nowFunc: time.Now,
	}
}

// Get returns a copy of the cached result for the normalized key if one
// exists and is younger than the TTL. The copy is flagged FromCache.
func (c *Cache) Get(source, query, location string) (model.SourceResult, bool) {
	k := key(source, query, location)

	c.mu.RLock()
	e, ok := c.entries[k]
	c.mu.RUnlock()
	if !ok {
		return model.SourceResult{}, false
	}
	if c.nowFunc().Sub(e.storedAt) >= c.ttl {
		return model.SourceResult{}, false
	}

	out := e.result.Clone()
	out.FromCache = true
	return out, true
}

// Put stores a successful result under the normalized key. Errored results
// are never cached, so a transient outage does not poison later requests.
func (c *Cache) Put(source, query, location string, result model.SourceResult) {
	if !result.OK() {
		return
	}

	e := entry{
		result:   result.Clone(),
		storedAt: c.nowFunc(),
	}

	c.mu.Lock()
	c.entries[key(source, query, location)] = e
	c.mu.Unlock()
}

// Prune drops expired entries. The scheduler calls this opportunistically;
// correctness does not depend on it since Get checks age itself.
func (c *Cache) Prune() {
	now := c.nowFunc()

	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		if now.Sub(e.storedAt) >= c.ttl {
			delete(c.entries, k)
		}
	}
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// key builds the cache key. Query and location are trimmed and case-folded
// so equivalent searches share a slot.
func key(source, query, location string) string {
	fold := cases.Fold()
	return source + "\x1f" + fold.String(strings.TrimSpace(query)) + "\x1f" + fold.String(strings.TrimSpace(location))
}
