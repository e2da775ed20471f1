package store

import (
	"slices"
	"sync"
	"time"

	"github.com/HendryAvila/archkit/internal/artifact"
)

// Default cache settings.
const (
	DefaultCacheTTL        = 30 * time.Second
	DefaultCacheMaxEntries = 100
)

type cacheEntry struct {
	filter     Filter
	items      []*artifact.Artifact
	skipped    []string
	insertedAt time.Time
}

// Cache holds List results keyed by canonical filter. Entries expire after
// the TTL; when full, the entry inserted first is evicted.
//
// A Cache belongs to one FileStore and is never shared across processes.
type Cache struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	entries    map[string]cacheEntry
	now        func() time.Time
}

// NewCache creates a cache. Non-positive values fall back to the defaults.
func NewCache(ttl time.Duration, maxEntries int) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultCacheMaxEntries
	}
	return &Cache{
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]cacheEntry),
		now:        time.Now,
	}
}

// Get returns a deep copy of the cached list for the key, if fresh, along
// with the paths the scan that produced it skipped.
func (c *Cache) Get(key string) ([]*artifact.Artifact, []string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, nil, false
	}
	if c.now().Sub(e.insertedAt) > c.ttl {
		delete(c.entries, key)
		return nil, nil, false
	}
	return cloneAll(e.items), slices.Clone(e.skipped), true
}

// Set stores a deep copy of items and the skipped paths under the filter's key.
func (c *Cache) Set(f Filter, items []*artifact.Artifact, skipped []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := f.Key()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.entries[key] = cacheEntry{
		filter:     f,
		items:      cloneAll(items),
		skipped:    slices.Clone(skipped),
		insertedAt: c.now(),
	}
}

// InvalidateByType drops every entry whose result could contain an
// artifact of type t: entries filtered on t, and entries with no type
// filter at all (including the unfiltered "all" entry).
func (c *Cache) InvalidateByType(t artifact.Type) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, e := range c.entries {
		if key == allKey || e.filter.Type == "" || e.filter.Type == t {
			delete(c.entries, key)
		}
	}
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// Len returns the number of entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) evictOldestLocked() {
	var (
		oldestKey string
		oldest    time.Time
		found     bool
	)
	for key, e := range c.entries {
		if !found || e.insertedAt.Before(oldest) {
			oldestKey, oldest, found = key, e.insertedAt, true
		}
	}
	if found {
		delete(c.entries, oldestKey)
	}
}

func cloneAll(items []*artifact.Artifact) []*artifact.Artifact {
	out := make([]*artifact.Artifact, len(items))
	for i, a := range items {
		out[i] = a.Clone()
	}
	return out
}
