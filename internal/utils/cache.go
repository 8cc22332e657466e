package utils

import (
	"os"
	"sync"
	"time"
)

// cacheEntry is a cached value together with the file state it was derived from
type cacheEntry[V any] struct {
	value   V
	modTime time.Time
	size    int64
}

// Cache memoizes values derived from files. An entry is dropped as soon as
// the file's size or modification time differs from when it was stored.
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[string]cacheEntry[V]
	hits    int
	misses  int
}

// CacheStats provides cache statistics
type CacheStats struct {
	Entries int
	Hits    int
	Misses  int
}

// NewCache creates a new file-backed cache
func NewCache[V any]() *Cache[V] {
	return &Cache[V]{
		entries: make(map[string]cacheEntry[V]),
	}
}

// Get returns the value stored for path if the file is unchanged
func (c *Cache[V]) Get(path string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	entry, ok := c.entries[path]
	if !ok {
		c.misses++
		return zero, false
	}

	stat, err := os.Stat(path)
	if err != nil || !stat.ModTime().Equal(entry.modTime) || stat.Size() != entry.size {
		delete(c.entries, path)
		c.misses++
		return zero, false
	}

	c.hits++
	return entry.value, true
}

// Put stores value for path, recording the file's current state
func (c *Cache[V]) Put(path string, value V) error {
	stat, err := os.Stat(path)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[path] = cacheEntry[V]{
		value:   value,
		modTime: stat.ModTime(),
		size:    stat.Size(),
	}
	return nil
}

// Invalidate removes path from the cache
func (c *Cache[V]) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, path)
}

// Stats returns cache statistics
func (c *Cache[V]) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Entries: len(c.entries), Hits: c.hits, Misses: c.misses}
}
