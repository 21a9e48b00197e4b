// Package cache provides an in-memory TTL cache with ETag support for the
// read endpoints. Every committed ingestion invalidates it.
package cache

import (
	"crypto/md5"
	"fmt"
	"sync"
	"time"
)

// Keys of the cached read models.
const (
	KeyPet   = "pet"
	KeyStats = "activity_stats"
)

// StatsKey is the cache key for the statistics computed on day. The
// statistics are relative to the current UTC day, so each day has its own
// entry.
func StatsKey(day time.Time) string {
	return KeyStats + ":" + day.UTC().Format(time.DateOnly)
}

type entry struct {
	data      []byte
	etag      string
	expiresAt time.Time
}

// Cache is a thread-safe in-memory TTL cache.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	enabled bool
	ttl     time.Duration
	gen     uint64 // bumped by Invalidate
	now     func() time.Time
}

// New creates a new cache holding entries for ttl. Pass enabled=false to
// create a no-op cache.
func New(enabled bool, ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]entry),
		enabled: enabled && ttl > 0,
		ttl:     ttl,
		now:     time.Now,
	}
}

// TTL returns the lifetime of new entries.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Get retrieves a cached value. Returns data, etag, and whether the entry was found.
func (c *Cache) Get(key string) (data []byte, etag string, ok bool) {
	if !c.enabled {
		return nil, "", false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, exists := c.entries[key]
	if !exists || c.now().After(e.expiresAt) {
		return nil, "", false
	}
	return e.data, e.etag, true
}

// Generation returns the invalidation counter. Read it before loading the
// data passed to Set.
func (c *Cache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

// Set stores a value loaded at generation gen and returns its ETag. The
// value is not stored if an invalidation happened since gen, so a read
// racing a commit cannot cache stale data.
func (c *Cache) Set(key string, data []byte, gen uint64) string {
	etag := ComputeETag(data)
	if !c.enabled {
		return etag
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return etag
	}
	c.evictLocked()
	c.entries[key] = entry{
		data:      data,
		etag:      etag,
		expiresAt: c.now().Add(c.ttl),
	}
	return etag
}

// Invalidate drops every entry.
func (c *Cache) Invalidate() {
	if !c.enabled {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	clear(c.entries)
}

// Stats returns cache statistics.
func (c *Cache) Stats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	active := 0
	now := c.now()
	for _, e := range c.entries {
		if now.Before(e.expiresAt) {
			active++
		}
	}
	return map[string]interface{}{
		"enabled":      c.enabled,
		"total_keys":   len(c.entries),
		"active_keys":  active,
		"expired_keys": len(c.entries) - active,
	}
}

// evictLocked removes expired entries. The key space is a handful of read
// models, so a sweep on every write replaces a background loop.
func (c *Cache) evictLocked() {
	now := c.now()
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// ComputeETag generates a weak ETag from response data using MD5.
func ComputeETag(data []byte) string {
	hash := md5.Sum(data)
	return fmt.Sprintf(`W/"%x"`, hash[:8])
}

// CheckETagMatch checks if If-None-Match header matches the current ETag.
func CheckETagMatch(ifNoneMatch, etag string) bool {
	if ifNoneMatch == "" {
		return false
	}
	if ifNoneMatch == "*" {
		return true
	}
	return ifNoneMatch == etag
}
