// Package cache memoizes extraction records in memory. A successful
// extraction is expensive (browser launch, OCR, two LLM calls), so repeat
// requests for the same URL within the caller's freshness window are served
// from here.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/siddarth24/joblo/models"
)

// entry holds a cached record with its creation timestamp.
type entry struct {
	record    models.Record
	createdAt time.Time
}

// Cache is a simple in-memory cache for extraction records.
// It is safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
}

// New creates a new Cache with the given maximum number of entries.
// A background goroutine runs every 5 minutes to evict expired entries
// (older than 1 hour).
func New(maxEntries int) *Cache {
	c := &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
	}

	go c.cleanupLoop()
	return c
}

// Key generates a cache key from the URL and the model that structured it.
// Different models can produce different field sets for the same posting.
func Key(url, model string) string {
	h := sha256.New()
	h.Write([]byte(url))
	h.Write([]byte("|"))
	h.Write([]byte(model))
	return hex.EncodeToString(h.Sum(nil))
}

// Get retrieves a cached record if it exists and is younger than maxAge.
// maxAge is in milliseconds. If maxAge <= 0, no cache lookup is performed.
// Returns the record and whether it was a cache hit.
func (c *Cache) Get(key string, maxAgeMs int) (models.Record, bool) {
	if maxAgeMs <= 0 {
		return models.Record{}, false
	}

	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()

	if !ok {
		return models.Record{}, false
	}

	maxAge := time.Duration(maxAgeMs) * time.Millisecond
	if time.Since(e.createdAt) > maxAge {
		return models.Record{}, false
	}

	return e.record, true
}

// Set stores a record in the cache. Error records are not cached: a failed
// extraction may succeed on retry, and serving a stale failure would pin the
// URL to it. If the cache is at capacity, a random entry is evicted.
func (c *Cache) Set(key string, rec models.Record) {
	if rec.Failed() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Evict one random entry if at capacity (map iteration is random in Go).
	if len(c.store) >= c.maxEntries {
		for k := range c.store {
			delete(c.store, k)
			break
		}
	}

	c.store[key] = &entry{
		record:    rec,
		createdAt: time.Now(),
	}
}

// Len returns the current number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// cleanupLoop evicts entries older than 1 hour every 5 minutes.
func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-1 * time.Hour)
		c.mu.Lock()
		for k, e := range c.store {
			if e.createdAt.Before(cutoff) {
				delete(c.store, k)
			}
		}
		c.mu.Unlock()
	}
}
