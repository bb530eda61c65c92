// Package cache provides read-through caches of short code -> original URL mappings.
//
// Mappings never change once created, so entries are never invalidated; TTLs only bound memory.
// Misses are not cached, so a mapping created on another instance resolves immediately.
package cache

import (
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
)

const (
	defaultLocalTTL = 5 * time.Minute
	localBufferSize = 64
)

// LocalCache is an in-process cache backed by ristretto.
type LocalCache struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

// NewLocalCache creates a cache holding up to maxItems entries. Every entry costs 1.
func NewLocalCache(maxItems int64, ttl time.Duration) (*LocalCache, error) {
	const op = "adapter.cache.NewLocalCache"

	if maxItems <= 0 {
		return nil, fmt.Errorf("%s: max items must be positive, got %d", op, maxItems)
	}
	if ttl <= 0 {
		ttl = defaultLocalTTL
	}

	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxItems * 10,
		MaxCost:     maxItems,
		BufferItems: localBufferSize,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create cache: %w", op, err)
	}

	return &LocalCache{
		cache: c,
		ttl:   ttl,
	}, nil
}

// Get returns the cached original URL for shortCode.
func (l *LocalCache) Get(shortCode string) (string, bool) {
	v, ok := l.cache.Get(shortCode)
	if !ok {
		return "", false
	}

	originalURL, ok := v.(string)
	return originalURL, ok
}

// Set stores the mapping. Ristretto applies writes asynchronously and may drop them under contention.
func (l *LocalCache) Set(shortCode, originalURL string) {
	l.cache.SetWithTTL(shortCode, originalURL, 1, l.ttl)
}

// Wait blocks until buffered writes are applied.
func (l *LocalCache) Wait() {
	l.cache.Wait()
}

// Close stops ristretto's background goroutines.
func (l *LocalCache) Close() {
	l.cache.Close()
}
