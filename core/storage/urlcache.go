package storage

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// urlCacheMargin keeps the cache TTL strictly below the signature's
// own expiry so a cached URL is never served after its signature died.
const urlCacheMargin = time.Minute

// URLCache memoizes generated pre-signed URLs keyed by object identity
// plus content fingerprint. Concurrent readers and writers race
// benignly; singleflight collapses concurrent generations of the same
// key.
type URLCache struct {
	mu      sync.RWMutex
	entries map[string]urlCacheEntry
	ttl     time.Duration
	sf      singleflight.Group

	// now is swappable for tests.
	now func() time.Time
}

type urlCacheEntry struct {
	url     string
	expires time.Time
}

// URLCacheKey builds the cache key from bucket, object key and ETag,
// so a replaced object never serves a stale URL.
func URLCacheKey(bucket, key, etag string) string {
	return strings.Join([]string{bucket, key, etag}, "|")
}

// NewURLCache creates a cache whose TTL is clamped strictly below the
// pre-signed URL expiry.
func NewURLCache(ttl, urlExpiry time.Duration) *URLCache {
	max := urlExpiry - urlCacheMargin
	if max <= 0 {
		// Expiries at or below the margin still need a TTL strictly
		// below the signature validity.
		max = urlExpiry / 2
	}
	if ttl > max || ttl <= 0 {
		ttl = max
	}
	return &URLCache{
		entries: make(map[string]urlCacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// GetOrGenerate returns the cached URL for key when present and
// unexpired, otherwise calls generate and caches its result.
func (c *URLCache) GetOrGenerate(key string, generate func() (string, error)) (string, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && c.now().Before(entry.expires) {
		return entry.url, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Double-check after acquiring the singleflight slot.
		c.mu.RLock()
		entry, ok := c.entries[key]
		c.mu.RUnlock()
		if ok && c.now().Before(entry.expires) {
			return entry.url, nil
		}

		url, err := generate()
		if err != nil {
			return "", err
		}
		c.mu.Lock()
		c.entries[key] = urlCacheEntry{url: url, expires: c.now().Add(c.ttl)}
		c.mu.Unlock()
		return url, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// Invalidate drops the entry for key, forcing regeneration.
func (c *URLCache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len returns the number of cached entries, expired ones included.
func (c *URLCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
