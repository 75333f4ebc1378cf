package builder

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"
)

// RenderCache memoizes rendered documents so repeated previews are cheap.
type RenderCache interface {
	GetOrRender(key string, render func() (string, error)) (string, error)
}

// DefaultDocumentCacheSize bounds a DocumentCache built by NewDocumentCache.
const DefaultDocumentCacheSize = 256

// DocumentCache is an in-memory TTL cache for exported documents. Every edit
// produces a new key, so expired entries are swept on write and the entry
// count is capped.
type DocumentCache struct {
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	mu         sync.RWMutex
	entries    map[string]cachedDocument
}

type cachedDocument struct {
	body    string
	expires time.Time
}

// NewDocumentCache builds a cache with the provided TTL. A non-positive TTL
// disables caching.
func NewDocumentCache(ttl time.Duration) *DocumentCache {
	return &DocumentCache{
		ttl:        ttl,
		maxEntries: DefaultDocumentCacheSize,
		now:        time.Now,
		entries:    make(map[string]cachedDocument),
	}
}

// GetOrRender returns a cached entry or renders/stores a new one.
func (c *DocumentCache) GetOrRender(key string, render func() (string, error)) (string, error) {
	if body, ok := c.get(key); ok {
		return body, nil
	}
	body, err := render()
	if err != nil {
		return "", err
	}
	c.set(key, body)
	return body, nil
}

// Len reports the number of stored entries.
func (c *DocumentCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *DocumentCache) get(key string) (string, bool) {
	if c == nil || c.ttl <= 0 {
		return "", false
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().After(entry.expires) {
		if ok {
			c.mu.Lock()
			delete(c.entries, key)
			c.mu.Unlock()
		}
		return "", false
	}
	return entry.body, true
}

func (c *DocumentCache) set(key, body string) {
	if c == nil || c.ttl <= 0 {
		return
	}
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, entry := range c.entries {
		if now.After(entry.expires) {
			delete(c.entries, k)
		}
	}
	if _, exists := c.entries[key]; !exists && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.entries[key] = cachedDocument{
		body:    body,
		expires: now.Add(c.ttl),
	}
}

// evictOldestLocked drops the entry closest to expiry, which is the one
// written first.
func (c *DocumentCache) evictOldestLocked() {
	var (
		oldest  string
		expires time.Time
	)
	for k, entry := range c.entries {
		if oldest == "" || entry.expires.Before(expires) {
			oldest, expires = k, entry.expires
		}
	}
	delete(c.entries, oldest)
}

// documentHash returns a deterministic hash of the exported state. Map keys
// are sorted by encoding/json, so equal states hash equally. It reports false
// when the state cannot be encoded (NaN, channels, funcs in a bag); such
// documents are never cached.
func documentHash(layout Layout, blocks []Block) (string, bool) {
	b, err := json.Marshal(LayoutDocument{Layout: layout, Blocks: SortBlocks(blocks)})
	if err != nil {
		return "", false
	}
	sum := sha1.Sum(b)
	return hex.EncodeToString(sum[:]), true
}
