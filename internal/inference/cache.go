package inference

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/ramonehamilton/deck-analyst/internal/metrics"
)

const (
	DefaultCacheTTL        = time.Hour
	DefaultCacheMaxEntries = 100
)

type cacheEntry struct {
	value    *InferredContext
	storedAt time.Time
}

// Cache holds inferred contexts keyed by CacheKey. Entries expire after
// the TTL; when the cache grows past its bound the oldest insertions are
// evicted first.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]cacheEntry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	metrics    *metrics.Metrics
}

// NewCache creates a cache. Non-positive arguments select the defaults.
func NewCache(ttl time.Duration, maxEntries int, m *metrics.Metrics) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultCacheMaxEntries
	}
	return &Cache{
		entries:    make(map[string]cacheEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
		metrics:    m,
	}
}

// CacheKey derives the deterministic key for an inference request.
func CacheKey(normalizedDeck, commander string, format Format, msg string, plan Plan, colors []string, currency string) string {
	h := sha256.New()
	for _, part := range []string{
		normalizedDeck,
		strings.ToLower(strings.TrimSpace(commander)),
		string(format),
		strings.TrimSpace(msg),
		string(plan),
		strings.Join(sortColors(colors), ","),
		strings.ToUpper(currency),
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns a fresh entry for key.
func (c *Cache) Get(key string) (*InferredContext, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if ok && c.now().Sub(e.storedAt) > c.ttl {
		delete(c.entries, key)
		ok = false
	}
	c.metrics.ContextCache(ok)
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Put stores value under key and evicts the oldest entries over the bound.
func (c *Cache) Put(key string, value *InferredContext) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{value: value, storedAt: c.now()}
	for len(c.entries) > c.maxEntries {
		var oldestKey string
		var oldest time.Time
		for k, e := range c.entries {
			if oldestKey == "" || e.storedAt.Before(oldest) {
				oldestKey, oldest = k, e.storedAt
			}
		}
		delete(c.entries, oldestKey)
	}
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
