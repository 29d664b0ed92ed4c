package search

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/quillnotes/quill/core"
)

// DefaultQueryCacheTTL is how long a cached result list stays valid.
const DefaultQueryCacheTTL = 5 * time.Minute

// cacheEntry holds a cached result list together with its expiration time.
type cacheEntry struct {
	results   []*core.SearchResult
	expiresAt time.Time
}

// queryCache memoizes search responses keyed by query, strategy and limit.
// Entries expire after a TTL so corpus changes become visible without an
// explicit invalidation hook on every write path.
type queryCache struct {
	mu    sync.RWMutex
	cache *lru.Cache[[32]byte, *cacheEntry]
	ttl   time.Duration
}

func newQueryCache(capacity int, ttl time.Duration) (*queryCache, error) {
	if capacity <= 0 {
		capacity = 256
	}
	if ttl <= 0 {
		ttl = DefaultQueryCacheTTL
	}
	c, err := lru.New[[32]byte, *cacheEntry](capacity)
	if err != nil {
		return nil, err
	}
	return &queryCache{cache: c, ttl: ttl}, nil
}

func cacheKey(query string, strategy core.SearchStrategy, limit int) [32]byte {
	return sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d", query, strategy, limit)))
}

// get returns a copy of the cached result list, if present and not expired.
func (q *queryCache) get(key [32]byte) ([]*core.SearchResult, bool) {
	q.mu.RLock()
	entry, ok := q.cache.Get(key)
	q.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		q.mu.Lock()
		q.cache.Remove(key)
		q.mu.Unlock()
		return nil, false
	}
	out := make([]*core.SearchResult, len(entry.results))
	copy(out, entry.results)
	return out, true
}

func (q *queryCache) put(key [32]byte, results []*core.SearchResult) {
	stored := make([]*core.SearchResult, len(results))
	copy(stored, results)
	q.mu.Lock()
	q.cache.Add(key, &cacheEntry{
		results:   stored,
		expiresAt: time.Now().Add(q.ttl),
	})
	q.mu.Unlock()
}

// purge drops all cached responses. Call after bulk corpus mutations.
func (q *queryCache) purge() {
	q.mu.Lock()
	q.cache.Purge()
	q.mu.Unlock()
}
