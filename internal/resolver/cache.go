package resolver

import (
	"fmt"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/timitprog-hue/buildplan/internal/models"
	"github.com/timitprog-hue/buildplan/internal/plan"
)

// Cache memoizes successful resolutions against one toolchain, keyed by the
// document digest. Resolve is pure, so a cached plan is always equal to a
// fresh one. Failed resolutions are not cached.
type Cache struct {
	toolchain models.Toolchain
	lru       *lru.Cache[string, *models.BuildPlan] // golang-lru/v2
	mu        sync.Mutex

	hits   uint64
	misses uint64
}

// NewCache creates a cache holding up to size plans
func NewCache(tc models.Toolchain, size int) (*Cache, error) {
	if size <= 0 {
		return nil, fmt.Errorf("cache size must be positive, got %d", size)
	}
	c, err := lru.New[string, *models.BuildPlan](size)
	if err != nil {
		return nil, err
	}
	return &Cache{toolchain: tc, lru: c}, nil
}

// Resolve returns the cached plan for doc, resolving it on a miss.
// The second return value reports whether the plan came from the cache.
// Cached plans are shared, so callers must not modify them.
func (c *Cache) Resolve(doc models.Document) (*models.BuildPlan, bool, error) {
	key, err := plan.DocumentDigest(doc)
	if err != nil {
		return nil, false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if cached, ok := c.lru.Get(key); ok {
		atomic.AddUint64(&c.hits, 1)
		return cached, true, nil
	}
	atomic.AddUint64(&c.misses, 1)

	p, err := Resolve(doc, c.toolchain)
	if err != nil {
		return nil, false, err
	}
	c.lru.Add(key, p)
	return p, false, nil
}

// Stats returns cache hit and miss counts
func (c *Cache) Stats() (hits, misses uint64) {
	return atomic.LoadUint64(&c.hits), atomic.LoadUint64(&c.misses)
}

// Len returns the number of cached plans
func (c *Cache) Len() int {
	return c.lru.Len()
}
