// Package lru provides the LRU-backed decision cache.
package lru

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/haukened/s1-filter/internal/filter/domain"
	"github.com/haukened/s1-filter/internal/filter/services/classifier"
)

// decisionCache is an LRU-backed implementation of classifier.DecisionCache.
// It tracks hits, misses and evictions.
type decisionCache struct {
	lru       *lru.Cache[string, domain.Decision]
	hits      uint64
	misses    uint64
	evictions uint64
}

// disabledCache always misses and stores nothing.
type disabledCache struct{}

// New creates a DecisionCache holding up to size decisions. If size <= 0 a
// disabled cache is returned.
func New(size int) (classifier.DecisionCache, error) {
	if size <= 0 {
		return &disabledCache{}, nil
	}
	var dc decisionCache
	cache, err := lru.NewWithEvict(size, func(_ string, _ domain.Decision) {
		atomic.AddUint64(&dc.evictions, 1)
	})
	if err != nil {
		return nil, err
	}
	dc.lru = cache
	return &dc, nil
}

// Get looks up a decision by key, counting the hit or miss.
func (c *decisionCache) Get(key string) (domain.Decision, bool) {
	if val, ok := c.lru.Get(key); ok {
		atomic.AddUint64(&c.hits, 1)
		return val, true
	}
	atomic.AddUint64(&c.misses, 1)
	return domain.Decision{}, false
}

func (c *decisionCache) Put(key string, d domain.Decision) {
	c.lru.Add(key, d)
}

func (c *decisionCache) Len() int { return c.lru.Len() }

// Purge clears all entries. Each purged entry counts as an eviction.
func (c *decisionCache) Purge() { c.lru.Purge() }

// Stats returns cumulative hit/miss/eviction counters.
func (c *decisionCache) Stats() (hits, misses, evictions uint64) {
	return atomic.LoadUint64(&c.hits), atomic.LoadUint64(&c.misses), atomic.LoadUint64(&c.evictions)
}

func (d *disabledCache) Get(string) (domain.Decision, bool) { return domain.Decision{}, false }
func (d *disabledCache) Put(string, domain.Decision)        {}
func (d *disabledCache) Len() int                           { return 0 }
func (d *disabledCache) Purge()                             {}
func (d *disabledCache) Stats() (uint64, uint64, uint64)    { return 0, 0, 0 }

var _ classifier.DecisionCache = (*decisionCache)(nil)
var _ classifier.DecisionCache = (*disabledCache)(nil)
