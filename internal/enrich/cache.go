package enrich

import (
	"sync"

	"github.com/abelbrown/contextrt/internal/lexicon"
)

// Cache holds enrichment results for one pipeline run. An absent key means
// "not fetched yet", never "known absent". Safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	results map[lexicon.Entity]Result
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{results: make(map[lexicon.Entity]Result)}
}

// Put stores r for e, replacing any earlier result.
func (c *Cache) Put(e lexicon.Entity, r Result) {
	c.mu.Lock()
	c.results[e] = r
	c.mu.Unlock()
}

// Get returns the result for e.
func (c *Cache) Get(e lexicon.Entity) (Result, bool) {
	if c == nil {
		return Result{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.results[e]
	return r, ok
}

// Len returns the number of cached results.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.results)
}

// Missing returns the entities of want that have no cached result, in order.
func (c *Cache) Missing(want []lexicon.Entity) []lexicon.Entity {
	var out []lexicon.Entity
	for _, e := range want {
		if _, ok := c.Get(e); !ok {
			out = append(out, e)
		}
	}
	return out
}
