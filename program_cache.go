package rimepatch

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultProgramCacheSize bounds the compiled programs kept by a Checker.
const DefaultProgramCacheSize = 128

// ProgramCache stores compiled expression programs keyed by engine and
// expression text.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// NewLRUProgramCache returns a ProgramCache that evicts the least recently
// used program once size entries are held.
func NewLRUProgramCache(size int) (ProgramCache, error) {
	if size <= 0 {
		size = DefaultProgramCacheSize
	}
	cache, err := lru.New[string, any](size)
	if err != nil {
		return nil, fmt.Errorf("rimepatch: program cache: %w", err)
	}
	return &lruProgramCache{cache: cache}, nil
}

type lruProgramCache struct {
	cache *lru.Cache[string, any]
}

func (c *lruProgramCache) Get(key string) (any, bool) {
	return c.cache.Get(key)
}

func (c *lruProgramCache) Set(key string, value any) {
	c.cache.Add(key, value)
}

// MapProgramCache is an unbounded cache, handy in tests.
type MapProgramCache struct {
	mu      sync.Mutex
	entries map[string]any
	hits    int
}

// Get returns the cached program for key.
func (c *MapProgramCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.entries[key]
	if ok {
		c.hits++
	}
	return value, ok
}

// Set stores value under key.
func (c *MapProgramCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = map[string]any{}
	}
	c.entries[key] = value
}

// Hits reports how many lookups were served from the cache.
func (c *MapProgramCache) Hits() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits
}

func cacheKey(engine, expression string) string {
	return engine + "\x00" + expression
}
