package dialect

import (
	"context"
	"sync"
)

// PatternCache memoizes expected patterns keyed by sign identifier.
// Entries never expire within a process lifetime; the whole cache is
// invalidated when the underlying module's version changes.
type PatternCache struct {
	module Module

	mu      sync.RWMutex
	version string
	cache   map[string]Pattern
}

// NewPatternCache wraps module with an in-memory pattern cache.
func NewPatternCache(module Module) *PatternCache {
	return &PatternCache{
		module: module,
		cache:  make(map[string]Pattern),
	}
}

// Expected returns the cached expected pattern for signID, loading it from
// the module on first use or after a module version change.
func (c *PatternCache) Expected(ctx context.Context, signID string) (Pattern, error) {
	version := c.module.Version(ctx)

	c.mu.RLock()
	if c.version == version {
		if p, ok := c.cache[signID]; ok {
			c.mu.RUnlock()
			return p, nil
		}
	}
	c.mu.RUnlock()

	p, err := c.module.LoadExpectedPattern(ctx, signID)
	if err != nil {
		return Pattern{}, err
	}

	c.mu.Lock()
	if c.version != version {
		c.cache = make(map[string]Pattern)
		c.version = version
	}
	c.cache[signID] = p
	c.mu.Unlock()
	return p, nil
}

// Len returns the number of cached patterns.
func (c *PatternCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}
