package sampling

import (
	"regexp"
	"sync"
)

const defaultCacheMaxSize = 128

type compiledPattern struct {
	re  *regexp.Regexp
	err error
}

// regexCache holds compiled patterns up to maxSize entries. Once full, new
// patterns are compiled on every lookup and not stored.
type regexCache struct {
	mu      sync.RWMutex
	entries map[string]compiledPattern
	maxSize int
}

func newRegexCache(maxSize int) *regexCache {
	if maxSize <= 0 {
		maxSize = defaultCacheMaxSize
	}
	return &regexCache{
		entries: make(map[string]compiledPattern),
		maxSize: maxSize,
	}
}

// get returns the compiled pattern and whether it was a cache hit.
func (c *regexCache) get(pattern string) (compiledPattern, bool) {
	c.mu.RLock()
	entry, ok := c.entries[pattern]
	c.mu.RUnlock()
	if ok {
		return entry, true
	}

	re, err := regexp.Compile(pattern)
	entry = compiledPattern{re: re, err: err}

	c.mu.Lock()
	if _, exists := c.entries[pattern]; !exists && len(c.entries) < c.maxSize {
		c.entries[pattern] = entry
	}
	c.mu.Unlock()
	return entry, false
}

func (c *regexCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
