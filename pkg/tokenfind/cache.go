package tokenfind

import (
	"regexp"
	"sync"
)

// PatternCache memoizes compiled patterns by their source text.
// It is safe for concurrent use, several extractors may share one cache.
type PatternCache struct {
	mu       sync.RWMutex
	compiled map[string]*regexp.Regexp
}

func NewPatternCache() *PatternCache {
	return &PatternCache{compiled: make(map[string]*regexp.Regexp)}
}

// Get returns the compiled form of pattern, compiling it on first use.
// Patterns use leftmost-longest matching like POSIX extended expressions.
// Compile failures are not cached.
func (c *PatternCache) Get(pattern string) (*regexp.Regexp, error) {
	c.mu.RLock()
	re, ok := c.compiled[pattern]
	c.mu.RUnlock()
	if ok {
		return re, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Someone else might have been faster
	if re, ok = c.compiled[pattern]; ok {
		return re, nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, &PatternError{Pattern: pattern, Err: err}
	}
	re.Longest()

	c.compiled[pattern] = re
	return re, nil
}

// Len returns the number of compiled patterns held.
func (c *PatternCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.compiled)
}
