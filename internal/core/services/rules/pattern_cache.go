package rules

import (
	"container/list"
	"regexp"
	"strings"
	"sync"
)

// PatternCache implements an LRU (Least Recently Used) cache of compiled glob patterns
type PatternCache struct {
	capacity int
	cache    map[string]*list.Element
	lru      *list.List
	mu       sync.Mutex
}

type cacheEntry struct {
	key   string
	value *regexp.Regexp
}

// NewPatternCache creates a new LRU cache with the specified capacity
func NewPatternCache(capacity int) *PatternCache {
	if capacity <= 0 {
		capacity = 256
	}
	return &PatternCache{
		capacity: capacity,
		cache:    make(map[string]*list.Element),
		lru:      list.New(),
	}
}

// Get retrieves a compiled pattern from the cache
func (c *PatternCache) Get(key string) (*regexp.Regexp, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		return elem.Value.(*cacheEntry).value, true
	}
	return nil, false
}

// Set adds or updates a compiled pattern in the cache
func (c *PatternCache) Set(key string, value *regexp.Regexp) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		elem.Value.(*cacheEntry).value = value
		return
	}

	elem := c.lru.PushFront(&cacheEntry{key, value})
	c.cache[key] = elem

	if c.lru.Len() > c.capacity {
		oldest := c.lru.Back()
		if oldest != nil {
			c.lru.Remove(oldest)
			delete(c.cache, oldest.Value.(*cacheEntry).key)
		}
	}
}

// Len returns the current number of items in the cache
func (c *PatternCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Clear removes all items from the cache
func (c *PatternCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]*list.Element)
	c.lru = list.New()
}

// Compile returns the cached regexp for a glob, compiling it on a miss.
func (c *PatternCache) Compile(glob string) *regexp.Regexp {
	if re, ok := c.Get(glob); ok {
		return re
	}
	re := regexp.MustCompile(GlobToRegexp(glob))
	c.Set(glob, re)
	return re
}

// IsGlob reports whether the pattern contains glob metacharacters.
func IsGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?")
}

// GlobToRegexp translates a glob into an anchored, case-insensitive expression:
// `*` matches any run of characters and `?` exactly one.
func GlobToRegexp(glob string) string {
	var sb strings.Builder
	sb.WriteString(`(?is)^`)
	for _, r := range glob {
		switch r {
		case '*':
			sb.WriteString(`.*`)
		case '?':
			sb.WriteString(`.`)
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	sb.WriteString(`$`)
	return sb.String()
}
