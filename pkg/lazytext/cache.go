package lazytext

import (
	"container/list"
	"sync"
	"time"
)

// CacheConfig contains configuration options for the pattern cache
type CacheConfig struct {
	// MaxSize is the maximum number of patterns to cache. 0 disables caching.
	MaxSize int
	// TTL is the time-to-live for cached patterns. 0 means no expiration.
	TTL time.Duration
}

// PatternCache keeps tokenized compose patterns so an engine that composes
// the same pattern repeatedly only tokenizes it once.
type PatternCache struct {
	mu     sync.Mutex
	cache  map[string]*cacheEntry
	lru    *list.List
	config CacheConfig
	now    func() time.Time
}

type cacheEntry struct {
	pattern string
	tokens  []Token
	expiry  time.Time
	element *list.Element
}

// NewPatternCache creates a pattern cache sized from the global configuration
func NewPatternCache() *PatternCache {
	config := GetGlobalConfig()
	return NewPatternCacheWithConfig(CacheConfig{
		MaxSize: config.PatternCacheSize,
		TTL:     config.PatternCacheTTL,
	})
}

// NewPatternCacheWithConfig creates a pattern cache with the given configuration
func NewPatternCacheWithConfig(config CacheConfig) *PatternCache {
	return &PatternCache{
		cache:  make(map[string]*cacheEntry),
		lru:    list.New(),
		config: config,
		now:    time.Now,
	}
}

// Tokens returns the tokens of pattern, tokenizing it on a miss.
func (pc *PatternCache) Tokens(pattern string) []Token {
	if pc == nil || pc.config.MaxSize == 0 {
		return Tokenize(pattern)
	}

	if tokens, ok := pc.Get(pattern); ok {
		return tokens
	}

	tokens := Tokenize(pattern)
	pc.Set(pattern, tokens)
	return tokens
}

// Get retrieves tokens from the cache without tokenizing
func (pc *PatternCache) Get(pattern string) ([]Token, bool) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	entry, exists := pc.cache[pattern]
	if !exists {
		return nil, false
	}

	if pc.config.TTL > 0 && pc.now().After(entry.expiry) {
		pc.removeLocked(entry)
		return nil, false
	}

	pc.lru.MoveToFront(entry.element)
	return entry.tokens, true
}

// Set adds tokens to the cache, evicting the least recently used entry
// when full.
func (pc *PatternCache) Set(pattern string, tokens []Token) {
	if pc.config.MaxSize == 0 {
		return
	}

	pc.mu.Lock()
	defer pc.mu.Unlock()

	expiry := time.Time{}
	if pc.config.TTL > 0 {
		expiry = pc.now().Add(pc.config.TTL)
	}

	if existing, exists := pc.cache[pattern]; exists {
		existing.tokens = tokens
		existing.expiry = expiry
		pc.lru.MoveToFront(existing.element)
		return
	}

	if pc.lru.Len() >= pc.config.MaxSize {
		if oldest := pc.lru.Back(); oldest != nil {
			pc.removeLocked(oldest.Value.(*cacheEntry))
		}
	}

	entry := &cacheEntry{
		pattern: pattern,
		tokens:  tokens,
		expiry:  expiry,
	}
	entry.element = pc.lru.PushFront(entry)
	pc.cache[pattern] = entry
}

func (pc *PatternCache) removeLocked(entry *cacheEntry) {
	delete(pc.cache, entry.pattern)
	pc.lru.Remove(entry.element)
}

// Clear removes all patterns from the cache
func (pc *PatternCache) Clear() {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	pc.cache = make(map[string]*cacheEntry)
	pc.lru = list.New()
}

// Size returns the current number of cached patterns
func (pc *PatternCache) Size() int {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return len(pc.cache)
}
