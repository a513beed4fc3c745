// Package cache memoizes compile outcomes keyed by a hash of the source
// text. Editor integrations and watch loops validate the same document many
// times in a row; the cache makes the repeated runs free, including runs
// that end in diagnostics.
package cache

import (
	"crypto/sha256"
	"sync"
	"sync/atomic"

	"github.com/datamodel-lang/go-datamodel/dml"
	"github.com/datamodel-lang/go-datamodel/schema"
)

// Entry is one memoized compile outcome: either a datamodel or the error
// the compile ended with.
type Entry struct {
	Datamodel *dml.Datamodel
	Err       error
}

// Cache stores compile outcomes up to a fixed size. Cached datamodels are
// shared between callers and must be treated as read-only.
type Cache struct {
	mu      sync.RWMutex
	entries map[[sha256.Size]byte]Entry
	maxSize int

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// New creates a cache holding at most maxSize entries. A maxSize of 0 means
// unbounded.
func New(maxSize int) *Cache {
	return &Cache{
		entries: make(map[[sha256.Size]byte]Entry),
		maxSize: maxSize,
	}
}

func sourceKey(source string) [sha256.Size]byte {
	return sha256.Sum256([]byte(source))
}

// Get returns the memoized outcome for the given source text.
func (c *Cache) Get(source string) (Entry, bool) {
	key := sourceKey(source)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return entry, ok
}

// Put stores one compile outcome.
func (c *Cache) Put(source string, entry Entry) {
	key := sourceKey(source)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxSize > 0 && len(c.entries) >= c.maxSize {
		if _, exists := c.entries[key]; !exists {
			// Full: drop one entry, map iteration order picks it.
			for k := range c.entries {
				delete(c.entries, k)
				c.evictions.Add(1)
				break
			}
		}
	}
	c.entries[key] = entry
}

// GetOrCompute returns the memoized outcome, running compute and storing
// its result on a miss. Concurrent misses on the same source may compute
// more than once; the last result wins.
func (c *Cache) GetOrCompute(source string, compute func() (*dml.Datamodel, error)) (*dml.Datamodel, error) {
	if entry, ok := c.Get(source); ok {
		return entry.Datamodel, entry.Err
	}

	dm, err := compute()
	c.Put(source, Entry{Datamodel: dm, Err: err})
	return dm, err
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[[sha256.Size]byte]Entry)
}

// Size returns the current number of entries.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats is a point-in-time snapshot of cache behavior.
type Stats struct {
	Size      int
	MaxSize   int
	Hits      int64
	Misses    int64
	Evictions int64
	HitRate   float64
}

func (c *Cache) Stats() Stats {
	hits := c.hits.Load()
	misses := c.misses.Load()

	hitRate := 0.0
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}
	return Stats{
		Size:      c.Size(),
		MaxSize:   c.maxSize,
		Hits:      hits,
		Misses:    misses,
		Evictions: c.evictions.Load(),
		HitRate:   hitRate,
	}
}

// Compiler wraps full schema validation with built-in caching.
type Compiler struct {
	opts  []schema.Option
	cache *Cache
}

// NewCompiler creates a compiler whose cache holds at most cacheSize
// outcomes.
func NewCompiler(cacheSize int) *Compiler {
	return &Compiler{cache: New(cacheSize)}
}

// WithOptions sets the validation options applied to every compile.
func (c *Compiler) WithOptions(opts ...schema.Option) *Compiler {
	c.opts = opts
	return c
}

// Compile parses and validates source, memoizing the outcome.
func (c *Compiler) Compile(source string) (*dml.Datamodel, error) {
	return c.cache.GetOrCompute(source, func() (*dml.Datamodel, error) {
		return schema.ParseAndValidate(source, c.opts...)
	})
}

// Render compiles source and renders the datamodel back in canonical
// form. The compile step is memoized, the rendering is not.
func (c *Compiler) Render(source string) (string, error) {
	dm, err := c.Compile(source)
	if err != nil {
		return "", err
	}
	return schema.Render(dm)
}

// Cache returns the underlying cache for inspection.
func (c *Compiler) Cache() *Cache {
	return c.cache
}

// ClearCache clears the cache.
func (c *Compiler) ClearCache() {
	c.cache.Clear()
}

// FormatCache caches reformatted source text instead of full datamodels.
// Lighter when only the canonical layout is needed.
type FormatCache struct {
	mu      sync.RWMutex
	entries map[[sha256.Size]byte]string
	maxSize int
	hits    atomic.Int64
	misses  atomic.Int64
}

// NewFormatCache creates a format cache. A maxSize of 0 means unbounded.
func NewFormatCache(maxSize int) *FormatCache {
	return &FormatCache{
		entries: make(map[[sha256.Size]byte]string),
		maxSize: maxSize,
	}
}

// Get retrieves the cached formatting of source.
func (c *FormatCache) Get(source string) (string, bool) {
	key := sourceKey(source)

	c.mu.RLock()
	formatted, ok := c.entries[key]
	c.mu.RUnlock()

	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return formatted, ok
}

// Put stores the formatting of source.
func (c *FormatCache) Put(source, formatted string) {
	key := sourceKey(source)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxSize > 0 && len(c.entries) >= c.maxSize {
		if _, exists := c.entries[key]; !exists {
			for k := range c.entries {
				delete(c.entries, k)
				break
			}
		}
	}
	c.entries[key] = formatted
}

// GetOrCompute retrieves from the cache or formats and stores the result.
func (c *FormatCache) GetOrCompute(source string, compute func() string) string {
	if formatted, ok := c.Get(source); ok {
		return formatted
	}

	formatted := compute()
	c.Put(source, formatted)
	return formatted
}

// Size returns the current number of entries.
func (c *FormatCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear removes all entries.
func (c *FormatCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[[sha256.Size]byte]string)
}

// HitRate returns the fraction of lookups answered from the cache.
func (c *FormatCache) HitRate() float64 {
	hits := c.hits.Load()
	total := hits + c.misses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
