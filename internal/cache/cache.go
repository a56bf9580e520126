// Package cache implements an in-memory key-value store with per-entry
// TTL, a capacity bound, and least-recently-used eviction. It is the
// memoization substrate for provider lookups: values are opaque byte
// payloads, encoding is the caller's concern.
package cache

import (
	"container/list"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Config holds cache settings.
type Config struct {
	// MaxSize bounds the entry count. 0 means unbounded.
	MaxSize int
	// DefaultTTL applies when Set is called with ttl <= 0.
	DefaultTTL time.Duration
	// CleanupInterval is the janitor sweep period. 0 disables the
	// janitor; expired entries are then removed lazily on access only.
	CleanupInterval time.Duration
	// SnapshotLimit bounds how many entries Snapshot captures.
	// 0 falls back to DefaultSnapshotLimit.
	SnapshotLimit int
}

// Default configuration values.
const (
	DefaultMaxSize         = 1000
	DefaultTTL             = time.Hour
	DefaultCleanupInterval = 10 * time.Minute
	DefaultSnapshotLimit   = 200
)

// DefaultConfig returns the stock cache configuration.
func DefaultConfig() Config {
	return Config{
		MaxSize:         DefaultMaxSize,
		DefaultTTL:      DefaultTTL,
		CleanupInterval: DefaultCleanupInterval,
		SnapshotLimit:   DefaultSnapshotLimit,
	}
}

type entry struct {
	key            string
	value          []byte
	createdAt      time.Time
	ttl            time.Duration
	accessCount    uint64
	lastAccessedAt time.Time
}

// expiredAt reports whether the entry is stale at t. ttl == 0 never
// expires.
func (e *entry) expiredAt(t time.Time) bool {
	return e.ttl > 0 && t.Sub(e.createdAt) >= e.ttl
}

// Cache is a mutex-guarded TTL cache with LRU eviction.
//
// Two structures back it: a map for O(1) lookup and a doubly linked
// list ordered by last access, most recent at the front. Every
// operation that refreshes lastAccessedAt also moves the element to
// the front, so the back of the list is always the eviction victim.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	lru     *list.List

	cfg    Config
	logger *zap.Logger

	hits        uint64
	misses      uint64
	evictions   uint64
	expirations uint64

	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a cache and starts the janitor when a cleanup interval
// is configured. Call Stop on shutdown to release the janitor.
func New(cfg Config, logger *zap.Logger) *Cache {
	if cfg.SnapshotLimit <= 0 {
		cfg.SnapshotLimit = DefaultSnapshotLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Cache{
		entries: make(map[string]*list.Element),
		lru:     list.New(),
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	c.startJanitor()
	return c
}

// Get returns the value stored at key. An entry past its TTL is
// removed in the same call and reported as absent. A hit bumps the
// entry's access count and recency.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}

	e := elem.Value.(*entry)
	if e.expiredAt(c.now()) {
		c.removeElement(elem)
		c.expirations++
		c.misses++
		return nil, false
	}

	e.accessCount++
	e.lastAccessedAt = c.now()
	c.lru.MoveToFront(elem)
	c.hits++
	return e.value, true
}

// Set inserts or overwrites key. ttl <= 0 uses the configured default.
// When the cache is at capacity and key is new, the entry with the
// oldest last access is evicted first.
func (c *Cache) Set(key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.cfg.DefaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if elem, ok := c.entries[key]; ok {
		e := elem.Value.(*entry)
		e.value = value
		e.createdAt = now
		e.ttl = ttl
		e.lastAccessedAt = now
		c.lru.MoveToFront(elem)
		return
	}

	if c.cfg.MaxSize > 0 && c.lru.Len() >= c.cfg.MaxSize {
		c.evictOldest()
	}

	elem := c.lru.PushFront(&entry{
		key:            key,
		value:          value,
		createdAt:      now,
		ttl:            ttl,
		lastAccessedAt: now,
	})
	c.entries[key] = elem
}

// Has reports whether key holds a fresh entry. Unlike Get it does not
// touch access stats or recency, so probing does not distort eviction
// order. An expired entry is still removed on the way.
func (c *Cache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return false
	}
	if elem.Value.(*entry).expiredAt(c.now()) {
		c.removeElement(elem)
		c.expirations++
		return false
	}
	return true
}

// Delete removes key. Missing keys are ignored.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.entries[key]; ok {
		c.removeElement(elem)
	}
}

// Clear removes all entries. Counters are kept.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.lru.Init()
}

// Len returns the current entry count, expired entries included until
// swept.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

func (c *Cache) evictOldest() {
	elem := c.lru.Back()
	if elem == nil {
		return
	}
	e := elem.Value.(*entry)
	c.removeElement(elem)
	c.evictions++
	c.logger.Debug("Evicted cache entry",
		zap.String("key", e.key),
		zap.Time("last_accessed_at", e.lastAccessedAt),
	)
}

func (c *Cache) removeElement(elem *list.Element) {
	c.lru.Remove(elem)
	delete(c.entries, elem.Value.(*entry).key)
}

// deleteExpired sweeps the whole list and removes stale entries. Runs
// under the janitor; bounds memory for entries written but never read.
func (c *Cache) deleteExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for elem := c.lru.Back(); elem != nil; {
		prev := elem.Prev()
		if elem.Value.(*entry).expiredAt(now) {
			c.removeElement(elem)
			c.expirations++
		}
		elem = prev
	}
}
