// Package cache provides a bounded, symmetric distance cache shared by a
// clustering run's HNSW construction and search phases.
package cache

import (
	"container/list"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/denseforest/fishdbc/internal/oracle"
)

// Config configures a DistanceCache.
type Config struct {
	// MaxEntries bounds the number of cached distances before the LRU
	// policy starts evicting. Must be positive.
	MaxEntries int

	// TTL, if non-zero, expires an entry after it has sat in the cache
	// this long; BeginLookup treats an expired entry as a miss.
	TTL time.Duration
}

// DefaultMaxEntries mirrors the reference implementation's default
// capacity for a single clustering run's distance cache.
const DefaultMaxEntries = 1 << 20

// DefaultConfig returns the default cache configuration (no TTL).
func DefaultConfig() Config {
	return Config{MaxEntries: DefaultMaxEntries}
}

type key struct {
	metric      oracle.MetricDescriptor
	left, right uint32 // left <= right: canonical, order-independent key
}

func newKey(metric oracle.MetricDescriptor, i, j uint32) key {
	if i <= j {
		return key{metric: metric, left: i, right: j}
	}
	return key{metric: metric, left: j, right: i}
}

type entry struct {
	value    float32
	inserted time.Time
	elem     *list.Element
}

// Miss is a pending lookup returned by BeginLookup when the cache had no
// (unexpired) entry for the pair. The caller computes the real distance
// out-of-band (e.g. from a possibly slow oracle) and reports it back via
// CompleteMiss.
type Miss struct {
	key   key
	Left  uint32
	Right uint32
}

// DistanceCache is a thread-safe, symmetric LRU cache keyed on
// (metric descriptor, min(i,j), max(i,j)).
type DistanceCache struct {
	mu      sync.Mutex
	cfg     Config
	entries map[key]*entry
	order   *list.List // front = most recently used

	Hits, Misses, Evictions uint64
}

// New builds a DistanceCache from cfg, defaulting MaxEntries when unset.
func New(cfg Config) *DistanceCache {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	return &DistanceCache{
		cfg:     cfg,
		entries: make(map[key]*entry),
		order:   list.New(),
	}
}

// BeginLookup checks the cache for the distance between i and j under
// metric. On a hit it returns the cached value and ok=true. On a miss
// (including an expired entry) it returns a Miss the caller must resolve
// with CompleteMiss.
func (c *DistanceCache) BeginLookup(metric oracle.MetricDescriptor, i, j uint32) (value float32, ok bool, miss *Miss) {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := newKey(metric, i, j)
	if e, found := c.entries[k]; found {
		if c.expired(e) {
			c.removeLocked(k, e)
			c.Misses++
			return 0, false, &Miss{key: k, Left: i, Right: j}
		}
		c.order.MoveToFront(e.elem)
		c.Hits++
		return e.value, true, nil
	}
	c.Misses++
	return 0, false, &Miss{key: k, Left: i, Right: j}
}

// CompleteMiss resolves a Miss previously returned by BeginLookup,
// recording value in the cache. It rejects non-finite distances with a
// *oracle.Error carrying the original pair so callers can surface exactly
// which computation went wrong.
func (c *DistanceCache) CompleteMiss(miss *Miss, value float32) (float32, error) {
	if isNonFinite(value) {
		return 0, oracle.NewError(oracle.ErrUnknown, "DistanceCache", "CompleteMiss",
			fmt.Sprintf("non-finite distance %v rejected between items %d and %d", value, miss.Left, miss.Right))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e := &entry{value: value, inserted: time.Now()}
	e.elem = c.order.PushFront(miss.key)
	c.entries[miss.key] = e

	for len(c.entries) > c.cfg.MaxEntries {
		c.evictOldestLocked()
	}
	return value, nil
}

func (c *DistanceCache) expired(e *entry) bool {
	return c.cfg.TTL > 0 && time.Since(e.inserted) > c.cfg.TTL
}

func (c *DistanceCache) removeLocked(k key, e *entry) {
	c.order.Remove(e.elem)
	delete(c.entries, k)
}

func (c *DistanceCache) evictOldestLocked() {
	back := c.order.Back()
	if back == nil {
		return
	}
	k := back.Value.(key)
	c.order.Remove(back)
	delete(c.entries, k)
	c.Evictions++
}

// Len returns the number of cached entries.
func (c *DistanceCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func isNonFinite(v float32) bool {
	return math.IsNaN(float64(v)) || math.IsInf(float64(v), 0)
}
