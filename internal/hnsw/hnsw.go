// Package hnsw builds a layered proximity graph over an oracle.Source and
// harvests candidate edges as a side effect of construction, for later
// consumption by the minimum spanning forest stage.
package hnsw

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/denseforest/fishdbc/internal/cache"
	"github.com/denseforest/fishdbc/internal/harvest"
	"github.com/denseforest/fishdbc/internal/oracle"
)

// Index owns the graph behind a reader-writer lock, the distance cache, a
// monotonic sequence counter, and the harvest buffer accumulated across
// the run.
type Index struct {
	mu sync.RWMutex

	cfg    *Config
	source oracle.Source
	cache  *cache.DistanceCache
	metric oracle.MetricDescriptor

	nodes      []*Node
	entry      uint32
	entryLevel int
	hasEntry   bool

	seq uint64 // atomic

	rngMu sync.Mutex
	base  *rng

	harvestMu sync.Mutex
	harvested []harvest.Edge
}

// NewIndex allocates an index over source with the given config and
// shared distance cache. It does not insert any nodes.
func NewIndex(cfg *Config, source oracle.Source, dc *cache.DistanceCache) (*Index, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if oracle.IsEmpty(source) {
		return nil, newError(ErrEmptyIndex, "Index", "New", "source has no items")
	}
	return &Index{
		cfg:    cfg,
		source: source,
		cache:  dc,
		metric: source.MetricDescriptor(),
		nodes:  make([]*Node, source.Len()),
	}, nil
}

// Size returns the number of committed nodes.
func (idx *Index) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	n := 0
	for _, node := range idx.nodes {
		if node != nil {
			n++
		}
	}
	return n
}

// Harvest drains the accumulated candidate-edge buffer. Intended to be
// called once, after the build completes.
func (idx *Index) Harvest() []harvest.Edge {
	idx.harvestMu.Lock()
	defer idx.harvestMu.Unlock()
	out := idx.harvested
	idx.harvested = nil
	return out
}

func (idx *Index) nextSeq() uint64 {
	return atomic.AddUint64(&idx.seq, 1) - 1
}

func (idx *Index) sampleLevel(workerRNG *rng) int {
	r := workerRNG
	if r != nil {
		return r.level(idx.cfg.levelLambda(), idx.cfg.MaxLevel)
	}
	idx.rngMu.Lock()
	defer idx.rngMu.Unlock()
	if idx.base == nil {
		idx.base = newRNG(idx.cfg.Seed)
	}
	return idx.base.level(idx.cfg.levelLambda(), idx.cfg.MaxLevel)
}

// distance computes (and caches) the distance between two committed
// items, rejecting non-finite results per the distance cache's contract.
func (idx *Index) distance(i, j uint32) (float32, error) {
	if i == j {
		return 0, nil
	}
	if v, ok, miss := idx.cache.BeginLookup(idx.metric, i, j); ok {
		return v, nil
	} else {
		raw, err := idx.source.Distance(int(i), int(j))
		if err != nil {
			return 0, err
		}
		if _, cacheErr := idx.cache.CompleteMiss(miss, raw); cacheErr != nil {
			return 0, &NonFiniteDistanceError{Left: i, Right: j, Value: raw}
		}
		return raw, nil
	}
}

func (idx *Index) emitEdge(u, v uint32, d float32, seq uint64) {
	idx.harvestMu.Lock()
	idx.harvested = append(idx.harvested, harvest.NewEdge(u, v, d, seq))
	idx.harvestMu.Unlock()
}

// SetCoreDistance records item id's core distance (its k-th nearest
// neighbor distance under whatever k the caller used), for later
// consumption when reweighting harvested edges to mutual reachability.
func (idx *Index) SetCoreDistance(id uint32, core float32) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if node := idx.nodes[id]; node != nil {
		node.Core = core
	}
}

// CoreDistance returns item id's previously recorded core distance.
func (idx *Index) CoreDistance(id uint32) float32 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if node := idx.nodes[id]; node != nil {
		return node.Core
	}
	return 0
}

func (idx *Index) capForLevel(level int) int {
	if level == 0 {
		return idx.cfg.m0()
	}
	return idx.cfg.M
}

// Insert performs the two-phase-locked insertion of item id into the
// graph: sample a level, then either seed the entry point (empty graph)
// or plan under a read lock and commit under a write lock.
func (idx *Index) Insert(ctx context.Context, id uint32, workerRNG *rng) error {
	level := idx.sampleLevel(workerRNG)

	idx.mu.Lock()
	if !idx.hasEntry {
		idx.nodes[id] = newNode(id, level, idx.nextSeq(), idx.cfg.M, idx.cfg.m0())
		idx.entry = id
		idx.entryLevel = level
		idx.hasEntry = true
		idx.mu.Unlock()
		return nil
	}
	idx.mu.Unlock()

	idx.mu.RLock()
	plan, err := idx.plan(id, level)
	idx.mu.RUnlock()
	if err != nil {
		return err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.commit(id, level, plan)
}

func (idx *Index) String() string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return fmt.Sprintf("hnsw.Index{size=%d, entry=%d, entryLevel=%d}", idx.sizeLocked(), idx.entry, idx.entryLevel)
}

func (idx *Index) sizeLocked() int {
	n := 0
	for _, node := range idx.nodes {
		if node != nil {
			n++
		}
	}
	return n
}
