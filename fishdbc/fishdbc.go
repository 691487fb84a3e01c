package fishdbc

import (
	"context"
	"time"

	"github.com/denseforest/fishdbc/internal/cache"
	"github.com/denseforest/fishdbc/internal/harvest"
	"github.com/denseforest/fishdbc/internal/hierarchy"
	"github.com/denseforest/fishdbc/internal/hnsw"
	"github.com/denseforest/fishdbc/internal/msf"
	"github.com/denseforest/fishdbc/internal/obs"
	"github.com/denseforest/fishdbc/internal/oracle"
	"github.com/denseforest/fishdbc/internal/util"
)

// Run clusters source with HDBSCAN over a harvested HNSW graph: build the
// graph, harvest candidate edges, compute each item's core distance,
// reweight harvested edges to mutual reachability, find the parallel
// minimum spanning forest, and extract a flat clustering from the
// condensed single-linkage hierarchy. It validates
// N >= minClusterSize >= 1 before building anything.
func Run(ctx context.Context, source oracle.Source, minClusterSize int, opts ...Option) (*ClusteringResult, error) {
	if oracle.IsEmpty(source) {
		return nil, newError(KindInputValidity, "EmptySource", nil)
	}
	n := source.Len()

	cfg := newConfig(minClusterSize)
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.validate(n); err != nil {
		return nil, err
	}

	dc := cache.New(cfg.cacheConfig)
	idx, err := hnsw.NewIndex(&cfg.hnsw, source, dc)
	if err != nil {
		return nil, newError(KindGraphInvariant, "failed to allocate HNSW index", err)
	}

	buildStart := time.Now()
	if err := hnsw.Build(ctx, idx); err != nil {
		if cfg.metrics != nil {
			cfg.metrics.PipelineErrors.Inc()
		}
		return nil, newError(KindGraphInvariant, "HNSW build failed", err)
	}
	if cfg.metrics != nil {
		cfg.metrics.BuildLatency.Observe(time.Since(buildStart).Seconds())
		cfg.metrics.ItemsInserted.Add(float64(n))
	}

	harvested := harvest.FromUnsorted(idx.Harvest())
	if cfg.metrics != nil {
		cfg.metrics.HarvestedEdges.Add(float64(len(harvested.Edges)))
	}

	core, err := coreDistances(ctx, idx, n, minClusterSize, cfg.hnsw.EfConstruction, cfg.breaker)
	if err != nil {
		if cfg.metrics != nil {
			cfg.metrics.PipelineErrors.Inc()
		}
		return nil, newError(KindOracleFailure, "core distance computation failed", err)
	}

	reweighted := reweight(harvested, core)
	forest := msf.Build(n, reweighted, cfg.hnsw.Workers)
	if cfg.metrics != nil {
		cfg.metrics.MSFEdges.Add(float64(len(forest.Edges)))
		// Every edge retained in the forest corresponds to one successful
		// union-find merge in the final sequential pass; see msf.Build.
		cfg.metrics.UnionOps.Add(float64(len(forest.Edges)))
	}

	hierarchyStart := time.Now()
	assignments, clusterCount, err := hierarchy.Extract(n, forest.Edges, minClusterSize)
	if err != nil {
		if cfg.metrics != nil {
			cfg.metrics.PipelineErrors.Inc()
		}
		return nil, newError(KindHierarchy, "hierarchy extraction failed", err)
	}
	if cfg.metrics != nil {
		cfg.metrics.HierarchyLatency.Observe(time.Since(hierarchyStart).Seconds())
		cfg.metrics.ClustersSelected.Set(float64(clusterCount))
		noise := 0
		for _, a := range assignments {
			if a == clusterCount {
				noise++
			}
		}
		cfg.metrics.NoisePoints.Set(float64(noise))
	}

	if cfg.metrics != nil {
		cfg.metrics.DistanceCacheHits.Add(float64(dc.Hits))
		cfg.metrics.DistanceCacheMisses.Add(float64(dc.Misses))
	}

	result := &ClusteringResult{
		Assignments:  make([]ClusterID, len(assignments)),
		ClusterCount: clusterCount,
	}
	for i, a := range assignments {
		result.Assignments[i] = ClusterID(a)
	}
	return result, nil
}

// coreDistances computes, for every item u, the distance to its
// minClusterSize-th nearest neighbour (excluding u itself) via a search
// wide enough to find it. When breaker is non-nil, every Search call runs
// behind it so a run of oracle failures trips the circuit instead of
// blocking every remaining item on its own timeout.
func coreDistances(ctx context.Context, idx *hnsw.Index, n, minClusterSize, efConstruction int, breaker *obs.CircuitBreaker) ([]float32, error) {
	k := efConstruction
	if minClusterSize+1 > k {
		k = minClusterSize + 1
	}
	if k > n {
		k = n
	}

	core := make([]float32, n)
	for u := 0; u < n; u++ {
		var results []*util.Candidate
		search := func() error {
			var searchErr error
			results, searchErr = idx.Search(uint32(u), k)
			return searchErr
		}
		var err error
		if breaker != nil {
			err = breaker.Execute(ctx, search)
		} else {
			err = search()
		}
		if err != nil {
			return nil, err
		}
		if len(results) == 0 {
			continue
		}
		want := minClusterSize
		if want >= len(results) {
			want = len(results) - 1
		}
		core[u] = results[want].Distance
	}
	return core, nil
}

// reweight replaces each harvested edge's raw oracle distance with its
// mutual-reachability distance: the maximum of the raw distance and
// either endpoint's core distance.
func reweight(h harvest.Harvest, core []float32) []msf.Edge {
	out := make([]msf.Edge, len(h.Edges))
	for i, e := range h.Edges {
		weight := e.Distance
		if core[e.Source] > weight {
			weight = core[e.Source]
		}
		if core[e.Target] > weight {
			weight = core[e.Target]
		}
		out[i] = msf.Edge{U: e.Source, V: e.Target, Weight: weight, Sequence: e.Sequence}
	}
	return out
}
