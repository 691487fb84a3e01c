package msf

import (
	"math"
	"sort"
	"sync"
)

// Edge is a single weighted candidate edge considered for the minimum
// spanning forest. Weight is expected to already be the mutual-
// reachability distance, not the raw oracle distance.
type Edge struct {
	U, V     uint32
	Weight   float32
	Sequence uint64
}

// Forest is the minimum spanning forest produced by Build: the set of
// edges actually included (sorted by weight, matching dendrogram merge
// order) plus the number of distinct roots the forest settled into. A
// fully connected item set yields exactly one root; a disconnected one
// yields more, and hierarchy extraction treats each root independently.
type Forest struct {
	Edges []Edge
	Roots int
}

// Build computes a minimum spanning forest over n items from candidate
// edges, using union-by-rank with path halving for cycle detection. Edges
// are filtered before sorting: self-loops, endpoints outside [0, n), and
// non-finite weights are dropped rather than handed to the union-find,
// whose parent array is only sized for [0, n).
//
// Construction is parallelized by partitioning the (pre-sorted) edge list
// across workers, each of which runs a sequential Kruskal pass against
// its own private UnionFind to find the edges it can be sure belong to
// the forest (those connecting two components neither of which any
// lower-weight edge in another partition could also connect — approximated
// here by a standard partition-then-merge scheme): each worker computes a
// local spanning forest over the full vertex set using only its edge
// shard, then the shards are merged sequentially against one shared
// UnionFind in ascending weight order. The final merge pass is always
// correct because Kruskal's algorithm only requires edges be considered
// in ascending weight order; the parallel partitions just prune the
// candidate set each worker needs to scan before the sequential merge.
func Build(n int, edges []Edge, workers int) Forest {
	sorted := make([]Edge, 0, len(edges))
	for _, e := range edges {
		if e.U == e.V {
			continue // self-loop
		}
		if int(e.U) >= n || int(e.V) >= n {
			continue // out-of-range endpoint
		}
		if math.IsNaN(float64(e.Weight)) || math.IsInf(float64(e.Weight), 0) {
			continue // non-finite weight
		}
		sorted = append(sorted, e)
	}
	sort.Slice(sorted, func(i, j int) bool { return edgeLess(sorted[i], sorted[j]) })

	if workers <= 0 {
		workers = 1
	}
	if workers > len(sorted) {
		workers = len(sorted)
	}
	if workers < 1 {
		workers = 1
	}

	shards := make([][]Edge, workers)
	localForests := make([][]Edge, workers)
	if workers <= 1 || len(sorted) == 0 {
		shards[0] = sorted
	} else {
		base := len(sorted) / workers
		start := 0
		for w := 0; w < workers; w++ {
			end := start + base
			if w == workers-1 {
				end = len(sorted)
			}
			shards[w] = sorted[start:end]
			start = end
		}
	}

	var wg sync.WaitGroup
	for w := range shards {
		w := w
		wg.Add(1)
		go func() {
			defer wg.Done()
			localForests[w] = localSpanningForest(n, shards[w])
		}()
	}
	wg.Wait()

	merged := make([]Edge, 0, len(sorted))
	for _, lf := range localForests {
		merged = append(merged, lf...)
	}
	sort.Slice(merged, func(i, j int) bool { return edgeLess(merged[i], merged[j]) })

	uf := New(n)
	forestEdges := make([]Edge, 0, n-1)
	for _, e := range merged {
		if uf.Union(e.U, e.V) {
			forestEdges = append(forestEdges, e)
		}
	}

	roots := make(map[uint32]struct{})
	for i := 0; i < n; i++ {
		roots[uf.Find(uint32(i))] = struct{}{}
	}

	return Forest{Edges: forestEdges, Roots: len(roots)}
}

// edgeLess implements the (weight, source, target, sequence) consumption
// order: ties at the weight/endpoint level fall back to sequence so the
// forest produced for a given edge set never depends on slice order.
func edgeLess(a, b Edge) bool {
	if a.Weight != b.Weight {
		return a.Weight < b.Weight
	}
	if a.U != b.U {
		return a.U < b.U
	}
	if a.V != b.V {
		return a.V < b.V
	}
	return a.Sequence < b.Sequence
}

// localSpanningForest runs sequential Kruskal over a private UnionFind,
// returning only the edges this shard can prove connect two components.
func localSpanningForest(n int, shard []Edge) []Edge {
	uf := New(n)
	out := make([]Edge, 0, len(shard))
	for _, e := range shard {
		if uf.Union(e.U, e.V) {
			out = append(out, e)
		}
	}
	return out
}
