// Package msf builds a minimum spanning forest from harvested candidate
// edges using a parallel Kruskal pass over a concurrent union-find.
package msf

import "sync"

// maxStripes bounds the number of mutexes a UnionFind allocates, so that
// a forest over millions of items still takes a bounded, cache-friendly
// amount of locking overhead.
const maxStripes = 4096

// UnionFind is a disjoint-set structure safe for concurrent Union/Find
// calls. It stripes its locking across a fixed number of mutexes (rather
// than one mutex per element) and always acquires stripes in ascending
// order to avoid deadlocks when a Union call needs two stripes at once.
type UnionFind struct {
	parent  []uint32
	rank    []uint8
	stripes []sync.Mutex
}

// New creates a UnionFind over n singleton elements [0, n).
func New(n int) *UnionFind {
	uf := &UnionFind{
		parent: make([]uint32, n),
		rank:   make([]uint8, n),
	}
	for i := range uf.parent {
		uf.parent[i] = uint32(i)
	}
	numStripes := n
	if numStripes > maxStripes {
		numStripes = maxStripes
	}
	if numStripes < 1 {
		numStripes = 1
	}
	uf.stripes = make([]sync.Mutex, numStripes)
	return uf
}

func (uf *UnionFind) stripe(i uint32) *sync.Mutex {
	return &uf.stripes[int(i)%len(uf.stripes)]
}

// Find returns the representative of x's set, applying path halving as it
// walks to the root. Under concurrent Union calls the returned root may
// already be stale; Union re-validates roots under its stripe locks
// before merging, while Connected compares two plain Find results.
func (uf *UnionFind) Find(x uint32) uint32 {
	for {
		s := uf.stripe(x)
		s.Lock()
		parent := uf.parent[x]
		if parent == x {
			s.Unlock()
			return x
		}
		grandparent := uf.parent[parent]
		uf.parent[x] = grandparent // path halving
		s.Unlock()
		x = grandparent
	}
}

// Connected reports whether x and y are currently in the same set.
func (uf *UnionFind) Connected(x, y uint32) bool {
	return uf.Find(x) == uf.Find(y)
}

// Union merges the sets containing x and y, using union-by-rank, and
// reports whether a merge happened (false means x and y were already in
// the same set). Locks are acquired on the ascending-stripe-index roots
// to guarantee a consistent global lock order across concurrent callers.
func (uf *UnionFind) Union(x, y uint32) bool {
	for {
		rx, ry := uf.Find(x), uf.Find(y)
		if rx == ry {
			return false
		}

		first, second := rx, ry
		if uf.stripe(first) == uf.stripe(second) {
			// same stripe: one lock suffices
		} else if stripeIndex(uf, first) > stripeIndex(uf, second) {
			first, second = second, first
		}

		s1, s2 := uf.stripe(first), uf.stripe(second)
		s1.Lock()
		if s2 != s1 {
			s2.Lock()
		}

		// Re-validate roots are unchanged since Find; if not, retry.
		if uf.parent[rx] != rx || uf.parent[ry] != ry {
			if s2 != s1 {
				s2.Unlock()
			}
			s1.Unlock()
			continue
		}

		if uf.rank[rx] < uf.rank[ry] {
			uf.parent[rx] = ry
		} else if uf.rank[rx] > uf.rank[ry] {
			uf.parent[ry] = rx
		} else {
			uf.parent[ry] = rx
			uf.rank[rx]++
		}

		if s2 != s1 {
			s2.Unlock()
		}
		s1.Unlock()
		return true
	}
}

func stripeIndex(uf *UnionFind, x uint32) int {
	return int(x) % len(uf.stripes)
}
