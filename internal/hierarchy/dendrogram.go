// Package hierarchy extracts a flat clustering from a minimum spanning
// forest: single-linkage dendrogram construction, HDBSCAN-style
// condensation by minimum cluster size, stability-based cluster
// selection, and flat labelling with noise handling.
package hierarchy

import (
	"sort"

	"github.com/denseforest/fishdbc/internal/msf"
)

// Node is a single-linkage dendrogram node. A leaf has Point set to the
// original item id and both children nil; an internal node has two
// children and no point.
type Node struct {
	Left, Right *Node
	Weight      float32
	Size        int
	Point       int // valid only when Left == nil && Right == nil
}

func leaf(point int) *Node {
	return &Node{Size: 1, Point: point}
}

// BuildForest constructs one single-linkage dendrogram per connected
// component of the minimum spanning forest over n items: a leaf per item,
// then one internal node per MSF edge processed in
// (weight, source, target, sequence) order, merging the two components
// the edge connects. Components left unmerged become additional forest
// roots.
func BuildForest(n int, edges []msf.Edge) []*Node {
	sorted := make([]msf.Edge, len(edges))
	copy(sorted, edges)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
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
	})

	component := make([]*Node, n)
	root := make([]int, n)
	for i := 0; i < n; i++ {
		component[i] = leaf(i)
		root[i] = i
	}

	find := func(x int) int {
		for root[x] != x {
			root[x] = root[root[x]]
			x = root[x]
		}
		return x
	}

	for _, e := range sorted {
		ru, rv := find(int(e.U)), find(int(e.V))
		if ru == rv {
			continue
		}
		merged := &Node{
			Left:   component[ru],
			Right:  component[rv],
			Weight: e.Weight,
			Size:   component[ru].Size + component[rv].Size,
			Point:  -1,
		}
		root[ru] = rv
		component[rv] = merged
	}

	seen := make(map[int]bool, n)
	var roots []*Node
	for i := 0; i < n; i++ {
		r := find(i)
		if !seen[r] {
			seen[r] = true
			roots = append(roots, component[r])
		}
	}
	return roots
}
