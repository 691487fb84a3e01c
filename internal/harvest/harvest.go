// Package harvest canonicalizes and deduplicates the candidate edges
// produced as a side effect of HNSW construction.
package harvest

import "sort"

// Edge is a single candidate edge discovered while committing an HNSW
// insertion: a new directed edge (u, v) canonicalized to source < target,
// carrying the raw oracle distance and the insertion sequence number of
// the node whose commit produced it.
type Edge struct {
	Source, Target uint32
	Distance       float32
	Sequence       uint64
}

func canonical(u, v uint32, distance float32, sequence uint64) Edge {
	if u <= v {
		return Edge{Source: u, Target: v, Distance: distance, Sequence: sequence}
	}
	return Edge{Source: v, Target: u, Distance: distance, Sequence: sequence}
}

// NewEdge builds a canonical candidate edge from a raw directed edge
// (u, v) observed during commit.
func NewEdge(u, v uint32, distance float32, sequence uint64) Edge {
	return canonical(u, v, distance, sequence)
}

// harvestLess orders edges by the harvest key (sequence asc, distance
// asc, source asc, target asc), per the collection's canonical order.
func harvestLess(a, b Edge) bool {
	if a.Sequence != b.Sequence {
		return a.Sequence < b.Sequence
	}
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	if a.Source != b.Source {
		return a.Source < b.Source
	}
	return a.Target < b.Target
}

// Harvest is the canonicalized, sorted, deduplicated candidate edge
// collection built from a run's raw harvest buffer.
type Harvest struct {
	Edges []Edge
}

// FromUnsorted canonicalizes every edge, sorts by the harvest order, and
// collapses all entries sharing (distance, canonical source, canonical
// target), wherever they sit in that order, keeping the one with the
// smallest sequence.
func FromUnsorted(raw []Edge) Harvest {
	canon := make([]Edge, len(raw))
	for i, e := range raw {
		canon[i] = canonical(e.Source, e.Target, e.Distance, e.Sequence)
	}
	sort.Slice(canon, func(i, j int) bool { return harvestLess(canon[i], canon[j]) })

	deduped := dedup(canon)
	return Harvest{Edges: deduped}
}

// dedup assumes input is sorted by the harvest order and removes every
// entry that shares (distance, source, target) with another, keeping the
// lowest-sequence one. Because harvest order sorts by sequence first, a
// direct adjacency scan would not group duplicates together; instead we
// group by the dedup key explicitly and keep the minimum-sequence
// representative regardless of position.
func dedup(sorted []Edge) []Edge {
	type dedupKey struct {
		distance      float32
		source, target uint32
	}
	best := make(map[dedupKey]Edge, len(sorted))
	order := make([]dedupKey, 0, len(sorted))
	for _, e := range sorted {
		k := dedupKey{distance: e.Distance, source: e.Source, target: e.Target}
		if existing, ok := best[k]; !ok {
			best[k] = e
			order = append(order, k)
		} else if e.Sequence < existing.Sequence {
			best[k] = e
		}
	}
	out := make([]Edge, 0, len(order))
	for _, k := range order {
		out = append(out, best[k])
	}
	sort.Slice(out, func(i, j int) bool { return harvestLess(out[i], out[j]) })
	return out
}

// MSFOrder returns a copy of h's edges re-sorted by the Kruskal
// consumption order (weight/source/target/sequence), leaving h untouched.
func (h Harvest) MSFOrder() []Edge {
	out := make([]Edge, len(h.Edges))
	copy(out, h.Edges)
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Distance != b.Distance {
			return a.Distance < b.Distance
		}
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.Target != b.Target {
			return a.Target < b.Target
		}
		return a.Sequence < b.Sequence
	})
	return out
}
