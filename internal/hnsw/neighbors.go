package hnsw

import (
	"sort"

	"github.com/denseforest/fishdbc/internal/util"
)

// selectNeighbors chooses up to capForLevel(level) neighbors from the
// planner's candidate list for a pending insertion. Candidates are first
// sorted closest-first, then thinned with a diversity heuristic so the
// graph does not cluster purely on proximity to the new node.
func (idx *Index) selectNeighbors(newID uint32, candidates []*util.Candidate, level int) ([]*util.Candidate, error) {
	cap := idx.capForLevel(level)

	sorted := append([]*util.Candidate(nil), candidates...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Distance < sorted[j].Distance })

	if len(sorted) <= cap {
		return sorted, nil
	}
	return idx.selectDiverse(sorted, cap)
}

// selectDiverse keeps a closest-first candidate only if it is not closer
// to an already-selected candidate than it is to the node being connected,
// falling back to filling remaining slots by proximity once the diversity
// pass has pruned more than it needed to.
func (idx *Index) selectDiverse(sorted []*util.Candidate, cap int) ([]*util.Candidate, error) {
	selected := make([]*util.Candidate, 0, cap)
	for _, c := range sorted {
		if len(selected) >= cap {
			break
		}
		keep := true
		for _, s := range selected {
			d, err := idx.distance(c.ID, s.ID)
			if err != nil {
				return nil, err
			}
			if d < c.Distance {
				keep = false
				break
			}
		}
		if keep {
			selected = append(selected, c)
		}
	}

	if len(selected) < cap {
		present := make(map[uint32]bool, len(selected))
		for _, s := range selected {
			present[s.ID] = true
		}
		for _, c := range sorted {
			if len(selected) >= cap {
				break
			}
			if !present[c.ID] {
				selected = append(selected, c)
				present[c.ID] = true
			}
		}
	}
	return selected, nil
}

// trimSelect re-scores a neighbor's overflowing link list down to cap.
// priority is always moved to the front of the candidate list before the
// rest are sorted by distance, so a true tie at the cap boundary retains
// priority rather than whichever entry happens to sort first.
func (idx *Index) trimSelect(candidates []*util.Candidate, cap int, priority uint32) []*util.Candidate {
	var priorityCand *util.Candidate
	rest := make([]*util.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.ID == priority {
			priorityCand = c
			continue
		}
		rest = append(rest, c)
	}
	sort.Slice(rest, func(i, j int) bool {
		if rest[i].Distance != rest[j].Distance {
			return rest[i].Distance < rest[j].Distance
		}
		si, sj := idx.sequenceOf(rest[i].ID), idx.sequenceOf(rest[j].ID)
		if si != sj {
			return si < sj
		}
		return rest[i].ID < rest[j].ID
	})

	ordered := make([]*util.Candidate, 0, len(candidates))
	if priorityCand != nil {
		ordered = append(ordered, priorityCand)
	}
	ordered = append(ordered, rest...)

	if len(ordered) <= cap {
		return ordered
	}
	return ordered[:cap]
}

func (idx *Index) sequenceOf(id uint32) uint64 {
	if node := idx.nodes[id]; node != nil {
		return node.Seq
	}
	return 0
}
