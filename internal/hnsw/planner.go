package hnsw

import "github.com/denseforest/fishdbc/internal/util"

// levelPlan is one level's sorted (closest-first) candidate list produced
// by the planner for a pending insertion.
type levelPlan struct {
	level      int
	candidates []*util.Candidate
}

// insertionPlan is the read-only output of plan: a candidate list per
// level from min(targetLevel, entryLevel) down to 0.
type insertionPlan struct {
	levels []levelPlan
}

// plan runs entirely under the caller's read lock: greedy descent from
// the entry point down to target+1, then a bounded best-first search at
// each level from target down to 0.
func (idx *Index) plan(newID uint32, target int) (insertionPlan, error) {
	if !idx.hasEntry {
		return insertionPlan{}, newError(ErrGraphInvariantViolation, "planner", "plan", "no entry point")
	}

	ep := idx.entry
	for level := idx.entryLevel; level > target; level-- {
		next, err := idx.greedyDescend(newID, ep, level)
		if err != nil {
			return insertionPlan{}, err
		}
		ep = next
	}

	var out insertionPlan
	for level := min(target, idx.entryLevel); level >= 0; level-- {
		candidates, err := idx.searchLevel(newID, ep, idx.cfg.EfConstruction, level)
		if err != nil {
			return insertionPlan{}, err
		}
		if len(candidates) > 0 {
			ep = candidates[0].ID
		}
		out.levels = append(out.levels, levelPlan{level: level, candidates: candidates})
	}
	return out, nil
}

// greedyDescend repeatedly moves to the neighbor strictly closer to newID
// than the current point, stopping at a local minimum.
func (idx *Index) greedyDescend(newID, start uint32, level int) (uint32, error) {
	current := start
	currentDist, err := idx.distance(newID, current)
	if err != nil {
		return 0, err
	}

	for {
		node := idx.nodes[current]
		if node == nil || level >= len(node.Links) {
			return current, nil
		}
		improved := false
		for _, neighborID := range node.Links[level] {
			d, err := idx.distance(newID, neighborID)
			if err != nil {
				return 0, err
			}
			if d < currentDist {
				current = neighborID
				currentDist = d
				improved = true
			}
		}
		if !improved {
			return current, nil
		}
	}
}

// searchLevel runs a bounded best-first search at level, seeded from
// entryID, returning the ef closest candidates sorted ascending by
// distance. Candidates at equal distance are not given a deterministic
// relative order here (the heaps compare Distance only); the full
// (distance, sequence, id) tie-break the spec requires is applied where
// it actually matters, when trimSelect picks which neighbors to keep.
func (idx *Index) searchLevel(queryID, entryID uint32, ef, level int) ([]*util.Candidate, error) {
	visited := make(map[uint32]bool, ef*4)

	entryDist, err := idx.distance(queryID, entryID)
	if err != nil {
		return nil, err
	}

	frontier := util.NewMinHeap(ef)
	found := util.NewMaxHeap(ef)
	start := &util.Candidate{ID: entryID, Distance: entryDist}
	frontier.PushCandidate(start)
	found.PushCandidate(start)
	visited[entryID] = true

	for frontier.Len() > 0 {
		current := frontier.PopCandidate()
		if found.Len() >= ef && current.Distance > found.Top().Distance {
			break
		}

		node := idx.nodes[current.ID]
		if node == nil || level >= len(node.Links) {
			continue
		}
		for _, neighborID := range node.Links[level] {
			if visited[neighborID] {
				continue
			}
			visited[neighborID] = true

			d, err := idx.distance(queryID, neighborID)
			if err != nil {
				return nil, err
			}
			if found.Len() < ef || d < found.Top().Distance {
				c := &util.Candidate{ID: neighborID, Distance: d}
				frontier.PushCandidate(c)
				found.PushCandidate(c)
				if found.Len() > ef {
					found.PopCandidate()
				}
			}
		}
	}

	result := make([]*util.Candidate, 0, found.Len())
	for found.Len() > 0 {
		result = append([]*util.Candidate{found.PopCandidate()}, result...)
	}
	return result, nil
}
