package hnsw

import "github.com/denseforest/fishdbc/internal/util"

// Search returns the k nearest committed items to queryID, closest first.
// If queryID is itself a committed item, it appears in the result as its
// own nearest neighbor at distance zero whenever ef allows for at least
// two candidates: if the level-0 search did not reach it, Search puts it
// at the front of the candidates itself.
func (idx *Index) Search(queryID uint32, k int) ([]*util.Candidate, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if !idx.hasEntry {
		return nil, nil
	}

	ef := idx.cfg.EfSearch
	if k > ef {
		ef = k
	}

	ep := idx.entry
	for level := idx.entryLevel; level > 0; level-- {
		next, err := idx.greedyDescend(queryID, ep, level)
		if err != nil {
			return nil, err
		}
		ep = next
	}

	candidates, err := idx.searchLevel(queryID, ep, ef, 0)
	if err != nil {
		return nil, err
	}
	if ef >= 2 && int(queryID) < len(idx.nodes) && idx.nodes[queryID] != nil {
		present := false
		for _, c := range candidates {
			if c.ID == queryID {
				present = true
				break
			}
		}
		if !present {
			candidates = append([]*util.Candidate{{ID: queryID, Distance: 0}}, candidates...)
		}
	}
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates, nil
}
