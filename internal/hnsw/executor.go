package hnsw

import "github.com/denseforest/fishdbc/internal/util"

// commit applies plan under the caller's exclusive graph lock: it creates
// the new node, connects it at each level with the selected neighbors,
// trims any neighbor whose list overflows its cap, reconciles the edges
// that trimming drops, and finally heals any node left unreachable from
// the entry at level 0.
func (idx *Index) commit(newID uint32, level int, plan insertionPlan) error {
	node := newNode(newID, level, idx.nextSeq(), idx.cfg.M, idx.cfg.m0())
	idx.nodes[newID] = node

	isolated := make(map[uint32]bool)

	for _, lp := range plan.levels {
		selected, err := idx.selectNeighbors(newID, lp.candidates, lp.level)
		if err != nil {
			return err
		}

		node.Links[lp.level] = append(node.Links[lp.level], idsOf(selected)...)

		for _, c := range selected {
			neighbor := idx.nodes[c.ID]
			if neighbor == nil {
				return &GraphInvariantViolationError{Detail: "selected neighbor missing from graph"}
			}
			if lp.level >= len(neighbor.Links) {
				continue
			}
			neighbor.Links[lp.level] = append(neighbor.Links[lp.level], newID)
			idx.emitEdge(newID, c.ID, c.Distance, node.Seq)

			if err := idx.trimIfNeeded(neighbor, lp.level, newID, isolated); err != nil {
				return err
			}
		}
	}

	if level > idx.entryLevel {
		idx.entry = newID
		idx.entryLevel = level
	}

	if len(node.Links[0]) == 0 {
		isolated[newID] = true
	}
	return idx.healBaseLayer(isolated)
}

func idsOf(candidates []*util.Candidate) []uint32 {
	out := make([]uint32, len(candidates))
	for i, c := range candidates {
		out[i] = c.ID
	}
	return out
}

// trimIfNeeded re-selects neighbor's link list at level down to its cap
// whenever a newly added link pushed it over, reconciling the reverse
// edges of whichever neighbors get dropped.
func (idx *Index) trimIfNeeded(neighbor *Node, level int, priority uint32, isolated map[uint32]bool) error {
	capLimit := idx.capForLevel(level)
	if len(neighbor.Links[level]) <= capLimit {
		return nil
	}

	candidates, err := idx.candidatesFromIDs(neighbor.ID, neighbor.Links[level])
	if err != nil {
		return err
	}

	kept := idx.trimSelect(candidates, capLimit, priority)
	keptSet := make(map[uint32]bool, len(kept))
	for _, c := range kept {
		keptSet[c.ID] = true
	}

	var dropped []uint32
	for _, id := range neighbor.Links[level] {
		if !keptSet[id] {
			dropped = append(dropped, id)
		}
	}

	neighbor.Links[level] = idsOf(kept)

	for _, d := range dropped {
		dn := idx.nodes[d]
		if dn == nil || level >= len(dn.Links) {
			continue
		}
		dn.Links[level] = removeID(dn.Links[level], neighbor.ID)
		if level == 0 && len(dn.Links[0]) == 0 {
			isolated[d] = true
		}
	}
	return nil
}

func removeID(ids []uint32, target uint32) []uint32 {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

func (idx *Index) candidatesFromIDs(from uint32, ids []uint32) ([]*util.Candidate, error) {
	out := make([]*util.Candidate, len(ids))
	for i, id := range ids {
		d, err := idx.distance(from, id)
		if err != nil {
			return nil, err
		}
		out[i] = &util.Candidate{ID: id, Distance: d}
	}
	return out, nil
}

// healBaseLayer iteratively reconnects every isolated node to the entry
// point at level 0, using an explicit work queue bounded by a visited set
// so eviction cascades cannot recurse unboundedly.
func (idx *Index) healBaseLayer(isolated map[uint32]bool) error {
	queue := make([]uint32, 0, len(isolated))
	for id := range isolated {
		queue = append(queue, id)
	}
	visited := make(map[uint32]bool, len(isolated))

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] || id == idx.entry {
			continue
		}
		visited[id] = true

		entryNode := idx.nodes[idx.entry]
		node := idx.nodes[id]
		if entryNode == nil || node == nil {
			continue
		}

		d, err := idx.distance(id, idx.entry)
		if err != nil {
			return err
		}

		node.Links[0] = append(node.Links[0], idx.entry)
		entryNode.Links[0] = append(entryNode.Links[0], id)
		idx.emitEdge(id, idx.entry, d, node.Seq)

		cap0 := idx.capForLevel(0)
		if len(entryNode.Links[0]) > cap0 {
			candidates, err := idx.candidatesFromIDs(idx.entry, entryNode.Links[0])
			if err != nil {
				return err
			}
			kept := idx.trimSelect(candidates, cap0, id)
			keptSet := make(map[uint32]bool, len(kept))
			for _, c := range kept {
				keptSet[c.ID] = true
			}
			var evicted []uint32
			for _, nid := range entryNode.Links[0] {
				if !keptSet[nid] {
					evicted = append(evicted, nid)
				}
			}
			entryNode.Links[0] = idsOf(kept)
			for _, e := range evicted {
				en := idx.nodes[e]
				if en != nil {
					en.Links[0] = removeID(en.Links[0], idx.entry)
					if len(en.Links[0]) == 0 && !visited[e] {
						queue = append(queue, e)
					}
				}
			}
		}
	}
	return nil
}
