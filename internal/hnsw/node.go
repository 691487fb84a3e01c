package hnsw

// Node is a single vertex in the layered proximity graph built over the
// distance oracle's item indices. It carries no payload itself (that lives
// in the oracle); the node only records graph structure.
type Node struct {
	ID    uint32 // oracle item index; stable for the node's lifetime
	Level int    // highest level this node was promoted to at insertion

	// Seq is a monotonic insertion sequence number, assigned when the
	// node is committed. trimSelect uses it to break distance ties, and
	// it is stamped on the candidate edges the node's commit harvests.
	// With more than one build worker, commit order (and so Seq) depends
	// on goroutine scheduling.
	Seq uint64

	Links [][]uint32 // Links[level] holds neighbor IDs at that level

	// Core is the core distance recorded for this node by
	// SetCoreDistance; it is zero until then.
	Core float32
}

func newNode(id uint32, level int, seq uint64, m, m0 int) *Node {
	n := &Node{ID: id, Level: level, Seq: seq, Links: make([][]uint32, level+1)}
	for lvl := 0; lvl <= level; lvl++ {
		capacity := m
		if lvl == 0 {
			capacity = m0
		}
		n.Links[lvl] = make([]uint32, 0, capacity)
	}
	return n
}
