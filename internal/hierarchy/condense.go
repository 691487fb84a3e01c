package hierarchy

import "math"

// EventKind distinguishes the two ways a condensed cluster can shed mass
// as lambda increases.
type EventKind int

const (
	// EventPoint records a single item leaving the cluster (as noise, if
	// the cluster itself is never selected, or as a member otherwise).
	EventPoint EventKind = iota
	// EventChildCluster records the cluster splitting into two children
	// large enough to stand on their own.
	EventChildCluster
)

// Event is one entry in a condensed cluster's history.
type Event struct {
	Kind   EventKind
	Point  int // valid when Kind == EventPoint
	Child  *Cluster
	Lambda float64
	Size   int
}

// Cluster is a node in the condensed tree: a run of the dendrogram during
// which the same set of items stays together above the minimum cluster
// size, ending either in a split into two child clusters or in exhaustion
// of its members as point events.
type Cluster struct {
	ID          int
	Parent      *Cluster
	Children    []*Cluster
	Events      []Event
	BirthLambda float64
	Stability   float64
	Selected    bool
}

// lambda converts an MSF merge weight to the HDBSCAN density parameter;
// a zero-weight merge (coincident points) has infinite density.
func lambda(weight float32) float64 {
	if weight <= 0 {
		return math.Inf(1)
	}
	return 1.0 / float64(weight)
}

// Condense walks each single-linkage dendrogram root and produces the
// condensed cluster tree: every internal merge where both sides stay at
// or above minClusterSize becomes a split into two new clusters; where
// only one side does, the cluster continues through it and the other
// side's leaves are recorded as point events; where neither side does,
// both sides' leaves are recorded as point events and the cluster ends.
// A root whose total size is already below minClusterSize contributes no
// cluster at all — its leaves are never assigned, so they label as noise.
func Condense(roots []*Node, minClusterSize int) ([]*Cluster, map[int]*Cluster) {
	var clusters []*Cluster
	leafCluster := make(map[int]*Cluster)
	nextID := 0

	newCluster := func(parent *Cluster, birthLambda float64) *Cluster {
		c := &Cluster{ID: nextID, Parent: parent, BirthLambda: birthLambda}
		nextID++
		clusters = append(clusters, c)
		if parent != nil {
			parent.Children = append(parent.Children, c)
		}
		return c
	}

	var emitLeaves func(node *Node, lam float64, cluster *Cluster)
	emitLeaves = func(node *Node, lam float64, cluster *Cluster) {
		if node.Left == nil && node.Right == nil {
			cluster.Events = append(cluster.Events, Event{Kind: EventPoint, Point: node.Point, Lambda: lam, Size: 1})
			leafCluster[node.Point] = cluster
			return
		}
		emitLeaves(node.Left, lam, cluster)
		emitLeaves(node.Right, lam, cluster)
	}

	var walk func(node *Node, cluster *Cluster)
	walk = func(node *Node, cluster *Cluster) {
		if node.Left == nil && node.Right == nil {
			cluster.Events = append(cluster.Events, Event{Kind: EventPoint, Point: node.Point, Lambda: cluster.BirthLambda, Size: 1})
			leafCluster[node.Point] = cluster
			return
		}

		lam := lambda(node.Weight)
		leftBig := node.Left.Size >= minClusterSize
		rightBig := node.Right.Size >= minClusterSize

		switch {
		case leftBig && rightBig:
			lc := newCluster(cluster, lam)
			rc := newCluster(cluster, lam)
			cluster.Events = append(cluster.Events,
				Event{Kind: EventChildCluster, Child: lc, Lambda: lam, Size: node.Left.Size},
				Event{Kind: EventChildCluster, Child: rc, Lambda: lam, Size: node.Right.Size},
			)
			walk(node.Left, lc)
			walk(node.Right, rc)
		case leftBig:
			emitLeaves(node.Right, lam, cluster)
			walk(node.Left, cluster)
		case rightBig:
			emitLeaves(node.Left, lam, cluster)
			walk(node.Right, cluster)
		default:
			emitLeaves(node.Left, lam, cluster)
			emitLeaves(node.Right, lam, cluster)
		}
	}

	for _, root := range roots {
		if root.Size < minClusterSize {
			continue
		}
		birthLambda := 0.0
		if root.Left != nil {
			birthLambda = lambda(root.Weight)
		}
		c := newCluster(nil, birthLambda)
		walk(root, c)
	}

	for _, c := range clusters {
		c.Stability = stabilityOf(c)
	}
	return clusters, leafCluster
}

func stabilityOf(c *Cluster) float64 {
	var s float64
	for _, e := range c.Events {
		s += (e.Lambda - c.BirthLambda) * float64(e.Size)
	}
	return s
}
