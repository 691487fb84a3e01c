package hierarchy

// Select runs the excess-of-mass optimization over the condensed tree
// rooted at each of roots: each cluster is visited after both its
// children, and is marked selected iff its own stability is at least the
// sum of its children's selected stability: otherwise its descendants
// remain the selection and the cluster itself is not a chosen cluster.
// Roots participate in the same comparison as any other cluster.
func Select(roots []*Cluster) {
	var visit func(c *Cluster) float64
	visit = func(c *Cluster) float64 {
		var childSum float64
		for _, ch := range c.Children {
			childSum += visit(ch)
		}
		if len(c.Children) == 0 || c.Stability >= childSum {
			c.Selected = true
			deselect(c.Children)
			return c.Stability
		}
		c.Selected = false
		return childSum
	}
	for _, r := range roots {
		visit(r)
	}
}

func deselect(children []*Cluster) {
	for _, c := range children {
		c.Selected = false
		deselect(c.Children)
	}
}

// Roots filters clusters to the top-level ones (no parent), the entry
// points Select and Labels need.
func Roots(clusters []*Cluster) []*Cluster {
	var roots []*Cluster
	for _, c := range clusters {
		if c.Parent == nil {
			roots = append(roots, c)
		}
	}
	return roots
}
