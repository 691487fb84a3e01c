// Package fishdbc is the entry point for density-based hierarchical
// clustering: build an HNSW graph over a distance oracle, harvest
// candidate edges, reweight them to mutual reachability, compute a
// parallel minimum spanning forest, and extract a flat clustering from
// the condensed single-linkage hierarchy.
package fishdbc

// ClusterID identifies a selected cluster. Identifiers are contiguous
// starting at 0; if any item is noise, ClusterCount is also a valid (and
// reserved) id for it.
type ClusterID int

// ClusteringResult is the output of a pipeline run.
type ClusteringResult struct {
	// Assignments holds one ClusterID per input item, in item order.
	Assignments []ClusterID

	// ClusterCount is the number of real (non-noise) clusters selected.
	// If any item is noise, its label equals ClusterCount.
	ClusterCount int
}

// HasNoise reports whether any item in the result is noise-labelled.
func (r *ClusteringResult) HasNoise() bool {
	for _, a := range r.Assignments {
		if int(a) == r.ClusterCount {
			return true
		}
	}
	return false
}
