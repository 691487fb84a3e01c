package hierarchy

import (
	"math"

	"github.com/denseforest/fishdbc/internal/msf"
)

// Extract runs the full hierarchy stage over a minimum spanning forest:
// dendrogram construction, condensation by minClusterSize, excess-of-mass
// selection, and flat labelling. It validates minClusterSize against n and
// the finiteness of every edge weight before doing any work.
func Extract(n int, edges []msf.Edge, minClusterSize int) (assignments []int, clusterCount int, err error) {
	if minClusterSize < 1 {
		return nil, 0, newError(ErrInvalidMinClusterSize, "Extract", "validate", "minClusterSize must be >= 1")
	}
	if minClusterSize > n {
		return nil, 0, newError(ErrInvalidMinClusterSize, "Extract", "validate", "minClusterSize exceeds item count")
	}
	for _, e := range edges {
		if e.Weight < 0 || math.IsNaN(float64(e.Weight)) || math.IsInf(float64(e.Weight), 0) {
			return nil, 0, newError(ErrInvalidWeight, "Extract", "validate", "MSF weights must be finite and non-negative")
		}
	}

	forest := BuildForest(n, edges)
	clusters, leafCluster := Condense(forest, minClusterSize)
	Select(Roots(clusters))
	assignments, clusterCount = Labels(n, leafCluster)
	return assignments, clusterCount, nil
}
