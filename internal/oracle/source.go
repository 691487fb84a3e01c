// Package oracle defines the distance-oracle contract clustering is run
// against: an arbitrary dissimilarity space exposed as pairwise distances
// over a fixed set of item indices, plus two concrete adapters
// (VectorSource, EditDistanceSource) used to exercise it end to end.
package oracle

// MetricDescriptor identifies the metric (and any configuration that
// affects its semantics, e.g. pre-normalization) a Source computes
// distances under. Distance caches key on this string so that two
// sources using different metrics never collide in a shared cache.
type MetricDescriptor string

// Unknown is the default descriptor for sources that do not override
// MetricDescriptor().
const Unknown MetricDescriptor = "unknown"

// Source is the distance-oracle contract: a fixed-size collection of
// items over an arbitrary dissimilarity space. Implementations must
// never return non-finite (NaN or +/-Inf) distances; callers treat that
// as a fatal error.
type Source interface {
	// Len returns the number of items in the source.
	Len() int

	// Name returns a human-readable identifier for diagnostics.
	Name() string

	// MetricDescriptor identifies the metric this source computes
	// distances under.
	MetricDescriptor() MetricDescriptor

	// Distance returns the dissimilarity between items i and j. Both
	// indices must be in [0, Len()); implementations return an
	// *Error with ErrOutOfBounds otherwise.
	Distance(i, j int) (float32, error)
}

// BatchSource is implemented by sources that can compute distances from
// one query item to many candidates more efficiently than repeated calls
// to Distance (e.g. by amortizing a norm lookup or a SIMD kernel).
type BatchSource interface {
	Source
	BatchDistances(query int, candidates []int) ([]float32, error)
}

// IsEmpty reports whether src has no items.
func IsEmpty(src Source) bool {
	return src.Len() == 0
}

// BatchDistances computes the distance from query to every entry in
// candidates, using src's optimized BatchDistances when available and
// falling back to repeated Distance calls otherwise.
func BatchDistances(src Source, query int, candidates []int) ([]float32, error) {
	if batch, ok := src.(BatchSource); ok {
		return batch.BatchDistances(query, candidates)
	}
	out := make([]float32, len(candidates))
	for i, c := range candidates {
		d, err := src.Distance(query, c)
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}
