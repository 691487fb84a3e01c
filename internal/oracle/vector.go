package oracle

import (
	"fmt"
	"math"
)

// Metric selects the pairwise distance function a VectorSource computes.
type Metric int

const (
	L2 Metric = iota
	Cosine
	InnerProduct
)

func (m Metric) descriptor() MetricDescriptor {
	switch m {
	case Cosine:
		return "cosine"
	case InnerProduct:
		return "inner_product"
	default:
		return "l2"
	}
}

// VectorSource is a Source over a dense set of equal-length float32
// vectors, the reference adapter used to demonstrate the pipeline against
// a concrete dissimilarity space.
type VectorSource struct {
	name      string
	vectors   [][]float32
	dimension int
	metric    Metric
	norms     []float32 // precomputed for cosine/inner-product
}

// NewVectorSource builds a VectorSource from a non-empty slice of
// equal-length vectors. It returns ErrEmptyData if vectors is empty,
// ErrZeroDimension if the vectors have zero length, and
// ErrDimensionMismatch if any vector's length disagrees with the first.
func NewVectorSource(name string, vectors [][]float32, metric Metric) (*VectorSource, error) {
	if len(vectors) == 0 {
		return nil, NewError(ErrEmptyData, "VectorSource", "New", "vectors must be non-empty")
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, NewError(ErrZeroDimension, "VectorSource", "New", "vectors must have non-zero dimension")
	}
	for i, v := range vectors {
		if len(v) != dim {
			return nil, NewError(ErrDimensionMismatch, "VectorSource", "New",
				fmt.Sprintf("item %d has dimension %d, expected %d", i, len(v), dim))
		}
	}
	src := &VectorSource{name: name, vectors: vectors, dimension: dim, metric: metric}
	if metric == Cosine || metric == InnerProduct {
		src.norms = make([]float32, len(vectors))
		for i, v := range vectors {
			src.norms[i] = norm(v)
		}
	}
	return src, nil
}

func (s *VectorSource) Len() int                          { return len(s.vectors) }
func (s *VectorSource) Name() string                       { return s.name }
func (s *VectorSource) MetricDescriptor() MetricDescriptor { return s.metric.descriptor() }
func (s *VectorSource) Dimension() int                     { return s.dimension }

func (s *VectorSource) Distance(i, j int) (float32, error) {
	a, err := s.vector(i)
	if err != nil {
		return 0, err
	}
	b, err := s.vector(j)
	if err != nil {
		return 0, err
	}
	switch s.metric {
	case Cosine:
		return s.cosine(i, j, a, b), nil
	case InnerProduct:
		return s.innerProduct(i, j, a, b), nil
	default:
		return l2(a, b), nil
	}
}

// BatchDistances reuses precomputed norms for cosine/inner-product so a
// query's norm is computed once rather than once per candidate.
func (s *VectorSource) BatchDistances(query int, candidates []int) ([]float32, error) {
	q, err := s.vector(query)
	if err != nil {
		return nil, err
	}
	out := make([]float32, len(candidates))
	for idx, c := range candidates {
		b, err := s.vector(c)
		if err != nil {
			return nil, err
		}
		switch s.metric {
		case Cosine:
			out[idx] = s.cosine(query, c, q, b)
		case InnerProduct:
			out[idx] = s.innerProduct(query, c, q, b)
		default:
			out[idx] = l2(q, b)
		}
	}
	return out, nil
}

func (s *VectorSource) vector(i int) ([]float32, error) {
	if i < 0 || i >= len(s.vectors) {
		return nil, OutOfBounds("VectorSource", "distance", i)
	}
	return s.vectors[i], nil
}

func (s *VectorSource) cosine(i, j int, a, b []float32) float32 {
	var dot float32
	for k := range a {
		dot += a[k] * b[k]
	}
	na, nb := s.norms[i], s.norms[j]
	if na == 0 || nb == 0 {
		return 1.0
	}
	return 1.0 - dot/(na*nb)
}

func (s *VectorSource) innerProduct(i, j int, a, b []float32) float32 {
	var dot float32
	for k := range a {
		dot += a[k] * b[k]
	}
	return -dot
}

func l2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return float32(math.Sqrt(float64(sum)))
}

func norm(v []float32) float32 {
	var sum float32
	for _, x := range v {
		sum += x * x
	}
	return float32(math.Sqrt(float64(sum)))
}
