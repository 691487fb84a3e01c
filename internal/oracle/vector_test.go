package oracle

import (
	"errors"
	"math"
	"testing"
)

func TestNewVectorSourceRejectsEmptyData(t *testing.T) {
	_, err := NewVectorSource("empty", nil, L2)
	var oracleErr *Error
	if !errors.As(err, &oracleErr) || oracleErr.Code != ErrEmptyData {
		t.Fatalf("expected ErrEmptyData, got %v", err)
	}
}

func TestNewVectorSourceRejectsZeroDimension(t *testing.T) {
	_, err := NewVectorSource("zero-dim", [][]float32{{}}, L2)
	var oracleErr *Error
	if !errors.As(err, &oracleErr) || oracleErr.Code != ErrZeroDimension {
		t.Fatalf("expected ErrZeroDimension, got %v", err)
	}
}

func TestNewVectorSourceRejectsDimensionMismatch(t *testing.T) {
	_, err := NewVectorSource("mismatch", [][]float32{{1, 2}, {1, 2, 3}}, L2)
	var oracleErr *Error
	if !errors.As(err, &oracleErr) || oracleErr.Code != ErrDimensionMismatch {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestVectorSourceL2Distance(t *testing.T) {
	src, err := NewVectorSource("l2", [][]float32{{0, 0}, {3, 4}}, L2)
	if err != nil {
		t.Fatalf("NewVectorSource: %v", err)
	}
	d, err := src.Distance(0, 1)
	if err != nil {
		t.Fatalf("Distance: %v", err)
	}
	if math.Abs(float64(d)-5.0) > 1e-6 {
		t.Errorf("expected distance 5.0, got %v", d)
	}
}

func TestVectorSourceDistanceOutOfBounds(t *testing.T) {
	src, err := NewVectorSource("l2", [][]float32{{0, 0}}, L2)
	if err != nil {
		t.Fatalf("NewVectorSource: %v", err)
	}
	_, err = src.Distance(0, 5)
	var oracleErr *Error
	if !errors.As(err, &oracleErr) || oracleErr.Code != ErrOutOfBounds {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
}

func TestVectorSourceCosineDistanceOfIdenticalVectorsIsZero(t *testing.T) {
	src, err := NewVectorSource("cosine", [][]float32{{1, 1}, {2, 2}}, Cosine)
	if err != nil {
		t.Fatalf("NewVectorSource: %v", err)
	}
	d, err := src.Distance(0, 1)
	if err != nil {
		t.Fatalf("Distance: %v", err)
	}
	if math.Abs(float64(d)) > 1e-6 {
		t.Errorf("expected parallel vectors to have cosine distance ~0, got %v", d)
	}
}

func TestVectorSourceBatchDistancesMatchesDistance(t *testing.T) {
	src, err := NewVectorSource("batch", [][]float32{{0, 0}, {3, 4}, {6, 8}}, L2)
	if err != nil {
		t.Fatalf("NewVectorSource: %v", err)
	}
	batch, err := src.BatchDistances(0, []int{1, 2})
	if err != nil {
		t.Fatalf("BatchDistances: %v", err)
	}
	for i, candidate := range []int{1, 2} {
		want, err := src.Distance(0, candidate)
		if err != nil {
			t.Fatalf("Distance: %v", err)
		}
		if batch[i] != want {
			t.Errorf("BatchDistances[%d] = %v, want %v", i, batch[i], want)
		}
	}
}

func TestIsEmpty(t *testing.T) {
	src, err := NewVectorSource("one-item", [][]float32{{1}}, L2)
	if err != nil {
		t.Fatalf("NewVectorSource: %v", err)
	}
	if IsEmpty(src) {
		t.Error("expected a one-item source to not be empty")
	}
}
