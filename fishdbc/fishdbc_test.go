package fishdbc

import (
	"context"
	"testing"

	"github.com/denseforest/fishdbc/internal/oracle"
)

func twoClusterSource(t *testing.T) *oracle.VectorSource {
	t.Helper()
	points := [][]float32{
		{0.0}, {0.1}, {0.2},
		{10.0}, {10.1}, {10.2},
	}
	src, err := oracle.NewVectorSource("two-clusters", points, oracle.L2)
	if err != nil {
		t.Fatalf("NewVectorSource: %v", err)
	}
	return src
}

func TestRunSeparatesTwoWellSeparatedClusters(t *testing.T) {
	src := twoClusterSource(t)
	result, err := Run(context.Background(), src, 2, WithSeed(1))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.ClusterCount != 2 {
		t.Fatalf("expected 2 clusters, got %d (%v)", result.ClusterCount, result.Assignments)
	}
	if result.HasNoise() {
		t.Errorf("expected no noise, got %v", result.Assignments)
	}
	for i := 0; i < 3; i++ {
		if result.Assignments[i] != result.Assignments[0] {
			t.Errorf("expected points 0-2 in the same cluster, got %v", result.Assignments)
		}
	}
	for i := 3; i < 6; i++ {
		if result.Assignments[i] != result.Assignments[3] {
			t.Errorf("expected points 3-5 in the same cluster, got %v", result.Assignments)
		}
	}
	if result.Assignments[0] == result.Assignments[3] {
		t.Errorf("expected the two clusters to be distinct, got %v", result.Assignments)
	}
}

func TestRunRejectsEmptySource(t *testing.T) {
	src, err := oracle.NewVectorSource("empty", nil, oracle.L2)
	if err == nil {
		t.Fatalf("expected NewVectorSource to reject an empty source, got %v", src)
	}
	if _, err := Run(context.Background(), &oracle.VectorSource{}, 1); err == nil {
		t.Fatal("expected Run to reject a source with no items")
	}
}

func TestRunRejectsMinClusterSizeAboveN(t *testing.T) {
	src := twoClusterSource(t)
	_, err := Run(context.Background(), src, 10)
	if err == nil {
		t.Fatal("expected an error when minClusterSize exceeds N")
	}
}

func TestRunIsDeterministicForAFixedSeedAndWorkerCount(t *testing.T) {
	src := twoClusterSource(t)
	first, err := Run(context.Background(), src, 2, WithSeed(42), WithWorkers(1))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	second, err := Run(context.Background(), src, 2, WithSeed(42), WithWorkers(1))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if first.ClusterCount != second.ClusterCount {
		t.Fatalf("expected identical cluster count across runs, got %d vs %d", first.ClusterCount, second.ClusterCount)
	}
	for i := range first.Assignments {
		if first.Assignments[i] != second.Assignments[i] {
			t.Errorf("assignment for item %d differs across runs: %v vs %v", i, first.Assignments[i], second.Assignments[i])
		}
	}
}
