package hnsw

import (
	"context"
	"testing"

	"github.com/denseforest/fishdbc/internal/cache"
	"github.com/denseforest/fishdbc/internal/oracle"
	"github.com/denseforest/fishdbc/internal/util"
)

func gridSource(t *testing.T, n int) *oracle.VectorSource {
	t.Helper()
	vectors := make([][]float32, n)
	for i := range vectors {
		vectors[i] = []float32{float32(i), float32(i % 3)}
	}
	src, err := oracle.NewVectorSource("grid", vectors, oracle.L2)
	if err != nil {
		t.Fatalf("NewVectorSource: %v", err)
	}
	return src
}

func newTestIndex(t *testing.T, n int) *Index {
	t.Helper()
	src := gridSource(t, n)
	cfg := DefaultConfig()
	cfg.Seed = 7
	idx, err := NewIndex(cfg, src, cache.New(cache.DefaultConfig()))
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	return idx
}

func TestBuildInsertsEveryItemSerially(t *testing.T) {
	idx := newTestIndex(t, 50)
	idx.cfg.Workers = 1
	if err := Build(context.Background(), idx); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := idx.Size(); got != 50 {
		t.Fatalf("Size() = %d, want 50", got)
	}
}

func TestBuildInsertsEveryItemWithMultipleWorkers(t *testing.T) {
	idx := newTestIndex(t, 200)
	idx.cfg.Workers = 8
	if err := Build(context.Background(), idx); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := idx.Size(); got != 200 {
		t.Fatalf("Size() = %d, want 200", got)
	}
}

func TestLinksAreReciprocal(t *testing.T) {
	idx := newTestIndex(t, 100)
	if err := Build(context.Background(), idx); err != nil {
		t.Fatalf("Build: %v", err)
	}

	for _, node := range idx.nodes {
		if node == nil {
			continue
		}
		for level, links := range node.Links {
			for _, neighborID := range links {
				neighbor := idx.nodes[neighborID]
				if neighbor == nil || level >= len(neighbor.Links) {
					t.Fatalf("node %d links to %d at level %d, but neighbor has no such level", node.ID, neighborID, level)
				}
				if !containsID(neighbor.Links[level], node.ID) {
					t.Errorf("edge (%d -> %d) at level %d is not reciprocated", node.ID, neighborID, level)
				}
			}
		}
	}
}

func TestLinksRespectDegreeCaps(t *testing.T) {
	idx := newTestIndex(t, 150)
	if err := Build(context.Background(), idx); err != nil {
		t.Fatalf("Build: %v", err)
	}

	for _, node := range idx.nodes {
		if node == nil {
			continue
		}
		for level, links := range node.Links {
			capLimit := idx.capForLevel(level)
			if len(links) > capLimit {
				t.Errorf("node %d has %d links at level %d, exceeds cap %d", node.ID, len(links), level, capLimit)
			}
		}
	}
}

func TestSearchIncludesQueryWhenEfAllowsIt(t *testing.T) {
	idx := newTestIndex(t, 64)
	idx.cfg.EfSearch = 10
	if err := Build(context.Background(), idx); err != nil {
		t.Fatalf("Build: %v", err)
	}

	result, err := idx.Search(5, 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(result) == 0 {
		t.Fatal("Search returned no results")
	}
	if !containsCandidate(result, 5) {
		t.Errorf("Search(5, ...) = %+v, expected query id 5 among results", result)
	}
	if result[0].ID != 5 || result[0].Distance != 0 {
		t.Errorf("expected query id 5 at distance 0 to sort first, got %+v", result[0])
	}
}

func TestHealBaseLayerReconnectsIsolatedNode(t *testing.T) {
	idx := newTestIndex(t, 30)
	if err := Build(context.Background(), idx); err != nil {
		t.Fatalf("Build: %v", err)
	}

	victim := idx.nodes[10]
	victim.Links[0] = victim.Links[0][:0]

	isolated := map[uint32]bool{10: true}
	if err := idx.healBaseLayer(isolated); err != nil {
		t.Fatalf("healBaseLayer: %v", err)
	}
	if len(victim.Links[0]) == 0 {
		t.Error("expected healBaseLayer to reconnect the isolated node at level 0")
	}
}

func containsID(ids []uint32, target uint32) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}

func containsCandidate(candidates []*util.Candidate, target uint32) bool {
	for _, c := range candidates {
		if c.ID == target {
			return true
		}
	}
	return false
}
