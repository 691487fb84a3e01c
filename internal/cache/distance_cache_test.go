package cache

import (
	"math"
	"testing"
	"time"

	"github.com/denseforest/fishdbc/internal/oracle"
)

func TestBeginLookupMissThenComplete(t *testing.T) {
	c := New(Config{MaxEntries: 16})

	_, ok, miss := c.BeginLookup("l2", 1, 2)
	if ok {
		t.Fatal("expected miss on empty cache")
	}
	if miss == nil {
		t.Fatal("expected a pending miss")
	}

	value, err := c.CompleteMiss(miss, 3.5)
	if err != nil {
		t.Fatalf("CompleteMiss returned error: %v", err)
	}
	if value != 3.5 {
		t.Errorf("expected 3.5, got %v", value)
	}

	got, ok, _ := c.BeginLookup("l2", 1, 2)
	if !ok {
		t.Fatal("expected hit after completing miss")
	}
	if got != 3.5 {
		t.Errorf("expected cached 3.5, got %v", got)
	}
}

func TestBeginLookupIsOrderIndependent(t *testing.T) {
	c := New(Config{MaxEntries: 16})
	miss := mustMiss(t, c, "l2", 2, 7)
	if _, err := c.CompleteMiss(miss, 9.0); err != nil {
		t.Fatalf("CompleteMiss returned error: %v", err)
	}

	got, ok, _ := c.BeginLookup("l2", 7, 2)
	if !ok {
		t.Fatal("expected hit regardless of argument order")
	}
	if got != 9.0 {
		t.Errorf("expected 9.0, got %v", got)
	}
}

func TestDistinctMetricsDoNotCollide(t *testing.T) {
	c := New(Config{MaxEntries: 16})
	miss := mustMiss(t, c, "l2", 1, 2)
	if _, err := c.CompleteMiss(miss, 1.0); err != nil {
		t.Fatalf("CompleteMiss returned error: %v", err)
	}

	if _, ok, _ := c.BeginLookup("cosine", 1, 2); ok {
		t.Fatal("expected miss for a different metric descriptor")
	}
}

func TestCompleteMissRejectsNonFiniteDistance(t *testing.T) {
	c := New(Config{MaxEntries: 16})
	miss := mustMiss(t, c, "l2", 1, 2)

	if _, err := c.CompleteMiss(miss, float32(math.Inf(1))); err == nil {
		t.Fatal("expected non-finite distance to be rejected")
	}
	if c.Len() != 0 {
		t.Errorf("rejected entry must not be cached, got len %d", c.Len())
	}
}

func TestEvictionRespectsMaxEntries(t *testing.T) {
	c := New(Config{MaxEntries: 2})
	for i := uint32(0); i < 3; i++ {
		miss := mustMiss(t, c, "l2", i, i+10)
		if _, err := c.CompleteMiss(miss, float32(i)); err != nil {
			t.Fatalf("CompleteMiss returned error: %v", err)
		}
	}
	if c.Len() > 2 {
		t.Errorf("expected at most 2 entries after eviction, got %d", c.Len())
	}
	if c.Evictions == 0 {
		t.Error("expected at least one eviction")
	}
}

func TestTTLExpiryIsTreatedAsMiss(t *testing.T) {
	c := New(Config{MaxEntries: 16, TTL: time.Millisecond})
	miss := mustMiss(t, c, "l2", 1, 2)
	if _, err := c.CompleteMiss(miss, 4.0); err != nil {
		t.Fatalf("CompleteMiss returned error: %v", err)
	}

	time.Sleep(5 * time.Millisecond)

	if _, ok, missAgain := c.BeginLookup("l2", 1, 2); ok || missAgain == nil {
		t.Fatal("expected expired entry to be reported as a miss")
	}
}

func mustMiss(t *testing.T, c *DistanceCache, metric oracle.MetricDescriptor, i, j uint32) *Miss {
	t.Helper()
	_, ok, miss := c.BeginLookup(metric, i, j)
	if ok {
		t.Fatalf("expected miss for (%d,%d), got hit", i, j)
	}
	return miss
}
