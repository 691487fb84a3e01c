package harvest

import (
	"reflect"
	"testing"
)

func TestFromUnsortedCanonicalizesSortsAndDedups(t *testing.T) {
	raw := []Edge{
		{Source: 1, Target: 0, Distance: 2.0, Sequence: 1},
		{Source: 0, Target: 2, Distance: 1.0, Sequence: 0},
		{Source: 0, Target: 2, Distance: 1.0, Sequence: 2},
	}

	got := FromUnsorted(raw)

	want := []Edge{
		{Source: 0, Target: 2, Distance: 1.0, Sequence: 0},
		{Source: 0, Target: 1, Distance: 2.0, Sequence: 1},
	}
	if !reflect.DeepEqual(got.Edges, want) {
		t.Fatalf("FromUnsorted = %+v, want %+v", got.Edges, want)
	}
}

func TestFromUnsortedIsAPermutationOfCanonicalizedInput(t *testing.T) {
	raw := []Edge{
		{Source: 3, Target: 1, Distance: 5.0, Sequence: 0},
		{Source: 2, Target: 0, Distance: 3.0, Sequence: 1},
	}
	got := FromUnsorted(raw)
	if len(got.Edges) != len(raw) {
		t.Fatalf("expected %d edges (no duplicates present), got %d", len(raw), len(got.Edges))
	}
	for _, e := range got.Edges {
		if e.Source > e.Target {
			t.Errorf("edge %+v not canonicalized (source > target)", e)
		}
	}
}

func TestDedupIsIdempotent(t *testing.T) {
	raw := []Edge{
		{Source: 0, Target: 1, Distance: 1.0, Sequence: 5},
		{Source: 1, Target: 0, Distance: 1.0, Sequence: 2},
	}
	once := FromUnsorted(raw)
	twice := FromUnsorted(once.Edges)
	if !reflect.DeepEqual(once.Edges, twice.Edges) {
		t.Fatalf("expected idempotent dedup, got %+v then %+v", once.Edges, twice.Edges)
	}
	if len(once.Edges) != 1 {
		t.Fatalf("expected the duplicate pair to collapse to 1 edge, got %d", len(once.Edges))
	}
	if once.Edges[0].Sequence != 2 {
		t.Errorf("expected the lower sequence (2) to win, got %d", once.Edges[0].Sequence)
	}
}

func TestMSFOrderResortsWithoutMutatingHarvest(t *testing.T) {
	h := FromUnsorted([]Edge{
		{Source: 0, Target: 1, Distance: 5.0, Sequence: 0},
		{Source: 1, Target: 2, Distance: 1.0, Sequence: 1},
	})
	original := append([]Edge(nil), h.Edges...)

	msf := h.MSFOrder()
	if msf[0].Distance > msf[1].Distance {
		t.Errorf("expected MSFOrder to sort ascending by weight, got %+v", msf)
	}
	if !reflect.DeepEqual(h.Edges, original) {
		t.Error("MSFOrder must not mutate the harvest's own edge order")
	}
}
