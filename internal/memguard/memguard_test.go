package memguard

import "testing"

func TestCheckDisabledByDefault(t *testing.T) {
	g := New(DefaultConfig())
	requestGC, abort := g.Check()
	if requestGC || abort {
		t.Fatalf("expected no-op guard to never trip, got requestGC=%v abort=%v", requestGC, abort)
	}
}

func TestCheckHardLimitOfZeroNeverAborts(t *testing.T) {
	g := New(Config{SoftLimit: 1}) // trivially satisfied by any live heap
	_, abort := g.Check()
	if abort {
		t.Fatal("expected a guard with no hard limit to never abort")
	}
}

func TestCheckHardLimitTripsBeforeSoftLimit(t *testing.T) {
	g := New(Config{SoftLimit: 1, HardLimit: 1})
	requestGC, abort := g.Check()
	if !abort {
		t.Fatal("expected an effectively-zero hard limit to trip immediately")
	}
	if requestGC {
		t.Fatal("expected abort to take priority over a GC request")
	}
}
