// Package memguard is an advisory memory-budget guard for parallel HNSW
// construction: past a soft threshold it requests a GC cycle, past a hard
// ceiling it signals the build to abort rather than risk an OOM kill
// mid-construction.
package memguard

import "runtime"

// Config holds the soft and hard heap thresholds, in bytes. A zero value
// for either threshold disables that check.
type Config struct {
	SoftLimit uint64
	HardLimit uint64
}

// DefaultConfig disables both checks; callers opt in explicitly since the
// right thresholds depend on the host running the build.
func DefaultConfig() Config {
	return Config{}
}

// Guard samples runtime.MemStats on demand via Check; it carries no state
// of its own beyond its configured thresholds.
type Guard struct {
	cfg Config
}

// New returns a Guard over cfg.
func New(cfg Config) *Guard {
	return &Guard{cfg: cfg}
}

// Check samples current heap usage and reports whether the caller should
// request a GC cycle (soft) or abort (hard). A Guard with no thresholds
// configured always reports false, false.
func (g *Guard) Check() (requestGC, abort bool) {
	if g.cfg.SoftLimit == 0 && g.cfg.HardLimit == 0 {
		return false, false
	}
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	if g.cfg.HardLimit != 0 && stats.HeapAlloc >= g.cfg.HardLimit {
		return false, true
	}
	if g.cfg.SoftLimit != 0 && stats.HeapAlloc >= g.cfg.SoftLimit {
		return true, false
	}
	return false, false
}
