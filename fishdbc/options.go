package fishdbc

import (
	"time"

	"github.com/denseforest/fishdbc/internal/cache"
	"github.com/denseforest/fishdbc/internal/hnsw"
	"github.com/denseforest/fishdbc/internal/memguard"
	"github.com/denseforest/fishdbc/internal/obs"
)

// config holds every tunable for a Run invocation. It starts from
// hnsw.DefaultConfig() and cache.DefaultConfig(); use the With* options
// to override individual fields. An overridden value is kept as given and
// checked by validate, so a zero HNSW parameter is rejected rather than
// replaced by its default.
type config struct {
	hnsw           hnsw.Config
	cacheConfig    cache.Config
	minClusterSize int
	metrics        *obs.Metrics
	breaker        *obs.CircuitBreaker
}

// Option customizes a Run invocation.
type Option func(*config)

func newConfig(minClusterSize int) *config {
	return &config{
		hnsw:           *hnsw.DefaultConfig(),
		cacheConfig:    cache.DefaultConfig(),
		minClusterSize: minClusterSize,
	}
}

// WithMaxConnections sets M, the per-level fan-out cap above level 0.
func WithMaxConnections(m int) Option {
	return func(c *config) { c.hnsw.M = m }
}

// WithEfConstruction sets the candidate list width used while building.
func WithEfConstruction(ef int) Option {
	return func(c *config) { c.hnsw.EfConstruction = ef }
}

// WithEfSearch sets the default candidate list width used while querying.
func WithEfSearch(ef int) Option {
	return func(c *config) { c.hnsw.EfSearch = ef }
}

// WithMaxLevel caps the level sampled for any node (default 12).
func WithMaxLevel(level int) Option {
	return func(c *config) { c.hnsw.MaxLevel = level }
}

// WithSeed fixes the base RNG seed for a deterministic build.
func WithSeed(seed uint64) Option {
	return func(c *config) { c.hnsw.Seed = seed }
}

// WithWorkers sets the goroutine count for parallel HNSW build and MSF
// construction. A value <= 0 means GOMAXPROCS for the HNSW build and a
// single worker for MSF construction.
func WithWorkers(workers int) Option {
	return func(c *config) { c.hnsw.Workers = workers }
}

// WithDistanceCacheSize bounds the distance cache's entry count.
func WithDistanceCacheSize(maxEntries int) Option {
	return func(c *config) { c.cacheConfig.MaxEntries = maxEntries }
}

// WithDistanceCacheTTL expires a cached distance after ttl.
func WithDistanceCacheTTL(ttl time.Duration) Option {
	return func(c *config) { c.cacheConfig.TTL = ttl }
}

// WithMetrics records Prometheus counters and histograms for the run
// against m.
func WithMetrics(m *obs.Metrics) Option {
	return func(c *config) { c.metrics = m }
}

// WithOracleCircuitBreaker guards core-distance computation's repeated
// oracle lookups behind a circuit breaker, so a misbehaving oracle (one
// that starts erroring under load) fails fast instead of stalling every
// remaining lookup one timeout at a time.
func WithOracleCircuitBreaker(cfg obs.CircuitBreakerConfig) Option {
	return func(c *config) { c.breaker = obs.NewCircuitBreaker(cfg) }
}

// WithMemoryBudget bounds heap growth during the HNSW build: past
// softLimit bytes it requests a GC cycle, past hardLimit bytes it aborts
// the build. A zero limit disables that half of the check.
func WithMemoryBudget(softLimit, hardLimit uint64) Option {
	return func(c *config) {
		c.hnsw.MemGuard = memguard.New(memguard.Config{SoftLimit: softLimit, HardLimit: hardLimit})
	}
}

func (c *config) validate(n int) error {
	if c.minClusterSize < 1 {
		return newError(KindConfiguration, "InvalidMinClusterSize: must be >= 1", nil)
	}
	if c.minClusterSize > n {
		return newError(KindConfiguration, "InvalidMinClusterSize: exceeds item count", nil)
	}
	if err := c.hnsw.Validate(); err != nil {
		return newError(KindConfiguration, "InvalidParameters", err)
	}
	return nil
}
