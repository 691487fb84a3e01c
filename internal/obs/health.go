package obs

import "context"

// CheckResult is the outcome of a single named health check.
type CheckResult struct {
	Healthy bool
	Message string
}

// HealthStatus aggregates every check run for a clustering run's
// dependencies (the distance oracle, the build index).
type HealthStatus struct {
	Status string
	Checks map[string]*CheckResult
}

// HealthChecker probes whether the pieces a clustering run depends on
// (an oracle.Source, the HNSW index once built) are still usable.
type HealthChecker struct {
	probes map[string]func(ctx context.Context) *CheckResult
}

// NewHealthChecker creates an empty health checker; callers register
// probes with RegisterProbe.
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{probes: make(map[string]func(ctx context.Context) *CheckResult)}
}

// RegisterProbe adds a named check, e.g. "oracle" or "distance_cache".
func (hc *HealthChecker) RegisterProbe(name string, probe func(ctx context.Context) *CheckResult) {
	hc.probes[name] = probe
}

// Check runs every registered probe and reports "healthy" only if all of
// them report healthy.
func (hc *HealthChecker) Check(ctx context.Context) (*HealthStatus, error) {
	status := &HealthStatus{Status: "healthy", Checks: make(map[string]*CheckResult, len(hc.probes))}
	if len(hc.probes) == 0 {
		status.Checks["basic"] = &CheckResult{Healthy: true, Message: "no probes registered"}
		return status, nil
	}
	for name, probe := range hc.probes {
		result := probe(ctx)
		status.Checks[name] = result
		if !result.Healthy {
			status.Status = "unhealthy"
		}
	}
	return status, nil
}
