package obs

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// CircuitState represents the state of a circuit breaker guarding the
// distance oracle.
type CircuitState int

const (
	// CircuitClosed - oracle lookups are allowed through
	CircuitClosed CircuitState = iota
	// CircuitOpen - the oracle is failing; lookups are rejected without
	// running them
	CircuitOpen
	// CircuitHalfOpen - testing whether the oracle has recovered
	CircuitHalfOpen
)

// String returns the string representation of circuit state.
func (cs CircuitState) String() string {
	switch cs {
	case CircuitClosed:
		return "CLOSED"
	case CircuitOpen:
		return "OPEN"
	case CircuitHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// CircuitBreakerConfig configures how aggressively a breaker trips when
// the distance oracle it guards starts failing.
type CircuitBreakerConfig struct {
	// Name identifies the circuit breaker, e.g. "core-distance-oracle".
	Name string

	// MaxFailures is the number of failures before opening the circuit.
	MaxFailures int

	// Timeout is how long to wait before probing the oracle again.
	Timeout time.Duration

	// MaxRequests is the number of trial lookups allowed in half-open
	// state before the circuit closes again.
	MaxRequests int

	// FailureThreshold is the failure rate (0.0-1.0) that opens the
	// circuit once MinRequests lookups have been attempted.
	FailureThreshold float64

	// MinRequests is the minimum number of lookups before the failure
	// rate is evaluated.
	MinRequests int

	// ResetTimeout is how long a closed circuit runs before its failure
	// count resets to zero.
	ResetTimeout time.Duration
}

// DefaultCircuitBreakerConfig returns sensible defaults for guarding a
// single oracle's lookups.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxFailures:      5,
		Timeout:          30 * time.Second,
		MaxRequests:      3,
		FailureThreshold: 0.6, // 60% failure rate
		MinRequests:      10,
		ResetTimeout:     60 * time.Second,
	}
}

// CircuitBreaker wraps a flaky operation — in this pipeline, a distance
// oracle lookup — so that a run of failures fails fast instead of
// stalling every remaining lookup behind its own timeout.
type CircuitBreaker struct {
	mu     sync.RWMutex
	config CircuitBreakerConfig
	state  CircuitState

	failures   int
	successes  int
	requests   int
	generation int64
	expiry     time.Time
}

// NewCircuitBreaker creates a new circuit breaker.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{
		config: config,
		state:  CircuitClosed,
		expiry: time.Now().Add(config.ResetTimeout),
	}
}

// Execute runs fn with circuit breaker protection: a request is rejected
// without running fn if the circuit is open, or if it is half-open and
// already at its trial request limit.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() error) error {
	generation, err := cb.beforeRequest()
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			cb.afterRequest(generation, fmt.Errorf("panic: %v", r))
			panic(r)
		}
	}()

	err = fn()
	cb.afterRequest(generation, err)
	return err
}

func (cb *CircuitBreaker) beforeRequest() (int64, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := time.Now()
	state, generation := cb.currentState(now)

	if state == CircuitOpen {
		return generation, fmt.Errorf("circuit breaker '%s' is open", cb.config.Name)
	}

	if state == CircuitHalfOpen && cb.requests >= cb.config.MaxRequests {
		return generation, fmt.Errorf("circuit breaker '%s' is half-open and max requests exceeded", cb.config.Name)
	}

	cb.requests++
	return generation, nil
}

func (cb *CircuitBreaker) afterRequest(generation int64, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := time.Now()
	state, currentGeneration := cb.currentState(now)

	if generation != currentGeneration {
		return // request was from a previous generation, ignore
	}

	if err != nil {
		cb.onFailure(state)
	} else {
		cb.onSuccess(state)
	}
}

func (cb *CircuitBreaker) onFailure(state CircuitState) {
	cb.failures++

	switch state {
	case CircuitClosed:
		if cb.shouldOpen() {
			cb.setState(CircuitOpen, time.Now())
		}
	case CircuitHalfOpen:
		cb.setState(CircuitOpen, time.Now())
	}
}

func (cb *CircuitBreaker) onSuccess(state CircuitState) {
	cb.successes++

	if state == CircuitHalfOpen && cb.successes >= cb.config.MaxRequests {
		cb.setState(CircuitClosed, time.Now())
	}
}

func (cb *CircuitBreaker) shouldOpen() bool {
	if cb.failures >= cb.config.MaxFailures {
		return true
	}

	if cb.requests >= cb.config.MinRequests {
		failureRate := float64(cb.failures) / float64(cb.requests)
		return failureRate >= cb.config.FailureThreshold
	}

	return false
}

func (cb *CircuitBreaker) currentState(now time.Time) (CircuitState, int64) {
	switch cb.state {
	case CircuitClosed:
		if cb.expiry.Before(now) {
			cb.toNewGeneration(now)
		}
	case CircuitOpen:
		if cb.expiry.Before(now) {
			cb.setState(CircuitHalfOpen, now)
		}
	}
	return cb.state, cb.generation
}

func (cb *CircuitBreaker) setState(state CircuitState, now time.Time) {
	if cb.state == state {
		return
	}
	cb.state = state
	cb.toNewGeneration(now)
}

func (cb *CircuitBreaker) toNewGeneration(now time.Time) {
	cb.generation++
	cb.requests = 0
	cb.failures = 0
	cb.successes = 0

	var timeout time.Duration
	switch cb.state {
	case CircuitClosed:
		timeout = cb.config.ResetTimeout
	case CircuitOpen, CircuitHalfOpen:
		timeout = cb.config.Timeout
	}

	cb.expiry = now.Add(timeout)
}

// State returns the current state of the circuit breaker.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	state, _ := cb.currentState(time.Now())
	return state
}
