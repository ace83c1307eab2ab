package clients

import (
	"sync"
	"time"
)

// State is a circuit breaker state.
type State int

const (
	// StateClosed lets every request through.
	StateClosed State = iota

	// StateOpen rejects requests until the cool-down elapses.
	StateOpen

	// StateHalfOpen lets a limited number of probes through.
	StateHalfOpen
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures a CircuitBreaker.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures that opens the circuit.
	MaxFailures int

	// Cooldown is how long the circuit stays open before probing.
	Cooldown time.Duration

	// ProbeLimit is both the number of concurrent probes allowed while
	// half-open and the number of successes needed to close again.
	ProbeLimit int
}

// BreakerSnapshot is a point-in-time view for status reporting.
type BreakerSnapshot struct {
	State       State
	Failures    int
	LastFailure time.Time
}

// CircuitBreaker stops calls to a remote that keeps failing.
//
//	closed --MaxFailures--> open --Cooldown--> half-open --ProbeLimit successes--> closed
//	                                           half-open --any failure--> open
type CircuitBreaker struct {
	mu          sync.Mutex
	cfg         BreakerConfig
	state       State
	failures    int
	successes   int
	inFlight    int
	lastFailure time.Time

	listeners []func(from, to State)
	now       func() time.Time
}

// NewCircuitBreaker creates a closed breaker. Non-positive limits are treated as 1.
func NewCircuitBreaker(cfg BreakerConfig) *CircuitBreaker {
	cfg.MaxFailures = max(cfg.MaxFailures, 1)
	cfg.ProbeLimit = max(cfg.ProbeLimit, 1)

	return &CircuitBreaker{cfg: cfg, now: time.Now}
}

// OnStateChange registers fn to be called after every transition.
func (cb *CircuitBreaker) OnStateChange(fn func(from, to State)) {
	cb.mu.Lock()
	cb.listeners = append(cb.listeners, fn)
	cb.mu.Unlock()
}

// Allow reports whether a request may proceed. Every true result must be
// followed by exactly one RecordSuccess or RecordFailure.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()

	var (
		allowed bool
		notify  func()
	)

	switch cb.state {
	case StateClosed:
		allowed = true
	case StateOpen:
		if cb.now().Sub(cb.lastFailure) >= cb.cfg.Cooldown {
			notify = cb.transition(StateHalfOpen)
			cb.inFlight = 1
			allowed = true
		}
	case StateHalfOpen:
		if cb.inFlight < cb.cfg.ProbeLimit {
			cb.inFlight++
			allowed = true
		}
	}

	cb.mu.Unlock()

	if notify != nil {
		notify()
	}

	return allowed
}

// RecordSuccess reports a completed request.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()

	var notify func()

	switch cb.state {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		cb.inFlight = max(cb.inFlight-1, 0)
		cb.successes++

		if cb.successes >= cb.cfg.ProbeLimit {
			notify = cb.transition(StateClosed)
		}
	}

	cb.mu.Unlock()

	if notify != nil {
		notify()
	}
}

// RecordFailure reports a failed request.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()

	var notify func()

	cb.lastFailure = cb.now()

	switch cb.state {
	case StateClosed:
		cb.failures++

		if cb.failures >= cb.cfg.MaxFailures {
			notify = cb.transition(StateOpen)
		}
	case StateHalfOpen:
		cb.inFlight = max(cb.inFlight-1, 0)
		notify = cb.transition(StateOpen)
	}

	cb.mu.Unlock()

	if notify != nil {
		notify()
	}
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return cb.state
}

// Snapshot returns the current state and failure bookkeeping.
func (cb *CircuitBreaker) Snapshot() BreakerSnapshot {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return BreakerSnapshot{State: cb.state, Failures: cb.failures, LastFailure: cb.lastFailure}
}

// transition switches state and returns the listener call to run after the
// lock is released. Caller holds mu.
func (cb *CircuitBreaker) transition(to State) func() {
	from := cb.state
	if from == to {
		return nil
	}

	cb.state = to
	cb.failures = 0
	cb.successes = 0

	if to != StateHalfOpen {
		cb.inFlight = 0
	}

	listeners := append([]func(from, to State){}, cb.listeners...)

	return func() {
		for _, fn := range listeners {
			fn(from, to)
		}
	}
}
