package ports

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"
)

// ErrDuplicateChecker is returned when attempting to register a health checker
// with a name that is already registered.
var ErrDuplicateChecker = errors.New("duplicate health checker")

// HealthChecker is implemented by adapters that can report readiness,
// such as the SQLite durable store and the remote quote source.
type HealthChecker interface {
	// Name identifies the component in readiness responses.
	Name() string

	// Check returns nil when the component is usable.
	Check(ctx context.Context) error
}

// HealthRegistry aggregates the checks behind /-/ready.
type HealthRegistry interface {
	// Register adds checker. Names must be unique.
	Register(checker HealthChecker) error

	// CheckAll runs every check concurrently under ctx.
	CheckAll(ctx context.Context) *HealthResult
}

// HealthStatus represents the overall health state.
type HealthStatus string

const (
	// HealthStatusHealthy indicates all checks passed.
	HealthStatusHealthy HealthStatus = "healthy"

	// HealthStatusUnhealthy indicates critical checks failed.
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthResult contains the aggregated health check results.
type HealthResult struct {
	// Status is the overall health status.
	Status HealthStatus `json:"status"`

	// Checks contains individual check results keyed by checker name.
	Checks map[string]*CheckResult `json:"checks"`

	// Timestamp is when the health check was performed.
	Timestamp time.Time `json:"timestamp"`
}

// CheckResult contains the result of a single health check.
type CheckResult struct {
	// Status is the health status of this component.
	Status HealthStatus `json:"status"`

	// Message provides additional context, especially on failure.
	Message string `json:"message,omitempty"`

	// Duration is how long the check took.
	Duration time.Duration `json:"duration"`
}

// DefaultCheckTimeout bounds a single check so a slow remote source cannot
// stall the readiness probe.
const DefaultCheckTimeout = 2 * time.Second

// DefaultHealthRegistry is a thread-safe implementation of HealthRegistry.
type DefaultHealthRegistry struct {
	mu       sync.RWMutex
	checkers []HealthChecker
	timeout  time.Duration
}

// NewHealthRegistry creates a registry whose checks are bounded by
// DefaultCheckTimeout.
func NewHealthRegistry() *DefaultHealthRegistry {
	return &DefaultHealthRegistry{
		checkers: make([]HealthChecker, 0),
		timeout:  DefaultCheckTimeout,
	}
}

// SetCheckTimeout changes the per-check bound. Zero or negative removes it.
func (r *DefaultHealthRegistry) SetCheckTimeout(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.timeout = d
}

// Register adds a health checker to the registry.
// Returns an error if a checker with the same name is already registered.
func (r *DefaultHealthRegistry) Register(checker HealthChecker) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := checker.Name()
	for _, c := range r.checkers {
		if c.Name() == name {
			return fmt.Errorf("%w: %s", ErrDuplicateChecker, name)
		}
	}

	r.checkers = append(r.checkers, checker)

	return nil
}

// CheckAll runs all registered health checks concurrently. Any failing or
// timed-out check makes the overall status unhealthy.
func (r *DefaultHealthRegistry) CheckAll(ctx context.Context) *HealthResult {
	r.mu.RLock()
	checkers := slices.Clone(r.checkers)
	timeout := r.timeout
	r.mu.RUnlock()

	result := &HealthResult{
		Status:    HealthStatusHealthy,
		Checks:    make(map[string]*CheckResult, len(checkers)),
		Timestamp: time.Now(),
	}

	results := make([]*CheckResult, len(checkers))

	var wg sync.WaitGroup

	for i, checker := range checkers {
		wg.Go(func() {
			results[i] = runCheck(ctx, checker, timeout)
		})
	}

	wg.Wait()

	for i, checker := range checkers {
		result.Checks[checker.Name()] = results[i]

		if results[i].Status == HealthStatusUnhealthy {
			result.Status = HealthStatusUnhealthy
		}
	}

	return result
}

func runCheck(ctx context.Context, checker HealthChecker, timeout time.Duration) *CheckResult {
	if timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	err := checker.Check(ctx)

	res := &CheckResult{Status: HealthStatusHealthy, Duration: time.Since(start)}

	switch {
	case err == nil && ctx.Err() == nil:
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		res.Status = HealthStatusUnhealthy
		res.Message = fmt.Sprintf("check timed out after %s", timeout)
	case err != nil:
		res.Status = HealthStatusUnhealthy
		res.Message = err.Error()
	default:
		res.Status = HealthStatusUnhealthy
		res.Message = ctx.Err().Error()
	}

	return res
}
