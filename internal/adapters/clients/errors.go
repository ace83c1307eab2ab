// Package clients provides the instrumented HTTP client used to reach the
// remote quote source.
package clients

import (
	"errors"
	"fmt"
)

// Transport-level failures. The ACL translates them into domain errors.
var (
	// ErrCircuitOpen means the breaker rejected the call without sending it.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrMaxRetriesExceeded wraps the last error once every attempt has failed.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)

// StatusError is a 429 or 5xx response that exhausted its retries.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote responded %d", e.StatusCode)
}
