package acl

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/jsamuelsen/quotebook/internal/adapters/clients"
	"github.com/jsamuelsen/quotebook/internal/domain"
)

// maxRemoteMessage caps how much of a remote error message is kept in the
// reason shown to users.
const maxRemoteMessage = 200

// ErrorResponse is an error body from the remote. Both the nested
// (error.message) and flat (message) shapes are accepted; JSONPlaceholder
// itself answers errors with an empty object.
type ErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
	Message string `json:"message,omitempty"`
}

// GetMessage returns the message from either shape.
func (e *ErrorResponse) GetMessage() string {
	if e.Error.Message != "" {
		return e.Error.Message
	}

	return e.Message
}

// ParseErrorResponse decodes an error body. It returns nil when the body is
// empty, not JSON, or carries no message.
func ParseErrorResponse(body io.Reader) *ErrorResponse {
	if body == nil {
		return nil
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(io.LimitReader(body, 64<<10)).Decode(&errResp); err != nil {
		return nil
	}

	if errResp.GetMessage() == "" {
		return nil
	}

	return &errResp
}

// MapHTTPError maps a failed exchange with the remote quote source to a
// domain error. resp may be nil when clientErr is set; a 2xx response maps
// to nil.
//
// Any failure of the remote is a sync failure: the sync is marked failed
// and the local collection is left alone. Every case therefore yields a
// *domain.UnavailableError whose reason names the operation and, when
// there is one, the status and the remote's own message.
func MapHTTPError(resp *http.Response, clientErr error, serviceName, operation string) error {
	if clientErr != nil {
		return domain.NewUnavailableError(serviceName, clientReason(clientErr, operation))
	}

	if resp == nil {
		return domain.NewUnavailableError(serviceName, operation+": no response received")
	}

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}

	reason := fmt.Sprintf("%s failed with status %d (%s)", operation, resp.StatusCode, statusHint(resp.StatusCode))

	if resp.Body != nil {
		if errResp := ParseErrorResponse(resp.Body); errResp != nil {
			reason += ": " + truncate(errResp.GetMessage(), maxRemoteMessage)
		}
	}

	return domain.NewUnavailableError(serviceName, reason)
}

func clientReason(err error, operation string) string {
	var statusErr *clients.StatusError

	switch {
	case errors.Is(err, clients.ErrCircuitOpen):
		return "circuit breaker open during " + operation
	case errors.As(err, &statusErr):
		return fmt.Sprintf("%s failed with status %d (%s)", operation, statusErr.StatusCode, statusHint(statusErr.StatusCode))
	case errors.Is(err, clients.ErrMaxRetriesExceeded):
		return "max retries exceeded during " + operation
	default:
		return fmt.Sprintf("%s failed: %v", operation, err)
	}
}

func statusHint(status int) string {
	switch {
	case status == http.StatusNotFound:
		return "endpoint not found"
	case status == http.StatusConflict:
		return "remote rejected the snapshot"
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return "access denied"
	case status == http.StatusTooManyRequests:
		return "rate limited"
	case status >= http.StatusInternalServerError:
		return "remote error"
	default:
		return "unexpected response"
	}
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}

	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}

	return s[:n] + "..."
}
