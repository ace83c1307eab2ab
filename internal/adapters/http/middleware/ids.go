package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotebook/internal/platform/logging"
)

const (
	// HeaderRequestID carries the per-request identifier.
	HeaderRequestID = "X-Request-ID"

	// HeaderCorrelationID carries an identifier shared across services.
	HeaderCorrelationID = "X-Correlation-ID"

	// HeaderSessionID names the viewing session whose ephemeral metadata
	// a request reads and writes. Clients that omit it get a fresh session
	// and learn its ID from the response header.
	HeaderSessionID = "X-Session-ID"

	// ContextKeyRequestID is the gin context key for the request ID.
	ContextKeyRequestID = "request_id"

	// ContextKeyCorrelationID is the gin context key for the correlation ID.
	ContextKeyCorrelationID = "correlation_id"

	// ContextKeySessionID is the gin context key for the session ID.
	ContextKeySessionID = "session_id"
)

// RequestID extracts or generates the X-Request-ID header value.
func RequestID() gin.HandlerFunc {
	return createIDMiddleware(idMiddlewareConfig{
		headerName: HeaderRequestID,
		ginKey:     ContextKeyRequestID,
		enrichers:  []idEnricher{ContextWithRequestID, logging.WithRequestID},
	})
}

// CorrelationID extracts or generates the X-Correlation-ID header value.
func CorrelationID() gin.HandlerFunc {
	return createIDMiddleware(idMiddlewareConfig{
		headerName: HeaderCorrelationID,
		ginKey:     ContextKeyCorrelationID,
		enrichers:  []idEnricher{ContextWithCorrelationID, logging.WithCorrelationID},
	})
}

// Session extracts or generates the X-Session-ID header value.
func Session() gin.HandlerFunc {
	return createIDMiddleware(idMiddlewareConfig{
		headerName: HeaderSessionID,
		ginKey:     ContextKeySessionID,
		enrichers:  []idEnricher{ContextWithSessionID, logging.WithSessionID},
	})
}

// GetRequestID returns the request ID from the gin context, or "".
func GetRequestID(c *gin.Context) string {
	return getIDFromContext(c, ContextKeyRequestID)
}

// GetCorrelationID returns the correlation ID from the gin context, or "".
func GetCorrelationID(c *gin.Context) string {
	return getIDFromContext(c, ContextKeyCorrelationID)
}

// GetSessionID returns the session ID from the gin context, or "".
func GetSessionID(c *gin.Context) string {
	return getIDFromContext(c, ContextKeySessionID)
}
