package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotebook/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotebook/internal/platform/logging"
)

// Timeouts assigns request deadlines. Routes is keyed by the gin route
// pattern (c.FullPath()) and overrides Default; a zero or negative budget
// leaves that route without a deadline.
type Timeouts struct {
	Default time.Duration
	Routes  map[string]time.Duration
}

func (t Timeouts) budget(route string) time.Duration {
	if d, ok := t.Routes[route]; ok {
		return d
	}

	return t.Default
}

// Timeout gives each request the deadline chosen by t. Handlers run on the
// request goroutine and must honor ctx. A handler that outlives its
// deadline without writing a response gets a 503 TIMEOUT envelope.
func Timeout(t Timeouts) gin.HandlerFunc {
	return func(c *gin.Context) {
		budget := t.budget(c.FullPath())
		if budget <= 0 {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), budget)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			abortTimedOut(c, budget)
		}
	}
}

func abortTimedOut(c *gin.Context, budget time.Duration) {
	traceID := dto.GetTraceID(c)

	logging.FromContext(c.Request.Context()).Warn("request exceeded its deadline",
		slog.String("route", c.FullPath()),
		slog.String("method", c.Request.Method),
		slog.Duration("budget", budget),
		slog.Bool("written", c.Writer.Written()),
	)

	if c.Writer.Written() {
		c.Abort()
		return
	}

	c.AbortWithStatusJSON(dto.HTTPStatusFromCode(dto.ErrorCodeTimeout),
		dto.NewErrorResponse(dto.ErrorCodeTimeout, "request timed out after "+budget.String()).WithTraceID(traceID))
}
