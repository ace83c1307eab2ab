package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type idEnricher = func(ctx context.Context, id string) context.Context

// idMiddlewareConfig describes one header-carried identifier.
type idMiddlewareConfig struct {
	headerName string
	ginKey     string

	// enrichers run in order against the request context.
	enrichers []idEnricher
}

// createIDMiddleware reads the identifier from its header, generating a
// UUID when absent, and publishes it to the gin context, the request
// context, and the response headers.
func createIDMiddleware(cfg idMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(cfg.headerName)
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(cfg.ginKey, id)
		c.Header(cfg.headerName, id)

		ctx := c.Request.Context()
		for _, enrich := range cfg.enrichers {
			ctx = enrich(ctx, id)
		}

		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func getIDFromContext(c *gin.Context, key string) string {
	if id, exists := c.Get(key); exists {
		if s, ok := id.(string); ok {
			return s
		}
	}

	return ""
}
