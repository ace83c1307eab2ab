package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotebook/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quotebook/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quotebook/internal/platform/config"
	"github.com/jsamuelsen/quotebook/internal/platform/telemetry"
)

// DefaultRequestTimeout applies when RouterConfig.Timeout is zero.
const DefaultRequestTimeout = 30 * time.Second

// RouterConfig contains the handlers and settings for the router.
type RouterConfig struct {
	Logger    *slog.Logger
	AppConfig *config.AppConfig

	HealthHandler  *handlers.HealthHandler
	QuoteHandler   *handlers.QuoteHandler
	SessionHandler *handlers.SessionHandler
	SyncHandler    *handlers.SyncHandler

	// Timeout bounds each /api/v1 request. Negative disables it.
	Timeout time.Duration

	// RouteTimeouts overrides Timeout for individual route patterns such as
	// "/api/v1/sync". Negative disables the deadline for that route.
	RouteTimeouts map[string]time.Duration
}

// SetupRouter configures middleware and routes on the engine.
// Middleware order (first to last):
//  1. Recovery
//  2. Context logger
//  3. Request, correlation and session IDs
//  4. OpenTelemetry
//  5. Logging (skips /-/ endpoints)
//  6. Timeout (/api/v1 only)
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	engine.Use(
		middleware.Recovery(cfg.Logger),
		middleware.ContextLogger(cfg.Logger),
		middleware.RequestID(),
		middleware.CorrelationID(),
		middleware.Session(),
	)
	engine.Use(telemetry.Middleware(cfg.AppConfig.Name)...)
	engine.Use(middleware.Logging(cfg.Logger))

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterHealthRoutesOnEngine(engine)
	}

	apiV1 := engine.Group("/api/v1")

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultRequestTimeout
	}

	if timeout > 0 || len(cfg.RouteTimeouts) > 0 {
		apiV1.Use(middleware.Timeout(middleware.Timeouts{Default: timeout, Routes: cfg.RouteTimeouts}))
	}

	setupAPIRoutes(apiV1, cfg)
}

func setupAPIRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.QuoteHandler != nil {
		cfg.QuoteHandler.RegisterRoutes(rg)
	}

	if cfg.SessionHandler != nil {
		cfg.SessionHandler.RegisterRoutes(rg)
	}

	if cfg.SyncHandler != nil {
		cfg.SyncHandler.RegisterRoutes(rg)
	}
}

// SetupMinimalRouter registers only the health endpoints.
func SetupMinimalRouter(engine *gin.Engine, logger *slog.Logger, healthHandler *handlers.HealthHandler) {
	engine.Use(
		middleware.Recovery(logger),
		middleware.RequestID(),
	)

	if healthHandler != nil {
		healthHandler.RegisterHealthRoutesOnEngine(engine)
	}
}
