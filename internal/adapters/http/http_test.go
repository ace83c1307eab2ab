package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotebook/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quotebook/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quotebook/internal/adapters/storage"
	"github.com/jsamuelsen/quotebook/internal/app"
	"github.com/jsamuelsen/quotebook/internal/mocks"
	"github.com/jsamuelsen/quotebook/internal/platform/config"
	"github.com/jsamuelsen/quotebook/internal/ports"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testServerConfig() *config.ServerConfig {
	return &config.ServerConfig{
		Host:           "127.0.0.1",
		Port:           0,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    30 * time.Second,
		MaxRequestSize: 1 << 20,
	}
}

// apiRouterConfig wires every handler over in-memory stores.
func apiRouterConfig(t *testing.T) RouterConfig {
	t.Helper()

	logger := discardLogger()
	backend := storage.NewMemoryStore()

	store := app.NewQuoteStore(app.QuoteStoreConfig{Durable: backend, Logger: logger})
	require.NoError(t, store.Load(context.Background()))

	recorder := app.NewSessionRecorder(storage.NewSessionStore(time.Hour), nil)
	view := app.NewViewService(app.ViewServiceConfig{Store: store, Recorder: recorder, Logger: logger})
	syncSvc := app.NewSyncService(app.SyncServiceConfig{
		Store:   store,
		Remote:  storage.NewSimulatedRemote(backend),
		Durable: backend,
		Logger:  logger,
	})

	registry := ports.NewHealthRegistry()
	require.NoError(t, registry.Register(backend))

	return RouterConfig{
		Logger:         logger,
		AppConfig:      &config.AppConfig{Name: "quotebook", Environment: "test", Version: "1.0.0"},
		HealthHandler:  handlers.NewHealthHandler(registry, handlers.BuildInfo{Version: "1.0.0"}, prometheus.NewRegistry()),
		QuoteHandler:   handlers.NewQuoteHandler(store, view, app.NewTransfer(store, logger, nil)),
		SessionHandler: handlers.NewSessionHandler(recorder, nil),
		SyncHandler:    handlers.NewSyncHandler(syncSvc),
	}
}

func TestServerNew(t *testing.T) {
	cfg := testServerConfig()
	cfg.Port = 8080
	logger := discardLogger()

	srv := New(cfg, logger)

	require.NotNil(t, srv)
	assert.NotNil(t, srv.Engine())
	assert.Equal(t, cfg, srv.Config())
	assert.Equal(t, "127.0.0.1:8080", srv.Addr())
}

func TestServerStartShutdown(t *testing.T) {
	srv := New(testServerConfig(), discardLogger())
	srv.Engine().GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	errCh := srv.Start()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	default:
	}

	assert.NotEqual(t, "127.0.0.1:0", srv.Addr(), "port 0 resolves to the bound port")

	resp, err := http.Get("http://" + srv.Addr() + "/ping")
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, "pong", string(body))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, srv.Shutdown(ctx))

	select {
	case _, ok := <-errCh:
		assert.False(t, ok, "error channel should be closed")
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for server to stop")
	}
}

func TestServerStart_ListenError(t *testing.T) {
	cfg := testServerConfig()
	cfg.Host = "256.0.0.1"

	srv := New(cfg, discardLogger())
	errCh := srv.Start()

	select {
	case err := <-errCh:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "binding 256.0.0.1:0")
	default:
		t.Fatal("bind error should be reported synchronously")
	}

	_, open := <-errCh
	assert.False(t, open)
	assert.Equal(t, "256.0.0.1:0", srv.Addr())
}

func TestMaxBodySize(t *testing.T) {
	cfg := testServerConfig()
	cfg.MaxRequestSize = 16

	srv := New(cfg, discardLogger())
	srv.Engine().POST("/echo", func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}

		c.String(http.StatusOK, string(body))
	})

	tests := []struct {
		name string
		body string
		want int
	}{
		{"under limit", "small", http.StatusOK},
		{"over limit", strings.Repeat("x", 64), http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			srv.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(tt.body)))

			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestSetupRouter_RegistersAPI(t *testing.T) {
	engine := gin.New()
	SetupRouter(engine, apiRouterConfig(t))

	routes := make(map[string]bool)
	for _, r := range engine.Routes() {
		routes[r.Method+" "+r.Path] = true
	}

	expected := []string{
		"GET /-/live",
		"GET /-/ready",
		"GET /-/build",
		"GET /-/metrics",
		"GET /api/v1/quotes",
		"POST /api/v1/quotes",
		"DELETE /api/v1/quotes",
		"GET /api/v1/quotes/random",
		"GET /api/v1/quotes/export",
		"POST /api/v1/quotes/import",
		"GET /api/v1/quotes/stats",
		"GET /api/v1/categories",
		"GET /api/v1/filter",
		"PUT /api/v1/filter",
		"DELETE /api/v1/filter",
		"GET /api/v1/session",
		"POST /api/v1/sync",
		"POST /api/v1/sync/focus",
		"GET /api/v1/sync/status",
		"POST /api/v1/sync/resolve",
	}

	for _, route := range expected {
		assert.True(t, routes[route], "missing route: %s", route)
	}
}

func TestSetupRouter_MiddlewareChain(t *testing.T) {
	engine := gin.New()
	SetupRouter(engine, apiRouterConfig(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/quotes/random", nil)
	req.Header.Set(middleware.HeaderSessionID, "tab-1")

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderRequestID))
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderCorrelationID))
	assert.Equal(t, "tab-1", w.Header().Get(middleware.HeaderSessionID))

	ready := httptest.NewRecorder()
	engine.ServeHTTP(ready, httptest.NewRequest(http.MethodGet, "/-/ready", nil))

	assert.Equal(t, http.StatusOK, ready.Code)
	assert.Contains(t, ready.Body.String(), "memory")
}

func TestSetupRouter_SyncRoundTrip(t *testing.T) {
	engine := gin.New()
	SetupRouter(engine, apiRouterConfig(t))

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/sync", nil))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"outcome":"in_sync"`)
}

func TestSetupRouter_RecoversPanics(t *testing.T) {
	cfg := apiRouterConfig(t)
	cfg.Timeout = -1

	engine := gin.New()
	SetupRouter(engine, cfg)
	engine.GET("/api/v1/boom", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
}

func TestSetupRouter_NilHandlers(t *testing.T) {
	engine := gin.New()

	require.NotPanics(t, func() {
		SetupRouter(engine, RouterConfig{
			Logger:    discardLogger(),
			AppConfig: &config.AppConfig{Name: "quotebook"},
		})
	})
}

func TestSetupMinimalRouter(t *testing.T) {
	registry := mocks.NewMockHealthRegistry(t)
	registry.EXPECT().CheckAll(mock.Anything).Return(&ports.HealthResult{
		Status: ports.HealthStatusHealthy,
		Checks: map[string]*ports.CheckResult{},
	}).Maybe()

	engine := gin.New()
	SetupMinimalRouter(engine, discardLogger(), handlers.NewHealthHandler(registry, handlers.BuildInfo{}, nil))

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/-/live", nil))

	assert.Equal(t, http.StatusOK, w.Code)

	require.NotPanics(t, func() {
		SetupMinimalRouter(gin.New(), discardLogger(), nil)
	})
}
