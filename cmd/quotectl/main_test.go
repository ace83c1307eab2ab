package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphttp "github.com/jsamuelsen/quotebook/internal/adapters/http"
	"github.com/jsamuelsen/quotebook/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quotebook/internal/adapters/storage"
	"github.com/jsamuelsen/quotebook/internal/app"
	"github.com/jsamuelsen/quotebook/internal/domain"
	"github.com/jsamuelsen/quotebook/internal/platform/config"
	"github.com/jsamuelsen/quotebook/internal/ports"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	color.NoColor = true

	os.Exit(m.Run())
}

type firstPick struct{}

func (firstPick) IntN(int) int { return 0 }

// newServer runs the API in-process over an in-memory store seeded with the
// default quotes.
func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	backend := storage.NewMemoryStore()

	store := app.NewQuoteStore(app.QuoteStoreConfig{Durable: backend, Logger: logger})
	require.NoError(t, store.Load(context.Background()))

	recorder := app.NewSessionRecorder(storage.NewSessionStore(time.Hour), nil)
	view := app.NewViewService(app.ViewServiceConfig{
		Store:    store,
		Recorder: recorder,
		Random:   firstPick{},
		Logger:   logger,
	})
	syncSvc := app.NewSyncService(app.SyncServiceConfig{
		Store:      store,
		Remote:     storage.NewSimulatedRemote(backend),
		Durable:    backend,
		SourceName: "simulated",
		Logger:     logger,
	})

	engine := gin.New()
	apphttp.SetupRouter(engine, apphttp.RouterConfig{
		Logger:         logger,
		AppConfig:      &config.AppConfig{Name: "quotebook", Environment: "test", Version: "1.0.0"},
		HealthHandler:  handlers.NewHealthHandler(ports.NewHealthRegistry(), handlers.BuildInfo{Version: "1.0.0"}, prometheus.NewRegistry()),
		QuoteHandler:   handlers.NewQuoteHandler(store, view, app.NewTransfer(store, logger, nil)),
		SessionHandler: handlers.NewSessionHandler(recorder, nil),
		SyncHandler:    handlers.NewSyncHandler(syncSvc),
	})

	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)

	return srv
}

// run executes quotectl against srv and returns combined output.
func run(t *testing.T, srv *httptest.Server, args ...string) (string, error) {
	t.Helper()

	return runWithInput(t, srv, "", args...)
}

func runWithInput(t *testing.T, srv *httptest.Server, stdin string, args ...string) (string, error) {
	t.Helper()

	root := newRootCmd(srv.Client())

	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--server", srv.URL}, args...))

	err := root.ExecuteContext(context.Background())

	return buf.String(), err
}

func TestRootCmd_Help(t *testing.T) {
	out, err := run(t, newServer(t), "--help")

	require.NoError(t, err)
	assert.Contains(t, out, "Usage:")

	for _, name := range []string{
		"next", "add", "list", "categories", "filter", "export", "import",
		"sync", "resolve", "status", "clear", "stats", "session",
	} {
		assert.Contains(t, out, "  "+name+" ", "missing %s", name)
	}
}

func TestRootCmd_UnknownCommand(t *testing.T) {
	_, err := run(t, newServer(t), "shuffle")

	require.Error(t, err)
}

func TestNext(t *testing.T) {
	srv := newServer(t)

	out, err := run(t, srv, "next")
	require.NoError(t, err)
	assert.Equal(t, `"The only way to do great work is to love what you do." (Category: Inspiration)`+"\n", out)

	out, err = run(t, srv, "filter", "Nope")
	require.NoError(t, err)
	assert.Equal(t, "filter: Nope\n", out)

	out, err = run(t, srv, "next")
	require.NoError(t, err)
	assert.Equal(t, domain.MessageNoQuotesCategory+"\n", out)
}

func TestNext_JSON(t *testing.T) {
	out, err := run(t, newServer(t), "next", "--json")
	require.NoError(t, err)

	var r map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, "quote", r["kind"])
	assert.Equal(t, "all", r["category"])
}

func TestAdd(t *testing.T) {
	srv := newServer(t)

	out, err := run(t, srv, "add", "Ship it.", "--category", "Work", "--author", "Me")
	require.NoError(t, err)
	assert.Equal(t, "Added to Work: \"Ship it.\"\n", out)

	out, err = run(t, srv, "list", "--category", "Work")
	require.NoError(t, err)
	assert.Equal(t, "[Work] Ship it. - Me\n", out)
}

func TestAdd_Errors(t *testing.T) {
	srv := newServer(t)

	_, err := run(t, srv, "add", "No category")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "category" not set`)

	_, err = run(t, srv, "add", "   ", "--category", "Life")
	require.Error(t, err)

	var apiErr *apiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Status)
	assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
}

func TestList_Pages(t *testing.T) {
	srv := newServer(t)

	out, err := run(t, srv, "list", "--limit", "2")
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(out, "\n"))
	assert.Contains(t, out, "showing 2 of 5")

	out, err = run(t, srv, "list", "--limit", "2", "--all")
	require.NoError(t, err)
	assert.Equal(t, 5, strings.Count(out, "\n"))
	assert.NotContains(t, out, "showing")
}

func TestCategories(t *testing.T) {
	srv := newServer(t)

	out, err := run(t, srv, "categories")
	require.NoError(t, err)
	assert.Equal(t, "* all\n  Inspiration\n  Life\n  Motivation\n  Wisdom\n", out)

	_, err = run(t, srv, "filter", "Life")
	require.NoError(t, err)

	out, err = run(t, srv, "categories")
	require.NoError(t, err)
	assert.Contains(t, out, "* Life\n")

	out, err = run(t, srv, "filter", "--clear")
	require.NoError(t, err)
	assert.Equal(t, "filter: all\n", out)

	_, err = run(t, srv, "filter", "Life", "--clear")
	require.Error(t, err)
}

func TestStatsAndClear(t *testing.T) {
	srv := newServer(t)

	_, err := run(t, srv, "add", "extra", "--category", "Life")
	require.NoError(t, err)

	out, err := run(t, srv, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "6 quotes in 4 categories")
	assert.Contains(t, out, "Life")

	_, err = run(t, srv, "clear")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")

	out, err = run(t, srv, "clear", "--yes")
	require.NoError(t, err)
	assert.Equal(t, "Collection reset to 5 default quotes\n", out)
}

func TestExportImport(t *testing.T) {
	srv := newServer(t)
	path := filepath.Join(t.TempDir(), "quotes.json")

	out, err := run(t, srv, "export", "--output", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var exported []domain.Quote
	require.NoError(t, json.Unmarshal(data, &exported))
	assert.Equal(t, domain.DefaultQuotes(), exported)

	out, err = run(t, srv, "export")
	require.NoError(t, err)
	assert.JSONEq(t, string(data), out)

	out, err = run(t, srv, "import", path)
	require.NoError(t, err)
	assert.Equal(t, "Imported 5 quotes (10 total)\n", out)

	out, err = runWithInput(t, srv, `[{"text":"x","category":"Y"}, 7]`, "import", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 quotes (11 total)")
	assert.Contains(t, out, "skipped 1 entries")

	_, err = runWithInput(t, srv, `{"text":"x"}`, "import", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a JSON array")

	_, err = run(t, srv, "import", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestSession(t *testing.T) {
	srv := newServer(t)

	_, err := run(t, srv, "--session", "cli-test", "next")
	require.NoError(t, err)

	out, err := run(t, srv, "--session", "cli-test", "session")
	require.NoError(t, err)
	assert.Contains(t, out, "session: cli-test\n")
	assert.Contains(t, out, "The only way to do great work")

	out, err = run(t, srv, "--session", "other", "session", "--json")
	require.NoError(t, err)

	var s map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.Equal(t, "other", s["id"])
	assert.NotContains(t, s, "lastViewed")
}

func TestSyncCommands(t *testing.T) {
	srv := newServer(t)

	out, err := run(t, srv, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "state:     idle")
	assert.NotContains(t, out, "last run:")
	assert.Contains(t, out, "last sync: never")

	out, err = run(t, srv, "sync")
	require.NoError(t, err)
	assert.Equal(t, "In sync (5 quotes)\n", out)

	_, err = run(t, srv, "add", "local only", "--category", "Life")
	require.NoError(t, err)

	out, err = run(t, srv, "resolve", "merge")
	require.NoError(t, err)
	assert.Contains(t, out, "Resolved with merge policy (6 quotes)")
	assert.Contains(t, out, "local only: 1")

	out, err = run(t, srv, "sync", "--focus", "--json")
	require.NoError(t, err)

	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "focus", res["trigger"])

	out, err = run(t, srv, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "state:     idle")
	assert.Contains(t, out, "last run:  resolved")
	assert.NotContains(t, out, "never")

	_, err = run(t, srv, "resolve", "newest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VALIDATION_ERROR")
}

func TestServerUnreachable(t *testing.T) {
	srv := newServer(t)
	srv.Close()

	_, err := run(t, srv, "stats")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/quotes/stats")
}
