//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotebook/internal/adapters/clients"
	"github.com/jsamuelsen/quotebook/internal/adapters/clients/acl"
	"github.com/jsamuelsen/quotebook/internal/adapters/storage"
	"github.com/jsamuelsen/quotebook/internal/app"
	"github.com/jsamuelsen/quotebook/internal/domain"
	"github.com/jsamuelsen/quotebook/internal/platform/config"
)

// postsAPI fakes a JSONPlaceholder-style posts endpoint.
type postsAPI struct {
	server *httptest.Server

	failing atomic.Bool
	hits    atomic.Int32

	mu     sync.Mutex
	pushed []map[string]any
}

func newPostsAPI(t *testing.T, count int) *postsAPI {
	t.Helper()

	api := &postsAPI{}

	posts := make([]map[string]any, 0, count)
	for i := 1; i <= count; i++ {
		posts = append(posts, map[string]any{
			"id":     i,
			"userId": (i-1)/3 + 1,
			"title":  fmt.Sprintf("  post number %d  ", i),
			"body":   "lorem ipsum",
		})
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /posts", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(posts)
	})
	mux.HandleFunc("GET /posts/1", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(posts[0])
	})
	mux.HandleFunc("POST /posts", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		api.mu.Lock()
		api.pushed = append(api.pushed, body)
		api.mu.Unlock()

		body["id"] = count + 1
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(body)
	})

	api.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.hits.Add(1)

		if api.failing.Load() {
			http.Error(w, `{"message":"maintenance"}`, http.StatusServiceUnavailable)
			return
		}

		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(api.server.Close)

	return api
}

func (a *postsAPI) pushes() []map[string]any {
	a.mu.Lock()
	defer a.mu.Unlock()

	return append([]map[string]any(nil), a.pushed...)
}

func newPostsSource(t *testing.T, baseURL string, maxFailures int) *acl.PostsSource {
	t.Helper()

	client, err := clients.New(&clients.Config{
		BaseURL:     baseURL,
		ServiceName: "quote-remote",
		Timeout:     2 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:     1,
			InitialInterval: 10 * time.Millisecond,
			MaxInterval:     100 * time.Millisecond,
			Multiplier:      2,
		},
		Circuit: config.CircuitBreakerConfig{
			MaxFailures:   maxFailures,
			Timeout:       time.Minute,
			HalfOpenLimit: 1,
		},
		Transport: config.TransportConfig{
			MaxIdleConns:        4,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     time.Second,
		},
	})
	require.NoError(t, err)

	return acl.NewPostsSource(acl.PostsSourceConfig{Client: client})
}

// syncStack wires a sync service the way the service binary does when
// sync.source is "http".
type syncStack struct {
	path    string
	durable *storage.SQLiteStore
	store   *app.QuoteStore
	svc     *app.SyncService
}

func openSyncStack(t *testing.T, path string, remote *acl.PostsSource) *syncStack {
	t.Helper()

	durable, err := storage.OpenSQLiteStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = durable.Close() })

	metrics := app.NewMetrics(prometheus.NewRegistry())

	store := app.NewQuoteStore(app.QuoteStoreConfig{Durable: durable, Metrics: metrics})
	require.NoError(t, store.Load(context.Background()))

	svc := app.NewSyncService(app.SyncServiceConfig{
		Store:      store,
		Remote:     remote,
		Durable:    durable,
		SourceName: remote.Name(),
		Metrics:    metrics,
	})

	return &syncStack{path: path, durable: durable, store: store, svc: svc}
}

func TestSync_PostsSourceReplacesAndPersists(t *testing.T) {
	api := newPostsAPI(t, 7)
	remote := newPostsSource(t, api.server.URL, 3)
	path := filepath.Join(t.TempDir(), "quotebook.db")

	stack := openSyncStack(t, path, remote)
	assert.Equal(t, domain.DefaultQuotes(), stack.store.Snapshot())

	res, err := stack.svc.Sync(context.Background(), app.TriggerManual)
	require.NoError(t, err)

	assert.Equal(t, app.OutcomeResolved, res.Outcome)
	assert.Equal(t, domain.PolicyRemote, res.Policy)
	assert.Equal(t, acl.DefaultPostsLimit, res.Total)

	got := stack.store.Snapshot()
	require.Len(t, got, acl.DefaultPostsLimit)
	assert.Equal(t, domain.Quote{Text: "post number 1", Category: "Inspiration", Author: "user-1"}, got[0])
	assert.Equal(t, []string{"Inspiration", "Life", "Motivation", "Wisdom", "Humor"}, stack.store.Categories())
	assert.Equal(t, "user-2", got[4].Author)

	again, err := stack.svc.Sync(context.Background(), app.TriggerInterval)
	require.NoError(t, err)
	assert.Equal(t, app.OutcomeInSync, again.Outcome)

	require.NoError(t, stack.durable.Close())

	reopened := openSyncStack(t, path, remote)
	assert.Equal(t, got, reopened.store.Snapshot(), "collection survives a restart")

	status, err := reopened.svc.Status(context.Background())
	require.NoError(t, err)
	require.NotNil(t, status.LastSyncAt, "last sync time survives a restart")
	assert.Equal(t, "quote-remote", status.Source)
}

func TestSync_PostsSourceLocalPush(t *testing.T) {
	api := newPostsAPI(t, 3)
	remote := newPostsSource(t, api.server.URL, 3)
	stack := openSyncStack(t, filepath.Join(t.TempDir(), "quotebook.db"), remote)

	_, err := stack.store.Add(context.Background(), domain.Quote{Text: "Ship it.", Category: "Work"})
	require.NoError(t, err)

	local := stack.store.Snapshot()

	res, err := stack.svc.Resolve(context.Background(), "local")
	require.NoError(t, err)
	assert.Equal(t, domain.PolicyLocal, res.Policy)
	assert.Equal(t, local, stack.store.Snapshot())

	pushes := api.pushes()
	require.Len(t, pushes, 1)
	assert.Equal(t, "quotes sync", pushes[0]["title"])
	assert.InDelta(t, 1, pushes[0]["userId"], 0)

	var pushed []domain.Quote
	require.NoError(t, json.Unmarshal([]byte(pushes[0]["body"].(string)), &pushed))
	assert.Equal(t, local, pushed)
}

func TestSync_PostsSourceMerge(t *testing.T) {
	api := newPostsAPI(t, 2)
	remote := newPostsSource(t, api.server.URL, 3)
	stack := openSyncStack(t, filepath.Join(t.TempDir(), "quotebook.db"), remote)

	before := len(stack.store.Snapshot())

	res, err := stack.svc.Resolve(context.Background(), "merge")
	require.NoError(t, err)

	assert.Equal(t, domain.PolicyMerge, res.Policy)
	assert.Len(t, res.Diff.ServerOnly, 2)
	assert.Equal(t, before+2, res.Total)
	assert.Empty(t, api.pushes())
}

func TestSync_PostsSourceOutageOpensBreaker(t *testing.T) {
	api := newPostsAPI(t, 3)
	api.failing.Store(true)

	remote := newPostsSource(t, api.server.URL, 2)
	stack := openSyncStack(t, filepath.Join(t.TempDir(), "quotebook.db"), remote)
	before := stack.store.Snapshot()

	for range 2 {
		_, err := stack.svc.Sync(context.Background(), app.TriggerInterval)
		require.Error(t, err)
		assert.True(t, domain.IsUnavailable(err))
	}

	assert.Equal(t, int32(2), api.hits.Load())
	assert.Equal(t, clients.StateOpen, remote.Client().CircuitState())

	_, err := stack.svc.Sync(context.Background(), app.TriggerFocus)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open")
	assert.Equal(t, int32(2), api.hits.Load(), "open breaker short-circuits the request")

	err = remote.Check(context.Background())
	require.Error(t, err)
	assert.True(t, domain.IsUnavailable(err))

	status, err := stack.svc.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, app.SyncIdle, status.State)
	assert.Equal(t, app.SyncFailed, status.LastOutcome)
	assert.Nil(t, status.LastSyncAt)
	assert.Equal(t, before, stack.store.Snapshot(), "failed syncs leave the collection alone")
}
