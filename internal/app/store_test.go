package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotebook/internal/adapters/storage"
	"github.com/jsamuelsen/quotebook/internal/domain"
	"github.com/jsamuelsen/quotebook/internal/mocks"
	"github.com/jsamuelsen/quotebook/internal/ports"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// loadedStore returns a store over a fresh memory backend, optionally
// pre-populated with persisted quotes.
func loadedStore(t *testing.T, persisted []domain.Quote) (*QuoteStore, *storage.MemoryStore) {
	t.Helper()

	backend := storage.NewMemoryStore()

	if persisted != nil {
		b, err := json.Marshal(persisted)
		require.NoError(t, err)
		require.NoError(t, backend.Set(context.Background(), ports.KeyQuotes, string(b)))
	}

	s := NewQuoteStore(QuoteStoreConfig{Durable: backend, Logger: discardLogger()})
	require.NoError(t, s.Load(context.Background()))

	return s, backend
}

func persistedQuotes(t *testing.T, backend ports.DurableStore) []domain.Quote {
	t.Helper()

	raw, err := backend.Get(context.Background(), ports.KeyQuotes)
	require.NoError(t, err)

	var quotes []domain.Quote
	require.NoError(t, json.Unmarshal([]byte(raw), &quotes))

	return quotes
}

func TestNewQuoteStore_PanicsWithoutDurable(t *testing.T) {
	assert.Panics(t, func() {
		NewQuoteStore(QuoteStoreConfig{})
	})
}

func TestQuoteStore_Load(t *testing.T) {
	t.Run("seeds and persists defaults when absent", func(t *testing.T) {
		s, backend := loadedStore(t, nil)

		assert.Equal(t, domain.DefaultQuotes(), s.Snapshot())
		assert.Equal(t, domain.DefaultQuotes(), persistedQuotes(t, backend))
		assert.Equal(t, domain.CategoryAll, s.SelectedCategory())
	})

	t.Run("empty array is a valid empty store", func(t *testing.T) {
		s, _ := loadedStore(t, []domain.Quote{})

		assert.Empty(t, s.Snapshot())
		assert.Zero(t, s.Len())
	})

	t.Run("restores persisted quotes and filter", func(t *testing.T) {
		backend := storage.NewMemoryStore()
		ctx := context.Background()
		require.NoError(t, backend.Set(ctx, ports.KeyQuotes, `[{"text":"a","category":"Life"}]`))
		require.NoError(t, backend.Set(ctx, ports.KeySelectedCategory, "Life"))

		s := NewQuoteStore(QuoteStoreConfig{Durable: backend})
		require.NoError(t, s.Load(ctx))

		assert.Equal(t, []domain.Quote{{Text: "a", Category: "Life"}}, s.Snapshot())
		assert.Equal(t, "Life", s.SelectedCategory())
	})

	t.Run("malformed value falls back to defaults without overwriting", func(t *testing.T) {
		var logs bytes.Buffer

		backend := storage.NewMemoryStore()
		ctx := context.Background()
		require.NoError(t, backend.Set(ctx, ports.KeyQuotes, "{not json"))

		s := NewQuoteStore(QuoteStoreConfig{
			Durable: backend,
			Logger:  slog.New(slog.NewJSONHandler(&logs, nil)),
		})
		require.NoError(t, s.Load(ctx))

		assert.Equal(t, domain.DefaultQuotes(), s.Snapshot())
		assert.Contains(t, logs.String(), `"level":"WARN"`)

		raw, err := backend.Get(ctx, ports.KeyQuotes)
		require.NoError(t, err)
		assert.Equal(t, "{not json", raw)
	})

	t.Run("null value falls back to defaults", func(t *testing.T) {
		backend := storage.NewMemoryStore()
		require.NoError(t, backend.Set(context.Background(), ports.KeyQuotes, "null"))

		s := NewQuoteStore(QuoteStoreConfig{Durable: backend, Logger: discardLogger()})
		require.NoError(t, s.Load(context.Background()))

		assert.Len(t, s.Snapshot(), len(domain.DefaultQuotes()))
	})

	t.Run("backend failure is returned", func(t *testing.T) {
		backend := mocks.NewMockDurableStore(t)
		backend.EXPECT().Get(mock.Anything, ports.KeyQuotes).
			Return("", domain.NewUnavailableError("sqlite", "locked"))

		s := NewQuoteStore(QuoteStoreConfig{Durable: backend})
		err := s.Load(context.Background())

		require.Error(t, err)
		assert.True(t, domain.IsUnavailable(err))
	})
}

func TestQuoteStore_Add(t *testing.T) {
	t.Run("trims and persists", func(t *testing.T) {
		s, backend := loadedStore(t, []domain.Quote{})

		got, err := s.Add(context.Background(), domain.Quote{Text: "  Keep going.  ", Category: " Motivation "})

		require.NoError(t, err)
		assert.Equal(t, domain.Quote{Text: "Keep going.", Category: "Motivation"}, got)
		assert.Equal(t, []domain.Quote{got}, s.Snapshot())
		assert.Equal(t, []domain.Quote{got}, persistedQuotes(t, backend))
		assert.Equal(t, []string{"Motivation"}, s.Categories())
	})

	t.Run("rejects blank fields without change", func(t *testing.T) {
		s, backend := loadedStore(t, nil)
		before := s.Snapshot()

		_, err := s.Add(context.Background(), domain.Quote{Text: "   ", Category: "Life"})

		require.Error(t, err)
		assert.True(t, domain.IsValidation(err))
		assert.Equal(t, before, s.Snapshot())
		assert.Equal(t, before, persistedQuotes(t, backend))
	})

	t.Run("memory is unchanged when the write fails", func(t *testing.T) {
		backend := mocks.NewMockDurableStore(t)
		backend.EXPECT().Get(mock.Anything, ports.KeyQuotes).Return("[]", nil)
		backend.EXPECT().Get(mock.Anything, ports.KeySelectedCategory).Return("", domain.NewNotFoundError("key", ports.KeySelectedCategory))
		backend.EXPECT().Set(mock.Anything, ports.KeyQuotes, mock.Anything).Return(errors.New("disk full"))

		s := NewQuoteStore(QuoteStoreConfig{Durable: backend, Logger: discardLogger()})
		require.NoError(t, s.Load(context.Background()))

		_, err := s.Add(context.Background(), domain.Quote{Text: "a", Category: "b"})

		require.Error(t, err)
		assert.Zero(t, s.Len())
	})
}

func TestQuoteStore_ImportExport(t *testing.T) {
	s, _ := loadedStore(t, []domain.Quote{{Text: "a", Category: "Life"}})

	total, err := s.ImportBatch(context.Background(), []domain.Quote{
		{Text: "b", Category: "Wisdom"},
		{Text: "a", Category: "Life"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, total, "duplicates are kept")

	out, err := s.ExportAll(context.Background())
	require.NoError(t, err)

	var exported []domain.Quote
	require.NoError(t, json.Unmarshal(out, &exported))
	assert.Equal(t, s.Snapshot(), exported)
	assert.Equal(t, 3, s.Len(), "export has no side effect")
}

func TestQuoteStore_ClearAndReplace(t *testing.T) {
	s, backend := loadedStore(t, []domain.Quote{{Text: "a", Category: "Life"}})
	ctx := context.Background()

	require.NoError(t, s.Replace(ctx, []domain.Quote{{Text: "x", Category: "Humor"}}))
	assert.Equal(t, []string{"Humor"}, s.Categories())

	require.NoError(t, s.Clear(ctx))
	assert.Equal(t, domain.DefaultQuotes(), s.Snapshot())
	assert.Equal(t, domain.DefaultQuotes(), persistedQuotes(t, backend))
}

func TestQuoteStore_SelectCategory(t *testing.T) {
	s, backend := loadedStore(t, nil)
	ctx := context.Background()

	require.NoError(t, s.SelectCategory(ctx, " Life "))
	assert.Equal(t, "Life", s.SelectedCategory())

	raw, err := backend.Get(ctx, ports.KeySelectedCategory)
	require.NoError(t, err)
	assert.Equal(t, "Life", raw)

	err = s.SelectCategory(ctx, "  ")
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, "Life", s.SelectedCategory())

	require.NoError(t, s.SelectCategory(ctx, domain.CategoryAll))
	assert.Equal(t, domain.CategoryAll, s.SelectedCategory())
}

func TestQuoteStore_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	s := NewQuoteStore(QuoteStoreConfig{Durable: storage.NewMemoryStore(), Metrics: metrics})
	require.NoError(t, s.Load(context.Background()))

	assert.InDelta(t, float64(len(domain.DefaultQuotes())), testutil.ToFloat64(metrics.quotes), 0)

	_, err := s.Add(context.Background(), domain.Quote{Text: "a", Category: "b"})
	require.NoError(t, err)

	assert.InDelta(t, float64(len(domain.DefaultQuotes())+1), testutil.ToFloat64(metrics.quotes), 0)
}

func TestQuoteStore_Stats(t *testing.T) {
	s, _ := loadedStore(t, nil)

	stats := s.Stats()

	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 4, stats.Categories)
}
