// Package app contains the application services: the quote store that
// owns all quote state, and the view, transfer and sync workflows that
// operate on it through injected ports.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/jsamuelsen/quotebook/internal/domain"
	"github.com/jsamuelsen/quotebook/internal/platform/logging"
	"github.com/jsamuelsen/quotebook/internal/ports"
)

// QuoteStore is the single owner of the quote collection and the selected
// category. Every mutation writes through to the durable store before it
// becomes visible in memory, so memory never runs ahead of what a restart
// would load.
type QuoteStore struct {
	durable ports.DurableStore
	logger  *slog.Logger
	metrics *Metrics

	mu       sync.RWMutex
	quotes   []domain.Quote
	selected string
}

// QuoteStoreConfig holds the store dependencies.
type QuoteStoreConfig struct {
	Durable ports.DurableStore
	Logger  *slog.Logger
	Metrics *Metrics
}

// NewQuoteStore creates an empty store. Call Load before use.
func NewQuoteStore(cfg QuoteStoreConfig) *QuoteStore {
	if cfg.Durable == nil {
		panic("app: QuoteStore requires a durable store")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &QuoteStore{
		durable:  cfg.Durable,
		logger:   logger.With(slog.String("component", "quote_store")),
		metrics:  cfg.Metrics,
		quotes:   []domain.Quote{},
		selected: domain.CategoryAll,
	}
}

// Load initialises memory from the durable store. An absent collection is
// seeded with the default quotes and persisted. A malformed one falls back
// to the seed in memory only; the persisted value is left for inspection
// until the next mutation overwrites it.
func (s *QuoteStore) Load(ctx context.Context) error {
	logger := logging.FromContextOr(ctx, s.logger)

	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.durable.Get(ctx, ports.KeyQuotes)

	switch {
	case domain.IsNotFound(err):
		logger.InfoContext(ctx, "no stored quotes, installing defaults")

		if err := s.commitLocked(ctx, domain.DefaultQuotes()); err != nil {
			return fmt.Errorf("seeding quotes: %w", err)
		}

	case err != nil:
		return fmt.Errorf("loading quotes: %w", err)

	default:
		quotes, decodeErr := decodeQuotes(raw)
		if decodeErr != nil {
			logger.WarnContext(ctx, "stored quotes are malformed, using defaults",
				slog.Any("error", decodeErr),
			)

			quotes = domain.DefaultQuotes()
		}

		s.quotes = quotes
		s.metrics.setQuotes(len(quotes))
	}

	selected, err := s.durable.Get(ctx, ports.KeySelectedCategory)

	switch {
	case domain.IsNotFound(err):
		s.selected = domain.CategoryAll
	case err != nil:
		return fmt.Errorf("loading selected category: %w", err)
	case strings.TrimSpace(selected) == "":
		s.selected = domain.CategoryAll
	default:
		s.selected = selected
	}

	logger.DebugContext(ctx, "quote store loaded",
		slog.Int("quotes", len(s.quotes)),
		slog.String("category", s.selected),
	)

	return nil
}

func decodeQuotes(raw string) ([]domain.Quote, error) {
	var quotes []domain.Quote
	if err := json.Unmarshal([]byte(raw), &quotes); err != nil {
		return nil, err
	}

	if quotes == nil {
		return nil, fmt.Errorf("stored value is null")
	}

	return quotes, nil
}

// Add validates and appends one quote. Fields are trimmed first.
func (s *QuoteStore) Add(ctx context.Context, q domain.Quote) (domain.Quote, error) {
	q = q.Normalize()
	if err := q.Validate(); err != nil {
		return domain.Quote{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.commitLocked(ctx, append(domain.CloneQuotes(s.quotes), q)); err != nil {
		return domain.Quote{}, fmt.Errorf("adding quote: %w", err)
	}

	logging.FromContextOr(ctx, s.logger).InfoContext(ctx, "quote added",
		slog.String("category", q.Category),
		slog.Int("total", len(s.quotes)),
	)

	return q, nil
}

// ImportBatch appends records as given and returns the new total.
func (s *QuoteStore) ImportBatch(ctx context.Context, records []domain.Quote) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := append(domain.CloneQuotes(s.quotes), records...)
	if err := s.commitLocked(ctx, next); err != nil {
		return 0, fmt.Errorf("importing quotes: %w", err)
	}

	return len(s.quotes), nil
}

// ExportAll returns the collection as an indented JSON array.
func (s *QuoteStore) ExportAll(_ context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, err := json.MarshalIndent(s.quotes, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding quotes: %w", err)
	}

	return b, nil
}

// Clear resets the collection to the default quotes.
func (s *QuoteStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.commitLocked(ctx, domain.DefaultQuotes()); err != nil {
		return fmt.Errorf("clearing quotes: %w", err)
	}

	return nil
}

// Replace swaps the whole collection.
func (s *QuoteStore) Replace(ctx context.Context, records []domain.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.commitLocked(ctx, domain.CloneQuotes(records)); err != nil {
		return fmt.Errorf("replacing quotes: %w", err)
	}

	return nil
}

// Snapshot returns a copy of the collection.
func (s *QuoteStore) Snapshot() []domain.Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return domain.CloneQuotes(s.quotes)
}

// Len returns the number of quotes.
func (s *QuoteStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.quotes)
}

// Categories returns the distinct categories in first-occurrence order.
func (s *QuoteStore) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return domain.Categories(s.quotes)
}

// Stats summarises the collection.
func (s *QuoteStore) Stats() domain.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return domain.ComputeStats(s.quotes)
}

// SelectedCategory returns the persisted filter, "all" when unfiltered.
func (s *QuoteStore) SelectedCategory() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.selected
}

// SelectCategory persists the filter. Use domain.CategoryAll to clear it.
func (s *QuoteStore) SelectCategory(ctx context.Context, category string) error {
	category = strings.TrimSpace(category)
	if category == "" {
		return domain.NewValidationError("category", "category is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.durable.Set(ctx, ports.KeySelectedCategory, category); err != nil {
		return fmt.Errorf("saving selected category: %w", err)
	}

	s.selected = category

	return nil
}

// commitLocked persists next and then installs it. Callers hold mu.
func (s *QuoteStore) commitLocked(ctx context.Context, next []domain.Quote) error {
	b, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encoding quotes: %w", err)
	}

	if err := s.durable.Set(ctx, ports.KeyQuotes, string(b)); err != nil {
		return err
	}

	s.quotes = next
	s.metrics.setQuotes(len(next))

	return nil
}
