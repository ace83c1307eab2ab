package app

import (
	"context"
	"log/slog"
	"math/rand/v2"

	"github.com/jsamuelsen/quotebook/internal/domain"
	"github.com/jsamuelsen/quotebook/internal/platform/logging"
)

// globalRandom draws from the concurrency-safe top-level math/rand/v2 source.
type globalRandom struct{}

func (globalRandom) IntN(n int) int { return rand.IntN(n) }

// ViewService renders the next quote for a session.
type ViewService struct {
	store    *QuoteStore
	recorder *SessionRecorder
	rnd      domain.RandomSource
	logger   *slog.Logger
	metrics  *Metrics

	// fallback resets an exhausted filter to "all" instead of rendering
	// the empty-category message.
	fallback bool
}

// ViewServiceConfig holds the view dependencies. Random defaults to the
// global math/rand/v2 source and Recorder may be nil.
type ViewServiceConfig struct {
	Store               *QuoteStore
	Recorder            *SessionRecorder
	Random              domain.RandomSource
	EmptyFilterFallback bool
	Logger              *slog.Logger
	Metrics             *Metrics
}

// NewViewService creates a view service.
func NewViewService(cfg ViewServiceConfig) *ViewService {
	if cfg.Store == nil {
		panic("app: ViewService requires a quote store")
	}

	rnd := cfg.Random
	if rnd == nil {
		rnd = globalRandom{}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &ViewService{
		store:    cfg.Store,
		recorder: cfg.Recorder,
		rnd:      rnd,
		fallback: cfg.EmptyFilterFallback,
		logger:   logger.With(slog.String("component", "view")),
		metrics:  cfg.Metrics,
	}
}

// Next picks a random quote from the pool selected by the persisted filter
// and records the result in the session.
func (v *ViewService) Next(ctx context.Context, session string) (domain.Rendering, error) {
	logger := logging.FromContextOr(ctx, v.logger)

	quotes := v.store.Snapshot()
	selected := v.store.SelectedCategory()

	var r domain.Rendering

	switch pool := domain.FilterByCategory(quotes, selected); {
	case len(quotes) == 0:
		r = domain.Render(nil, domain.CategoryAll, v.rnd)

	case len(pool) == 0 && v.fallback:
		logger.InfoContext(ctx, "filter matches nothing, resetting to all",
			slog.String("category", selected),
		)

		if err := v.store.SelectCategory(ctx, domain.CategoryAll); err != nil {
			return domain.Rendering{}, err
		}

		selected = domain.CategoryAll
		r = domain.Render(quotes, selected, v.rnd)

	default:
		r = domain.Render(pool, selected, v.rnd)
	}

	v.metrics.rendered(r.Kind)

	if v.recorder != nil && session != "" {
		if err := v.recorder.RecordView(ctx, session, r, selected); err != nil {
			// The rendering is still valid; only session metadata is lost.
			logger.WarnContext(ctx, "recording session view failed", slog.Any("error", err))
		}
	}

	return r, nil
}

// SelectCategory persists the filter and mirrors it into the session.
func (v *ViewService) SelectCategory(ctx context.Context, session, category string) error {
	if err := v.store.SelectCategory(ctx, category); err != nil {
		return err
	}

	if v.recorder != nil && session != "" {
		if err := v.recorder.RecordFilter(ctx, session, v.store.SelectedCategory()); err != nil {
			logging.FromContextOr(ctx, v.logger).WarnContext(ctx, "recording session filter failed",
				slog.Any("error", err),
			)
		}
	}

	return nil
}
