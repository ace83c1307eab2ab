package ports

import (
	"context"

	"github.com/jsamuelsen/quotebook/internal/domain"
)

// RemoteQuoteSource is the authoritative record source used by sync.
type RemoteQuoteSource interface {
	// Fetch returns the remote snapshot.
	// Returns domain.ErrUnavailable if the source cannot be reached.
	Fetch(ctx context.Context) ([]domain.Quote, error)

	// Push replaces the remote snapshot with quotes.
	// Returns domain.ErrUnavailable if the source cannot be reached.
	Push(ctx context.Context, quotes []domain.Quote) error
}
