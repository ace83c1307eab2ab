package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jsamuelsen/quotebook/internal/domain"
	"github.com/jsamuelsen/quotebook/internal/ports"
)

// SimulatedRemote is a ports.RemoteQuoteSource that keeps the "server" copy
// under the serverQuotes key of a durable store.
type SimulatedRemote struct {
	store ports.DurableStore
}

// NewSimulatedRemote creates a simulated remote over store.
func NewSimulatedRemote(store ports.DurableStore) *SimulatedRemote {
	return &SimulatedRemote{store: store}
}

// Fetch returns the server copy, seeding it with the default quotes when absent.
func (r *SimulatedRemote) Fetch(ctx context.Context) ([]domain.Quote, error) {
	raw, err := r.store.Get(ctx, ports.KeyServerQuotes)
	if domain.IsNotFound(err) {
		seed := domain.DefaultQuotes()
		if err := r.Push(ctx, seed); err != nil {
			return nil, err
		}

		return seed, nil
	}

	if err != nil {
		return nil, domain.NewUnavailableError(r.Name(), err.Error())
	}

	var quotes []domain.Quote
	if err := json.Unmarshal([]byte(raw), &quotes); err != nil {
		return nil, domain.NewUnavailableError(r.Name(), fmt.Sprintf("decode server copy: %v", err))
	}

	return domain.CloneQuotes(quotes), nil
}

// Push replaces the server copy.
func (r *SimulatedRemote) Push(ctx context.Context, quotes []domain.Quote) error {
	data, err := json.Marshal(domain.CloneQuotes(quotes))
	if err != nil {
		return fmt.Errorf("encode server copy: %w", err)
	}

	if err := r.store.Set(ctx, ports.KeyServerQuotes, string(data)); err != nil {
		return domain.NewUnavailableError(r.Name(), err.Error())
	}

	return nil
}

// Name implements ports.HealthChecker.
func (r *SimulatedRemote) Name() string {
	return "simulated-remote"
}

// Check implements ports.HealthChecker.
func (r *SimulatedRemote) Check(ctx context.Context) error {
	_, err := r.store.Get(ctx, ports.KeyServerQuotes)
	if err != nil && !domain.IsNotFound(err) {
		return err
	}

	return nil
}
