// Package ports defines the contracts the application layer depends on.
// Adapters implement them; app code never imports an adapter directly.
//
// Every method takes a context first and reports failures with domain
// errors (domain.ErrNotFound, domain.ErrUnavailable).
package ports

import "context"

// Durable keys shared by the quote store, the sync service and the
// simulated remote.
const (
	KeyQuotes           = "quotes"
	KeySelectedCategory = "selectedCategory"
	KeyLastSyncAt       = "lastSyncAt"
	KeyServerQuotes     = "serverQuotes"
)

// Session keys written by the session recorder.
const (
	KeyLastViewedQuote  = "lastViewedQuote"
	KeyLastViewedAt     = "lastViewedAt"
	KeySessionStartedAt = "sessionStartedAt"
	KeyActiveFilter     = "activeFilter"
)

// DurableStore is a string key-value store that survives restarts.
type DurableStore interface {
	// Get returns the stored value.
	// Returns domain.ErrNotFound if the key has never been set or was removed.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}

// EphemeralStore is a key-value store scoped to one session.
// Values are discarded when the session expires.
type EphemeralStore interface {
	// Get returns the value for key in session.
	// Returns domain.ErrNotFound if the session or key does not exist.
	Get(ctx context.Context, session, key string) (string, error)

	// Set stores value for key in session, creating the session if needed.
	Set(ctx context.Context, session, key, value string) error
}
