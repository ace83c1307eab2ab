// Package acl is the anti-corruption layer between the remote quote source
// and the domain.
//
// The remote speaks its own vocabulary (posts with titles and user ids);
// adapters here decode those DTOs and translate them into [domain.Quote]
// values.
//
// Every remote failure becomes a [domain.UnavailableError] whose reason
// names the operation, the status and a short hint, so a failed sync never
// surfaces as a client input error. This covers non-2xx responses along
// with [clients.ErrCircuitOpen] and [clients.ErrMaxRetriesExceeded].
// External DTOs stay unexported.
package acl
