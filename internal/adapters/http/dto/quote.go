package dto

import (
	"time"

	"github.com/jsamuelsen/quotebook/internal/domain"
)

// CreateQuoteRequest is the body of POST /quotes.
type CreateQuoteRequest struct {
	Text     string `json:"text"     validate:"required,notblank,max=1000"`
	Category string `json:"category" validate:"required,notblank,max=100"`
	Author   string `json:"author"   validate:"omitempty,max=200"`
}

// ToDomain converts the request to a quote.
func (r *CreateQuoteRequest) ToDomain() domain.Quote {
	return domain.Quote{Text: r.Text, Category: r.Category, Author: r.Author}
}

// ListQuotesRequest is the query of GET /quotes.
type ListQuotesRequest struct {
	PaginationRequest

	// Category narrows the listing without changing the persisted filter.
	Category string `form:"category" json:"category"`
}

// FilterRequest is the body of PUT /filter.
type FilterRequest struct {
	Category string `json:"category" validate:"required,notblank"`
}

// ResolveRequest is the body of POST /sync/resolve. The policy is matched
// case-insensitively.
type ResolveRequest struct {
	Policy string `json:"policy" validate:"required,notblank,policy"`
}

// QuoteResponse is a quote on the wire.
type QuoteResponse struct {
	Text     string `json:"text"`
	Category string `json:"category"`
	Author   string `json:"author,omitempty"`
}

// NewQuoteResponse converts a domain quote.
func NewQuoteResponse(q domain.Quote) QuoteResponse {
	return QuoteResponse(q)
}

// NewQuoteResponses converts a slice, never returning nil.
func NewQuoteResponses(quotes []domain.Quote) []QuoteResponse {
	out := make([]QuoteResponse, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, NewQuoteResponse(q))
	}

	return out
}

// RenderingResponse is what the display region shows.
type RenderingResponse struct {
	Kind     domain.RenderKind `json:"kind"`
	Quote    *QuoteResponse    `json:"quote,omitempty"`
	Message  string            `json:"message,omitempty"`
	Category string            `json:"category"`

	// Display is the plain-text line a terminal client prints.
	Display string `json:"display"`
}

// NewRenderingResponse converts a rendering.
func NewRenderingResponse(r domain.Rendering) RenderingResponse {
	resp := RenderingResponse{
		Kind:     r.Kind,
		Message:  r.Message,
		Category: r.Category,
		Display:  r.String(),
	}

	if r.Quote != nil {
		q := NewQuoteResponse(*r.Quote)
		resp.Quote = &q
	}

	return resp
}

// CategoriesResponse is the category index with the current selection.
type CategoriesResponse struct {
	Categories []string `json:"categories"`
	Selected   string   `json:"selected"`
}

// FilterResponse is the persisted filter.
type FilterResponse struct {
	Category string `json:"category"`
}

// ImportResponse reports the outcome of an import.
type ImportResponse struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Total    int `json:"total"`
}

// SessionResponse describes the caller's viewing session.
type SessionResponse struct {
	ID           string             `json:"id"`
	StartedAt    *time.Time         `json:"startedAt,omitempty"`
	LastViewedAt *time.Time         `json:"lastViewedAt,omitempty"`
	LastViewed   *RenderingResponse `json:"lastViewed,omitempty"`
	ActiveFilter string             `json:"activeFilter,omitempty"`

	// Summary is a human-readable line such as
	// "session started 5 minutes ago, last quote viewed 10 seconds ago".
	Summary string `json:"summary"`
}

// OptionalTime returns nil for the zero time.
func OptionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}

	return &t
}
