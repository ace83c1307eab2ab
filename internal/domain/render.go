package domain

import "fmt"

// Messages shown when there is nothing to render.
const (
	MessageNoQuotes         = "No quotes available. Add some quotes!"
	MessageNoQuotesCategory = "No quotes in this category."
)

// RandomSource picks an index in [0, n). *math/rand/v2.Rand satisfies it.
type RandomSource interface {
	IntN(n int) int
}

// RenderKind describes what a Rendering displays.
type RenderKind string

const (
	// RenderQuote displays a single quote.
	RenderQuote RenderKind = "quote"

	// RenderEmpty is shown when the store holds no quotes at all.
	RenderEmpty RenderKind = "empty"

	// RenderEmptyCategory is shown when the selected category matches nothing.
	RenderEmptyCategory RenderKind = "empty_category"
)

// Rendering is the complete replacement content for the display region.
type Rendering struct {
	Kind     RenderKind `json:"kind"`
	Quote    *Quote     `json:"quote,omitempty"`
	Message  string     `json:"message,omitempty"`
	Category string     `json:"category"`
}

// Render selects a quote uniformly at random from pool.
// selected is the filter that produced pool and only affects which empty
// message is used.
func Render(pool []Quote, selected string, rnd RandomSource) Rendering {
	if selected == "" {
		selected = CategoryAll
	}

	if len(pool) == 0 {
		if selected == CategoryAll {
			return Rendering{Kind: RenderEmpty, Message: MessageNoQuotes, Category: selected}
		}

		return Rendering{Kind: RenderEmptyCategory, Message: MessageNoQuotesCategory, Category: selected}
	}

	q := pool[rnd.IntN(len(pool))]

	return Rendering{Kind: RenderQuote, Quote: &q, Category: selected}
}

// String is the plain-text form recorded as the last viewed output.
func (r Rendering) String() string {
	if r.Quote == nil {
		return r.Message
	}

	if r.Quote.Author != "" {
		return fmt.Sprintf("%q - %s (Category: %s)", r.Quote.Text, r.Quote.Author, r.Quote.Category)
	}

	return fmt.Sprintf("%q (Category: %s)", r.Quote.Text, r.Quote.Category)
}
