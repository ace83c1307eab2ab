// Package domain contains core business entities and rules.
package domain

import "strings"

// CategoryAll is the filter value that selects every quote.
const CategoryAll = "all"

// Quote is a single quotation record.
// Identity for comparison purposes is Text; duplicates are permitted.
type Quote struct {
	// Text is the quotation itself.
	Text string `json:"text"`

	// Category groups quotes for filtering.
	Category string `json:"category"`

	// Author is optional.
	Author string `json:"author,omitempty"`
}

// Normalize returns a copy with surrounding whitespace removed from every field.
func (q Quote) Normalize() Quote {
	return Quote{
		Text:     strings.TrimSpace(q.Text),
		Category: strings.TrimSpace(q.Category),
		Author:   strings.TrimSpace(q.Author),
	}
}

// Validate checks that text and category are present after trimming.
func (q Quote) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return NewValidationError("text", "quote text is required")
	}

	if strings.TrimSpace(q.Category) == "" {
		return NewValidationError("category", "quote category is required")
	}

	return nil
}

// DefaultQuotes returns a fresh copy of the built-in seed list.
func DefaultQuotes() []Quote {
	return []Quote{
		{Text: "The only way to do great work is to love what you do.", Category: "Inspiration"},
		{Text: "Life is what happens to you while you're busy making other plans.", Category: "Life"},
		{Text: "The future belongs to those who believe in the beauty of their dreams.", Category: "Motivation"},
		{Text: "It is during our darkest moments that we must focus to see the light.", Category: "Wisdom"},
		{Text: "Whoever is happy will make others happy too.", Category: "Life"},
	}
}

// CloneQuotes returns a copy of quotes that shares no backing array.
// A nil input yields an empty, non-nil slice so it encodes as [].
func CloneQuotes(quotes []Quote) []Quote {
	out := make([]Quote, len(quotes))
	copy(out, quotes)

	return out
}
