package domain

// Categories returns the distinct categories of quotes in first-occurrence order.
func Categories(quotes []Quote) []string {
	seen := make(map[string]struct{}, len(quotes))
	out := make([]string, 0)

	for _, q := range quotes {
		if _, ok := seen[q.Category]; ok {
			continue
		}

		seen[q.Category] = struct{}{}
		out = append(out, q.Category)
	}

	return out
}

// FilterByCategory returns the active pool for the selected category.
// CategoryAll (or an empty selection) returns every quote; anything else is
// matched exactly against Quote.Category.
func FilterByCategory(quotes []Quote, selected string) []Quote {
	if selected == "" || selected == CategoryAll {
		return CloneQuotes(quotes)
	}

	pool := make([]Quote, 0)
	for _, q := range quotes {
		if q.Category == selected {
			pool = append(pool, q)
		}
	}

	return pool
}

// CategoryCount is the number of quotes in one category.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Stats summarizes a quote collection.
type Stats struct {
	Total      int             `json:"total"`
	Categories int             `json:"categories"`
	ByCategory []CategoryCount `json:"byCategory"`
}

// ComputeStats derives collection statistics, ordered like Categories.
func ComputeStats(quotes []Quote) Stats {
	counts := make(map[string]int)
	for _, q := range quotes {
		counts[q.Category]++
	}

	cats := Categories(quotes)
	by := make([]CategoryCount, 0, len(cats))

	for _, c := range cats {
		by = append(by, CategoryCount{Category: c, Count: counts[c]})
	}

	return Stats{
		Total:      len(quotes),
		Categories: len(cats),
		ByCategory: by,
	}
}
