package dto

import (
	"encoding/base64"
	"encoding/json"
	"errors"
)

// DefaultLimit is the default number of items per page.
const DefaultLimit = 20

// MaxLimit is the maximum allowed items per page.
const MaxLimit = 100

// ErrInvalidCursor is returned when a cursor cannot be decoded, points
// outside the collection, or was minted before the collection changed size.
var ErrInvalidCursor = errors.New("invalid cursor")

// PaginationRequest holds the paging query parameters.
type PaginationRequest struct {
	// Cursor is an opaque string from a previous response's NextCursor.
	Cursor string `form:"cursor"`

	Limit int `form:"limit" json:"limit" validate:"omitempty,gte=1,lte=100"`
}

// GetLimit returns the limit with defaults applied.
func (p *PaginationRequest) GetLimit() int {
	if p.Limit <= 0 {
		return DefaultLimit
	}

	return min(p.Limit, MaxLimit)
}

// PaginatedResponse is a page of items.
type PaginatedResponse[T any] struct {
	Items      []T    `json:"items"`
	Total      int    `json:"total"`
	NextCursor string `json:"nextCursor,omitempty"`
	HasMore    bool   `json:"hasMore"`
}

// cursorData is the decoded form of a cursor. Quotes are addressed by
// position, so the cursor records the offset of the next page and the
// collection size it was minted against.
type cursorData struct {
	Offset int `json:"o"`
	Total  int `json:"t"`
}

// Paginate returns the page of items selected by req.
func Paginate[T any](items []T, req PaginationRequest) (*PaginatedResponse[T], error) {
	offset := 0

	if req.Cursor != "" {
		cur, err := decodeCursor(req.Cursor)
		if err != nil {
			return nil, err
		}

		if cur.Offset > len(items) || cur.Total != len(items) {
			return nil, ErrInvalidCursor
		}

		offset = cur.Offset
	}

	limit := req.GetLimit()
	end := min(offset+limit, len(items))

	page := make([]T, end-offset)
	copy(page, items[offset:end])

	resp := &PaginatedResponse[T]{
		Items:   page,
		Total:   len(items),
		HasMore: end < len(items),
	}

	if resp.HasMore {
		resp.NextCursor = encodeCursor(cursorData{Offset: end, Total: len(items)})
	}

	return resp, nil
}

func encodeCursor(data cursorData) string {
	b, err := json.Marshal(data)
	if err != nil {
		return ""
	}

	return base64.URLEncoding.EncodeToString(b)
}

func decodeCursor(encoded string) (cursorData, error) {
	var data cursorData

	b, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return data, ErrInvalidCursor
	}

	if err := json.Unmarshal(b, &data); err != nil || data.Offset < 0 {
		return data, ErrInvalidCursor
	}

	return data, nil
}
