package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jsamuelsen/quotebook/internal/domain"
	"github.com/jsamuelsen/quotebook/internal/platform/logging"
)

// ImportResult reports how many array elements became records.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Total    int `json:"total"`
}

// Transfer moves the collection in and out as a JSON array.
type Transfer struct {
	store   *QuoteStore
	logger  *slog.Logger
	metrics *Metrics
}

// NewTransfer creates a transfer service.
func NewTransfer(store *QuoteStore, logger *slog.Logger, metrics *Metrics) *Transfer {
	if store == nil {
		panic("app: Transfer requires a quote store")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Transfer{
		store:   store,
		logger:  logger.With(slog.String("component", "transfer")),
		metrics: metrics,
	}
}

// Export returns the downloadable JSON array.
func (t *Transfer) Export(ctx context.Context) ([]byte, error) {
	return t.store.ExportAll(ctx)
}

// Import parses data and appends every decodable record. The store is
// untouched when data is not a JSON array.
func (t *Transfer) Import(ctx context.Context, data []byte) (ImportResult, error) {
	records, skipped, err := ParseImport(data)
	if err != nil {
		return ImportResult{}, err
	}

	total, err := t.store.ImportBatch(ctx, records)
	if err != nil {
		return ImportResult{}, err
	}

	t.metrics.imported(len(records), skipped)

	logging.FromContextOr(ctx, t.logger).InfoContext(ctx, "quotes imported",
		slog.Int("imported", len(records)),
		slog.Int("skipped", skipped),
		slog.Int("total", total),
	)

	return ImportResult{Imported: len(records), Skipped: skipped, Total: total}, nil
}

// ParseImport decodes a JSON array of quote records. Object elements are
// decoded leniently: missing or null fields stay empty, unknown fields are
// ignored, and scalar fields of another JSON type keep their literal text.
// Elements that are not objects are counted as skipped.
func ParseImport(data []byte) ([]domain.Quote, int, error) {
	dec := json.NewDecoder(bytes.NewReader(bytes.TrimSpace(data)))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, 0, domain.NewImportError("payload is not valid JSON", err)
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, 0, domain.NewImportError("payload is not valid JSON", err)
	}

	elements, ok := doc.([]any)
	if !ok {
		return nil, 0, domain.NewImportError("payload is not a JSON array", nil)
	}

	records := make([]domain.Quote, 0, len(elements))
	skipped := 0

	for _, el := range elements {
		obj, ok := el.(map[string]any)
		if !ok {
			skipped++
			continue
		}

		records = append(records, domain.Quote{
			Text:     coerceField(obj["text"]),
			Category: coerceField(obj["category"]),
			Author:   coerceField(obj["author"]),
		})
	}

	return records, skipped, nil
}

// coerceField renders an imported field as text. Nested values keep their
// JSON form.
func coerceField(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number, bool:
		return fmt.Sprint(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}

		return string(b)
	}
}
