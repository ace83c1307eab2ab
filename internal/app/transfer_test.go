package app

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotebook/internal/domain"
)

func TestParseImport(t *testing.T) {
	tests := []struct {
		name        string
		payload     string
		wantRecords []domain.Quote
		wantSkipped int
		wantErr     string
	}{
		{
			name:        "array of records",
			payload:     `[{"text":"a","category":"Life"},{"text":"b","category":"Wisdom","author":"X"}]`,
			wantRecords: []domain.Quote{{Text: "a", Category: "Life"}, {Text: "b", Category: "Wisdom", Author: "X"}},
		},
		{
			name:        "empty array",
			payload:     ` [] `,
			wantRecords: []domain.Quote{},
		},
		{
			name:        "lenient objects",
			payload:     `[{"text":"only text"},{"extra":true}]`,
			wantRecords: []domain.Quote{{Text: "only text"}, {}},
		},
		{
			name:        "non-object elements are skipped",
			payload:     `[1,"two",null,[3],{"text":"a","category":"b"}]`,
			wantRecords: []domain.Quote{{Text: "a", Category: "b"}},
			wantSkipped: 4,
		},
		{
			name:    "wrongly typed fields are coerced",
			payload: `[{"text":5,"category":true,"author":null},{"text":1e3,"category":["a",1]},{"text":{"k":"v"},"category":"x"}]`,
			wantRecords: []domain.Quote{
				{Text: "5", Category: "true"},
				{Text: "1e3", Category: `["a",1]`},
				{Text: `{"k":"v"}`, Category: "x"},
			},
		},
		{name: "trailing data", payload: `[] []`, wantErr: "payload is not valid JSON"},
		{name: "invalid json", payload: `[{"text":`, wantErr: "payload is not valid JSON"},
		{name: "empty payload", payload: ``, wantErr: "payload is not valid JSON"},
		{name: "object", payload: `{"text":"a"}`, wantErr: "payload is not a JSON array"},
		{name: "null", payload: `null`, wantErr: "payload is not a JSON array"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, skipped, err := ParseImport([]byte(tt.payload))

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, domain.IsValidation(err))
				assert.Contains(t, err.Error(), tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantRecords, records)
			assert.Equal(t, tt.wantSkipped, skipped)
		})
	}
}

func TestTransfer_Import(t *testing.T) {
	t.Run("appends and reports counts", func(t *testing.T) {
		s, _ := loadedStore(t, []domain.Quote{{Text: "a", Category: "Life"}})
		metrics := NewMetrics(prometheus.NewRegistry())
		tr := NewTransfer(s, discardLogger(), metrics)

		res, err := tr.Import(context.Background(), []byte(`[{"text":"b","category":"Humor"},42]`))

		require.NoError(t, err)
		assert.Equal(t, ImportResult{Imported: 1, Skipped: 1, Total: 2}, res)
		assert.Equal(t, []string{"Life", "Humor"}, s.Categories())
		assert.InDelta(t, 1, testutil.ToFloat64(metrics.imports.WithLabelValues("skipped")), 0)
	})

	t.Run("rejected payload leaves the store unchanged", func(t *testing.T) {
		s, _ := loadedStore(t, nil)
		before := s.Snapshot()

		_, err := NewTransfer(s, nil, nil).Import(context.Background(), []byte(`{"text":"a"}`))

		require.Error(t, err)
		assert.Equal(t, before, s.Snapshot())
	})
}

func TestTransfer_ExportRoundTrip(t *testing.T) {
	src, _ := loadedStore(t, nil)
	tr := NewTransfer(src, nil, nil)

	out, err := tr.Export(context.Background())
	require.NoError(t, err)
	assert.True(t, json.Valid(out))

	dst, _ := loadedStore(t, []domain.Quote{})
	res, err := NewTransfer(dst, nil, nil).Import(context.Background(), out)

	require.NoError(t, err)
	assert.Equal(t, len(domain.DefaultQuotes()), res.Imported)
	assert.Equal(t, src.Snapshot(), dst.Snapshot())
}
