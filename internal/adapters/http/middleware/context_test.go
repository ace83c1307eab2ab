package middleware

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextIDs(t *testing.T) {
	accessors := []struct {
		name string
		with func(context.Context, string) context.Context
		from func(context.Context) string
	}{
		{"request", ContextWithRequestID, RequestIDFromContext},
		{"correlation", ContextWithCorrelationID, CorrelationIDFromContext},
		{"session", ContextWithSessionID, SessionIDFromContext},
	}

	for _, a := range accessors {
		t.Run(a.name, func(t *testing.T) {
			assert.Empty(t, a.from(context.Background()), "unset")
			assert.Empty(t, a.from(nil), "nil context") //nolint:staticcheck // nil is tolerated
			assert.Equal(t, "tab-1", a.from(a.with(context.Background(), "tab-1")))
			assert.Equal(t, "second", a.from(a.with(a.with(context.Background(), "first"), "second")))
		})
	}
}

func TestContextIDs_Independent(t *testing.T) {
	ctx := ContextWithSessionID(context.Background(), "tab-7")
	ctx = ContextWithRequestID(ctx, "req-1")

	assert.Equal(t, "tab-7", SessionIDFromContext(ctx))
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.Empty(t, CorrelationIDFromContext(ctx))
}

func TestContextIDs_ForeignKeyIgnored(t *testing.T) {
	//nolint:staticcheck // a plain string key must not collide with ours
	ctx := context.WithValue(context.Background(), "session_id", "intruder")

	assert.Empty(t, SessionIDFromContext(ctx))
}
