package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotebook/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotebook/internal/app"
	"github.com/jsamuelsen/quotebook/internal/domain"
)

func TestSyncHandler_Sync(t *testing.T) {
	remote := []domain.Quote{{Text: "theirs", Category: "Humor"}}

	tests := []struct {
		name string
		path string
		want app.Trigger
	}{
		{"manual", "/api/v1/sync", app.TriggerManual},
		{"focus", "/api/v1/sync/focus", app.TriggerFocus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAPIFixture(t, nil)
			f.remote.EXPECT().Fetch(mock.Anything).Return(remote, nil).Once()

			w := f.do(http.MethodPost, tt.path, "")

			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			res := decode[app.SyncResult](t, w)
			assert.Equal(t, tt.want, res.Trigger)
			assert.Equal(t, app.OutcomeResolved, res.Outcome)
			assert.Equal(t, domain.PolicyRemote, res.Policy)
			assert.Equal(t, remote, f.store.Snapshot())
		})
	}
}

func TestSyncHandler_SyncUnavailable(t *testing.T) {
	f := newAPIFixture(t, nil)
	f.remote.EXPECT().Fetch(mock.Anything).Return(nil, errors.New("connection refused")).Once()

	w := f.do(http.MethodPost, "/api/v1/sync", "")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, dto.ErrorCodeUnavailable, decode[dto.ErrorResponse](t, w).Error.Code)
	assert.Equal(t, domain.DefaultQuotes(), f.store.Snapshot())

	status := f.do(http.MethodGet, "/api/v1/sync/status", "")
	require.Equal(t, http.StatusOK, status.Code)

	got := decode[app.SyncStatus](t, status)
	assert.Equal(t, app.SyncIdle, got.State)
	assert.Equal(t, app.SyncFailed, got.LastOutcome)
	assert.Equal(t, "simulated", got.Source)
	assert.Contains(t, got.LastError, "connection refused")
}

func TestSyncHandler_Status(t *testing.T) {
	f := newAPIFixture(t, nil)

	w := f.do(http.MethodGet, "/api/v1/sync/status", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"state":"idle","source":"simulated","inFlight":0,"pending":false}`, w.Body.String())
}

func TestSyncHandler_Resolve(t *testing.T) {
	local := []domain.Quote{{Text: "mine", Category: "Life"}}
	remote := []domain.Quote{{Text: "theirs", Category: "Humor"}}

	t.Run("merge", func(t *testing.T) {
		f := newAPIFixture(t, local)
		f.remote.EXPECT().Fetch(mock.Anything).Return(remote, nil).Once()

		w := f.do(http.MethodPost, "/api/v1/sync/resolve", `{"policy":"merge"}`)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, domain.PolicyMerge, decode[app.SyncResult](t, w).Policy)
		assert.Equal(t, []domain.Quote{local[0], remote[0]}, f.store.Snapshot())
	})

	t.Run("local pushes", func(t *testing.T) {
		f := newAPIFixture(t, local)
		f.remote.EXPECT().Fetch(mock.Anything).Return(remote, nil).Once()
		f.remote.EXPECT().Push(mock.Anything, local).Return(nil).Once()

		w := f.do(http.MethodPost, "/api/v1/sync/resolve", `{"policy":"local"}`)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, local, f.store.Snapshot())
	})

	t.Run("unknown policy", func(t *testing.T) {
		f := newAPIFixture(t, local)

		w := f.do(http.MethodPost, "/api/v1/sync/resolve", `{"policy":"newest"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		resp := decode[dto.ErrorResponse](t, w)
		assert.Equal(t, dto.ErrorCodeValidation, resp.Error.Code)
		assert.Equal(t, "must be one of: remote, local, merge", resp.Error.Details["policy"])
	})

	t.Run("missing policy", func(t *testing.T) {
		f := newAPIFixture(t, local)

		w := f.do(http.MethodPost, "/api/v1/sync/resolve", `{}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"policy":"this field is required"`)
	})

	t.Run("push failure", func(t *testing.T) {
		f := newAPIFixture(t, local)
		f.remote.EXPECT().Fetch(mock.Anything).Return(remote, nil).Once()
		f.remote.EXPECT().Push(mock.Anything, mock.Anything).
			RunAndReturn(func(context.Context, []domain.Quote) error {
				return domain.NewUnavailableError("simulated", "write failed")
			}).Once()

		w := f.do(http.MethodPost, "/api/v1/sync/resolve", `{"policy":"local"}`)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
