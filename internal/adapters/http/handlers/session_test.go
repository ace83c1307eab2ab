package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotebook/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotebook/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quotebook/internal/domain"
)

func TestSessionHandler_GetSession(t *testing.T) {
	t.Run("new session", func(t *testing.T) {
		f := newAPIFixture(t, nil)

		w := f.do(http.MethodGet, "/api/v1/session", "", middleware.HeaderSessionID, "tab-9")

		require.Equal(t, http.StatusOK, w.Code)

		resp := decode[dto.SessionResponse](t, w)
		assert.Equal(t, "tab-9", resp.ID)
		assert.Nil(t, resp.StartedAt)
		assert.Nil(t, resp.LastViewed)
		assert.Equal(t, "new session, no quotes viewed yet", resp.Summary)
	})

	t.Run("after a view", func(t *testing.T) {
		f := newAPIFixture(t, nil)

		require.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/v1/quotes/random", "", middleware.HeaderSessionID, "tab-1").Code)

		w := f.do(http.MethodGet, "/api/v1/session", "", middleware.HeaderSessionID, "tab-1")

		require.Equal(t, http.StatusOK, w.Code)

		resp := decode[dto.SessionResponse](t, w)
		require.NotNil(t, resp.StartedAt)
		assert.True(t, testNow.Equal(*resp.StartedAt))
		require.NotNil(t, resp.LastViewed)
		assert.Equal(t, domain.RenderQuote, resp.LastViewed.Kind)
		assert.Equal(t, domain.CategoryAll, resp.ActiveFilter)
		assert.Contains(t, resp.Summary, "last quote viewed")
	})

	t.Run("sessions are isolated", func(t *testing.T) {
		f := newAPIFixture(t, nil)

		require.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/v1/quotes/random", "", middleware.HeaderSessionID, "tab-1").Code)

		w := f.do(http.MethodGet, "/api/v1/session", "", middleware.HeaderSessionID, "tab-2")

		resp := decode[dto.SessionResponse](t, w)
		assert.Nil(t, resp.LastViewed)
	})

	t.Run("generated session id is echoed", func(t *testing.T) {
		f := newAPIFixture(t, nil)

		w := f.do(http.MethodGet, "/api/v1/session", "")

		resp := decode[dto.SessionResponse](t, w)
		assert.NotEmpty(t, resp.ID)
		assert.Equal(t, resp.ID, w.Header().Get(middleware.HeaderSessionID))
	})
}
