package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotebook/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotebook/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quotebook/internal/app"
)

// SessionHandler reports per-session viewing metadata.
type SessionHandler struct {
	recorder *app.SessionRecorder
	now      func() time.Time
}

// NewSessionHandler creates a session handler. A nil clock uses time.Now.
func NewSessionHandler(recorder *app.SessionRecorder, now func() time.Time) *SessionHandler {
	if now == nil {
		now = time.Now
	}

	return &SessionHandler{
		recorder: recorder,
		now:      now,
	}
}

// GetSession handles GET /api/v1/session for the caller's X-Session-ID.
//
// @Summary Session summary
// @Tags session
// @Produce json
// @Success 200 {object} dto.SessionResponse
// @Router /api/v1/session [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	info, err := h.recorder.Session(c.Request.Context(), middleware.GetSessionID(c))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	resp := dto.SessionResponse{
		ID:           info.ID,
		StartedAt:    dto.OptionalTime(info.StartedAt),
		LastViewedAt: dto.OptionalTime(info.LastViewedAt),
		ActiveFilter: info.ActiveFilter,
		Summary:      app.Summary(info, h.now()),
	}

	if info.LastViewed != nil {
		view := dto.NewRenderingResponse(*info.LastViewed)
		resp.LastViewed = &view
	}

	c.JSON(http.StatusOK, resp)
}

// RegisterRoutes registers session routes.
func (h *SessionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/session", h.GetSession)
}
