package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotebook/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotebook/internal/app"
)

// SyncHandler exposes the sync adapter.
type SyncHandler struct {
	sync *app.SyncService
}

// NewSyncHandler creates a sync handler.
func NewSyncHandler(sync *app.SyncService) *SyncHandler {
	return &SyncHandler{sync: sync}
}

// Sync handles POST /api/v1/sync.
//
// @Summary Sync now
// @Tags sync
// @Produce json
// @Success 200 {object} app.SyncResult
// @Failure 503 {object} dto.ErrorResponse
// @Router /api/v1/sync [post]
func (h *SyncHandler) Sync(c *gin.Context) {
	h.run(c, app.TriggerManual)
}

// Focus handles POST /api/v1/sync/focus, sent by clients regaining focus.
func (h *SyncHandler) Focus(c *gin.Context) {
	h.run(c, app.TriggerFocus)
}

func (h *SyncHandler) run(c *gin.Context, trigger app.Trigger) {
	result, err := h.sync.Sync(c.Request.Context(), trigger)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Status handles GET /api/v1/sync/status.
func (h *SyncHandler) Status(c *gin.Context) {
	status, err := h.sync.Status(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// Resolve handles POST /api/v1/sync/resolve.
//
// @Summary Resolve sync differences
// @Tags sync
// @Accept json
// @Produce json
// @Param request body dto.ResolveRequest true "Policy: remote, local or merge"
// @Success 200 {object} app.SyncResult
// @Failure 400 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /api/v1/sync/resolve [post]
func (h *SyncHandler) Resolve(c *gin.Context) {
	var req dto.ResolveRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.RespondBindError(c, err)
		return
	}

	result, err := h.sync.Resolve(c.Request.Context(), req.Policy)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// RegisterRoutes registers sync routes.
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sync := rg.Group("/sync")
	sync.POST("", h.Sync)
	sync.POST("/focus", h.Focus)
	sync.GET("/status", h.Status)
	sync.POST("/resolve", h.Resolve)
}
