package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotebook/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotebook/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quotebook/internal/app"
	"github.com/jsamuelsen/quotebook/internal/domain"
)

// exportFilename is the attachment name offered to browsers.
const exportFilename = "quotes.json"

// importField is the multipart field carrying the uploaded file.
const importField = "file"

// QuoteHandler handles collection, display and filter endpoints.
type QuoteHandler struct {
	store    *app.QuoteStore
	view     *app.ViewService
	transfer *app.Transfer
}

// NewQuoteHandler creates a new quote handler.
func NewQuoteHandler(store *app.QuoteStore, view *app.ViewService, transfer *app.Transfer) *QuoteHandler {
	return &QuoteHandler{
		store:    store,
		view:     view,
		transfer: transfer,
	}
}

// ListQuotes handles GET /api/v1/quotes.
//
// @Summary List quotes
// @Tags quotes
// @Produce json
// @Param category query string false "Category filter"
// @Param cursor query string false "Cursor from a previous page"
// @Param limit query int false "Page size"
// @Success 200 {object} dto.PaginatedResponse[dto.QuoteResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/quotes [get]
func (h *QuoteHandler) ListQuotes(c *gin.Context) {
	var req dto.ListQuotesRequest
	if err := dto.BindQueryAndValidate(c, &req); err != nil {
		dto.RespondBindError(c, err)
		return
	}

	quotes := h.store.Snapshot()
	if req.Category != "" {
		quotes = domain.FilterByCategory(quotes, req.Category)
	}

	page, err := dto.Paginate(dto.NewQuoteResponses(quotes), req.PaginationRequest)
	if err != nil {
		dto.RespondWithCode(c, dto.ErrorCodeBadRequest, err.Error())
		return
	}

	c.JSON(http.StatusOK, page)
}

// AddQuote handles POST /api/v1/quotes.
//
// @Summary Add a quote
// @Tags quotes
// @Accept json
// @Produce json
// @Param quote body dto.CreateQuoteRequest true "Quote"
// @Success 201 {object} dto.QuoteResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/quotes [post]
func (h *QuoteHandler) AddQuote(c *gin.Context) {
	var req dto.CreateQuoteRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.RespondBindError(c, err)
		return
	}

	quote, err := h.store.Add(c.Request.Context(), req.ToDomain())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewQuoteResponse(quote))
}

// ClearQuotes handles DELETE /api/v1/quotes. The collection is reset to the
// default seed, not emptied.
func (h *QuoteHandler) ClearQuotes(c *gin.Context) {
	if err := h.store.Clear(c.Request.Context()); err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.store.Stats())
}

// RandomQuote handles GET /api/v1/quotes/random.
//
// @Summary Show the next quote
// @Description Picks a random quote from the pool selected by the persisted filter.
// @Tags quotes
// @Produce json
// @Success 200 {object} dto.RenderingResponse
// @Router /api/v1/quotes/random [get]
func (h *QuoteHandler) RandomQuote(c *gin.Context) {
	rendering, err := h.view.Next(c.Request.Context(), middleware.GetSessionID(c))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewRenderingResponse(rendering))
}

// Stats handles GET /api/v1/quotes/stats.
func (h *QuoteHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Stats())
}

// Export handles GET /api/v1/quotes/export.
//
// @Summary Download the collection
// @Tags transfer
// @Produce json
// @Success 200 {array} dto.QuoteResponse
// @Router /api/v1/quotes/export [get]
func (h *QuoteHandler) Export(c *gin.Context) {
	data, err := h.transfer.Export(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+exportFilename+`"`)
	c.Data(http.StatusOK, "application/json", data)
}

// Import handles POST /api/v1/quotes/import. The payload is either the
// multipart field "file" or the raw request body.
//
// @Summary Upload quotes
// @Tags transfer
// @Accept json,mpfd
// @Produce json
// @Success 200 {object} dto.ImportResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 413 {object} dto.ErrorResponse
// @Router /api/v1/quotes/import [post]
func (h *QuoteHandler) Import(c *gin.Context) {
	data, err := readImportPayload(c)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponse(
				dto.ErrorCodeBadRequest,
				"import payload exceeds the request size limit",
			).WithTraceID(dto.GetTraceID(c)))

			return
		}

		dto.RespondWithCode(c, dto.ErrorCodeBadRequest, err.Error())

		return
	}

	res, err := h.transfer.Import(c.Request.Context(), data)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ImportResponse(res))
}

func readImportPayload(c *gin.Context) ([]byte, error) {
	if c.ContentType() != gin.MIMEMultipartPOSTForm {
		return io.ReadAll(c.Request.Body)
	}

	header, err := c.FormFile(importField)
	if err != nil {
		return nil, err
	}

	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}

// Categories handles GET /api/v1/categories.
func (h *QuoteHandler) Categories(c *gin.Context) {
	categories := h.store.Categories()
	if categories == nil {
		categories = []string{}
	}

	c.JSON(http.StatusOK, dto.CategoriesResponse{
		Categories: categories,
		Selected:   h.store.SelectedCategory(),
	})
}

// GetFilter handles GET /api/v1/filter.
func (h *QuoteHandler) GetFilter(c *gin.Context) {
	c.JSON(http.StatusOK, dto.FilterResponse{Category: h.store.SelectedCategory()})
}

// SetFilter handles PUT /api/v1/filter. Any non-blank category is accepted,
// including one with no quotes.
func (h *QuoteHandler) SetFilter(c *gin.Context) {
	var req dto.FilterRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.RespondBindError(c, err)
		return
	}

	h.selectCategory(c, req.Category)
}

// ClearFilter handles DELETE /api/v1/filter.
func (h *QuoteHandler) ClearFilter(c *gin.Context) {
	h.selectCategory(c, domain.CategoryAll)
}

func (h *QuoteHandler) selectCategory(c *gin.Context, category string) {
	if err := h.view.SelectCategory(c.Request.Context(), middleware.GetSessionID(c), category); err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FilterResponse{Category: h.store.SelectedCategory()})
}

// RegisterRoutes registers collection, category and filter routes.
func (h *QuoteHandler) RegisterRoutes(rg *gin.RouterGroup) {
	quotes := rg.Group("/quotes")
	quotes.GET("", h.ListQuotes)
	quotes.POST("", h.AddQuote)
	quotes.DELETE("", h.ClearQuotes)
	quotes.GET("/random", h.RandomQuote)
	quotes.GET("/stats", h.Stats)
	quotes.GET("/export", h.Export)
	quotes.POST("/import", h.Import)

	rg.GET("/categories", h.Categories)

	filter := rg.Group("/filter")
	filter.GET("", h.GetFilter)
	filter.PUT("", h.SetFilter)
	filter.DELETE("", h.ClearFilter)
}
