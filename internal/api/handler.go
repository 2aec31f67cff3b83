package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/firdspulse/internal/domain/dto"
	"github.com/guttosm/firdspulse/internal/middleware"
	"github.com/guttosm/firdspulse/internal/service"
)

// Handler provides HTTP handlers for the reference-data read API.
//
// Responsibilities:
//   - Validate path and query parameters
//   - Call the service layer with the request context
//   - Translate results into response DTOs
//   - Return structured JSON responses with appropriate HTTP status codes
type Handler struct {
	svc service.ReferenceService
}

// NewHandler constructs a new Handler instance.
//
// Parameters:
//   - svc (service.ReferenceService): query service over stored reference data.
//
// Returns:
//   - *Handler: A handler ready to be registered with the router.
func NewHandler(svc service.ReferenceService) *Handler {
	return &Handler{svc: svc}
}

// GetInstrument handles GET /api/v1/instruments/:isin.
//
// Responses:
//   - 200 OK: current version per venue and the full version history.
//   - 400 Bad Request: the ISIN is not well formed.
//   - 404 Not Found: nothing stored for the ISIN.
//   - 500 Internal Server Error: database failure.
//
// GetInstrument godoc
// @Summary      Get instrument reference data
// @Description  Returns the current record per venue and every stored version of an ISIN
// @Tags         instruments
// @Produce      json
// @Param        isin  path      string  true  "ISIN" example(XS1234567890)
// @Success      200   {object}  dto.InstrumentResponse  "Success"
// @Failure      400   {object}  dto.ErrorResponse       "Bad Request"
// @Failure      404   {object}  dto.ErrorResponse       "Not Found"
// @Failure      500   {object}  dto.ErrorResponse       "Internal Error"
// @Router       /api/v1/instruments/{isin} [get]
func (h *Handler) GetInstrument(c *gin.Context) {
	// ─── Query service (with request context) ─────────────────
	hist, err := h.svc.GetInstrument(c.Request.Context(), c.Param("isin"))
	if errors.Is(err, service.ErrInvalidISIN) {
		middleware.AbortWithError(c, http.StatusBadRequest, "invalid isin", err)
		return
	}
	if err != nil {
		middleware.AbortWithError(c, http.StatusInternalServerError, "failed to fetch instrument", err)
		return
	}
	if hist == nil {
		middleware.AbortWithError(c, http.StatusNotFound, "instrument not found", nil)
		return
	}

	// ─── Build and return response DTO ────────────────────────
	resp := dto.InstrumentResponse{
		ISIN:    hist.ISIN,
		Current: make([]dto.InstrumentVersionResponse, 0, len(hist.Current)),
		History: make([]dto.InstrumentVersionResponse, 0, len(hist.History)),
	}
	for _, v := range hist.Current {
		resp.Current = append(resp.Current, dto.NewInstrumentVersionResponse(v))
	}
	for _, v := range hist.History {
		resp.History = append(resp.History, dto.NewInstrumentVersionResponse(v))
	}

	c.JSON(http.StatusOK, resp)
}

// ListIngestions handles GET /api/v1/ingestions.
//
// Query Parameters:
//   - limit (int, optional): number of ledgers to return, 1..500 (default 50).
//
// ListIngestions godoc
// @Summary      List ingestion ledgers
// @Description  Returns the most recent per-file ingestion ledgers, newest publication first
// @Tags         ingestions
// @Produce      json
// @Param        limit  query     int  false  "Max items" example(50)
// @Success      200    {object}  dto.IngestionListResponse  "Success"
// @Failure      400    {object}  dto.ErrorResponse          "Bad Request"
// @Failure      500    {object}  dto.ErrorResponse          "Internal Error"
// @Router       /api/v1/ingestions [get]
func (h *Handler) ListIngestions(c *gin.Context) {
	// ─── Parse optional "limit" param ─────────────────────────
	limit := 0
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			middleware.AbortWithError(c, http.StatusBadRequest, "invalid limit, expected a positive integer", err)
			return
		}
		limit = n
	}

	ledgers, err := h.svc.ListIngestions(c.Request.Context(), limit)
	if err != nil {
		middleware.AbortWithError(c, http.StatusInternalServerError, "failed to list ingestions", err)
		return
	}

	resp := dto.IngestionListResponse{Count: len(ledgers), Items: make([]dto.IngestionResponse, 0, len(ledgers))}
	for _, l := range ledgers {
		resp.Items = append(resp.Items, dto.NewIngestionResponse(l))
	}
	c.JSON(http.StatusOK, resp)
}
