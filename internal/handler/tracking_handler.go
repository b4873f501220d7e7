package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/optread/optread-api/internal/domain"
	"github.com/optread/optread-api/internal/dto"
	"github.com/optread/optread-api/internal/middleware"
	"github.com/optread/optread-api/internal/service"
	"github.com/optread/optread-api/pkg/logger"
	"github.com/optread/optread-api/pkg/response"
	"go.uber.org/zap"
)

// TrackingHandler handles tracking snippet HTTP requests
type TrackingHandler struct {
	trackingService service.TrackingService
}

// NewTrackingHandler creates a new TrackingHandler
func NewTrackingHandler(trackingService service.TrackingService) *TrackingHandler {
	return &TrackingHandler{trackingService: trackingService}
}

// List returns all tracking codes
// GET /api/v1/tracking-codes
func (h *TrackingHandler) List(c *gin.Context) {
	claims := middleware.ClaimsFromContext(c)

	codes, err := h.trackingService.List(c.Request.Context(), claims)
	if err != nil {
		h.writeError(c, err, "list tracking codes failed")
		return
	}
	response.Success(c, codes)
}

// ListActive returns active codes for a public page injection slot
// GET /api/v1/tracking-codes/active/:position
func (h *TrackingHandler) ListActive(c *gin.Context) {
	position := domain.Position(c.Param("position"))

	codes, err := h.trackingService.ListActive(c.Request.Context(), position)
	if err != nil {
		h.writeError(c, err, "list active tracking codes failed")
		return
	}
	response.Success(c, codes)
}

// Create adds a tracking code
// POST /api/v1/tracking-codes
func (h *TrackingHandler) Create(c *gin.Context) {
	claims := middleware.ClaimsFromContext(c)

	var req dto.TrackingCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	code, err := h.trackingService.Create(c.Request.Context(), claims, &req)
	if err != nil {
		h.writeError(c, err, "create tracking code failed")
		return
	}

	response.Created(c, code)
}

// Update modifies a tracking code
// PUT /api/v1/tracking-codes/:id
func (h *TrackingHandler) Update(c *gin.Context) {
	claims := middleware.ClaimsFromContext(c)

	var req dto.TrackingCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	code, err := h.trackingService.Update(c.Request.Context(), claims, c.Param("id"), &req)
	if err != nil {
		h.writeError(c, err, "update tracking code failed")
		return
	}

	response.Success(c, code)
}

// Delete removes a tracking code
// DELETE /api/v1/tracking-codes/:id
func (h *TrackingHandler) Delete(c *gin.Context) {
	claims := middleware.ClaimsFromContext(c)

	if err := h.trackingService.Delete(c.Request.Context(), claims, c.Param("id")); err != nil {
		h.writeError(c, err, "delete tracking code failed")
		return
	}

	response.NoContent(c)
}

func (h *TrackingHandler) writeError(c *gin.Context, err error, logMsg string) {
	switch {
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c, "Forbidden")
	case errors.Is(err, domain.ErrTrackingCodeNotFound):
		response.NotFound(c, "Tracking code not found")
	case errors.Is(err, domain.ErrInvalidPosition):
		response.BadRequest(c, "Invalid position")
	default:
		logger.Get().Error(logMsg, zap.Error(err))
		response.InternalError(c)
	}
}
