package handler

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/optread/optread-api/internal/domain"
	"github.com/optread/optread-api/internal/dto"
	"github.com/optread/optread-api/internal/middleware"
	"github.com/optread/optread-api/internal/service"
	"github.com/optread/optread-api/pkg/logger"
	"github.com/optread/optread-api/pkg/response"
	"go.uber.org/zap"
)

// SubscriberHandler handles email-gate HTTP requests
type SubscriberHandler struct {
	subscriberService service.SubscriberService
}

// NewSubscriberHandler creates a new SubscriberHandler
func NewSubscriberHandler(subscriberService service.SubscriberService) *SubscriberHandler {
	return &SubscriberHandler{subscriberService: subscriberService}
}

// Subscribe records a gate submission for a book
// POST /api/v1/subscriber
func (h *SubscriberHandler) Subscribe(c *gin.Context) {
	var req dto.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.subscriberService.Subscribe(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrBookNotFound):
			response.NotFound(c, "Book not found")
		case errors.Is(err, domain.ErrBookUnpublished):
			response.BadRequest(c, "Book is not available")
		default:
			logger.Get().Error("subscribe failed", zap.Error(err))
			response.InternalError(c)
		}
		return
	}

	response.Created(c, result)
}

// List returns a book's subscribers
// GET /api/v1/subscribers/:bookId
func (h *SubscriberHandler) List(c *gin.Context) {
	claims := middleware.ClaimsFromContext(c)
	bookID := c.Param("bookId")

	subs, err := h.subscriberService.ListByBook(c.Request.Context(), claims, bookID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrBookNotFound):
			response.NotFound(c, "Book not found")
		case errors.Is(err, service.ErrForbidden):
			response.Forbidden(c, "Forbidden")
		default:
			logger.Get().Error("list subscribers failed", zap.Error(err))
			response.InternalError(c)
		}
		return
	}

	response.Success(c, subs)
}

// ExportCSV returns a book's subscribers as a CSV download. The export is
// buffered so authorization failures still produce a JSON error response.
// GET /api/v1/subscribers/export/:bookId
func (h *SubscriberHandler) ExportCSV(c *gin.Context) {
	claims := middleware.ClaimsFromContext(c)
	bookID := c.Param("bookId")

	var buf bytes.Buffer
	if err := h.subscriberService.ExportCSV(c.Request.Context(), claims, bookID, &buf); err != nil {
		switch {
		case errors.Is(err, domain.ErrBookNotFound):
			response.NotFound(c, "Book not found")
		case errors.Is(err, service.ErrForbidden):
			response.Forbidden(c, "Forbidden")
		default:
			logger.Get().Error("export subscribers failed", zap.Error(err))
			response.InternalError(c)
		}
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=subscribers-%s.csv", bookID))
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}
