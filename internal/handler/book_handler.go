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

// BookHandler handles book listing HTTP requests
type BookHandler struct {
	bookService service.BookService
}

// NewBookHandler creates a new BookHandler
func NewBookHandler(bookService service.BookService) *BookHandler {
	return &BookHandler{bookService: bookService}
}

// List returns all book listings
// GET /api/v1/books
func (h *BookHandler) List(c *gin.Context) {
	books, err := h.bookService.List(c.Request.Context())
	if err != nil {
		logger.Get().Error("list books failed", zap.Error(err))
		response.InternalError(c)
		return
	}
	response.Success(c, books)
}

// ListMine returns the authenticated user's listings
// GET /api/v1/my-books
func (h *BookHandler) ListMine(c *gin.Context) {
	claims := middleware.ClaimsFromContext(c)

	books, err := h.bookService.ListMine(c.Request.Context(), claims)
	if err != nil {
		logger.Get().Error("list own books failed", zap.Error(err))
		response.InternalError(c)
		return
	}
	response.Success(c, books)
}

// Get returns a book by ID
// GET /api/v1/books/:id
func (h *BookHandler) Get(c *gin.Context) {
	book, err := h.bookService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrBookNotFound) {
			response.NotFound(c, "Book not found")
			return
		}
		logger.Get().Error("get book failed", zap.Error(err))
		response.InternalError(c)
		return
	}
	response.Success(c, book)
}

// GetBySlug returns a published book for its public landing page
// GET /api/v1/book/:slug
func (h *BookHandler) GetBySlug(c *gin.Context) {
	book, err := h.bookService.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, domain.ErrBookNotFound) {
			response.NotFound(c, "Book not found")
			return
		}
		logger.Get().Error("get book by slug failed", zap.Error(err))
		response.InternalError(c)
		return
	}
	response.Success(c, book)
}

// Create adds a listing owned by the authenticated user
// POST /api/v1/books
func (h *BookHandler) Create(c *gin.Context) {
	claims := middleware.ClaimsFromContext(c)

	var req dto.BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	book, err := h.bookService.Create(c.Request.Context(), claims, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrForbidden):
			response.Forbidden(c, "Forbidden")
		case errors.Is(err, service.ErrInvalidBookType):
			response.BadRequest(c, "Invalid book type")
		default:
			logger.Get().Error("create book failed", zap.Error(err))
			response.InternalError(c)
		}
		return
	}

	response.Created(c, book)
}

// Update modifies a listing
// PUT /api/v1/books/:id
func (h *BookHandler) Update(c *gin.Context) {
	claims := middleware.ClaimsFromContext(c)

	var req dto.BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	book, err := h.bookService.Update(c.Request.Context(), claims, c.Param("id"), &req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrBookNotFound):
			response.NotFound(c, "Book not found")
		case errors.Is(err, service.ErrForbidden):
			response.Forbidden(c, "Forbidden")
		case errors.Is(err, service.ErrInvalidBookType):
			response.BadRequest(c, "Invalid book type")
		default:
			logger.Get().Error("update book failed", zap.Error(err))
			response.InternalError(c)
		}
		return
	}

	response.Success(c, book)
}

// Delete removes a listing
// DELETE /api/v1/books/:id
func (h *BookHandler) Delete(c *gin.Context) {
	claims := middleware.ClaimsFromContext(c)

	if err := h.bookService.Delete(c.Request.Context(), claims, c.Param("id")); err != nil {
		switch {
		case errors.Is(err, domain.ErrBookNotFound):
			response.NotFound(c, "Book not found")
		case errors.Is(err, service.ErrForbidden):
			response.Forbidden(c, "Forbidden")
		default:
			logger.Get().Error("delete book failed", zap.Error(err))
			response.InternalError(c)
		}
		return
	}

	response.NoContent(c)
}

// IncrementViews bumps the public view counter
// POST /api/v1/books/:id/views
func (h *BookHandler) IncrementViews(c *gin.Context) {
	count, err := h.bookService.IncrementViews(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrBookNotFound) {
			response.NotFound(c, "Book not found")
			return
		}
		logger.Get().Error("increment views failed", zap.Error(err))
		response.InternalError(c)
		return
	}
	response.Success(c, dto.CounterResponse{ViewCount: &count})
}

// IncrementDownloads bumps the public download counter
// POST /api/v1/books/:id/downloads
func (h *BookHandler) IncrementDownloads(c *gin.Context) {
	count, err := h.bookService.IncrementDownloads(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrBookNotFound) {
			response.NotFound(c, "Book not found")
			return
		}
		logger.Get().Error("increment downloads failed", zap.Error(err))
		response.InternalError(c)
		return
	}
	response.Success(c, dto.CounterResponse{DownloadCount: &count})
}
