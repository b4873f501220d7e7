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

// CategoryHandler handles category HTTP requests
type CategoryHandler struct {
	categoryService service.CategoryService
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// List returns all categories
// GET /api/v1/categories
func (h *CategoryHandler) List(c *gin.Context) {
	categories, err := h.categoryService.List(c.Request.Context())
	if err != nil {
		logger.Get().Error("list categories failed", zap.Error(err))
		response.InternalError(c)
		return
	}
	response.Success(c, categories)
}

// Create adds a category
// POST /api/v1/categories
func (h *CategoryHandler) Create(c *gin.Context) {
	claims := middleware.ClaimsFromContext(c)

	var req dto.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	category, err := h.categoryService.Create(c.Request.Context(), claims, &req)
	if err != nil {
		h.writeError(c, err, "create category failed")
		return
	}

	response.Created(c, category)
}

// Update renames or reparents a category
// PUT /api/v1/categories/:id
func (h *CategoryHandler) Update(c *gin.Context) {
	claims := middleware.ClaimsFromContext(c)

	var req dto.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	category, err := h.categoryService.Update(c.Request.Context(), claims, c.Param("id"), &req)
	if err != nil {
		h.writeError(c, err, "update category failed")
		return
	}

	response.Success(c, category)
}

// Delete removes a category
// DELETE /api/v1/categories/:id
func (h *CategoryHandler) Delete(c *gin.Context) {
	claims := middleware.ClaimsFromContext(c)

	if err := h.categoryService.Delete(c.Request.Context(), claims, c.Param("id")); err != nil {
		if errors.Is(err, domain.ErrCategoryInUse) {
			response.BadRequest(c, "Category has child categories")
			return
		}
		h.writeError(c, err, "delete category failed")
		return
	}

	response.NoContent(c)
}

func (h *CategoryHandler) writeError(c *gin.Context, err error, logMsg string) {
	switch {
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c, "Forbidden")
	case errors.Is(err, domain.ErrCategoryNotFound):
		response.NotFound(c, "Category not found")
	case errors.Is(err, domain.ErrCategoryNested):
		response.BadRequest(c, "Categories may only be nested one level deep")
	case errors.Is(err, domain.ErrCategoryNameTaken):
		response.BadRequest(c, "Category name already in use")
	default:
		logger.Get().Error(logMsg, zap.Error(err))
		response.InternalError(c)
	}
}
