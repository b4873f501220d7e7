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

// UserHandler handles admin user-management HTTP requests
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// List returns all users
// GET /api/v1/users
func (h *UserHandler) List(c *gin.Context) {
	claims := middleware.ClaimsFromContext(c)

	users, err := h.userService.List(c.Request.Context(), claims)
	if err != nil {
		if errors.Is(err, service.ErrForbidden) {
			response.Forbidden(c, "Forbidden")
			return
		}
		logger.Get().Error("list users failed", zap.Error(err))
		response.InternalError(c)
		return
	}

	out := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, dto.NewUserResponse(u))
	}
	response.Success(c, out)
}

// UpdateStatus pauses or reactivates an account
// PUT /api/v1/users/:id/status
func (h *UserHandler) UpdateStatus(c *gin.Context) {
	claims := middleware.ClaimsFromContext(c)
	id := c.Param("id")

	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.userService.UpdateStatus(c.Request.Context(), claims, id, domain.UserStatus(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrForbidden):
			response.Forbidden(c, "Forbidden")
		case errors.Is(err, service.ErrInvalidStatus):
			response.BadRequest(c, "Invalid user status")
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFound(c, "User not found")
		default:
			logger.Get().Error("update user status failed", zap.Error(err))
			response.InternalError(c)
		}
		return
	}

	response.Success(c, dto.NewUserResponse(user))
}

// Delete removes a user and their book listings
// DELETE /api/v1/users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	claims := middleware.ClaimsFromContext(c)
	id := c.Param("id")

	if err := h.userService.Delete(c.Request.Context(), claims, id); err != nil {
		switch {
		case errors.Is(err, service.ErrCannotDeleteAdmin):
			response.Forbidden(c, "Cannot delete admin users")
		case errors.Is(err, service.ErrForbidden):
			response.Forbidden(c, "Forbidden")
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFound(c, "User not found")
		default:
			logger.Get().Error("delete user failed", zap.Error(err))
			response.InternalError(c)
		}
		return
	}

	response.NoContent(c)
}
