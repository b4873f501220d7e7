package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/optread/optread-api/internal/dto"
	"github.com/optread/optread-api/internal/middleware"
	"github.com/optread/optread-api/internal/service"
	"github.com/optread/optread-api/pkg/logger"
	"github.com/optread/optread-api/pkg/response"
	"go.uber.org/zap"
)

// AuthHandler handles authentication HTTP requests
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register handles user registration
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			response.BadRequest(c, "Email already in use")
			return
		}
		logger.Get().Error("register failed", zap.Error(err))
		response.InternalError(c)
		return
	}

	response.Created(c, result)
}

// Login handles user login
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			response.Unauthorized(c, "Invalid credentials")
		case errors.Is(err, service.ErrAccountPaused):
			response.Forbidden(c, "Account is paused")
		default:
			logger.Get().Error("login failed", zap.Error(err))
			response.InternalError(c)
		}
		return
	}

	response.Success(c, result)
}

// Me returns the authenticated user
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.ClaimsFromContext(c)

	user, err := h.authService.GetUser(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, "User not found")
			return
		}
		logger.Get().Error("get user failed", zap.Error(err))
		response.InternalError(c)
		return
	}

	response.Success(c, dto.NewUserResponse(user))
}

// UpdateProfile updates name and email of the authenticated user
// PUT /api/v1/auth/profile
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	claims := middleware.ClaimsFromContext(c)

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.authService.UpdateProfile(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			response.BadRequest(c, "Email already in use")
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFound(c, "User not found")
		default:
			logger.Get().Error("update profile failed", zap.Error(err))
			response.InternalError(c)
		}
		return
	}

	response.Success(c, dto.NewUserResponse(user))
}

// ChangePassword changes the password of the authenticated user
// PUT /api/v1/auth/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	claims := middleware.ClaimsFromContext(c)

	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), claims.UserID, &req); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCurrentPassword):
			response.Unauthorized(c, "Current password is incorrect")
		case errors.Is(err, service.ErrWeakPassword):
			response.BadRequest(c, "Password must be at least 6 characters")
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFound(c, "User not found")
		default:
			logger.Get().Error("change password failed", zap.Error(err))
			response.InternalError(c)
		}
		return
	}

	response.Success(c, gin.H{"message": "Password updated"})
}

// RequestReset starts a password reset. The response is identical whether or
// not the email matches an account.
// POST /api/v1/auth/request-reset
func (h *AuthHandler) RequestReset(c *gin.Context) {
	var req dto.RequestResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.authService.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		logger.Get().Error("request reset failed", zap.Error(err))
		response.InternalError(c)
		return
	}

	response.Success(c, gin.H{"message": "If that email exists, a reset link has been sent"})
}

// VerifyResetToken checks a reset token without consuming it
// GET /api/v1/auth/verify-reset-token/:token
func (h *AuthHandler) VerifyResetToken(c *gin.Context) {
	token := c.Param("token")

	user, err := h.authService.VerifyResetToken(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, service.ErrInvalidResetToken) {
			// the body still carries valid:false so callers can branch
			// on the payload alone
			c.JSON(http.StatusBadRequest, response.Response{
				Success: false,
				Data:    dto.VerifyResetResponse{Valid: false},
				Error:   &response.ErrorData{Code: "VALIDATION_ERROR", Message: "Invalid or expired token"},
			})
			return
		}
		logger.Get().Error("verify reset token failed", zap.Error(err))
		response.InternalError(c)
		return
	}

	response.Success(c, dto.VerifyResetResponse{Valid: true, Email: user.Email})
}

// ResetPassword consumes a reset token and sets the new password
// POST /api/v1/auth/reset-password/:token
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	token := c.Param("token")

	var req dto.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), token, req.Password); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidResetToken):
			response.BadRequest(c, "Invalid or expired token")
		case errors.Is(err, service.ErrWeakPassword):
			response.BadRequest(c, "Password must be at least 6 characters")
		default:
			logger.Get().Error("reset password failed", zap.Error(err))
			response.InternalError(c)
		}
		return
	}

	response.Success(c, gin.H{"message": "Password has been reset"})
}
