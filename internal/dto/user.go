package dto

import (
	"time"

	"github.com/optread/optread-api/internal/domain"
)

// UserResponse is the externally visible view of a user. It never carries
// the password hash or reset token fields.
type UserResponse struct {
	ID        string `json:"id"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Status    string `json:"user_status"`
	CreatedAt string `json:"created_at"`
}

// NewUserResponse converts a domain user to its sanitized view
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		FullName:  u.FullName,
		Email:     u.Email,
		Role:      string(u.Role),
		Status:    string(u.Status),
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}

// UpdateProfileRequest updates name and email
type UpdateProfileRequest struct {
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
}

// ChangePasswordRequest changes the password of the authenticated user
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

// UpdateStatusRequest pauses or reactivates an account (admin only)
type UpdateStatusRequest struct {
	Status string `json:"user_status" binding:"required"`
}
