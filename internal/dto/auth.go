package dto

// RegisterRequest is the registration payload
type RegisterRequest struct {
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// LoginRequest is the login payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse carries the session token plus the sanitized user
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// RequestResetRequest asks for a password-reset email. The response never
// indicates whether the address matched an account.
type RequestResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest submits the new password for a reset token
type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

// VerifyResetResponse is the non-consuming reset-token check result
type VerifyResetResponse struct {
	Valid bool   `json:"valid"`
	Email string `json:"email,omitempty"`
}
