package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/optread/optread-api/internal/domain"
	"github.com/optread/optread-api/internal/dto"
	"github.com/optread/optread-api/internal/repository"
	"github.com/optread/optread-api/pkg/mailer"
	"github.com/optread/optread-api/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken             = errors.New("email already in use")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrUserNotFound           = errors.New("user not found")
	ErrAccountPaused          = errors.New("account is paused")
	ErrInvalidToken           = errors.New("invalid token")
	ErrTokenExpired           = errors.New("token expired")
	ErrInvalidResetToken      = errors.New("invalid or expired reset token")
	ErrWeakPassword           = errors.New("password must be at least 6 characters")
	ErrInvalidCurrentPassword = errors.New("current password is incorrect")
)

const minPasswordLength = 6

// resetTokenBytes of entropy per reset token; hex-encoded on the wire.
const resetTokenBytes = 32

// AuthServiceConfig holds configuration for AuthService
type AuthServiceConfig struct {
	JWTSecret       string
	SessionTokenTTL time.Duration
	ResetTokenTTL   time.Duration
	BcryptCost      int
	// PublicURL is the frontend origin used to build reset links
	PublicURL string
	// Now is the clock used for token issuance and expiry checks.
	// Tests override it; production leaves it nil for time.Now.
	Now func() time.Time
}

// AuthService defines the interface for authentication operations
type AuthService interface {
	// Register creates a contributor account and issues a session token
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	// Login authenticates a user and issues a session token
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	// ValidateToken verifies a session token and returns its claims
	ValidateToken(ctx context.Context, token string) (*domain.Claims, error)
	// GetUser retrieves a user by ID
	GetUser(ctx context.Context, id string) (*domain.User, error)
	// UpdateProfile updates name and email of the authenticated user
	UpdateProfile(ctx context.Context, userID string, req *dto.UpdateProfileRequest) (*domain.User, error)
	// ChangePassword replaces the password after verifying the current one
	ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error
	// RequestPasswordReset issues a reset token and mails the reset link.
	// It succeeds silently when the email matches no account.
	RequestPasswordReset(ctx context.Context, email string) error
	// VerifyResetToken checks a reset token without consuming it
	VerifyResetToken(ctx context.Context, token string) (*domain.User, error)
	// ResetPassword consumes a reset token and sets the new password
	ResetPassword(ctx context.Context, token, password string) error
}

// authService implements AuthService
type authService struct {
	userRepo repository.UserRepository
	mail     mailer.Mailer
	config   *AuthServiceConfig
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo repository.UserRepository, mail mailer.Mailer, config *AuthServiceConfig) AuthService {
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	if config.SessionTokenTTL == 0 {
		config.SessionTokenTTL = 24 * time.Hour
	}
	if config.ResetTokenTTL == 0 {
		config.ResetTokenTTL = 24 * time.Hour
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &authService{
		userRepo: userRepo,
		mail:     mail,
		config:   config,
	}
}

// Register creates a contributor account and issues a session token
func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.register")
	defer span.End()

	span.SetAttributes(attribute.String("email", req.Email))

	existing, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if existing != nil {
		span.SetStatus(codes.Error, "email taken")
		return nil, ErrEmailTaken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.config.BcryptCost)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	now := s.config.Now()
	user := &domain.User{
		ID:           uuid.New().String(),
		FullName:     req.FullName,
		Email:        req.Email,
		PasswordHash: string(hashed),
		Role:         domain.RoleContributor,
		Status:       domain.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// Concurrent registration with the same email loses on the unique
		// constraint, not the check above.
		if errors.Is(err, repository.ErrDuplicateEmail) {
			span.SetStatus(codes.Error, "email taken")
			return nil, ErrEmailTaken
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	token, err := s.issueSessionToken(user)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.String("user_id", user.ID))
	span.SetStatus(codes.Ok, "")

	return &dto.AuthResponse{
		Token: token,
		User:  dto.NewUserResponse(user),
	}, nil
}

// Login authenticates a user and issues a session token
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.login")
	defer span.End()

	span.SetAttributes(attribute.String("email", req.Email))

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	// Unknown email and wrong password produce the same error so callers
	// cannot probe which addresses are registered.
	if user == nil {
		span.SetStatus(codes.Error, "invalid credentials")
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		span.SetStatus(codes.Error, "invalid credentials")
		return nil, ErrInvalidCredentials
	}

	if user.Status == domain.UserStatusPaused {
		span.SetStatus(codes.Error, "account paused")
		return nil, ErrAccountPaused
	}

	token, err := s.issueSessionToken(user)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.String("user_id", user.ID))
	span.SetStatus(codes.Ok, "")

	return &dto.AuthResponse{
		Token: token,
		User:  dto.NewUserResponse(user),
	}, nil
}

// ValidateToken verifies a session token and returns its claims
func (s *authService) ValidateToken(ctx context.Context, tokenString string) (*domain.Claims, error) {
	_, span := telemetry.StartSpan(ctx, "service.auth.validate_token")
	defer span.End()

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(s.config.JWTSecret), nil
	}, jwt.WithTimeFunc(s.config.Now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			span.SetStatus(codes.Error, "token expired")
			return nil, ErrTokenExpired
		}
		span.SetStatus(codes.Error, "invalid token")
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		span.SetStatus(codes.Error, "invalid token")
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		span.SetStatus(codes.Error, "invalid claims")
		return nil, ErrInvalidToken
	}

	userID, ok := claims["sub"].(string)
	if !ok || userID == "" {
		span.SetStatus(codes.Error, "invalid claims")
		return nil, ErrInvalidToken
	}
	roleStr, _ := claims["role"].(string)
	role := domain.Role(roleStr)
	if !role.Valid() {
		span.SetStatus(codes.Error, "invalid claims")
		return nil, ErrInvalidToken
	}

	span.SetAttributes(attribute.String("user_id", userID))
	span.SetStatus(codes.Ok, "")

	return &domain.Claims{
		UserID: userID,
		Role:   role,
	}, nil
}

// GetUser retrieves a user by ID
func (s *authService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.get_user")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", id))

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if user == nil {
		span.SetStatus(codes.Error, "user not found")
		return nil, ErrUserNotFound
	}

	span.SetStatus(codes.Ok, "")
	return user, nil
}

// UpdateProfile updates name and email of the authenticated user
func (s *authService) UpdateProfile(ctx context.Context, userID string, req *dto.UpdateProfileRequest) (*domain.User, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.update_profile")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if user == nil {
		span.SetStatus(codes.Error, "user not found")
		return nil, ErrUserNotFound
	}

	user.FullName = req.FullName
	user.Email = req.Email
	user.UpdatedAt = s.config.Now()

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			span.SetStatus(codes.Error, "email taken")
			return nil, ErrEmailTaken
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return user, nil
}

// ChangePassword replaces the password after verifying the current one
func (s *authService) ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.change_password")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	if len(req.NewPassword) < minPasswordLength {
		span.SetStatus(codes.Error, "weak password")
		return ErrWeakPassword
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if user == nil {
		span.SetStatus(codes.Error, "user not found")
		return ErrUserNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		span.SetStatus(codes.Error, "current password mismatch")
		return ErrInvalidCurrentPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.config.BcryptCost)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, string(hashed)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// RequestPasswordReset issues a reset token and mails the reset link. The
// token never appears in a response body, and an unknown email gets the same
// success as a known one.
func (s *authService) RequestPasswordReset(ctx context.Context, email string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.request_password_reset")
	defer span.End()

	span.SetAttributes(attribute.String("email", email))

	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	token := hex.EncodeToString(buf)
	expiry := s.config.Now().Add(s.config.ResetTokenTTL)

	matched, err := s.userRepo.SetResetToken(ctx, email, token, expiry)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if !matched {
		span.SetStatus(codes.Ok, "no matching account")
		return nil
	}

	resetLink := fmt.Sprintf("%s/reset-password/%s", s.config.PublicURL, token)
	if err := s.mail.SendPasswordReset(ctx, email, resetLink); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// VerifyResetToken checks a reset token without consuming it
func (s *authService) VerifyResetToken(ctx context.Context, token string) (*domain.User, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.verify_reset_token")
	defer span.End()

	user, err := s.userRepo.GetByResetToken(ctx, token)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if user == nil || user.ResetTokenExpiry == nil || s.config.Now().After(*user.ResetTokenExpiry) {
		span.SetStatus(codes.Error, "invalid reset token")
		return nil, ErrInvalidResetToken
	}

	span.SetAttributes(attribute.String("user_id", user.ID))
	span.SetStatus(codes.Ok, "")
	return user, nil
}

// ResetPassword consumes a reset token and sets the new password
func (s *authService) ResetPassword(ctx context.Context, token, password string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.reset_password")
	defer span.End()

	if len(password) < minPasswordLength {
		span.SetStatus(codes.Error, "weak password")
		return ErrWeakPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.config.BcryptCost)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	// The repository clears the token in the same statement that checks its
	// expiry, so a token is good for exactly one successful reset.
	ok, err := s.userRepo.ConsumeResetToken(ctx, token, string(hashed))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if !ok {
		span.SetStatus(codes.Error, "invalid reset token")
		return ErrInvalidResetToken
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// issueSessionToken signs a bearer token carrying the user identity
func (s *authService) issueSessionToken(user *domain.User) (string, error) {
	now := s.config.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID,
		"role": string(user.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(s.config.SessionTokenTTL).Unix(),
	})
	return token.SignedString([]byte(s.config.JWTSecret))
}
