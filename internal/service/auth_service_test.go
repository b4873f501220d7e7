package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/optread/optread-api/internal/domain"
	"github.com/optread/optread-api/internal/dto"
	"github.com/optread/optread-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// captureMailer records outgoing mail instead of sending it
type captureMailer struct {
	resetLinks map[string]string // email -> last reset link
	welcomes   []string          // emails that got a welcome mail
	sendError  error
}

func newCaptureMailer() *captureMailer {
	return &captureMailer{resetLinks: make(map[string]string)}
}

func (m *captureMailer) SendPasswordReset(ctx context.Context, email, resetLink string) error {
	if m.sendError != nil {
		return m.sendError
	}
	m.resetLinks[email] = resetLink
	return nil
}

func (m *captureMailer) SendWelcome(ctx context.Context, email, name, bookTitle, bookLink, couponCode string) error {
	if m.sendError != nil {
		return m.sendError
	}
	m.welcomes = append(m.welcomes, email)
	return nil
}

// authFixture wires an AuthService over in-memory storage with a movable
// clock shared by the service and the repository.
type authFixture struct {
	svc      AuthService
	userRepo *repository.MemoryUserRepository
	mail     *captureMailer
	current  time.Time
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	f := &authFixture{
		userRepo: repository.NewMemoryUserRepository(),
		mail:     newCaptureMailer(),
		current:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	now := func() time.Time { return f.current }
	f.userRepo.SetNow(now)
	f.svc = NewAuthService(f.userRepo, f.mail, &AuthServiceConfig{
		JWTSecret:       "test-secret-key",
		SessionTokenTTL: 24 * time.Hour,
		ResetTokenTTL:   24 * time.Hour,
		BcryptCost:      bcrypt.MinCost, // fast hashing in tests
		PublicURL:       "http://localhost:5173",
		Now:             now,
	})
	return f
}

func (f *authFixture) advance(d time.Duration) {
	f.current = f.current.Add(d)
}

func (f *authFixture) register(t *testing.T, name, email, password string) *dto.AuthResponse {
	t.Helper()
	resp, err := f.svc.Register(context.Background(), &dto.RegisterRequest{
		FullName: name,
		Email:    email,
		Password: password,
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return resp
}

func TestAuthService_Register(t *testing.T) {
	f := newAuthFixture(t)

	t.Run("successful registration", func(t *testing.T) {
		resp := f.register(t, "Test User", "test@example.com", "password1")

		if resp.Token == "" {
			t.Error("Register() Token is empty")
		}
		if resp.User.Email != "test@example.com" {
			t.Errorf("Register() User.Email = %v, want test@example.com", resp.User.Email)
		}
		if resp.User.Role != string(domain.RoleContributor) {
			t.Errorf("Register() User.Role = %v, want contributor", resp.User.Role)
		}
		if resp.User.Status != string(domain.UserStatusActive) {
			t.Errorf("Register() User.Status = %v, want active", resp.User.Status)
		}
	})

	t.Run("password is stored hashed", func(t *testing.T) {
		user, _ := f.userRepo.GetByEmail(context.Background(), "test@example.com")
		if user.PasswordHash == "password1" {
			t.Fatal("password stored in plaintext")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password1")); err != nil {
			t.Errorf("stored hash does not verify the password: %v", err)
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := f.svc.Register(context.Background(), &dto.RegisterRequest{
			FullName: "Another User",
			Email:    "test@example.com",
			Password: "password2",
		})
		if !errors.Is(err, ErrEmailTaken) {
			t.Errorf("Register() error = %v, want %v", err, ErrEmailTaken)
		}
	})
}

func TestAuthService_Login(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "Login Test", "login@example.com", "password1")

	t.Run("successful login", func(t *testing.T) {
		resp, err := f.svc.Login(context.Background(), &dto.LoginRequest{
			Email:    "login@example.com",
			Password: "password1",
		})
		if err != nil {
			t.Fatalf("Login() error = %v", err)
		}
		if resp.Token == "" {
			t.Error("Login() Token is empty")
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.svc.Login(context.Background(), &dto.LoginRequest{
			Email:    "login@example.com",
			Password: "wrong-password",
		})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Login() error = %v, want %v", err, ErrInvalidCredentials)
		}
	})

	t.Run("unknown email gets the same error as wrong password", func(t *testing.T) {
		_, err := f.svc.Login(context.Background(), &dto.LoginRequest{
			Email:    "nobody@example.com",
			Password: "password1",
		})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Login() error = %v, want %v", err, ErrInvalidCredentials)
		}
	})

	t.Run("paused account", func(t *testing.T) {
		user, _ := f.userRepo.GetByEmail(context.Background(), "login@example.com")
		user.Status = domain.UserStatusPaused
		if err := f.userRepo.Update(context.Background(), user); err != nil {
			t.Fatalf("Update() error = %v", err)
		}

		_, err := f.svc.Login(context.Background(), &dto.LoginRequest{
			Email:    "login@example.com",
			Password: "password1",
		})
		if !errors.Is(err, ErrAccountPaused) {
			t.Errorf("Login() error = %v, want %v", err, ErrAccountPaused)
		}
	})
}

func TestAuthService_ValidateToken(t *testing.T) {
	f := newAuthFixture(t)
	resp := f.register(t, "Token Test", "token@example.com", "password1")

	t.Run("valid token", func(t *testing.T) {
		claims, err := f.svc.ValidateToken(context.Background(), resp.Token)
		if err != nil {
			t.Fatalf("ValidateToken() error = %v", err)
		}
		if claims.UserID != resp.User.ID {
			t.Errorf("claims.UserID = %v, want %v", claims.UserID, resp.User.ID)
		}
		if claims.Role != domain.RoleContributor {
			t.Errorf("claims.Role = %v, want contributor", claims.Role)
		}
	})

	t.Run("still valid just before expiry", func(t *testing.T) {
		f.advance(24*time.Hour - time.Minute)
		defer f.advance(-(24*time.Hour - time.Minute))

		if _, err := f.svc.ValidateToken(context.Background(), resp.Token); err != nil {
			t.Errorf("ValidateToken() error = %v, want nil", err)
		}
	})

	t.Run("expired after its lifetime", func(t *testing.T) {
		f.advance(24*time.Hour + time.Minute)
		defer f.advance(-(24*time.Hour + time.Minute))

		_, err := f.svc.ValidateToken(context.Background(), resp.Token)
		if !errors.Is(err, ErrTokenExpired) {
			t.Errorf("ValidateToken() error = %v, want %v", err, ErrTokenExpired)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := f.svc.ValidateToken(context.Background(), "not-a-token")
		if !errors.Is(err, ErrInvalidToken) {
			t.Errorf("ValidateToken() error = %v, want %v", err, ErrInvalidToken)
		}
	})

	t.Run("tampered token", func(t *testing.T) {
		tampered := resp.Token[:len(resp.Token)-4] + "AAAA"
		_, err := f.svc.ValidateToken(context.Background(), tampered)
		if !errors.Is(err, ErrInvalidToken) {
			t.Errorf("ValidateToken() error = %v, want %v", err, ErrInvalidToken)
		}
	})
}

func TestAuthService_ChangePassword(t *testing.T) {
	f := newAuthFixture(t)
	resp := f.register(t, "Change Test", "change@example.com", "password1")

	t.Run("wrong current password", func(t *testing.T) {
		err := f.svc.ChangePassword(context.Background(), resp.User.ID, &dto.ChangePasswordRequest{
			CurrentPassword: "wrong",
			NewPassword:     "password2",
		})
		if !errors.Is(err, ErrInvalidCurrentPassword) {
			t.Errorf("ChangePassword() error = %v, want %v", err, ErrInvalidCurrentPassword)
		}
	})

	t.Run("weak new password", func(t *testing.T) {
		err := f.svc.ChangePassword(context.Background(), resp.User.ID, &dto.ChangePasswordRequest{
			CurrentPassword: "password1",
			NewPassword:     "short",
		})
		if !errors.Is(err, ErrWeakPassword) {
			t.Errorf("ChangePassword() error = %v, want %v", err, ErrWeakPassword)
		}
	})

	t.Run("successful change", func(t *testing.T) {
		err := f.svc.ChangePassword(context.Background(), resp.User.ID, &dto.ChangePasswordRequest{
			CurrentPassword: "password1",
			NewPassword:     "password2",
		})
		if err != nil {
			t.Fatalf("ChangePassword() error = %v", err)
		}

		if _, err := f.svc.Login(context.Background(), &dto.LoginRequest{
			Email:    "change@example.com",
			Password: "password1",
		}); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("old password still accepted, error = %v", err)
		}
		if _, err := f.svc.Login(context.Background(), &dto.LoginRequest{
			Email:    "change@example.com",
			Password: "password2",
		}); err != nil {
			t.Errorf("new password rejected: %v", err)
		}
	})
}

func TestAuthService_UpdateProfile(t *testing.T) {
	f := newAuthFixture(t)
	a := f.register(t, "User A", "a@example.com", "password1")
	f.register(t, "User B", "b@example.com", "password1")

	t.Run("successful update", func(t *testing.T) {
		user, err := f.svc.UpdateProfile(context.Background(), a.User.ID, &dto.UpdateProfileRequest{
			FullName: "User A Renamed",
			Email:    "a-new@example.com",
		})
		if err != nil {
			t.Fatalf("UpdateProfile() error = %v", err)
		}
		if user.FullName != "User A Renamed" || user.Email != "a-new@example.com" {
			t.Errorf("UpdateProfile() = %v / %v", user.FullName, user.Email)
		}
	})

	t.Run("email collision", func(t *testing.T) {
		_, err := f.svc.UpdateProfile(context.Background(), a.User.ID, &dto.UpdateProfileRequest{
			FullName: "User A",
			Email:    "b@example.com",
		})
		if !errors.Is(err, ErrEmailTaken) {
			t.Errorf("UpdateProfile() error = %v, want %v", err, ErrEmailTaken)
		}
	})
}

func TestAuthService_PasswordReset(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "Reset Test", "reset@example.com", "password1")

	extractToken := func(t *testing.T) string {
		t.Helper()
		link, ok := f.mail.resetLinks["reset@example.com"]
		if !ok {
			t.Fatal("no reset mail was sent")
		}
		idx := strings.LastIndex(link, "/")
		return link[idx+1:]
	}

	t.Run("request sends a link, never the token in a response", func(t *testing.T) {
		if err := f.svc.RequestPasswordReset(context.Background(), "reset@example.com"); err != nil {
			t.Fatalf("RequestPasswordReset() error = %v", err)
		}

		token := extractToken(t)
		if len(token) != 64 {
			t.Errorf("reset token length = %d, want 64 hex chars", len(token))
		}
	})

	t.Run("unknown email succeeds silently", func(t *testing.T) {
		if err := f.svc.RequestPasswordReset(context.Background(), "nobody@example.com"); err != nil {
			t.Fatalf("RequestPasswordReset() error = %v", err)
		}
		if _, ok := f.mail.resetLinks["nobody@example.com"]; ok {
			t.Error("mail sent for unknown email")
		}
	})

	t.Run("verify does not consume", func(t *testing.T) {
		token := extractToken(t)

		for i := 0; i < 2; i++ {
			user, err := f.svc.VerifyResetToken(context.Background(), token)
			if err != nil {
				t.Fatalf("VerifyResetToken() attempt %d error = %v", i+1, err)
			}
			if user.Email != "reset@example.com" {
				t.Errorf("VerifyResetToken() email = %v", user.Email)
			}
		}
	})

	t.Run("weak password rejected without consuming", func(t *testing.T) {
		token := extractToken(t)

		if err := f.svc.ResetPassword(context.Background(), token, "short"); !errors.Is(err, ErrWeakPassword) {
			t.Fatalf("ResetPassword() error = %v, want %v", err, ErrWeakPassword)
		}
		if _, err := f.svc.VerifyResetToken(context.Background(), token); err != nil {
			t.Errorf("token consumed by rejected reset: %v", err)
		}
	})

	t.Run("token is single use", func(t *testing.T) {
		token := extractToken(t)

		if err := f.svc.ResetPassword(context.Background(), token, "password2"); err != nil {
			t.Fatalf("ResetPassword() error = %v", err)
		}
		if err := f.svc.ResetPassword(context.Background(), token, "password3"); !errors.Is(err, ErrInvalidResetToken) {
			t.Errorf("second ResetPassword() error = %v, want %v", err, ErrInvalidResetToken)
		}

		if _, err := f.svc.Login(context.Background(), &dto.LoginRequest{
			Email:    "reset@example.com",
			Password: "password2",
		}); err != nil {
			t.Errorf("new password rejected after reset: %v", err)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		if err := f.svc.RequestPasswordReset(context.Background(), "reset@example.com"); err != nil {
			t.Fatalf("RequestPasswordReset() error = %v", err)
		}
		token := extractToken(t)

		f.advance(24*time.Hour + time.Minute)
		defer f.advance(-(24*time.Hour + time.Minute))

		if _, err := f.svc.VerifyResetToken(context.Background(), token); !errors.Is(err, ErrInvalidResetToken) {
			t.Errorf("VerifyResetToken() error = %v, want %v", err, ErrInvalidResetToken)
		}
		if err := f.svc.ResetPassword(context.Background(), token, "password9"); !errors.Is(err, ErrInvalidResetToken) {
			t.Errorf("ResetPassword() error = %v, want %v", err, ErrInvalidResetToken)
		}
	})

	t.Run("new request overwrites the previous token", func(t *testing.T) {
		if err := f.svc.RequestPasswordReset(context.Background(), "reset@example.com"); err != nil {
			t.Fatalf("RequestPasswordReset() error = %v", err)
		}
		first := extractToken(t)

		if err := f.svc.RequestPasswordReset(context.Background(), "reset@example.com"); err != nil {
			t.Fatalf("RequestPasswordReset() error = %v", err)
		}
		second := extractToken(t)

		if first == second {
			t.Fatal("second request reused the same token")
		}
		if _, err := f.svc.VerifyResetToken(context.Background(), first); !errors.Is(err, ErrInvalidResetToken) {
			t.Errorf("stale token still verifies, error = %v", err)
		}
		if _, err := f.svc.VerifyResetToken(context.Background(), second); err != nil {
			t.Errorf("fresh token rejected: %v", err)
		}
	})
}

// TestAuthService_FullLifecycle walks one account through registration,
// login, a complete password reset, and re-login.
func TestAuthService_FullLifecycle(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	reg := f.register(t, "Lifecycle", "cycle@example.com", "first-pass")

	if _, err := f.svc.ValidateToken(ctx, reg.Token); err != nil {
		t.Fatalf("registration token invalid: %v", err)
	}

	if err := f.svc.RequestPasswordReset(ctx, "cycle@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset() error = %v", err)
	}
	link := f.mail.resetLinks["cycle@example.com"]
	token := link[strings.LastIndex(link, "/")+1:]

	if err := f.svc.ResetPassword(ctx, token, "second-pass"); err != nil {
		t.Fatalf("ResetPassword() error = %v", err)
	}

	if _, err := f.svc.Login(ctx, &dto.LoginRequest{Email: "cycle@example.com", Password: "first-pass"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("old password still works after reset, error = %v", err)
	}
	resp, err := f.svc.Login(ctx, &dto.LoginRequest{Email: "cycle@example.com", Password: "second-pass"})
	if err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
	if _, err := f.svc.ValidateToken(ctx, resp.Token); err != nil {
		t.Errorf("post-reset token invalid: %v", err)
	}
}
