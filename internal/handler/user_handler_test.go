package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/optread/optread-api/internal/domain"
	"github.com/optread/optread-api/internal/middleware"
	"github.com/optread/optread-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockUserService struct {
	listFn         func(ctx context.Context, actor *domain.Claims) ([]*domain.User, error)
	updateStatusFn func(ctx context.Context, actor *domain.Claims, id string, status domain.UserStatus) (*domain.User, error)
	deleteFn       func(ctx context.Context, actor *domain.Claims, id string) error
}

func (m *mockUserService) List(ctx context.Context, actor *domain.Claims) ([]*domain.User, error) {
	return m.listFn(ctx, actor)
}

func (m *mockUserService) UpdateStatus(ctx context.Context, actor *domain.Claims, id string, status domain.UserStatus) (*domain.User, error) {
	return m.updateStatusFn(ctx, actor, id, status)
}

func (m *mockUserService) Delete(ctx context.Context, actor *domain.Claims, id string) error {
	return m.deleteFn(ctx, actor, id)
}

// authAs builds an auth service whose tokens always resolve to claims
func authAs(claims *domain.Claims) *mockAuthService {
	return &mockAuthService{
		validateTokenFn: func(ctx context.Context, token string) (*domain.Claims, error) {
			return claims, nil
		},
	}
}

func setupUserRouter(auth service.AuthService, users service.UserService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewUserHandler(users)

	router := gin.New()
	group := router.Group("/api/v1/users")
	group.Use(middleware.Auth(auth), middleware.AdminOnly())
	{
		group.GET("", h.List)
		group.PUT("/:id/status", h.UpdateStatus)
		group.DELETE("/:id", h.Delete)
	}
	return router
}

func TestUserHandler_List(t *testing.T) {
	admin := &domain.Claims{UserID: "admin", Role: domain.RoleAdmin}

	t.Run("admin lists users", func(t *testing.T) {
		users := &mockUserService{
			listFn: func(ctx context.Context, actor *domain.Claims) ([]*domain.User, error) {
				return []*domain.User{
					{ID: "u1", Email: "one@example.com", Role: domain.RoleContributor, Status: domain.UserStatusActive},
					{ID: "u2", Email: "two@example.com", Role: domain.RoleAdmin, Status: domain.UserStatusActive},
				}, nil
			},
		}
		router := setupUserRouter(authAs(admin), users)

		w := doJSON(router, http.MethodGet, "/api/v1/users", "", "admin-token")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "one@example.com")
		assert.Contains(t, w.Body.String(), "two@example.com")
	})

	t.Run("contributor is blocked at the middleware", func(t *testing.T) {
		contributor := &domain.Claims{UserID: "u1", Role: domain.RoleContributor}
		called := false
		users := &mockUserService{
			listFn: func(ctx context.Context, actor *domain.Claims) ([]*domain.User, error) {
				called = true
				return nil, nil
			},
		}
		router := setupUserRouter(authAs(contributor), users)

		w := doJSON(router, http.MethodGet, "/api/v1/users", "", "contrib-token")

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.False(t, called, "handler ran despite AdminOnly")
	})
}

func TestUserHandler_UpdateStatus(t *testing.T) {
	admin := &domain.Claims{UserID: "admin", Role: domain.RoleAdmin}

	t.Run("pause a user", func(t *testing.T) {
		users := &mockUserService{
			updateStatusFn: func(ctx context.Context, actor *domain.Claims, id string, status domain.UserStatus) (*domain.User, error) {
				assert.Equal(t, "u1", id)
				assert.Equal(t, domain.UserStatusPaused, status)
				return &domain.User{ID: id, Status: status, Role: domain.RoleContributor}, nil
			},
		}
		router := setupUserRouter(authAs(admin), users)

		w := doJSON(router, http.MethodPut, "/api/v1/users/u1/status", `{"user_status":"paused"}`, "admin-token")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "paused")
	})

	t.Run("invalid status", func(t *testing.T) {
		users := &mockUserService{
			updateStatusFn: func(ctx context.Context, actor *domain.Claims, id string, status domain.UserStatus) (*domain.User, error) {
				return nil, service.ErrInvalidStatus
			},
		}
		router := setupUserRouter(authAs(admin), users)

		w := doJSON(router, http.MethodPut, "/api/v1/users/u1/status", `{"user_status":"frozen"}`, "admin-token")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUserHandler_Delete(t *testing.T) {
	admin := &domain.Claims{UserID: "admin", Role: domain.RoleAdmin}

	t.Run("success returns no content", func(t *testing.T) {
		users := &mockUserService{
			deleteFn: func(ctx context.Context, actor *domain.Claims, id string) error {
				return nil
			},
		}
		router := setupUserRouter(authAs(admin), users)

		w := doJSON(router, http.MethodDelete, "/api/v1/users/u1", "", "admin-token")

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("admin accounts are protected", func(t *testing.T) {
		users := &mockUserService{
			deleteFn: func(ctx context.Context, actor *domain.Claims, id string) error {
				return service.ErrCannotDeleteAdmin
			},
		}
		router := setupUserRouter(authAs(admin), users)

		w := doJSON(router, http.MethodDelete, "/api/v1/users/admin-2", "", "admin-token")

		assert.Equal(t, http.StatusForbidden, w.Code)
		resp := decodeEnvelope(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "Cannot delete admin users", resp.Error.Message)
	})

	t.Run("unknown user", func(t *testing.T) {
		users := &mockUserService{
			deleteFn: func(ctx context.Context, actor *domain.Claims, id string) error {
				return service.ErrUserNotFound
			},
		}
		router := setupUserRouter(authAs(admin), users)

		w := doJSON(router, http.MethodDelete, "/api/v1/users/ghost", "", "admin-token")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
