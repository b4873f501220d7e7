package handler

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/optread/optread-api/internal/domain"
	"github.com/optread/optread-api/internal/dto"
	"github.com/optread/optread-api/internal/middleware"
	"github.com/optread/optread-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSubscriberService struct {
	subscribeFn  func(ctx context.Context, req *dto.SubscribeRequest) (*dto.SubscribeResponse, error)
	listByBookFn func(ctx context.Context, actor *domain.Claims, bookID string) ([]*domain.Subscriber, error)
	exportCSVFn  func(ctx context.Context, actor *domain.Claims, bookID string, w io.Writer) error
}

func (m *mockSubscriberService) Subscribe(ctx context.Context, req *dto.SubscribeRequest) (*dto.SubscribeResponse, error) {
	return m.subscribeFn(ctx, req)
}

func (m *mockSubscriberService) ListByBook(ctx context.Context, actor *domain.Claims, bookID string) ([]*domain.Subscriber, error) {
	return m.listByBookFn(ctx, actor, bookID)
}

func (m *mockSubscriberService) ExportCSV(ctx context.Context, actor *domain.Claims, bookID string, w io.Writer) error {
	return m.exportCSVFn(ctx, actor, bookID, w)
}

func setupSubscriberRouter(auth service.AuthService, subs service.SubscriberService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewSubscriberHandler(subs)

	router := gin.New()
	router.POST("/api/v1/subscriber", h.Subscribe)
	group := router.Group("/api/v1/subscribers")
	group.Use(middleware.Auth(auth))
	{
		group.GET("/export/:bookId", h.ExportCSV)
		group.GET("/:bookId", h.List)
	}
	return router
}

func TestSubscriberHandler_Subscribe(t *testing.T) {
	t.Run("new subscriber", func(t *testing.T) {
		subs := &mockSubscriberService{
			subscribeFn: func(ctx context.Context, req *dto.SubscribeRequest) (*dto.SubscribeResponse, error) {
				return &dto.SubscribeResponse{IsNew: true}, nil
			},
		}
		router := setupSubscriberRouter(&mockAuthService{}, subs)

		w := doJSON(router, http.MethodPost, "/api/v1/subscriber",
			`{"bookId":"b1","fullName":"Reader","email":"reader@example.com"}`, "")

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"isNew":true`)
	})

	t.Run("duplicate still succeeds", func(t *testing.T) {
		subs := &mockSubscriberService{
			subscribeFn: func(ctx context.Context, req *dto.SubscribeRequest) (*dto.SubscribeResponse, error) {
				return &dto.SubscribeResponse{IsNew: false}, nil
			},
		}
		router := setupSubscriberRouter(&mockAuthService{}, subs)

		w := doJSON(router, http.MethodPost, "/api/v1/subscriber",
			`{"bookId":"b1","fullName":"Reader","email":"reader@example.com"}`, "")

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"isNew":false`)
	})

	t.Run("unpublished book", func(t *testing.T) {
		subs := &mockSubscriberService{
			subscribeFn: func(ctx context.Context, req *dto.SubscribeRequest) (*dto.SubscribeResponse, error) {
				return nil, domain.ErrBookUnpublished
			},
		}
		router := setupSubscriberRouter(&mockAuthService{}, subs)

		w := doJSON(router, http.MethodPost, "/api/v1/subscriber",
			`{"bookId":"b2","fullName":"Reader","email":"reader@example.com"}`, "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeEnvelope(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "Book is not available", resp.Error.Message)
	})

	t.Run("invalid email", func(t *testing.T) {
		router := setupSubscriberRouter(&mockAuthService{}, &mockSubscriberService{})

		w := doJSON(router, http.MethodPost, "/api/v1/subscriber",
			`{"bookId":"b1","fullName":"Reader","email":"not-an-email"}`, "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSubscriberHandler_ExportCSV(t *testing.T) {
	owner := &domain.Claims{UserID: "owner", Role: domain.RoleContributor}

	t.Run("csv download", func(t *testing.T) {
		subs := &mockSubscriberService{
			exportCSVFn: func(ctx context.Context, actor *domain.Claims, bookID string, w io.Writer) error {
				_, err := w.Write([]byte("full_name,email,subscribed_at\nReader,reader@example.com,2025-06-01T12:00:00Z\n"))
				return err
			},
		}
		router := setupSubscriberRouter(authAs(owner), subs)

		w := doJSON(router, http.MethodGet, "/api/v1/subscribers/export/b1", "", "owner-token")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
		assert.Equal(t, "attachment; filename=subscribers-b1.csv", w.Header().Get("Content-Disposition"))
		assert.Contains(t, w.Body.String(), "reader@example.com")
	})

	t.Run("forbidden export stays JSON", func(t *testing.T) {
		subs := &mockSubscriberService{
			exportCSVFn: func(ctx context.Context, actor *domain.Claims, bookID string, w io.Writer) error {
				return service.ErrForbidden
			},
		}
		router := setupSubscriberRouter(authAs(owner), subs)

		w := doJSON(router, http.MethodGet, "/api/v1/subscribers/export/b1", "", "owner-token")

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
		assert.Empty(t, w.Header().Get("Content-Disposition"))
	})
}

func TestSubscriberHandler_List(t *testing.T) {
	owner := &domain.Claims{UserID: "owner", Role: domain.RoleContributor}

	t.Run("owner listing", func(t *testing.T) {
		subs := &mockSubscriberService{
			listByBookFn: func(ctx context.Context, actor *domain.Claims, bookID string) ([]*domain.Subscriber, error) {
				assert.Equal(t, "b1", bookID)
				return []*domain.Subscriber{{ID: "s1", BookID: bookID, Email: "reader@example.com"}}, nil
			},
		}
		router := setupSubscriberRouter(authAs(owner), subs)

		w := doJSON(router, http.MethodGet, "/api/v1/subscribers/b1", "", "owner-token")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "reader@example.com")
	})

	t.Run("unknown book", func(t *testing.T) {
		subs := &mockSubscriberService{
			listByBookFn: func(ctx context.Context, actor *domain.Claims, bookID string) ([]*domain.Subscriber, error) {
				return nil, domain.ErrBookNotFound
			},
		}
		router := setupSubscriberRouter(authAs(owner), subs)

		w := doJSON(router, http.MethodGet, "/api/v1/subscribers/ghost", "", "owner-token")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
