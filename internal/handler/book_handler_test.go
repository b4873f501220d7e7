package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/optread/optread-api/internal/domain"
	"github.com/optread/optread-api/internal/dto"
	"github.com/optread/optread-api/internal/middleware"
	"github.com/optread/optread-api/internal/repository"
	"github.com/optread/optread-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupBookRouter wires the real book service over in-memory storage so the
// handler tests cover the whole request path.
func setupBookRouter(t *testing.T, actor *domain.Claims) (*gin.Engine, service.BookService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := service.NewBookService(repository.NewMemoryBookRepository())
	h := NewBookHandler(svc)

	router := gin.New()
	api := router.Group("/api/v1")
	api.GET("/book/:slug", h.GetBySlug)
	api.GET("/books", h.List)
	api.GET("/books/:id", h.Get)
	api.POST("/books/:id/views", h.IncrementViews)
	api.POST("/books/:id/downloads", h.IncrementDownloads)

	books := api.Group("/books")
	books.Use(middleware.Auth(authAs(actor)))
	{
		books.POST("", h.Create)
		books.PUT("/:id", h.Update)
		books.DELETE("/:id", h.Delete)
	}
	api.GET("/my-books", middleware.Auth(authAs(actor)), h.ListMine)

	return router, svc
}

func TestBookHandler_CreateAndFetch(t *testing.T) {
	owner := &domain.Claims{UserID: "owner", Role: domain.RoleContributor}
	router, _ := setupBookRouter(t, owner)

	t.Run("create draft", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/v1/books",
			`{"title":"My Great Book","author":"A. Writer","bookType":"free","sourceUrl":"https://example.com/b"}`,
			"owner-token")

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"slug":"my-great-book"`)
	})

	t.Run("invalid book type", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/v1/books",
			`{"title":"Bad","author":"A","bookType":"magazine","sourceUrl":"https://example.com/b"}`,
			"owner-token")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeEnvelope(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "Invalid book type", resp.Error.Message)
	})

	t.Run("draft is hidden from the public slug route", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/v1/book/my-great-book", "", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestBookHandler_PublicSlug(t *testing.T) {
	owner := &domain.Claims{UserID: "owner", Role: domain.RoleContributor}
	router, svc := setupBookRouter(t, owner)

	status := domain.BookStatusPublished
	book, err := svc.Create(context.Background(), owner, &dto.BookRequest{
		Title:     "Visible Book",
		Author:    "A. Writer",
		BookType:  string(domain.BookTypeFree),
		SourceURL: "https://example.com/b",
		Status:    &status,
	})
	require.NoError(t, err)

	t.Run("published book resolves without a token", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/v1/book/"+book.Slug, "", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Visible Book")
	})

	t.Run("catalog list is anonymous", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/v1/books", "", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Visible Book")
	})

	t.Run("catalog detail is anonymous", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/v1/books/"+book.ID, "", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Visible Book")
	})

	t.Run("authoring still needs a token", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/v1/books",
			`{"title":"Anon Book","author":"A","bookType":"free","sourceUrl":"https://example.com/a"}`, "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("view counter is public", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/v1/books/"+book.ID+"/views", "", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"view_count":1`)
	})

	t.Run("download counter is public", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/v1/books/"+book.ID+"/downloads", "", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"download_count":1`)
	})

	t.Run("counter for a missing book", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/v1/books/ghost/views", "", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestBookHandler_OwnershipOverHTTP(t *testing.T) {
	owner := &domain.Claims{UserID: "owner", Role: domain.RoleContributor}
	intruder := &domain.Claims{UserID: "intruder", Role: domain.RoleContributor}

	ownerRouter, svc := setupBookRouter(t, owner)
	book, err := svc.Create(context.Background(), owner, &dto.BookRequest{
		Title:     "Owned Book",
		Author:    "A. Writer",
		BookType:  string(domain.BookTypeFree),
		SourceURL: "https://example.com/b",
	})
	require.NoError(t, err)

	// same service, different identity
	gin.SetMode(gin.TestMode)
	h := NewBookHandler(svc)
	intruderRouter := gin.New()
	books := intruderRouter.Group("/api/v1/books")
	books.Use(middleware.Auth(authAs(intruder)))
	books.PUT("/:id", h.Update)
	books.DELETE("/:id", h.Delete)

	t.Run("intruder cannot update", func(t *testing.T) {
		w := doJSON(intruderRouter, http.MethodPut, "/api/v1/books/"+book.ID,
			`{"title":"Hijacked","author":"X","bookType":"free","sourceUrl":"https://example.com/x"}`,
			"intruder-token")

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("intruder cannot delete", func(t *testing.T) {
		w := doJSON(intruderRouter, http.MethodDelete, "/api/v1/books/"+book.ID, "", "intruder-token")

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("owner can delete", func(t *testing.T) {
		w := doJSON(ownerRouter, http.MethodDelete, "/api/v1/books/"+book.ID, "", "owner-token")

		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}
