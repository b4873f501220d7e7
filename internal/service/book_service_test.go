package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/optread/optread-api/internal/domain"
	"github.com/optread/optread-api/internal/dto"
	"github.com/optread/optread-api/internal/repository"
)

func bookRequest(title string) *dto.BookRequest {
	return &dto.BookRequest{
		Title:     title,
		Author:    "Test Author",
		BookType:  string(domain.BookTypeFree),
		SourceURL: "https://example.com/book",
	}
}

func publishedStatus() *int {
	s := domain.BookStatusPublished
	return &s
}

func TestBookService_Create(t *testing.T) {
	repo := repository.NewMemoryBookRepository()
	svc := NewBookService(repo)
	ctx := context.Background()
	contributor := &domain.Claims{UserID: "user-1", Role: domain.RoleContributor}

	t.Run("defaults to draft", func(t *testing.T) {
		book, err := svc.Create(ctx, contributor, bookRequest("My First Book"))
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if book.Status != domain.BookStatusDraft {
			t.Errorf("Create() Status = %d, want draft", book.Status)
		}
		if book.Slug != "my-first-book" {
			t.Errorf("Create() Slug = %q, want my-first-book", book.Slug)
		}
		if book.UserID != "user-1" {
			t.Errorf("Create() UserID = %q, want user-1", book.UserID)
		}
	})

	t.Run("explicit published status", func(t *testing.T) {
		req := bookRequest("Published Book")
		req.Status = publishedStatus()
		book, err := svc.Create(ctx, contributor, req)
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if !book.Published() {
			t.Error("Create() book not published")
		}
	})

	t.Run("invalid book type", func(t *testing.T) {
		req := bookRequest("Bad Type")
		req.BookType = "magazine"
		if _, err := svc.Create(ctx, contributor, req); !errors.Is(err, ErrInvalidBookType) {
			t.Errorf("Create() error = %v, want %v", err, ErrInvalidBookType)
		}
	})

	t.Run("slug collision gets a suffix", func(t *testing.T) {
		first, err := svc.Create(ctx, contributor, bookRequest("Duplicate Title"))
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		second, err := svc.Create(ctx, contributor, bookRequest("Duplicate Title"))
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if first.Slug == second.Slug {
			t.Fatalf("both books share slug %q", first.Slug)
		}
		if !strings.HasPrefix(second.Slug, "duplicate-title-") {
			t.Errorf("second slug = %q, want duplicate-title- prefix", second.Slug)
		}
	})
}

func TestBookService_GetBySlug(t *testing.T) {
	repo := repository.NewMemoryBookRepository()
	svc := NewBookService(repo)
	ctx := context.Background()
	contributor := &domain.Claims{UserID: "user-1", Role: domain.RoleContributor}

	draft, _ := svc.Create(ctx, contributor, bookRequest("Hidden Draft"))

	req := bookRequest("Public Book")
	req.Status = publishedStatus()
	published, _ := svc.Create(ctx, contributor, req)

	t.Run("published book resolves", func(t *testing.T) {
		book, err := svc.GetBySlug(ctx, published.Slug)
		if err != nil {
			t.Fatalf("GetBySlug() error = %v", err)
		}
		if book.ID != published.ID {
			t.Errorf("GetBySlug() ID = %v, want %v", book.ID, published.ID)
		}
	})

	t.Run("draft looks like a missing book", func(t *testing.T) {
		if _, err := svc.GetBySlug(ctx, draft.Slug); !errors.Is(err, domain.ErrBookNotFound) {
			t.Errorf("GetBySlug() error = %v, want %v", err, domain.ErrBookNotFound)
		}
	})

	t.Run("unknown slug", func(t *testing.T) {
		if _, err := svc.GetBySlug(ctx, "no-such-slug"); !errors.Is(err, domain.ErrBookNotFound) {
			t.Errorf("GetBySlug() error = %v, want %v", err, domain.ErrBookNotFound)
		}
	})
}

func TestBookService_Update(t *testing.T) {
	repo := repository.NewMemoryBookRepository()
	svc := NewBookService(repo)
	ctx := context.Background()
	owner := &domain.Claims{UserID: "owner", Role: domain.RoleContributor}
	other := &domain.Claims{UserID: "other", Role: domain.RoleContributor}
	admin := &domain.Claims{UserID: "admin", Role: domain.RoleAdmin}

	book, _ := svc.Create(ctx, owner, bookRequest("Original Title"))

	t.Run("non-owner is rejected", func(t *testing.T) {
		if _, err := svc.Update(ctx, other, book.ID, bookRequest("Hijacked")); !errors.Is(err, ErrForbidden) {
			t.Errorf("Update() error = %v, want %v", err, ErrForbidden)
		}
	})

	t.Run("slug survives metadata edits", func(t *testing.T) {
		req := bookRequest("Original Title")
		req.Description = "new description"
		updated, err := svc.Update(ctx, owner, book.ID, req)
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if updated.Slug != "original-title" {
			t.Errorf("Update() Slug = %q, want original-title", updated.Slug)
		}
		if updated.Description != "new description" {
			t.Errorf("Update() Description = %q", updated.Description)
		}
	})

	t.Run("slug follows a title change", func(t *testing.T) {
		updated, err := svc.Update(ctx, owner, book.ID, bookRequest("Renamed Title"))
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if updated.Slug != "renamed-title" {
			t.Errorf("Update() Slug = %q, want renamed-title", updated.Slug)
		}
	})

	t.Run("admin may edit anyone's book", func(t *testing.T) {
		if _, err := svc.Update(ctx, admin, book.ID, bookRequest("Admin Edit")); err != nil {
			t.Errorf("Update() error = %v", err)
		}
	})

	t.Run("missing book", func(t *testing.T) {
		if _, err := svc.Update(ctx, owner, "no-such-id", bookRequest("X Y")); !errors.Is(err, domain.ErrBookNotFound) {
			t.Errorf("Update() error = %v, want %v", err, domain.ErrBookNotFound)
		}
	})
}

func TestBookService_Delete(t *testing.T) {
	repo := repository.NewMemoryBookRepository()
	svc := NewBookService(repo)
	ctx := context.Background()
	owner := &domain.Claims{UserID: "owner", Role: domain.RoleContributor}
	other := &domain.Claims{UserID: "other", Role: domain.RoleContributor}

	book, _ := svc.Create(ctx, owner, bookRequest("Doomed Book"))

	if err := svc.Delete(ctx, other, book.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("Delete() by non-owner error = %v, want %v", err, ErrForbidden)
	}
	if err := svc.Delete(ctx, owner, book.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := svc.GetByID(ctx, book.ID); !errors.Is(err, domain.ErrBookNotFound) {
		t.Errorf("GetByID() after delete error = %v, want %v", err, domain.ErrBookNotFound)
	}
}

func TestBookService_Counters(t *testing.T) {
	repo := repository.NewMemoryBookRepository()
	svc := NewBookService(repo)
	ctx := context.Background()
	owner := &domain.Claims{UserID: "owner", Role: domain.RoleContributor}

	book, _ := svc.Create(ctx, owner, bookRequest("Counted Book"))

	for want := int64(1); want <= 3; want++ {
		count, err := svc.IncrementViews(ctx, book.ID)
		if err != nil {
			t.Fatalf("IncrementViews() error = %v", err)
		}
		if count != want {
			t.Errorf("IncrementViews() = %d, want %d", count, want)
		}
	}

	count, err := svc.IncrementDownloads(ctx, book.ID)
	if err != nil {
		t.Fatalf("IncrementDownloads() error = %v", err)
	}
	if count != 1 {
		t.Errorf("IncrementDownloads() = %d, want 1", count)
	}

	if _, err := svc.IncrementViews(ctx, "no-such-id"); !errors.Is(err, domain.ErrBookNotFound) {
		t.Errorf("IncrementViews() error = %v, want %v", err, domain.ErrBookNotFound)
	}
}

func TestBookService_ListMine(t *testing.T) {
	repo := repository.NewMemoryBookRepository()
	svc := NewBookService(repo)
	ctx := context.Background()
	alice := &domain.Claims{UserID: "alice", Role: domain.RoleContributor}
	bob := &domain.Claims{UserID: "bob", Role: domain.RoleContributor}

	svc.Create(ctx, alice, bookRequest("Alice One"))
	svc.Create(ctx, alice, bookRequest("Alice Two"))
	svc.Create(ctx, bob, bookRequest("Bob One"))

	mine, err := svc.ListMine(ctx, alice)
	if err != nil {
		t.Fatalf("ListMine() error = %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("ListMine() returned %d books, want 2", len(mine))
	}
	for _, b := range mine {
		if b.UserID != "alice" {
			t.Errorf("ListMine() leaked book owned by %q", b.UserID)
		}
	}

	all, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("List() returned %d books, want 3", len(all))
	}
}
