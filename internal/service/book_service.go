package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/optread/optread-api/internal/domain"
	"github.com/optread/optread-api/internal/dto"
	"github.com/optread/optread-api/internal/repository"
	"github.com/optread/optread-api/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ErrInvalidBookType is returned when the book type is not in the closed set
var ErrInvalidBookType = errors.New("invalid book type")

// BookService defines operations on book listings
type BookService interface {
	// List returns all book listings
	List(ctx context.Context) ([]*domain.Book, error)
	// ListMine returns the authenticated user's listings, newest first
	ListMine(ctx context.Context, actor *domain.Claims) ([]*domain.Book, error)
	// GetByID retrieves a book by ID
	GetByID(ctx context.Context, id string) (*domain.Book, error)
	// GetBySlug retrieves a published book by slug for public pages.
	// Drafts are indistinguishable from missing books.
	GetBySlug(ctx context.Context, slug string) (*domain.Book, error)
	// Create adds a listing owned by the actor
	Create(ctx context.Context, actor *domain.Claims, req *dto.BookRequest) (*domain.Book, error)
	// Update modifies a listing; only the owner or an admin may
	Update(ctx context.Context, actor *domain.Claims, id string, req *dto.BookRequest) (*domain.Book, error)
	// Delete removes a listing; only the owner or an admin may
	Delete(ctx context.Context, actor *domain.Claims, id string) error
	// IncrementViews bumps the view counter and returns the new value
	IncrementViews(ctx context.Context, id string) (int64, error)
	// IncrementDownloads bumps the download counter and returns the new value
	IncrementDownloads(ctx context.Context, id string) (int64, error)
}

// bookService implements BookService
type bookService struct {
	bookRepo repository.BookRepository
	now      nowFunc
}

// NewBookService creates a new BookService
func NewBookService(bookRepo repository.BookRepository) BookService {
	return &bookService{
		bookRepo: bookRepo,
		now:      defaultNow,
	}
}

// List returns all book listings
func (s *bookService) List(ctx context.Context) ([]*domain.Book, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.book.list")
	defer span.End()

	books, err := s.bookRepo.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("count", len(books)))
	span.SetStatus(codes.Ok, "")
	return books, nil
}

// ListMine returns the authenticated user's listings
func (s *bookService) ListMine(ctx context.Context, actor *domain.Claims) ([]*domain.Book, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.book.list_mine")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", actor.UserID))

	books, err := s.bookRepo.ListByUser(ctx, actor.UserID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return books, nil
}

// GetByID retrieves a book by ID
func (s *bookService) GetByID(ctx context.Context, id string) (*domain.Book, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.book.get")
	defer span.End()

	span.SetAttributes(attribute.String("book_id", id))

	book, err := s.bookRepo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if book == nil {
		span.SetStatus(codes.Error, "book not found")
		return nil, domain.ErrBookNotFound
	}

	span.SetStatus(codes.Ok, "")
	return book, nil
}

// GetBySlug retrieves a published book by slug for public pages
func (s *bookService) GetBySlug(ctx context.Context, slug string) (*domain.Book, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.book.get_by_slug")
	defer span.End()

	span.SetAttributes(attribute.String("slug", slug))

	book, err := s.bookRepo.GetBySlug(ctx, slug)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if book == nil || !book.Published() {
		span.SetStatus(codes.Error, "book not found")
		return nil, domain.ErrBookNotFound
	}

	span.SetStatus(codes.Ok, "")
	return book, nil
}

// Create adds a listing owned by the actor
func (s *bookService) Create(ctx context.Context, actor *domain.Claims, req *dto.BookRequest) (*domain.Book, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.book.create")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", actor.UserID))

	if !actor.Role.CanPublishBooks() {
		span.SetStatus(codes.Error, "forbidden")
		return nil, ErrForbidden
	}

	bookType := domain.BookType(req.BookType)
	if !bookType.Valid() {
		span.SetStatus(codes.Error, "invalid book type")
		return nil, ErrInvalidBookType
	}

	slug, err := s.uniqueSlug(ctx, req.Title)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	status := domain.BookStatusDraft
	if req.Status != nil {
		status = *req.Status
	}

	now := s.now()
	book := &domain.Book{
		ID:           uuid.New().String(),
		Title:        req.Title,
		Slug:         slug,
		Cover:        req.Cover,
		Author:       req.Author,
		Description:  req.Description,
		Category:     req.Category,
		Tags:         req.Tags,
		BookType:     bookType,
		SourceURL:    req.SourceURL,
		DiscountCode: req.DiscountCode,
		Status:       status,
		UserID:       actor.UserID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.bookRepo.Create(ctx, book); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.String("book_id", book.ID))
	span.SetStatus(codes.Ok, "")
	return book, nil
}

// Update modifies a listing; only the owner or an admin may
func (s *bookService) Update(ctx context.Context, actor *domain.Claims, id string, req *dto.BookRequest) (*domain.Book, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.book.update")
	defer span.End()

	span.SetAttributes(attribute.String("book_id", id))

	book, err := s.bookRepo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if book == nil {
		span.SetStatus(codes.Error, "book not found")
		return nil, domain.ErrBookNotFound
	}
	if book.UserID != actor.UserID && !actor.IsAdmin() {
		span.SetStatus(codes.Error, "forbidden")
		return nil, ErrForbidden
	}

	bookType := domain.BookType(req.BookType)
	if !bookType.Valid() {
		span.SetStatus(codes.Error, "invalid book type")
		return nil, ErrInvalidBookType
	}

	// Slug follows the title only when the title changed, so existing
	// public links keep working across metadata edits.
	if req.Title != book.Title {
		slug, err := s.uniqueSlug(ctx, req.Title)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		book.Slug = slug
	}

	book.Title = req.Title
	book.Cover = req.Cover
	book.Author = req.Author
	book.Description = req.Description
	book.Category = req.Category
	book.Tags = req.Tags
	book.BookType = bookType
	book.SourceURL = req.SourceURL
	book.DiscountCode = req.DiscountCode
	if req.Status != nil {
		book.Status = *req.Status
	}
	book.UpdatedAt = s.now()

	if err := s.bookRepo.Update(ctx, book); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return book, nil
}

// Delete removes a listing; only the owner or an admin may
func (s *bookService) Delete(ctx context.Context, actor *domain.Claims, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.book.delete")
	defer span.End()

	span.SetAttributes(attribute.String("book_id", id))

	book, err := s.bookRepo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if book == nil {
		span.SetStatus(codes.Error, "book not found")
		return domain.ErrBookNotFound
	}
	if book.UserID != actor.UserID && !actor.IsAdmin() {
		span.SetStatus(codes.Error, "forbidden")
		return ErrForbidden
	}

	if err := s.bookRepo.Delete(ctx, id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// IncrementViews bumps the view counter and returns the new value
func (s *bookService) IncrementViews(ctx context.Context, id string) (int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.book.increment_views")
	defer span.End()

	span.SetAttributes(attribute.String("book_id", id))

	count, err := s.bookRepo.IncrementViews(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrBookNotFound) {
			span.RecordError(err)
		}
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	span.SetStatus(codes.Ok, "")
	return count, nil
}

// IncrementDownloads bumps the download counter and returns the new value
func (s *bookService) IncrementDownloads(ctx context.Context, id string) (int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.book.increment_downloads")
	defer span.End()

	span.SetAttributes(attribute.String("book_id", id))

	count, err := s.bookRepo.IncrementDownloads(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrBookNotFound) {
			span.RecordError(err)
		}
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	span.SetStatus(codes.Ok, "")
	return count, nil
}

// uniqueSlug derives a slug from the title, suffixing a short random id when
// another book already owns it.
func (s *bookService) uniqueSlug(ctx context.Context, title string) (string, error) {
	slug := domain.Slugify(title)
	existing, err := s.bookRepo.GetBySlug(ctx, slug)
	if err != nil {
		return "", err
	}
	if existing == nil {
		return slug, nil
	}
	return slug + "-" + uuid.New().String()[:8], nil
}
