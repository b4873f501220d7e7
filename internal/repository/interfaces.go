package repository

import (
	"context"
	"errors"
	"time"

	"github.com/optread/optread-api/internal/domain"
)

// ErrDuplicateEmail is returned when a write collides with the users.email
// unique constraint. The constraint, not application logic, is the safety
// net for concurrent check-then-insert races.
var ErrDuplicateEmail = errors.New("email already in use")

// ErrDuplicateCategoryName is returned when a write collides with the
// categories.name unique constraint.
var ErrDuplicateCategoryName = errors.New("category name already in use")

// UserRepository defines persistence operations for users
type UserRepository interface {
	// Create inserts a new user. Returns ErrDuplicateEmail on conflict.
	Create(ctx context.Context, user *domain.User) error
	// GetByID retrieves a user by ID, nil if not found
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// GetByEmail retrieves a user by email, nil if not found
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// GetByResetToken retrieves the user holding this reset token, nil if none
	GetByResetToken(ctx context.Context, token string) (*domain.User, error)
	// List returns all users
	List(ctx context.Context) ([]*domain.User, error)
	// Update persists name, email, role and status changes.
	// Returns ErrDuplicateEmail on conflict.
	Update(ctx context.Context, user *domain.User) error
	// UpdatePassword replaces the password hash
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	// SetResetToken stores a reset token and expiry on the user owning the
	// email, overwriting any prior token. Returns false if no user matched.
	SetResetToken(ctx context.Context, email, token string, expiry time.Time) (bool, error)
	// ConsumeResetToken atomically sets the password hash and clears the
	// token and expiry, but only while the token is unexpired. Returns false
	// if the token matched no row or had expired.
	ConsumeResetToken(ctx context.Context, token, passwordHash string) (bool, error)
	// Delete removes the user row
	Delete(ctx context.Context, id string) error
}

// BookRepository defines persistence operations for book listings
type BookRepository interface {
	// List returns all books ordered by title
	List(ctx context.Context) ([]*domain.Book, error)
	// GetByID retrieves a book by ID, nil if not found
	GetByID(ctx context.Context, id string) (*domain.Book, error)
	// GetBySlug retrieves a book by slug, nil if not found
	GetBySlug(ctx context.Context, slug string) (*domain.Book, error)
	// ListByUser returns a user's books, newest first
	ListByUser(ctx context.Context, userID string) ([]*domain.Book, error)
	Create(ctx context.Context, book *domain.Book) error
	Update(ctx context.Context, book *domain.Book) error
	Delete(ctx context.Context, id string) error
	// DeleteByUser removes all books owned by a user, returning the count
	DeleteByUser(ctx context.Context, userID string) (int64, error)
	// IncrementViews bumps and returns the view counter
	IncrementViews(ctx context.Context, id string) (int64, error)
	// IncrementDownloads bumps and returns the download counter
	IncrementDownloads(ctx context.Context, id string) (int64, error)
}

// CategoryRepository defines persistence operations for categories
type CategoryRepository interface {
	List(ctx context.Context) ([]*domain.Category, error)
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	// Create inserts a category. Returns ErrDuplicateCategoryName on a
	// name conflict.
	Create(ctx context.Context, category *domain.Category) error
	// Update persists changes. Returns ErrDuplicateCategoryName on a
	// name conflict.
	Update(ctx context.Context, category *domain.Category) error
	Delete(ctx context.Context, id string) error
	// HasChildren reports whether any category names this one as parent
	HasChildren(ctx context.Context, id string) (bool, error)
}

// TrackingCodeRepository defines persistence operations for tracking snippets
type TrackingCodeRepository interface {
	// List returns all codes ordered by platform
	List(ctx context.Context) ([]*domain.TrackingCode, error)
	GetByID(ctx context.Context, id string) (*domain.TrackingCode, error)
	// ListActiveByPosition returns active codes for an injection slot
	ListActiveByPosition(ctx context.Context, position domain.Position) ([]*domain.TrackingCode, error)
	Create(ctx context.Context, code *domain.TrackingCode) error
	Update(ctx context.Context, code *domain.TrackingCode) error
	Delete(ctx context.Context, id string) error
}

// SubscriberRepository defines persistence operations for gate submissions
type SubscriberRepository interface {
	// Create inserts a subscriber. Returns domain.ErrDuplicateSubscriber if
	// the (book, email) pair is already captured.
	Create(ctx context.Context, sub *domain.Subscriber) error
	// ListByBook returns a book's subscribers, oldest first
	ListByBook(ctx context.Context, bookID string) ([]*domain.Subscriber, error)
}
