package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/optread/optread-api/internal/domain"
)

// MemoryBookRepository implements BookRepository using in-memory storage.
// This is useful for testing and development.
type MemoryBookRepository struct {
	books map[string]*domain.Book
	mu    sync.RWMutex
}

// NewMemoryBookRepository creates a new in-memory book repository
func NewMemoryBookRepository() *MemoryBookRepository {
	return &MemoryBookRepository{books: make(map[string]*domain.Book)}
}

// List returns all books ordered by title
func (r *MemoryBookRepository) List(ctx context.Context) ([]*domain.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	books := make([]*domain.Book, 0, len(r.books))
	for _, book := range r.books {
		b := *book
		books = append(books, &b)
	}
	sort.Slice(books, func(i, j int) bool { return books[i].Title < books[j].Title })
	return books, nil
}

// GetByID retrieves a book by ID
func (r *MemoryBookRepository) GetByID(ctx context.Context, id string) (*domain.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	book, exists := r.books[id]
	if !exists {
		return nil, nil
	}
	b := *book
	return &b, nil
}

// GetBySlug retrieves a book by slug
func (r *MemoryBookRepository) GetBySlug(ctx context.Context, slug string) (*domain.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, book := range r.books {
		if book.Slug == slug {
			b := *book
			return &b, nil
		}
	}
	return nil, nil
}

// ListByUser returns a user's books, newest first
func (r *MemoryBookRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var books []*domain.Book
	for _, book := range r.books {
		if book.UserID == userID {
			b := *book
			books = append(books, &b)
		}
	}
	sort.Slice(books, func(i, j int) bool { return books[i].CreatedAt.After(books[j].CreatedAt) })
	return books, nil
}

// Create inserts a new book listing
func (r *MemoryBookRepository) Create(ctx context.Context, book *domain.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := *book
	r.books[book.ID] = &b
	return nil
}

// Update persists listing changes
func (r *MemoryBookRepository) Update(ctx context.Context, book *domain.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.books[book.ID]
	if !exists {
		return nil
	}
	counters := struct{ views, downloads int64 }{stored.ViewCount, stored.DownloadCount}
	b := *book
	b.ViewCount = counters.views
	b.DownloadCount = counters.downloads
	b.UpdatedAt = time.Now()
	r.books[book.ID] = &b
	return nil
}

// Delete removes a book
func (r *MemoryBookRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.books, id)
	return nil
}

// DeleteByUser removes all books owned by a user
func (r *MemoryBookRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for id, book := range r.books {
		if book.UserID == userID {
			delete(r.books, id)
			deleted++
		}
	}
	return deleted, nil
}

// IncrementViews bumps and returns the view counter
func (r *MemoryBookRepository) IncrementViews(ctx context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	book, exists := r.books[id]
	if !exists {
		return 0, domain.ErrBookNotFound
	}
	book.ViewCount++
	return book.ViewCount, nil
}

// IncrementDownloads bumps and returns the download counter
func (r *MemoryBookRepository) IncrementDownloads(ctx context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	book, exists := r.books[id]
	if !exists {
		return 0, domain.ErrBookNotFound
	}
	book.DownloadCount++
	return book.DownloadCount, nil
}
