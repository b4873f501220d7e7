package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/optread/optread-api/internal/domain"
)

// PostgresBookRepository implements BookRepository using PostgreSQL
type PostgresBookRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresBookRepository creates a new PostgresBookRepository
func NewPostgresBookRepository(pool *pgxpool.Pool) *PostgresBookRepository {
	return &PostgresBookRepository{pool: pool}
}

const bookColumns = `id, title, slug, cover, author, description, category, tags, book_type, source_url, discount_code, book_status, user_id, view_count, download_count, created_at, updated_at`

func scanBook(row pgx.Row) (*domain.Book, error) {
	book := &domain.Book{}
	err := row.Scan(
		&book.ID,
		&book.Title,
		&book.Slug,
		&book.Cover,
		&book.Author,
		&book.Description,
		&book.Category,
		&book.Tags,
		&book.BookType,
		&book.SourceURL,
		&book.DiscountCode,
		&book.Status,
		&book.UserID,
		&book.ViewCount,
		&book.DownloadCount,
		&book.CreatedAt,
		&book.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return book, nil
}

func (r *PostgresBookRepository) queryBooks(ctx context.Context, query string, args ...interface{}) ([]*domain.Book, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []*domain.Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	return books, rows.Err()
}

// List returns all books ordered by title
func (r *PostgresBookRepository) List(ctx context.Context) ([]*domain.Book, error) {
	return r.queryBooks(ctx, `SELECT `+bookColumns+` FROM books ORDER BY title`)
}

// GetByID retrieves a book by ID
func (r *PostgresBookRepository) GetByID(ctx context.Context, id string) (*domain.Book, error) {
	return scanBook(r.pool.QueryRow(ctx, `SELECT `+bookColumns+` FROM books WHERE id = $1`, id))
}

// GetBySlug retrieves a book by slug
func (r *PostgresBookRepository) GetBySlug(ctx context.Context, slug string) (*domain.Book, error) {
	return scanBook(r.pool.QueryRow(ctx, `SELECT `+bookColumns+` FROM books WHERE slug = $1`, slug))
}

// ListByUser returns a user's books, newest first
func (r *PostgresBookRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Book, error) {
	return r.queryBooks(ctx, `SELECT `+bookColumns+` FROM books WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

// Create inserts a new book listing
func (r *PostgresBookRepository) Create(ctx context.Context, book *domain.Book) error {
	query := `
		INSERT INTO books (id, title, slug, cover, author, description, category, tags, book_type, source_url, discount_code, book_status, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := r.pool.Exec(ctx, query,
		book.ID,
		book.Title,
		book.Slug,
		book.Cover,
		book.Author,
		book.Description,
		book.Category,
		book.Tags,
		book.BookType,
		book.SourceURL,
		book.DiscountCode,
		book.Status,
		book.UserID,
		book.CreatedAt,
		book.UpdatedAt,
	)
	return err
}

// Update persists listing changes
func (r *PostgresBookRepository) Update(ctx context.Context, book *domain.Book) error {
	query := `
		UPDATE books
		SET title = $2, slug = $3, cover = $4, author = $5, description = $6, category = $7,
		    tags = $8, book_type = $9, source_url = $10, discount_code = $11, book_status = $12, updated_at = $13
		WHERE id = $1
	`
	book.UpdatedAt = time.Now().UTC()
	_, err := r.pool.Exec(ctx, query,
		book.ID,
		book.Title,
		book.Slug,
		book.Cover,
		book.Author,
		book.Description,
		book.Category,
		book.Tags,
		book.BookType,
		book.SourceURL,
		book.DiscountCode,
		book.Status,
		book.UpdatedAt,
	)
	return err
}

// Delete removes a book
func (r *PostgresBookRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	return err
}

// DeleteByUser removes all books owned by a user
func (r *PostgresBookRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM books WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// IncrementViews bumps and returns the view counter
func (r *PostgresBookRepository) IncrementViews(ctx context.Context, id string) (int64, error) {
	query := `UPDATE books SET view_count = view_count + 1 WHERE id = $1 RETURNING view_count`
	var count int64
	err := r.pool.QueryRow(ctx, query, id).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrBookNotFound
		}
		return 0, err
	}
	return count, nil
}

// IncrementDownloads bumps and returns the download counter
func (r *PostgresBookRepository) IncrementDownloads(ctx context.Context, id string) (int64, error) {
	query := `UPDATE books SET download_count = download_count + 1 WHERE id = $1 RETURNING download_count`
	var count int64
	err := r.pool.QueryRow(ctx, query, id).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrBookNotFound
		}
		return 0, err
	}
	return count, nil
}
