package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/optread/optread-api/internal/domain"
)

// PostgresSubscriberRepository implements SubscriberRepository using PostgreSQL
type PostgresSubscriberRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresSubscriberRepository creates a new PostgresSubscriberRepository
func NewPostgresSubscriberRepository(pool *pgxpool.Pool) *PostgresSubscriberRepository {
	return &PostgresSubscriberRepository{pool: pool}
}

// Create inserts a subscriber. The (book_id, email) unique constraint turns
// a re-submission into domain.ErrDuplicateSubscriber.
func (r *PostgresSubscriberRepository) Create(ctx context.Context, sub *domain.Subscriber) error {
	query := `
		INSERT INTO subscribers (id, book_id, full_name, email, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query, sub.ID, sub.BookID, sub.FullName, sub.Email, sub.CreatedAt)
	if isUniqueViolation(err) {
		return domain.ErrDuplicateSubscriber
	}
	return err
}

// ListByBook returns a book's subscribers, oldest first
func (r *PostgresSubscriberRepository) ListByBook(ctx context.Context, bookID string) ([]*domain.Subscriber, error) {
	query := `
		SELECT id, book_id, full_name, email, created_at
		FROM subscribers
		WHERE book_id = $1
		ORDER BY created_at
	`
	rows, err := r.pool.Query(ctx, query, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []*domain.Subscriber
	for rows.Next() {
		sub := &domain.Subscriber{}
		if err := rows.Scan(&sub.ID, &sub.BookID, &sub.FullName, &sub.Email, &sub.CreatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}
