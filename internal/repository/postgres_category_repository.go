package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/optread/optread-api/internal/domain"
)

// PostgresCategoryRepository implements CategoryRepository using PostgreSQL
type PostgresCategoryRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresCategoryRepository creates a new PostgresCategoryRepository
func NewPostgresCategoryRepository(pool *pgxpool.Pool) *PostgresCategoryRepository {
	return &PostgresCategoryRepository{pool: pool}
}

func scanCategory(row pgx.Row) (*domain.Category, error) {
	cat := &domain.Category{}
	err := row.Scan(&cat.ID, &cat.Name, &cat.Description, &cat.ParentID, &cat.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return cat, nil
}

// List returns all categories ordered by name
func (r *PostgresCategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description, parent_id, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []*domain.Category
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		cats = append(cats, cat)
	}
	return cats, rows.Err()
}

// GetByID retrieves a category by ID
func (r *PostgresCategoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	return scanCategory(r.pool.QueryRow(ctx, `SELECT id, name, description, parent_id, created_at FROM categories WHERE id = $1`, id))
}

// Create inserts a new category
func (r *PostgresCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	query := `INSERT INTO categories (id, name, description, parent_id, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.pool.Exec(ctx, query, category.ID, category.Name, category.Description, category.ParentID, category.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateCategoryName
	}
	return err
}

// Update persists category changes
func (r *PostgresCategoryRepository) Update(ctx context.Context, category *domain.Category) error {
	query := `UPDATE categories SET name = $2, description = $3, parent_id = $4 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, category.ID, category.Name, category.Description, category.ParentID)
	if isUniqueViolation(err) {
		return ErrDuplicateCategoryName
	}
	return err
}

// Delete removes a category
func (r *PostgresCategoryRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	return err
}

// HasChildren reports whether any category names this one as parent
func (r *PostgresCategoryRepository) HasChildren(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM categories WHERE parent_id = $1)`, id).Scan(&exists)
	return exists, err
}
