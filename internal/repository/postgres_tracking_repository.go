package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/optread/optread-api/internal/domain"
)

// PostgresTrackingCodeRepository implements TrackingCodeRepository using PostgreSQL
type PostgresTrackingCodeRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresTrackingCodeRepository creates a new PostgresTrackingCodeRepository
func NewPostgresTrackingCodeRepository(pool *pgxpool.Pool) *PostgresTrackingCodeRepository {
	return &PostgresTrackingCodeRepository{pool: pool}
}

const trackingColumns = `id, platform, code, position, active, created_at, updated_at`

func scanTrackingCode(row pgx.Row) (*domain.TrackingCode, error) {
	tc := &domain.TrackingCode{}
	err := row.Scan(&tc.ID, &tc.Platform, &tc.Code, &tc.Position, &tc.Active, &tc.CreatedAt, &tc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return tc, nil
}

func (r *PostgresTrackingCodeRepository) queryCodes(ctx context.Context, query string, args ...interface{}) ([]*domain.TrackingCode, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []*domain.TrackingCode
	for rows.Next() {
		tc, err := scanTrackingCode(rows)
		if err != nil {
			return nil, err
		}
		codes = append(codes, tc)
	}
	return codes, rows.Err()
}

// List returns all codes ordered by platform
func (r *PostgresTrackingCodeRepository) List(ctx context.Context) ([]*domain.TrackingCode, error) {
	return r.queryCodes(ctx, `SELECT `+trackingColumns+` FROM tracking_codes ORDER BY platform`)
}

// GetByID retrieves a tracking code by ID
func (r *PostgresTrackingCodeRepository) GetByID(ctx context.Context, id string) (*domain.TrackingCode, error) {
	return scanTrackingCode(r.pool.QueryRow(ctx, `SELECT `+trackingColumns+` FROM tracking_codes WHERE id = $1`, id))
}

// ListActiveByPosition returns active codes for an injection slot
func (r *PostgresTrackingCodeRepository) ListActiveByPosition(ctx context.Context, position domain.Position) ([]*domain.TrackingCode, error) {
	return r.queryCodes(ctx,
		`SELECT `+trackingColumns+` FROM tracking_codes WHERE position = $1 AND active = TRUE ORDER BY created_at`,
		position)
}

// Create inserts a new tracking code
func (r *PostgresTrackingCodeRepository) Create(ctx context.Context, code *domain.TrackingCode) error {
	query := `
		INSERT INTO tracking_codes (id, platform, code, position, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query,
		code.ID, code.Platform, code.Code, code.Position, code.Active, code.CreatedAt, code.UpdatedAt)
	return err
}

// Update persists tracking code changes
func (r *PostgresTrackingCodeRepository) Update(ctx context.Context, code *domain.TrackingCode) error {
	query := `
		UPDATE tracking_codes
		SET platform = $2, code = $3, position = $4, active = $5, updated_at = $6
		WHERE id = $1
	`
	code.UpdatedAt = time.Now().UTC()
	_, err := r.pool.Exec(ctx, query,
		code.ID, code.Platform, code.Code, code.Position, code.Active, code.UpdatedAt)
	return err
}

// Delete removes a tracking code
func (r *PostgresTrackingCodeRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM tracking_codes WHERE id = $1`, id)
	return err
}
