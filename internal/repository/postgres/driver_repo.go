// internal/repository/postgres/driver_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"admin-portal-service/internal/domain/driver"
	xerrors "admin-portal-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DriverRepository struct {
	db *pgxpool.Pool
}

func NewDriverRepository(db *pgxpool.Pool) *DriverRepository {
	return &DriverRepository{db: db}
}

// FindByPhone retrieves a driver account by phone number.
func (r *DriverRepository) FindByPhone(ctx context.Context, phone string) (*driver.Driver, error) {
	query := `
		SELECT id, phone, full_name, password_hash, status, created_at, deleted_at
		FROM drivers
		WHERE phone = $1 AND deleted_at IS NULL
	`

	var d driver.Driver
	err := r.db.QueryRow(ctx, query, phone).Scan(
		&d.ID, &d.Phone, &d.FullName, &d.PasswordHash,
		&d.Status, &d.CreatedAt, &d.DeletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find driver: %w", err)
	}

	return &d, nil
}

// FindByID retrieves a driver account by id.
func (r *DriverRepository) FindByID(ctx context.Context, id string) (*driver.Driver, error) {
	query := `
		SELECT id, phone, full_name, password_hash, status, created_at, deleted_at
		FROM drivers
		WHERE id = $1 AND deleted_at IS NULL
	`

	var d driver.Driver
	err := r.db.QueryRow(ctx, query, id).Scan(
		&d.ID, &d.Phone, &d.FullName, &d.PasswordHash,
		&d.Status, &d.CreatedAt, &d.DeletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find driver: %w", err)
	}

	return &d, nil
}
