// internal/repository/postgres/device_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"admin-portal-service/internal/domain/driver"
	xerrors "admin-portal-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DeviceRepository struct {
	db *pgxpool.Pool
}

func NewDeviceRepository(db *pgxpool.Pool) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// Upsert registers a device on first login and rotates the stored refresh
// hash plus metadata on every subsequent login or refresh. The device_id
// unique index is the conflict key. A login by a different driver on the
// same handset rebinds the row to that driver, so the row owner always
// matches the refresh hash stored alongside it.
func (r *DeviceRepository) Upsert(ctx context.Context, d *driver.TrustedDevice) error {
	query := `
		INSERT INTO driver_trusted_devices (
			id, driver_id, device_id, refresh_token_hash,
			platform, model, app_version
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (device_id) DO UPDATE SET
			driver_id = EXCLUDED.driver_id,
			refresh_token_hash = EXCLUDED.refresh_token_hash,
			platform = EXCLUDED.platform,
			model = EXCLUDED.model,
			app_version = EXCLUDED.app_version,
			last_seen_at = NOW()
		RETURNING id, first_seen_at, last_seen_at
	`

	err := r.db.QueryRow(
		ctx, query,
		d.ID, d.DriverID, d.DeviceID, d.RefreshTokenHash,
		d.Platform, d.Model, d.AppVersion,
	).Scan(&d.ID, &d.FirstSeenAt, &d.LastSeenAt)
	if err != nil {
		return fmt.Errorf("failed to upsert device: %w", err)
	}
	return nil
}

// FindByDeviceID retrieves a trusted device record, revoked or not. The
// service decides what a revoked record means for the request at hand.
func (r *DeviceRepository) FindByDeviceID(ctx context.Context, deviceID string) (*driver.TrustedDevice, error) {
	query := `
		SELECT id, driver_id, device_id, refresh_token_hash, platform, model,
		       app_version, first_seen_at, last_seen_at, revoked_at, revoke_reason
		FROM driver_trusted_devices
		WHERE device_id = $1
	`

	var d driver.TrustedDevice
	err := r.db.QueryRow(ctx, query, deviceID).Scan(
		&d.ID, &d.DriverID, &d.DeviceID, &d.RefreshTokenHash, &d.Platform,
		&d.Model, &d.AppVersion, &d.FirstSeenAt, &d.LastSeenAt,
		&d.RevokedAt, &d.RevokeReason,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find device: %w", err)
	}

	return &d, nil
}

// Revoke cuts a device off from refreshing, effective immediately. Same
// idempotence contract as session revocation.
func (r *DeviceRepository) Revoke(ctx context.Context, deviceID, reason string) error {
	query := `
		UPDATE driver_trusted_devices
		SET revoked_at = $1, revoke_reason = $2
		WHERE device_id = $3 AND revoked_at IS NULL
	`
	tag, err := r.db.Exec(ctx, query, time.Now(), reason, deviceID)
	if err != nil {
		return fmt.Errorf("failed to revoke device: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// ListByDriver returns all devices ever seen for a driver, newest first.
func (r *DeviceRepository) ListByDriver(ctx context.Context, driverID string) ([]*driver.TrustedDevice, error) {
	query := `
		SELECT id, driver_id, device_id, refresh_token_hash, platform, model,
		       app_version, first_seen_at, last_seen_at, revoked_at, revoke_reason
		FROM driver_trusted_devices
		WHERE driver_id = $1
		ORDER BY first_seen_at DESC
	`

	rows, err := r.db.Query(ctx, query, driverID)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	defer rows.Close()

	var devices []*driver.TrustedDevice
	for rows.Next() {
		var d driver.TrustedDevice
		if err := rows.Scan(
			&d.ID, &d.DriverID, &d.DeviceID, &d.RefreshTokenHash, &d.Platform,
			&d.Model, &d.AppVersion, &d.FirstSeenAt, &d.LastSeenAt,
			&d.RevokedAt, &d.RevokeReason,
		); err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		devices = append(devices, &d)
	}
	return devices, rows.Err()
}
