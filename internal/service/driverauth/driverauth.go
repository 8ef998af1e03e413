// internal/service/driverauth/driverauth.go
package driverauth

import (
	"context"
	"fmt"

	"admin-portal-service/internal/domain/driver"
	"admin-portal-service/internal/domain/principal"
	xerrors "admin-portal-service/internal/pkg/errors"
	"admin-portal-service/internal/pkg/token"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// DriverRepo is the minimal driver repository needed by this service.
type DriverRepo interface {
	FindByPhone(ctx context.Context, phone string) (*driver.Driver, error)
	FindByID(ctx context.Context, id string) (*driver.Driver, error)
}

// DeviceRepo is the minimal trusted-device repository needed by this service.
type DeviceRepo interface {
	Upsert(ctx context.Context, d *driver.TrustedDevice) error
	FindByDeviceID(ctx context.Context, deviceID string) (*driver.TrustedDevice, error)
	Revoke(ctx context.Context, deviceID, reason string) error
	ListByDriver(ctx context.Context, driverID string) ([]*driver.TrustedDevice, error)
}

// Service issues and refreshes the driver-app token pair. Access tokens are
// short-lived and self-contained: no database hit per request, revocation
// lands at the refresh boundary through the trusted-device table.
type Service struct {
	driverRepo DriverRepo
	deviceRepo DeviceRepo
	access     *token.Codec
	refresh    *token.Codec
	logger     *zap.Logger
}

func NewService(
	driverRepo DriverRepo,
	deviceRepo DeviceRepo,
	access *token.Codec,
	refresh *token.Codec,
	logger *zap.Logger,
) *Service {
	return &Service{
		driverRepo: driverRepo,
		deviceRepo: deviceRepo,
		access:     access,
		refresh:    refresh,
		logger:     logger,
	}
}

// Login authenticates a driver with phone/password and binds the refresh
// credential to the calling device.
func (s *Service) Login(ctx context.Context, req *driver.LoginRequest) (*driver.TokenResponse, error) {
	d, err := s.driverRepo.FindByPhone(ctx, req.Phone)
	if err != nil {
		return nil, xerrors.ErrUnauthenticated
	}
	if d.Status != "active" {
		return nil, xerrors.ErrUnauthenticated
	}

	if err := bcrypt.CompareHashAndPassword([]byte(d.PasswordHash), []byte(req.Password)); err != nil {
		return nil, xerrors.ErrUnauthenticated
	}

	// An existing device row is refreshed in place; a revoked device stays
	// revoked and cannot be resurrected by logging in again.
	existing, err := s.deviceRepo.FindByDeviceID(ctx, req.DeviceID)
	if err != nil && !xerrors.Is(err, xerrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up device: %w", err)
	}
	if existing != nil && !existing.Usable() {
		return nil, xerrors.ErrDeviceRevoked
	}

	return s.issuePair(ctx, d.ID, &driver.TrustedDevice{
		ID:         ulid.Make().String(),
		DriverID:   d.ID,
		DeviceID:   req.DeviceID,
		Platform:   req.Platform,
		Model:      req.Model,
		AppVersion: req.AppVersion,
	})
}

// Refresh redeems a refresh credential for a new token pair, rotating the
// stored hash. Device revocation is enforced here, with no grace period.
func (s *Service) Refresh(ctx context.Context, req *driver.RefreshRequest) (*driver.TokenResponse, error) {
	claims, err := s.refresh.Verify(req.RefreshToken)
	if err != nil {
		s.logger.Debug("driver refresh token rejected", zap.Error(err))
		return nil, xerrors.ErrUnauthenticated
	}

	dev, err := s.deviceRepo.FindByDeviceID(ctx, req.DeviceID)
	if err != nil {
		return nil, xerrors.ErrUnauthenticated
	}
	if !dev.Usable() {
		return nil, xerrors.ErrDeviceRevoked
	}
	if dev.DriverID != claims.Subject {
		return nil, xerrors.ErrUnauthenticated
	}
	if !token.HashEqual(req.RefreshToken, dev.RefreshTokenHash) {
		// Stale or stolen refresh token for this device.
		return nil, xerrors.ErrUnauthenticated
	}

	if _, err := s.driverRepo.FindByID(ctx, dev.DriverID); err != nil {
		return nil, xerrors.ErrUnauthenticated
	}

	return s.issuePair(ctx, dev.DriverID, dev)
}

// issuePair signs an access/refresh pair for the driver and persists the new
// refresh hash on the device row.
func (s *Service) issuePair(ctx context.Context, driverID string, dev *driver.TrustedDevice) (*driver.TokenResponse, error) {
	accessToken, accessExp, err := s.access.Sign(driverID, principal.RoleDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshToken, refreshExp, err := s.refresh.Sign(driverID, principal.RoleDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	dev.RefreshTokenHash = token.Hash(refreshToken)
	if err := s.deviceRepo.Upsert(ctx, dev); err != nil {
		return nil, fmt.Errorf("failed to store device: %w", err)
	}

	return &driver.TokenResponse{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		TokenType:        "Bearer",
		ExpiresAt:        accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Authenticate resolves a bearer access token to a driver principal. Purely
// claim-based: validity comes from the signature and the short expiry.
func (s *Service) Authenticate(rawToken string) (principal.Driver, error) {
	claims, err := s.access.Verify(rawToken)
	if err != nil {
		s.logger.Debug("driver access token rejected", zap.Error(err))
		return principal.Driver{}, xerrors.ErrUnauthenticated
	}

	if claims.Role != principal.RoleDriver {
		return principal.Driver{}, xerrors.ErrForbidden
	}

	return principal.Driver{DriverID: claims.Subject}, nil
}

// Logout revokes one of the calling driver's own devices; already-revoked
// and unknown devices are a no-op. A device bound to another driver is off
// limits regardless of the credential presented.
func (s *Service) Logout(ctx context.Context, driverID, deviceID string) error {
	dev, err := s.deviceRepo.FindByDeviceID(ctx, deviceID)
	if err != nil {
		if xerrors.Is(err, xerrors.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to look up device: %w", err)
	}
	if dev.DriverID != driverID {
		return xerrors.ErrForbidden
	}

	if err := s.deviceRepo.Revoke(ctx, deviceID, "driver logout"); err != nil {
		if xerrors.Is(err, xerrors.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to revoke device: %w", err)
	}
	return nil
}

// RevokeDevice cuts a device off on behalf of management.
func (s *Service) RevokeDevice(ctx context.Context, deviceID, reason string) error {
	if err := s.deviceRepo.Revoke(ctx, deviceID, reason); err != nil {
		if xerrors.Is(err, xerrors.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to revoke device: %w", err)
	}
	return nil
}

// ListDevices returns every device ever seen for a driver.
func (s *Service) ListDevices(ctx context.Context, driverID string) ([]*driver.TrustedDevice, error) {
	return s.deviceRepo.ListByDriver(ctx, driverID)
}
