// internal/domain/driver/entity.go
package driver

import "time"

// Driver is a driver-app account (funeral transport staff).
type Driver struct {
	ID           string     `json:"id"`
	Phone        string     `json:"phone"`
	FullName     string     `json:"full_name"`
	PasswordHash string     `json:"-"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"-"`
}

// TrustedDevice binds a driver's refresh credential to one installed app
// instance. Revoking the device cuts refresh immediately; outstanding access
// tokens die on their own short expiry.
type TrustedDevice struct {
	ID               string     `json:"id"`
	DriverID         string     `json:"driver_id"`
	DeviceID         string     `json:"device_id"`
	RefreshTokenHash string     `json:"-"`
	Platform         string     `json:"platform"`
	Model            string     `json:"model"`
	AppVersion       string     `json:"app_version"`
	FirstSeenAt      time.Time  `json:"first_seen_at"`
	LastSeenAt       time.Time  `json:"last_seen_at"`
	RevokedAt        *time.Time `json:"revoked_at,omitempty"`
	RevokeReason     *string    `json:"revoke_reason,omitempty"`
}

// Usable reports whether the device may redeem refresh tokens.
func (d *TrustedDevice) Usable() bool {
	return d.RevokedAt == nil
}
