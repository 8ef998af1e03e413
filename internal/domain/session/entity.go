// internal/domain/session/entity.go
package session

import "time"

// UserSession is the revocation/audit ledger row behind a portal cookie.
// Only the SHA-256 hash of the credential is stored, never the raw value.
type UserSession struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	TokenHash    string     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	LastSeenAt   time.Time  `json:"last_seen_at"`
	ExpiresAt    time.Time  `json:"expires_at"`
	RevokedAt    *time.Time `json:"revoked_at,omitempty"`
	RevokeReason *string    `json:"revoke_reason,omitempty"`
}

// Active reports whether the session is usable at the given instant:
// not revoked and not past expiry.
func (s *UserSession) Active(now time.Time) bool {
	return s.RevokedAt == nil && s.ExpiresAt.After(now)
}
