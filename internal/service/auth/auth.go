// internal/service/auth/auth.go
package auth

import (
	"context"
	"fmt"
	"time"

	"admin-portal-service/internal/domain/principal"
	"admin-portal-service/internal/domain/session"
	"admin-portal-service/internal/domain/user"
	xerrors "admin-portal-service/internal/pkg/errors"
	"admin-portal-service/internal/pkg/token"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// touchInterval bounds last-seen write volume: at most one touch per session
// per interval.
const touchInterval = 60 * time.Second

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	FindByEmail(ctx context.Context, email string) (*user.User, error)
	FindByID(ctx context.Context, id string) (*user.User, error)
}

// SessionRepo is the minimal session repository needed by the auth service.
type SessionRepo interface {
	Create(ctx context.Context, s *session.UserSession) error
	FindActiveByTokenHash(ctx context.Context, hash string) (*session.UserSession, error)
	FindByID(ctx context.Context, id string) (*session.UserSession, error)
	TouchLastSeen(ctx context.Context, id string) error
	Revoke(ctx context.Context, id, reason string) error
	ListByUser(ctx context.Context, userID string) ([]*session.UserSession, error)
}

// LoginLimiter throttles credential guessing.
type LoginLimiter interface {
	CheckLoginAttempt(ctx context.Context, ip, identifier string) (bool, int64, error)
	ResetLoginAttempts(ctx context.Context, ip, identifier string) error
}

// LogoutNotifier pushes a force-logout event to live portal connections.
type LogoutNotifier interface {
	ForceLogout(userID, sessionID, reason string)
}

// AuthService owns the portal credential lifecycle: sign-in, per-request
// authentication against the session ledger, and revocation.
type AuthService struct {
	userRepo    UserRepo
	sessionRepo SessionRepo
	codec       *token.Codec
	limiter     LoginLimiter
	notifier    LogoutNotifier
	logger      *zap.Logger
}

func NewAuthService(
	userRepo UserRepo,
	sessionRepo SessionRepo,
	codec *token.Codec,
	limiter LoginLimiter,
	notifier LogoutNotifier,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		codec:       codec,
		limiter:     limiter,
		notifier:    notifier,
		logger:      logger,
	}
}

// Login authenticates a portal user with email/password and opens a session.
// The returned raw token goes into the auth cookie; only its hash is stored.
func (s *AuthService) Login(ctx context.Context, req *user.LoginRequest, ip string) (*user.LoginResponse, string, error) {
	allowed, _, err := s.limiter.CheckLoginAttempt(ctx, ip, req.Email)
	if err != nil {
		return nil, "", fmt.Errorf("rate limiter error: %w", err)
	}
	if !allowed {
		return nil, "", xerrors.ErrRateLimited
	}

	u, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, "", xerrors.ErrUnauthenticated
	}
	if u.Status != "active" {
		return nil, "", xerrors.ErrUnauthenticated
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, "", xerrors.ErrUnauthenticated
	}

	rawToken, expiresAt, err := s.codec.Sign(u.ID, u.Role)
	if err != nil {
		return nil, "", fmt.Errorf("failed to sign token: %w", err)
	}

	sess := &session.UserSession{
		ID:        ulid.Make().String(),
		UserID:    u.ID,
		TokenHash: token.Hash(rawToken),
		ExpiresAt: expiresAt,
	}
	if err := s.sessionRepo.Create(ctx, sess); err != nil {
		return nil, "", fmt.Errorf("failed to create session: %w", err)
	}

	if err := s.limiter.ResetLoginAttempts(ctx, ip, req.Email); err != nil {
		s.logger.Warn("failed to reset login attempts", zap.Error(err))
	}

	return &user.LoginResponse{
		ExpiresAt: expiresAt,
		User:      user.InfoOf(u),
	}, rawToken, nil
}

// Authenticate resolves a raw cookie credential to a portal principal. The
// session ledger is always consulted so revocation takes effect mid-lifetime,
// not just at expiry. Every failure mode collapses to ErrUnauthenticated for
// the caller; causes are logged only.
func (s *AuthService) Authenticate(ctx context.Context, rawToken string) (principal.Portal, error) {
	claims, err := s.codec.Verify(rawToken)
	if err != nil {
		s.logger.Debug("portal token rejected", zap.Error(err))
		return principal.Portal{}, xerrors.ErrUnauthenticated
	}

	sess, err := s.sessionRepo.FindActiveByTokenHash(ctx, token.Hash(rawToken))
	if err != nil {
		// Covers revoked, expired, missing, and store failure alike: an
		// ambiguous session state is never treated as authenticated.
		if !xerrors.Is(err, xerrors.ErrNotFound) {
			s.logger.Error("session lookup failed", zap.Error(err))
		}
		return principal.Portal{}, xerrors.ErrUnauthenticated
	}

	u, err := s.userRepo.FindByID(ctx, claims.Subject)
	if err != nil {
		// A deleted account is indistinguishable from a bad token on the wire.
		return principal.Portal{}, xerrors.ErrUnauthenticated
	}

	s.maybeTouch(sess)

	return principal.Portal{
		UserID:    u.ID,
		Role:      u.Role,
		SessionID: sess.ID,
	}, nil
}

// maybeTouch refreshes the session's last-seen hint off the critical path.
// Skipped inside the throttle window; failures are logged and swallowed.
func (s *AuthService) maybeTouch(sess *session.UserSession) {
	if time.Since(sess.LastSeenAt) <= touchInterval {
		return
	}
	sessionID := sess.ID
	go func() {
		if err := s.sessionRepo.TouchLastSeen(context.Background(), sessionID); err != nil {
			s.logger.Warn("failed to touch session", zap.String("session_id", sessionID), zap.Error(err))
		}
	}()
}

// Logout revokes the caller's own session and is a no-op if the session is
// already gone.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessionRepo.Revoke(ctx, sessionID, "user logout"); err != nil {
		if xerrors.Is(err, xerrors.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// RevokeSession terminates a session on behalf of management, recording the
// given reason. Revoking an already-revoked session keeps the first reason
// and timestamp. Live connections of the owner are told to sign out.
func (s *AuthService) RevokeSession(ctx context.Context, sessionID, reason string) error {
	sess, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return err
	}

	if err := s.sessionRepo.Revoke(ctx, sessionID, reason); err != nil {
		if xerrors.Is(err, xerrors.ErrNotFound) {
			// Already revoked; the original reason stands.
			return nil
		}
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	s.notifier.ForceLogout(sess.UserID, sessionID, reason)
	return nil
}

// ListUserSessions returns all sessions of a user for the management view.
func (s *AuthService) ListUserSessions(ctx context.Context, userID string) ([]*session.UserSession, error) {
	return s.sessionRepo.ListByUser(ctx, userID)
}

// GetUser loads the full user record behind a principal.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*user.User, error) {
	return s.userRepo.FindByID(ctx, userID)
}
