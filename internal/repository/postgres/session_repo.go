// internal/repository/postgres/session_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"admin-portal-service/internal/domain/session"
	xerrors "admin-portal-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SessionRepository struct {
	db *pgxpool.Pool
}

func NewSessionRepository(db *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new session row. Only the token hash is stored.
func (r *SessionRepository) Create(ctx context.Context, s *session.UserSession) error {
	query := `
		INSERT INTO user_sessions (id, user_id, token_hash, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, last_seen_at
	`

	err := r.db.QueryRow(ctx, query, s.ID, s.UserID, s.TokenHash, s.ExpiresAt).
		Scan(&s.CreatedAt, &s.LastSeenAt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// FindActiveByTokenHash returns a session only while it is un-revoked and
// not past expiry.
func (r *SessionRepository) FindActiveByTokenHash(ctx context.Context, hash string) (*session.UserSession, error) {
	query := `
		SELECT id, user_id, token_hash, created_at, last_seen_at, expires_at, revoked_at, revoke_reason
		FROM user_sessions
		WHERE token_hash = $1 AND revoked_at IS NULL AND expires_at > NOW()
	`

	var s session.UserSession
	err := r.db.QueryRow(ctx, query, hash).Scan(
		&s.ID, &s.UserID, &s.TokenHash, &s.CreatedAt, &s.LastSeenAt,
		&s.ExpiresAt, &s.RevokedAt, &s.RevokeReason,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	return &s, nil
}

// FindByID retrieves a session row regardless of its state.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*session.UserSession, error) {
	query := `
		SELECT id, user_id, token_hash, created_at, last_seen_at, expires_at, revoked_at, revoke_reason
		FROM user_sessions
		WHERE id = $1
	`

	var s session.UserSession
	err := r.db.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.UserID, &s.TokenHash, &s.CreatedAt, &s.LastSeenAt,
		&s.ExpiresAt, &s.RevokedAt, &s.RevokeReason,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	return &s, nil
}

// TouchLastSeen updates the liveness hint. Callers throttle and fire this
// off the critical path; a lost write is harmless.
func (r *SessionRepository) TouchLastSeen(ctx context.Context, id string) error {
	query := `UPDATE user_sessions SET last_seen_at = $1 WHERE id = $2`
	_, err := r.db.Exec(ctx, query, time.Now(), id)
	return err
}

// Revoke terminates a session. The revoked_at IS NULL predicate makes the
// call idempotent: a second revoke cannot overwrite the original reason or
// timestamp.
func (r *SessionRepository) Revoke(ctx context.Context, id, reason string) error {
	query := `
		UPDATE user_sessions
		SET revoked_at = $1, revoke_reason = $2
		WHERE id = $3 AND revoked_at IS NULL
	`
	tag, err := r.db.Exec(ctx, query, time.Now(), reason, id)
	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// ListByUser returns every session row for a user, newest first. Revoked and
// expired rows are kept for audit and included here.
func (r *SessionRepository) ListByUser(ctx context.Context, userID string) ([]*session.UserSession, error) {
	query := `
		SELECT id, user_id, token_hash, created_at, last_seen_at, expires_at, revoked_at, revoke_reason
		FROM user_sessions
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*session.UserSession
	for rows.Next() {
		var s session.UserSession
		if err := rows.Scan(
			&s.ID, &s.UserID, &s.TokenHash, &s.CreatedAt, &s.LastSeenAt,
			&s.ExpiresAt, &s.RevokedAt, &s.RevokeReason,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, &s)
	}
	return sessions, rows.Err()
}
