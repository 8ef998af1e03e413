package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"admin-portal-service/internal/config"
	"admin-portal-service/internal/domain/principal"
	"admin-portal-service/internal/domain/session"
	"admin-portal-service/internal/domain/user"
	xerrors "admin-portal-service/internal/pkg/errors"
	"admin-portal-service/internal/pkg/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type memUserRepo struct {
	mu   sync.Mutex
	byID map[string]*user.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: make(map[string]*user.User)}
}

func (r *memUserRepo) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (r *memUserRepo) FindByID(ctx context.Context, id string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		return u, nil
	}
	return nil, xerrors.ErrNotFound
}

type memSessionRepo struct {
	mu         sync.Mutex
	byID       map[string]*session.UserSession
	touchCount map[string]int
	lookupErr  error
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{
		byID:       make(map[string]*session.UserSession),
		touchCount: make(map[string]int),
	}
}

func (r *memSessionRepo) Create(ctx context.Context, s *session.UserSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	s.CreatedAt = now
	s.LastSeenAt = now
	r.byID[s.ID] = s
	return nil
}

func (r *memSessionRepo) FindActiveByTokenHash(ctx context.Context, hash string) (*session.UserSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lookupErr != nil {
		return nil, r.lookupErr
	}
	for _, s := range r.byID {
		if s.TokenHash == hash && s.Active(time.Now()) {
			return s, nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (r *memSessionRepo) FindByID(ctx context.Context, id string) (*session.UserSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.byID[id]; ok {
		return s, nil
	}
	return nil, xerrors.ErrNotFound
}

func (r *memSessionRepo) TouchLastSeen(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.byID[id]; ok {
		s.LastSeenAt = time.Now()
		r.touchCount[id]++
	}
	return nil
}

func (r *memSessionRepo) Revoke(ctx context.Context, id, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok || s.RevokedAt != nil {
		return xerrors.ErrNotFound
	}
	now := time.Now()
	s.RevokedAt = &now
	s.RevokeReason = &reason
	return nil
}

func (r *memSessionRepo) ListByUser(ctx context.Context, userID string) ([]*session.UserSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*session.UserSession
	for _, s := range r.byID {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memSessionRepo) touches(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.touchCount[id]
}

func (r *memSessionRepo) setLastSeen(id string, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[id].LastSeenAt = at
}

type fakeLimiter struct {
	allow bool
}

func (l *fakeLimiter) CheckLoginAttempt(ctx context.Context, ip, identifier string) (bool, int64, error) {
	return l.allow, 4, nil
}

func (l *fakeLimiter) ResetLoginAttempts(ctx context.Context, ip, identifier string) error {
	return nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []string
}

func (n *fakeNotifier) ForceLogout(userID, sessionID, reason string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, sessionID)
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

type fixture struct {
	svc      *AuthService
	users    *memUserRepo
	sessions *memSessionRepo
	notifier *fakeNotifier
	codec    *token.Codec
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	codec, err := token.NewCodec([]byte("portal-test-secret"), config.TokenIssuer, config.TokenAudience, config.PortalTokenTTL)
	require.NoError(t, err)

	users := newMemUserRepo()
	sessions := newMemSessionRepo()
	notifier := &fakeNotifier{}
	svc := NewAuthService(users, sessions, codec, &fakeLimiter{allow: true}, notifier, zap.NewNop())

	return &fixture{svc: svc, users: users, sessions: sessions, notifier: notifier, codec: codec}
}

func (f *fixture) addUser(t *testing.T, id, email, password, role string) *user.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &user.User{
		ID:           id,
		Email:        email,
		Role:         role,
		PasswordHash: string(hash),
		Status:       "active",
	}
	f.users.mu.Lock()
	f.users.byID[id] = u
	f.users.mu.Unlock()
	return u
}

func (f *fixture) login(t *testing.T) (string, *session.UserSession) {
	t.Helper()
	_, raw, err := f.svc.Login(context.Background(), &user.LoginRequest{
		Email:    "ops@example.com",
		Password: "pass1234",
	}, "10.0.0.1")
	require.NoError(t, err)

	f.sessions.mu.Lock()
	defer f.sessions.mu.Unlock()
	for _, s := range f.sessions.byID {
		if s.TokenHash == token.Hash(raw) {
			return raw, s
		}
	}
	t.Fatal("session not stored")
	return "", nil
}

func TestLogin_StoresHashNotToken(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", "ops@example.com", "pass1234", principal.RoleStaff)

	raw, sess := f.login(t)
	assert.NotEqual(t, raw, sess.TokenHash)
	assert.Equal(t, token.Hash(raw), sess.TokenHash)
	assert.Equal(t, "u1", sess.UserID)
}

func TestLogin_WrongPassword(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", "ops@example.com", "pass1234", principal.RoleStaff)

	_, _, err := f.svc.Login(context.Background(), &user.LoginRequest{
		Email:    "ops@example.com",
		Password: "wrong",
	}, "10.0.0.1")
	require.ErrorIs(t, err, xerrors.ErrUnauthenticated)
}

func TestLogin_RateLimited(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", "ops@example.com", "pass1234", principal.RoleStaff)
	f.svc.limiter = &fakeLimiter{allow: false}

	_, _, err := f.svc.Login(context.Background(), &user.LoginRequest{
		Email:    "ops@example.com",
		Password: "pass1234",
	}, "10.0.0.1")
	require.ErrorIs(t, err, xerrors.ErrRateLimited)
}

func TestAuthenticate_HappyPath(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", "ops@example.com", "pass1234", principal.RoleManagement)
	raw, sess := f.login(t)

	p, err := f.svc.Authenticate(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "u1", p.UserID)
	assert.Equal(t, principal.RoleManagement, p.Role)
	assert.Equal(t, sess.ID, p.SessionID)
}

func TestAuthenticate_BadToken(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Authenticate(context.Background(), "garbage")
	require.ErrorIs(t, err, xerrors.ErrUnauthenticated)
}

func TestAuthenticate_NoSessionRecord(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", "ops@example.com", "pass1234", principal.RoleStaff)

	// Validly signed token with no backing session row.
	raw, _, err := f.codec.Sign("u1", principal.RoleStaff)
	require.NoError(t, err)

	_, err = f.svc.Authenticate(context.Background(), raw)
	require.ErrorIs(t, err, xerrors.ErrUnauthenticated)
}

func TestAuthenticate_RevokedSession(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", "ops@example.com", "pass1234", principal.RoleStaff)
	raw, sess := f.login(t)

	require.NoError(t, f.svc.RevokeSession(context.Background(), sess.ID, "compromised"))

	_, err := f.svc.Authenticate(context.Background(), raw)
	require.ErrorIs(t, err, xerrors.ErrUnauthenticated)
}

func TestAuthenticate_DeletedUser(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", "ops@example.com", "pass1234", principal.RoleStaff)
	raw, _ := f.login(t)

	f.users.mu.Lock()
	delete(f.users.byID, "u1")
	f.users.mu.Unlock()

	_, err := f.svc.Authenticate(context.Background(), raw)
	require.ErrorIs(t, err, xerrors.ErrUnauthenticated)
}

func TestAuthenticate_StoreErrorFailsClosed(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", "ops@example.com", "pass1234", principal.RoleStaff)
	raw, _ := f.login(t)

	f.sessions.mu.Lock()
	f.sessions.lookupErr = assert.AnError
	f.sessions.mu.Unlock()

	_, err := f.svc.Authenticate(context.Background(), raw)
	require.ErrorIs(t, err, xerrors.ErrUnauthenticated)
}

func TestAuthenticate_ExpiryWindow(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", "ops@example.com", "pass1234", principal.RoleStaff)
	raw, sess := f.login(t)

	// Just inside the window: still active.
	f.sessions.mu.Lock()
	sess.ExpiresAt = time.Now().Add(time.Minute)
	f.sessions.mu.Unlock()
	_, err := f.svc.Authenticate(context.Background(), raw)
	require.NoError(t, err)

	// Just past the window: gone.
	f.sessions.mu.Lock()
	sess.ExpiresAt = time.Now().Add(-time.Minute)
	f.sessions.mu.Unlock()
	_, err = f.svc.Authenticate(context.Background(), raw)
	require.ErrorIs(t, err, xerrors.ErrUnauthenticated)
}

func TestTouchThrottle_InsideWindowNoWrite(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", "ops@example.com", "pass1234", principal.RoleStaff)
	raw, sess := f.login(t)

	// Fresh last-seen: two reads inside the window issue no writes.
	f.sessions.setLastSeen(sess.ID, time.Now().Add(-30*time.Second))
	_, err := f.svc.Authenticate(context.Background(), raw)
	require.NoError(t, err)
	_, err = f.svc.Authenticate(context.Background(), raw)
	require.NoError(t, err)

	// The touch is detached; give it a beat before asserting absence.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, f.sessions.touches(sess.ID))
}

func TestTouchThrottle_PastWindowWritesOnce(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", "ops@example.com", "pass1234", principal.RoleStaff)
	raw, sess := f.login(t)

	f.sessions.setLastSeen(sess.ID, time.Now().Add(-61*time.Second))
	_, err := f.svc.Authenticate(context.Background(), raw)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return f.sessions.touches(sess.ID) == 1
	}, time.Second, 10*time.Millisecond)

	// Immediately afterwards the window holds again.
	_, err = f.svc.Authenticate(context.Background(), raw)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, f.sessions.touches(sess.ID))
}

func TestRevokeSession_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", "ops@example.com", "pass1234", principal.RoleStaff)
	_, sess := f.login(t)

	require.NoError(t, f.svc.RevokeSession(context.Background(), sess.ID, "first reason"))
	firstRevokedAt := *sess.RevokedAt

	// Second revoke with a different reason is a no-op.
	require.NoError(t, f.svc.RevokeSession(context.Background(), sess.ID, "second reason"))

	assert.Equal(t, "first reason", *sess.RevokeReason)
	assert.Equal(t, firstRevokedAt, *sess.RevokedAt)
	assert.Equal(t, 1, f.notifier.count())
}

func TestRevokeSession_UnknownSession(t *testing.T) {
	f := newFixture(t)

	err := f.svc.RevokeSession(context.Background(), "no-such-session", "reason")
	require.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestLogout_AlreadyRevokedIsNoop(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", "ops@example.com", "pass1234", principal.RoleStaff)
	_, sess := f.login(t)

	require.NoError(t, f.svc.Logout(context.Background(), sess.ID))
	require.NoError(t, f.svc.Logout(context.Background(), sess.ID))
	assert.Equal(t, "user logout", *sess.RevokeReason)
}
