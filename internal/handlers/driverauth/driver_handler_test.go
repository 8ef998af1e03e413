package driverauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"admin-portal-service/internal/config"
	"admin-portal-service/internal/domain/driver"
	"admin-portal-service/internal/domain/principal"
	"admin-portal-service/internal/middleware"
	xerrors "admin-portal-service/internal/pkg/errors"
	"admin-portal-service/internal/pkg/token"
	driverService "admin-portal-service/internal/service/driverauth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubDeviceRepo struct {
	mu         sync.Mutex
	byDeviceID map[string]*driver.TrustedDevice
}

func (r *stubDeviceRepo) Upsert(ctx context.Context, d *driver.TrustedDevice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byDeviceID[d.DeviceID] = d
	return nil
}

func (r *stubDeviceRepo) FindByDeviceID(ctx context.Context, deviceID string) (*driver.TrustedDevice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.byDeviceID[deviceID]; ok {
		return d, nil
	}
	return nil, xerrors.ErrNotFound
}

func (r *stubDeviceRepo) Revoke(ctx context.Context, deviceID, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.byDeviceID[deviceID]
	if !ok || d.RevokedAt != nil {
		return xerrors.ErrNotFound
	}
	now := time.Now()
	d.RevokedAt = &now
	d.RevokeReason = &reason
	return nil
}

func (r *stubDeviceRepo) ListByDriver(ctx context.Context, driverID string) ([]*driver.TrustedDevice, error) {
	return nil, nil
}

// logoutFixture wires the logout route exactly the way the router does:
// behind DriverAuth, with a device row owned by driver "d1".
type logoutFixture struct {
	router  *gin.Engine
	devices *stubDeviceRepo
	access  *token.Codec
}

func newLogoutFixture(t *testing.T) *logoutFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	access, err := token.NewCodec([]byte("handler-test-secret"), config.TokenIssuer, config.TokenAudience, config.DriverAccessTTL)
	require.NoError(t, err)
	refresh, err := token.NewCodec([]byte("handler-refresh-secret"), config.TokenIssuer, config.TokenAudience, config.DriverRefreshTTL)
	require.NoError(t, err)

	devices := &stubDeviceRepo{byDeviceID: map[string]*driver.TrustedDevice{
		"dev-1": {ID: "row-1", DriverID: "d1", DeviceID: "dev-1"},
	}}
	svc := driverService.NewService(nil, devices, access, refresh, zap.NewNop())
	h := NewDriverHandler(svc, zap.NewNop())
	m := middleware.NewAuthMiddleware(nil, svc)

	r := gin.New()
	grp := r.Group("/api/v1/driver")
	grp.Use(m.DriverAuth())
	grp.POST("/auth/logout", h.Logout)

	return &logoutFixture{router: r, devices: devices, access: access}
}

func (f *logoutFixture) postLogout(bearer, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/driver/auth/logout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *logoutFixture) revoked(t *testing.T, deviceID string) bool {
	t.Helper()
	d, err := f.devices.FindByDeviceID(context.Background(), deviceID)
	require.NoError(t, err)
	return d.RevokedAt != nil
}

func TestLogout_AnonymousCallerCannotRevoke(t *testing.T) {
	f := newLogoutFixture(t)

	w := f.postLogout("", `{"device_id":"dev-1"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, f.revoked(t, "dev-1"))
}

func TestLogout_OwnerRevokesOwnDevice(t *testing.T) {
	f := newLogoutFixture(t)
	raw, _, err := f.access.Sign("d1", principal.RoleDriver)
	require.NoError(t, err)

	w := f.postLogout(raw, `{"device_id":"dev-1"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, f.revoked(t, "dev-1"))
}

func TestLogout_OtherDriversDeviceForbidden(t *testing.T) {
	f := newLogoutFixture(t)
	raw, _, err := f.access.Sign("d2", principal.RoleDriver)
	require.NoError(t, err)

	w := f.postLogout(raw, `{"device_id":"dev-1"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.False(t, f.revoked(t, "dev-1"))
}
