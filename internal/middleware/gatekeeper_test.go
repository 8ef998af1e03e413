package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"admin-portal-service/internal/config"
	"admin-portal-service/internal/domain/principal"
	"admin-portal-service/internal/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newGatekeeperRouter(t *testing.T, codec *token.Codec) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gk := NewGatekeeper(codec, []string{"/dashboard", "/claims", "/users"}, "/sign-in", zap.NewNop())

	r := gin.New()
	r.Use(gk.Handler())
	r.GET("/dashboard", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/dashboard/reports", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/public-page", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func newTestCodec(t *testing.T, ttl time.Duration) *token.Codec {
	t.Helper()
	codec, err := token.NewCodec([]byte("gatekeeper-test-secret"), config.TokenIssuer, config.TokenAudience, ttl)
	require.NoError(t, err)
	return codec
}

func get(r *gin.Engine, path, cookie string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: config.CookieName, Value: cookie})
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGatekeeper_UnprotectedPathPassesThrough(t *testing.T) {
	r := newGatekeeperRouter(t, newTestCodec(t, config.PortalTokenTTL))

	w := get(r, "/public-page", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGatekeeper_NoCookieRedirects(t *testing.T) {
	r := newGatekeeperRouter(t, newTestCodec(t, config.PortalTokenTTL))

	w := get(r, "/dashboard", "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/sign-in", w.Header().Get("Location"))
}

func TestGatekeeper_PrefixCoversSubpaths(t *testing.T) {
	r := newGatekeeperRouter(t, newTestCodec(t, config.PortalTokenTTL))

	w := get(r, "/dashboard/reports", "")
	assert.Equal(t, http.StatusFound, w.Code)
}

func TestGatekeeper_GarbageCookieRedirects(t *testing.T) {
	r := newGatekeeperRouter(t, newTestCodec(t, config.PortalTokenTTL))

	w := get(r, "/dashboard", "not-a-token")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/sign-in", w.Header().Get("Location"))
}

func TestGatekeeper_ExpiredCookieRedirects(t *testing.T) {
	expired := newTestCodec(t, -time.Minute)
	raw, _, err := expired.Sign("u1", principal.RoleStaff)
	require.NoError(t, err)

	r := newGatekeeperRouter(t, newTestCodec(t, config.PortalTokenTTL))
	w := get(r, "/dashboard", raw)
	assert.Equal(t, http.StatusFound, w.Code)
}

func TestGatekeeper_ValidCookiePasses(t *testing.T) {
	codec := newTestCodec(t, config.PortalTokenTTL)
	raw, _, err := codec.Sign("u1", principal.RoleStaff)
	require.NoError(t, err)

	r := newGatekeeperRouter(t, codec)
	w := get(r, "/dashboard", raw)
	assert.Equal(t, http.StatusOK, w.Code)
}
