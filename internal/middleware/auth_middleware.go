// internal/middleware/auth_middleware.go
package middleware

import (
	"strings"

	"admin-portal-service/internal/config"
	"admin-portal-service/internal/domain/principal"
	xerrors "admin-portal-service/internal/pkg/errors"
	"admin-portal-service/internal/pkg/response"
	"admin-portal-service/internal/service/auth"
	"admin-portal-service/internal/service/driverauth"

	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

type AuthMiddleware struct {
	authService   *auth.AuthService
	driverService *driverauth.Service
}

func NewAuthMiddleware(authService *auth.AuthService, driverService *driverauth.Service) *AuthMiddleware {
	return &AuthMiddleware{
		authService:   authService,
		driverService: driverService,
	}
}

// PortalAuth authenticates the portal cookie and resolves it to a portal
// principal, consulting the session ledger. Handlers behind it always see a
// fully resolved principal; every failure is an early 401.
func (m *AuthMiddleware) PortalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(config.CookieName)
		if err != nil || raw == "" {
			response.Unauthorized(c)
			return
		}

		p, err := m.authService.Authenticate(c.Request.Context(), raw)
		if err != nil {
			response.Unauthorized(c)
			return
		}

		c.Set(principalKey, principal.Principal(p))
		c.Next()
	}
}

// DriverAuth authenticates the driver-app bearer token. No session lookup:
// access tokens are short-lived and self-contained.
func (m *AuthMiddleware) DriverAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := extractBearer(c)
		if raw == "" {
			response.Unauthorized(c)
			return
		}

		p, err := m.driverService.Authenticate(raw)
		if err != nil {
			if xerrors.Is(err, xerrors.ErrForbidden) {
				response.Forbidden(c)
				return
			}
			response.Unauthorized(c)
			return
		}

		c.Set(principalKey, principal.Principal(p))
		c.Next()
	}
}

// extractBearer pulls the token out of "Authorization: Bearer <token>" with a
// case-insensitive scheme match.
func extractBearer(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
