// internal/middleware/role.go
package middleware

import (
	"admin-portal-service/internal/domain/principal"
	"admin-portal-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// Allowed is the single authorization decision shared by the route guard and
// render-gating surfaces. Only a portal principal with a non-empty role can
// match; a missing role is a denial, never a wildcard.
func Allowed(p principal.Principal, roles ...string) bool {
	portal, ok := p.(principal.Portal)
	if !ok || portal.Role == "" {
		return false
	}
	for _, role := range roles {
		if portal.Role == role {
			return true
		}
	}
	return false
}

// RequireRole gates a route on the principal's role. MUST be used after
// PortalAuth().
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			response.Forbidden(c)
			return
		}
		if !Allowed(p, roles...) {
			response.Forbidden(c)
			return
		}
		c.Next()
	}
}
