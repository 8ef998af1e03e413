// internal/middleware/helpers.go
package middleware

import (
	"admin-portal-service/internal/domain/principal"

	"github.com/gin-gonic/gin"
)

// PrincipalFrom returns the resolved principal set by PortalAuth or DriverAuth.
func PrincipalFrom(c *gin.Context) (principal.Principal, bool) {
	v, exists := c.Get(principalKey)
	if !exists {
		return nil, false
	}
	p, ok := v.(principal.Principal)
	return p, ok
}

// PortalFrom returns the portal principal, or false for unauthenticated and
// driver callers.
func PortalFrom(c *gin.Context) (principal.Portal, bool) {
	p, ok := PrincipalFrom(c)
	if !ok {
		return principal.Portal{}, false
	}
	portal, ok := p.(principal.Portal)
	return portal, ok
}

// DriverFrom returns the driver principal, or false for unauthenticated and
// portal callers.
func DriverFrom(c *gin.Context) (principal.Driver, bool) {
	p, ok := PrincipalFrom(c)
	if !ok {
		return principal.Driver{}, false
	}
	d, ok := p.(principal.Driver)
	return d, ok
}
