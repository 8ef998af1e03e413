// internal/middleware/gatekeeper.go
package middleware

import (
	"net/http"
	"strings"

	"admin-portal-service/internal/config"
	"admin-portal-service/internal/pkg/token"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Gatekeeper runs ahead of the browser-facing page routes and bounces
// unauthenticated traffic to sign-in before any handler executes. The check
// is intentionally shallow: signature/expiry/issuer/audience only, no session
// lookup, so it stays cheap on every request. The session-aware check lives
// in PortalAuth behind it.
type Gatekeeper struct {
	codec      *token.Codec
	prefixes   []string
	signInPath string
	logger     *zap.Logger
}

func NewGatekeeper(codec *token.Codec, prefixes []string, signInPath string, logger *zap.Logger) *Gatekeeper {
	return &Gatekeeper{
		codec:      codec,
		prefixes:   prefixes,
		signInPath: signInPath,
		logger:     logger,
	}
}

// Handler is the edge middleware. A verification failure of any kind is a
// redirect, never a 500: edge auth must not crash the pipeline.
func (g *Gatekeeper) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !g.protected(c.Request.URL.Path) {
			c.Next()
			return
		}

		raw, err := c.Cookie(config.CookieName)
		if err != nil || raw == "" {
			g.redirect(c)
			return
		}

		if _, err := g.codec.Verify(raw); err != nil {
			g.logger.Debug("gatekeeper rejected credential", zap.Error(err))
			g.redirect(c)
			return
		}

		c.Next()
	}
}

func (g *Gatekeeper) protected(path string) bool {
	for _, prefix := range g.prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (g *Gatekeeper) redirect(c *gin.Context) {
	c.Redirect(http.StatusFound, g.signInPath)
	c.Abort()
}
