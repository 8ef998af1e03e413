// internal/handlers/auth/auth_handler.go
package auth

import (
	"net/http"

	"admin-portal-service/internal/config"
	"admin-portal-service/internal/domain/principal"
	"admin-portal-service/internal/domain/user"
	"admin-portal-service/internal/middleware"
	xerrors "admin-portal-service/internal/pkg/errors"
	"admin-portal-service/internal/pkg/response"
	authService "admin-portal-service/internal/service/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *authService.AuthService
	production  bool
	logger      *zap.Logger
}

func NewAuthHandler(svc *authService.AuthService, production bool, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: svc,
		production:  production,
		logger:      logger,
	}
}

// Login authenticates a portal user and sets the auth cookie.
func (h *AuthHandler) Login(c *gin.Context) {
	var req user.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "email and password are required")
		return
	}

	resp, rawToken, err := h.authService.Login(c.Request.Context(), &req, c.ClientIP())
	if err != nil {
		if xerrors.Is(err, xerrors.ErrRateLimited) {
			response.Error(c, http.StatusTooManyRequests, "too many login attempts, try again later")
			return
		}
		if xerrors.Is(err, xerrors.ErrUnauthenticated) {
			response.Error(c, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.logger.Error("login failed", zap.Error(err))
		response.Internal(c)
		return
	}

	h.setAuthCookie(c, rawToken, int(config.PortalTokenTTL.Seconds()))
	response.Success(c, http.StatusOK, "signed in", resp)
}

// Logout revokes the caller's session and clears the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	p, ok := middleware.PortalFrom(c)
	if !ok {
		response.Unauthorized(c)
		return
	}

	if err := h.authService.Logout(c.Request.Context(), p.SessionID); err != nil {
		h.logger.Error("logout failed", zap.Error(err))
		response.Internal(c)
		return
	}

	h.setAuthCookie(c, "", -1)
	response.Success(c, http.StatusOK, "signed out", nil)
}

// GetMe returns the authenticated user's profile.
func (h *AuthHandler) GetMe(c *gin.Context) {
	p, ok := middleware.PortalFrom(c)
	if !ok {
		response.Unauthorized(c)
		return
	}

	u, err := h.authService.GetUser(c.Request.Context(), p.UserID)
	if err != nil {
		response.Unauthorized(c)
		return
	}

	response.Success(c, http.StatusOK, "ok", user.InfoOf(u))
}

// Capabilities reports which management surfaces the caller may see. The UI
// uses this to gate rendering with the same decision function the routes use.
func (h *AuthHandler) Capabilities(c *gin.Context) {
	p, ok := middleware.PortalFrom(c)
	if !ok {
		response.Unauthorized(c)
		return
	}

	response.Success(c, http.StatusOK, "ok", gin.H{
		"manage_sessions": middleware.Allowed(p, principal.RoleManagement),
		"manage_devices":  middleware.Allowed(p, principal.RoleManagement),
		"view_dashboard":  middleware.Allowed(p, principal.RoleManagement, principal.RoleStaff),
	})
}

func (h *AuthHandler) setAuthCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(config.CookieName, value, maxAge, "/", "", h.production, true)
}
