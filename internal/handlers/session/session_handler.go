// internal/handlers/session/session_handler.go
package session

import (
	"net/http"

	xerrors "admin-portal-service/internal/pkg/errors"
	"admin-portal-service/internal/pkg/response"
	authService "admin-portal-service/internal/service/auth"
	"admin-portal-service/internal/service/driverauth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionHandler exposes the management surfaces for portal sessions and
// driver trusted devices. Routes behind it require the MANAGEMENT role.
type SessionHandler struct {
	authService   *authService.AuthService
	driverService *driverauth.Service
	logger        *zap.Logger
}

func NewSessionHandler(svc *authService.AuthService, driverSvc *driverauth.Service, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		authService:   svc,
		driverService: driverSvc,
		logger:        logger,
	}
}

type revokeRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ListUserSessions returns every session of a user, active or not.
func (h *SessionHandler) ListUserSessions(c *gin.Context) {
	sessions, err := h.authService.ListUserSessions(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("failed to list sessions", zap.Error(err))
		response.Internal(c)
		return
	}
	response.Success(c, http.StatusOK, "ok", sessions)
}

// RevokeSession terminates a session with a recorded reason.
func (h *SessionHandler) RevokeSession(c *gin.Context) {
	var req revokeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "reason is required")
		return
	}

	if err := h.authService.RevokeSession(c.Request.Context(), c.Param("id"), req.Reason); err != nil {
		if xerrors.Is(err, xerrors.ErrNotFound) {
			response.NotFound(c, "session not found")
			return
		}
		h.logger.Error("failed to revoke session", zap.Error(err))
		response.Internal(c)
		return
	}
	response.Success(c, http.StatusOK, "session revoked", nil)
}

// ListDriverDevices returns every trusted device of a driver.
func (h *SessionHandler) ListDriverDevices(c *gin.Context) {
	devices, err := h.driverService.ListDevices(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("failed to list devices", zap.Error(err))
		response.Internal(c)
		return
	}
	response.Success(c, http.StatusOK, "ok", devices)
}

// RevokeDevice cuts a driver device off from refreshing.
func (h *SessionHandler) RevokeDevice(c *gin.Context) {
	var req revokeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "reason is required")
		return
	}

	if err := h.driverService.RevokeDevice(c.Request.Context(), c.Param("device_id"), req.Reason); err != nil {
		h.logger.Error("failed to revoke device", zap.Error(err))
		response.Internal(c)
		return
	}
	response.Success(c, http.StatusOK, "device revoked", nil)
}
