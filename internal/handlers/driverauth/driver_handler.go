// internal/handlers/driverauth/driver_handler.go
package driverauth

import (
	"net/http"

	"admin-portal-service/internal/domain/driver"
	"admin-portal-service/internal/middleware"
	xerrors "admin-portal-service/internal/pkg/errors"
	"admin-portal-service/internal/pkg/response"
	driverService "admin-portal-service/internal/service/driverauth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type DriverHandler struct {
	service *driverService.Service
	logger  *zap.Logger
}

func NewDriverHandler(svc *driverService.Service, logger *zap.Logger) *DriverHandler {
	return &DriverHandler{service: svc, logger: logger}
}

// Login exchanges phone/password for a token pair bound to the device.
func (h *DriverHandler) Login(c *gin.Context) {
	var req driver.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "phone, password and device_id are required")
		return
	}

	tokens, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		h.rejectAuth(c, err)
		return
	}
	response.Success(c, http.StatusOK, "signed in", tokens)
}

// Refresh rotates the token pair.
func (h *DriverHandler) Refresh(c *gin.Context) {
	var req driver.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "refresh_token and device_id are required")
		return
	}

	tokens, err := h.service.Refresh(c.Request.Context(), &req)
	if err != nil {
		h.rejectAuth(c, err)
		return
	}
	response.Success(c, http.StatusOK, "refreshed", tokens)
}

type logoutRequest struct {
	DeviceID string `json:"device_id" binding:"required"`
}

// Logout revokes one of the caller's own devices. MUST sit behind
// DriverAuth: the device named in the body is only revoked when it belongs
// to the authenticated driver.
func (h *DriverHandler) Logout(c *gin.Context) {
	d, ok := middleware.DriverFrom(c)
	if !ok {
		response.Unauthorized(c)
		return
	}

	var req logoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "device_id is required")
		return
	}

	if err := h.service.Logout(c.Request.Context(), d.DriverID, req.DeviceID); err != nil {
		if xerrors.Is(err, xerrors.ErrForbidden) {
			response.Forbidden(c)
			return
		}
		h.logger.Error("driver logout failed", zap.Error(err))
		response.Internal(c)
		return
	}
	response.Success(c, http.StatusOK, "signed out", nil)
}

// GetMe returns the driver id resolved from the access token.
func (h *DriverHandler) GetMe(c *gin.Context) {
	d, ok := middleware.DriverFrom(c)
	if !ok {
		response.Unauthorized(c)
		return
	}
	response.Success(c, http.StatusOK, "ok", gin.H{"driver_id": d.DriverID})
}

func (h *DriverHandler) rejectAuth(c *gin.Context, err error) {
	switch {
	case xerrors.Is(err, xerrors.ErrDeviceRevoked):
		response.Forbidden(c)
	case xerrors.Is(err, xerrors.ErrUnauthenticated):
		response.Error(c, http.StatusUnauthorized, "invalid credentials")
	default:
		h.logger.Error("driver auth failed", zap.Error(err))
		response.Internal(c)
	}
}
