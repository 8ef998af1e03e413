// internal/app/router.go
package app

import (
	authHandler "admin-portal-service/internal/handlers/auth"
	driverHandler "admin-portal-service/internal/handlers/driverauth"
	sessionHandler "admin-portal-service/internal/handlers/session"
	wsHandler "admin-portal-service/internal/handlers/websocket"
	"admin-portal-service/internal/domain/principal"
	"admin-portal-service/internal/middleware"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	AuthHandler    *authHandler.AuthHandler
	SessionHandler *sessionHandler.SessionHandler
	DriverHandler  *driverHandler.DriverHandler
	WSHandler      *wsHandler.WebSocketHandler
	AuthMiddleware *middleware.AuthMiddleware
}

func SetupRouter(r *gin.Engine, h *Handlers) {
	api := r.Group("/api/v1")

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ==================== WebSocket ====================
	r.GET("/ws", h.WSHandler.HandleConnection)

	// ==================== Public Auth Routes ====================
	authPublic := api.Group("/auth")
	{
		authPublic.POST("/login", h.AuthHandler.Login)
	}

	// ==================== Authenticated Auth Routes ====================
	authProtected := api.Group("/auth")
	authProtected.Use(h.AuthMiddleware.PortalAuth())
	{
		authProtected.POST("/logout", h.AuthHandler.Logout)
		authProtected.GET("/me", h.AuthHandler.GetMe)
		authProtected.GET("/capabilities", h.AuthHandler.Capabilities)
	}

	// ==================== Management ====================
	management := api.Group("")
	management.Use(h.AuthMiddleware.PortalAuth(), middleware.RequireRole(principal.RoleManagement))
	{
		management.GET("/users/:id/sessions", h.SessionHandler.ListUserSessions)
		management.POST("/sessions/:id/revoke", h.SessionHandler.RevokeSession)
		management.GET("/drivers/:id/devices", h.SessionHandler.ListDriverDevices)
		management.POST("/devices/:device_id/revoke", h.SessionHandler.RevokeDevice)
	}

	// ==================== Driver App ====================
	driverPublic := api.Group("/driver/auth")
	{
		driverPublic.POST("/login", h.DriverHandler.Login)
		driverPublic.POST("/refresh", h.DriverHandler.Refresh)
	}

	// Logout names a device_id in the body, so it needs an authenticated
	// caller to check ownership against.
	driverProtected := api.Group("/driver")
	driverProtected.Use(h.AuthMiddleware.DriverAuth())
	{
		driverProtected.POST("/auth/logout", h.DriverHandler.Logout)
		driverProtected.GET("/me", h.DriverHandler.GetMe)
	}
}
