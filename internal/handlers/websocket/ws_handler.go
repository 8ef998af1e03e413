// internal/handlers/websocket/ws_handler.go
package websocket

import (
	"net/http"

	"admin-portal-service/internal/config"
	"admin-portal-service/internal/pkg/response"
	authService "admin-portal-service/internal/service/auth"
	ws "admin-portal-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // same-site cookie is the auth boundary, not Origin
	},
}

type WebSocketHandler struct {
	hub         *ws.Hub
	authService *authService.AuthService
	logger      *zap.Logger
}

func NewWebSocketHandler(hub *ws.Hub, svc *authService.AuthService, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		authService: svc,
		logger:      logger,
	}
}

// HandleConnection authenticates the portal cookie and attaches the browser
// to the force-logout stream.
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	raw, err := c.Cookie(config.CookieName)
	if err != nil || raw == "" {
		response.Unauthorized(c)
		return
	}

	p, err := h.authService.Authenticate(c.Request.Context(), raw)
	if err != nil {
		response.Unauthorized(c)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	ws.NewClient(h.hub, conn, p.UserID, h.logger).Start()
}
