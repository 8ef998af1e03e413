// internal/websocket/hub.go
package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// ForceLogoutEvent tells a connected portal tab that its session is gone and
// it should return to sign-in.
type ForceLogoutEvent struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Message   string `json:"message"`
}

// Hub tracks live portal connections per user and pushes session events to
// them. Revocation works without the hub; the push only makes it visible
// immediately instead of on the next request.
type Hub struct {
	clients map[string]map[*Client]bool
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client

	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)
		}
	}
}

// ForceLogout notifies every live connection of the user that a session was
// revoked. Non-blocking: slow clients are skipped, they will find out on
// their next request anyway.
func (h *Hub) ForceLogout(userID, sessionID, reason string) {
	payload, err := json.Marshal(ForceLogoutEvent{
		Type:      "force_logout",
		SessionID: sessionID,
		Reason:    reason,
		Message:   "You have been logged out",
	})
	if err != nil {
		h.logger.Error("failed to marshal force-logout event", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[userID] {
		select {
		case client.send <- payload:
		default:
			h.logger.Warn("dropping force-logout frame for slow client",
				zap.String("user_id", userID))
		}
	}
}

func (h *Hub) registerClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[c.userID] == nil {
		h.clients[c.userID] = make(map[*Client]bool)
	}
	h.clients[c.userID][c] = true
}

func (h *Hub) unregisterClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[c.userID]; ok {
		if _, ok := clients[c]; ok {
			delete(clients, c)
			close(c.send)
			if len(clients) == 0 {
				delete(h.clients, c.userID)
			}
		}
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, clients := range h.clients {
		for client := range clients {
			close(client.send)
			client.conn.Close()
		}
		delete(h.clients, userID)
	}
}
