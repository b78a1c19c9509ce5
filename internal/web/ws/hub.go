package ws

import (
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/warduel/internal/model"
)

// Hub tracks live websocket clients
type Hub struct {
	mu      sync.RWMutex
	clients map[model.ConnID]*Client
	logger  *slog.Logger
}

// NewHub creates an empty Hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[model.ConnID]*Client),
		logger:  logger.With(slog.String("component", "ws-hub")),
	}
}

// Register adds a client
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client.ID()] = client
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("websocket client registered",
		slog.String("conn_id", string(client.ID())),
		slog.Int("total_clients", count))
}

// Unregister removes a client
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client.ID()]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client.ID())
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("websocket client unregistered",
		slog.String("conn_id", string(client.ID())),
		slog.Duration("connection_duration", time.Since(client.connectedAt)),
		slog.Int("total_clients", count))
}

// Get returns the client with id, or nil
func (h *Hub) Get(id model.ConnID) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients[id]
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll closes every client with a going-away frame
func (h *Hub) CloseAll() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.closeWith(closeGoingAway, "server shutting down")
	}
	h.logger.Info("websocket hub closed", slog.Int("disconnected_clients", len(clients)))
}
