package ws

import (
	"context"
	"log/slog"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"

	"github.com/mcoot/warduel/internal/model"
)

const (
	closeGoingAway  = websocket.CloseGoingAway
	closeServerFail = websocket.CloseInternalServerErr
)

// SessionHandler receives connection lifecycle events
type SessionHandler interface {
	Connect(ctx context.Context, conn model.Conn) error
	HandleMessage(ctx context.Context, id model.ConnID, data []byte)
	Disconnect(ctx context.Context, id model.ConnID)
}

// Handler upgrades HTTP requests to websocket clients
type Handler struct {
	upgrader websocket.Upgrader
	sessions SessionHandler
	hub      *Hub
	config   Config
	logger   *slog.Logger
}

// NewHandler creates a Handler
func NewHandler(sessions SessionHandler, hub *Hub, config Config, logger *slog.Logger) *Handler {
	return &Handler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     originChecker(config.AllowedOrigins),
		},
		sessions: sessions,
		hub:      hub,
		config:   config,
		logger:   logger.With(slog.String("component", "ws")),
	}
}

// originChecker accepts requests without an Origin header (non-browser
// clients) and browser requests from an allowed origin
func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, origin)
	}
}

// ServeHTTP handles GET /ws
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	ctx := context.WithoutCancel(r.Context())
	client := newClient(conn, h.config, h.logger)
	h.hub.Register(client)
	defer h.hub.Unregister(client)

	go client.writePump()

	if err := h.sessions.Connect(ctx, client); err != nil {
		client.logger.Error("could not connect client", slog.String("error", err.Error()))
		client.closeWith(closeServerFail, "server error")
		<-client.pumpExited
		return
	}

	client.readPump(func(data []byte) {
		h.sessions.HandleMessage(ctx, client.ID(), data)
	})

	h.sessions.Disconnect(ctx, client.ID())
	_ = client.Close()
	<-client.pumpExited
}
