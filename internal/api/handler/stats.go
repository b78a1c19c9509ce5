package handler

import (
	"net/http"

	"github.com/mcoot/warduel/internal/api/response"
	"github.com/mcoot/warduel/internal/services/duel"
	"github.com/mcoot/warduel/internal/storage"
)

// StatsProvider reports live game counts
type StatsProvider interface {
	Stats() duel.Stats
}

// ClientCounter reports connected transport clients
type ClientCounter interface {
	ClientCount() int
}

// StatsHandler handles server status endpoints
type StatsHandler struct {
	games   StatsProvider
	clients ClientCounter
	storage storage.Storage
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(games StatsProvider, clients ClientCounter, storage storage.Storage) *StatsHandler {
	return &StatsHandler{
		games:   games,
		clients: clients,
		storage: storage,
	}
}

// Health handles GET /api/v1/health
func (h *StatsHandler) Health(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{Status: "ok"})
}

// Get handles GET /api/v1/stats
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	recorded, err := h.storage.CountSummaries(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.StatsFromModel(h.games.Stats(), h.clients.ClientCount(), recorded))
}
