package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/warduel/internal/api/response"
	"github.com/mcoot/warduel/internal/model"
	"github.com/mcoot/warduel/internal/storage"
)

const (
	defaultResultsLimit = 20
	maxResultsLimit     = 100
)

// ResultsHandler handles finished-game endpoints
type ResultsHandler struct {
	storage storage.Storage
}

// NewResultsHandler creates a new results handler
func NewResultsHandler(storage storage.Storage) *ResultsHandler {
	return &ResultsHandler{
		storage: storage,
	}
}

// List handles GET /api/v1/results
func (h *ResultsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultResultsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxResultsLimit {
			WriteError(w, NewInvalidRequestError("limit must be between 1 and 100"))
			return
		}
		limit = n
	}

	summaries, err := h.storage.ListSummaries(r.Context(), limit)
	if err != nil {
		WriteError(w, err)
		return
	}
	total, err := h.storage.CountSummaries(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ResultListFromModel(summaries, total))
}

// GetSession handles GET /api/v1/results/{session_id}
func (h *ResultsHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	id := model.SessionID(mux.Vars(r)["session_id"])

	summaries, err := h.storage.GetSummariesForSession(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ResultListFromModel(summaries, len(summaries)))
}
