package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/mcoot/warduel/internal/api/handler"
	"github.com/mcoot/warduel/internal/api/middleware"
	"github.com/mcoot/warduel/internal/storage"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	Games          handler.StatsProvider
	Clients        handler.ClientCounter
	Storage        storage.Storage
	WebSocket      http.Handler
	AllowedOrigins []string
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	statsHandler := handler.NewStatsHandler(cfg.Games, cfg.Clients, cfg.Storage)
	resultsHandler := handler.NewResultsHandler(cfg.Storage)

	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)

	// Game transport
	r.Handle("/ws", cfg.WebSocket).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/health", statsHandler.Health).Methods(http.MethodGet)
	api.HandleFunc("/stats", statsHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/results", resultsHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/results/{session_id}", resultsHandler.GetSession).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(handler.NotFound)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(r)
}
