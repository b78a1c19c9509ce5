package factory

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mcoot/warduel/internal/api"
	"github.com/mcoot/warduel/internal/config"
	"github.com/mcoot/warduel/internal/dependencies/clock"
	"github.com/mcoot/warduel/internal/dependencies/random"
	"github.com/mcoot/warduel/internal/model"
	"github.com/mcoot/warduel/internal/services/duel"
	"github.com/mcoot/warduel/internal/services/matchmaking"
	"github.com/mcoot/warduel/internal/services/question"
	"github.com/mcoot/warduel/internal/services/ratelimit"
	"github.com/mcoot/warduel/internal/storage"
	"github.com/mcoot/warduel/internal/storage/memory"
	"github.com/mcoot/warduel/internal/web/ws"
)

// App contains all wired application components
type App struct {
	Config config.Config

	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Questions    *question.Generator
	Matchmaker   *matchmaking.Matchmaker
	Limiter      *ratelimit.Limiter[model.ConnID]
	Orchestrator *duel.Orchestrator

	// Transport
	Hub       *ws.Hub
	WebSocket *ws.Handler
	Router    http.Handler
}

// New creates a new application with all dependencies wired.
// A nil logger discards output.
func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store := memory.New(cfg.Storage.ResultsCapacity)
	return newWithDependencies(cfg, store, clock.New(), random.New(), logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(cfg config.Config, store storage.Storage, clk clock.Clock, rnd random.Random, logger *slog.Logger) *App {
	questions := question.New(cfg.Game.Ranges, rnd)
	matchmaker := matchmaking.NewMatchmaker(cfg.Game.Duration, clk, logger)
	limiter := ratelimit.New[model.ConnID](cfg.Game.RateLimit, time.Second, clk)
	orchestrator := duel.NewOrchestrator(DuelConfig(cfg.Game), matchmaker, questions, limiter, store, clk, rnd, logger)

	wsConfig := ws.DefaultConfig()
	wsConfig.AllowedOrigins = cfg.Server.AllowedOrigins
	hub := ws.NewHub(logger)
	wsHandler := ws.NewHandler(orchestrator, hub, wsConfig, logger)

	router := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		Games:          orchestrator,
		Clients:        hub,
		Storage:        store,
		WebSocket:      wsHandler,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	return &App{
		Config:       cfg,
		Storage:      store,
		Clock:        clk,
		Random:       rnd,
		Questions:    questions,
		Matchmaker:   matchmaker,
		Limiter:      limiter,
		Orchestrator: orchestrator,
		Hub:          hub,
		WebSocket:    wsHandler,
		Router:       router,
	}
}

// DuelConfig maps game settings onto the orchestrator's config
func DuelConfig(g config.GameConfig) duel.Config {
	return duel.Config{
		QuestionsPerGame: g.QuestionsPerGame,
		WinScore:         g.WinScore,
		Countdown:        g.Countdown,
		RematchDelay:     g.RematchDelay,
		MaxAnswer:        g.MaxAnswer,
		LivenessInterval: g.LivenessInterval,
		LivenessTimeout:  g.LivenessTimeout,
		ShutdownGrace:    g.ShutdownGrace,
	}
}
