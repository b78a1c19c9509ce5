package e2e_test

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mcoot/warduel/internal/api"
	"github.com/mcoot/warduel/internal/config"
	"github.com/mcoot/warduel/internal/factory"
)

// testServer manages a real HTTP server for e2e tests
type testServer struct {
	app      *factory.App
	addr     string
	shutdown func()
}

func defaultTestConfig() config.Config {
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.Game.Countdown = 0
	cfg.Game.WinScore = 3
	cfg.Game.RematchDelay = 50 * time.Millisecond
	return cfg
}

func startTestServer(t *testing.T, cfg config.Config) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	app, err := factory.New(cfg, logger)
	require.NoError(t, err)

	server := api.NewServer(app.Router, cfg.Server, logger)
	require.NoError(t, server.Listen())

	go func() {
		if err := server.Serve(); err != nil {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := "http://" + server.Addr()
	waitForServer(t, serverURL+"/api/v1/health")

	return &testServer{
		app:  app,
		addr: serverURL,
		shutdown: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = app.Orchestrator.Shutdown(ctx)
			app.Hub.CloseAll()
			_ = server.Shutdown(ctx)
		},
	}
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

func waitForResults(t *testing.T, app *factory.App, want int) {
	t.Helper()

	require.Eventually(t, func() bool {
		count, err := app.Storage.CountSummaries(context.Background())
		return err == nil && count == want
	}, 5*time.Second, 20*time.Millisecond)
}
