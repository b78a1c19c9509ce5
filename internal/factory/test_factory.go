package factory

import (
	"time"

	"github.com/mcoot/warduel/internal/config"
	"github.com/mcoot/warduel/internal/dependencies/mocks"
	"github.com/mcoot/warduel/internal/storage/memory"
	"github.com/mcoot/warduel/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
	Memory     *memory.Storage
}

// NewTestApp creates an App configured for testing with mocked dependencies.
// The countdown is disabled so a second join starts the game immediately.
func NewTestApp() *TestApp {
	cfg := config.Default()
	cfg.Game.Countdown = 0
	return NewTestAppWithConfig(cfg)
}

// NewTestAppWithConfig creates a TestApp from cfg
func NewTestAppWithConfig(cfg config.Config) *TestApp {
	store := memory.New(cfg.Storage.ResultsCapacity)
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app := newWithDependencies(cfg, store, mockClock, mockRandom, testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		Memory:     store,
	}
}
