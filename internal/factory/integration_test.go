package factory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/warduel/internal/api/response"
	"github.com/mcoot/warduel/internal/config"
	"github.com/mcoot/warduel/internal/model"
	"github.com/mcoot/warduel/internal/protocol"
	"github.com/mcoot/warduel/internal/testutil"
)

// IntegrationSuite tests complete duels through the wired application
type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	cfg := config.Default()
	cfg.Game.Countdown = 0
	cfg.Game.WinScore = 3
	cfg.Game.QuestionsPerGame = 10
	s.app = NewTestAppWithConfig(cfg)
	s.ctx = context.Background()
}

func (s *IntegrationSuite) TearDownTest() {
	_ = s.app.Orchestrator.Shutdown(context.Background())
}

func (s *IntegrationSuite) send(c *testutil.RecordingConn, msg protocol.Message) {
	data, err := protocol.Encode(msg)
	s.Require().NoError(err)
	s.app.Orchestrator.HandleMessage(s.ctx, c.ID(), data)
}

// solve answers the latest question correctly
func (s *IntegrationSuite) solve(c *testutil.RecordingConn) {
	session := s.app.Matchmaker.SessionFor(c.ID())
	s.Require().NotNil(session)
	q, ok := session.CurrentQuestionFor(session.PlayerFor(c.ID()))
	s.Require().True(ok)
	s.send(c, &protocol.Answer{Answer: q.Answer})
}

func (s *IntegrationSuite) get(path string, target any) int {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	s.app.Router.ServeHTTP(rr, req)
	if target != nil && rr.Code == http.StatusOK {
		s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), target))
	}
	return rr.Code
}

// Test: Two players duel to the win score and the result is recorded
func (s *IntegrationSuite) TestFullDuelFlow() {
	alice := testutil.NewRecordingConn("alice")
	bob := testutil.NewRecordingConn("bob")

	s.Require().NoError(s.app.Orchestrator.Connect(s.ctx, alice))
	state, ok := testutil.Last[*protocol.GameState](alice)
	s.Require().True(ok)
	s.Equal("WAITING", state.GameStatus)

	s.Require().NoError(s.app.Orchestrator.Connect(s.ctx, bob))
	session := s.app.Matchmaker.SessionFor(alice.ID())
	s.Equal(model.SessionStatusRunning, session.Status())

	// Generated questions are solvable from their text
	q, ok := testutil.Last[*protocol.Question](alice)
	s.Require().True(ok)
	s.Regexp(`^\d+ [+\-×÷] \d+$`, q.QuestionText)

	s.solve(bob)
	s.send(alice, &protocol.Answer{Answer: -1})
	for i := 0; i < 3; i++ {
		s.solve(alice)
	}

	s.Equal(model.SessionStatusFinished, session.Status())
	aliceResult, ok := testutil.Last[*protocol.GameOver](alice)
	s.Require().True(ok)
	s.True(aliceResult.YouWon)
	s.Equal(3, aliceResult.YourScore)
	s.Equal(1, aliceResult.OpponentScore)
	s.Equal(model.Player1Label, aliceResult.WinnerName)

	bobResult, ok := testutil.Last[*protocol.GameOver](bob)
	s.Require().True(ok)
	s.False(bobResult.YouWon)

	var results response.ResultList
	s.Equal(http.StatusOK, s.get("/api/v1/results", &results))
	s.Require().Len(results.Results, 1)
	s.Equal(1, results.Total)
	s.Equal(string(model.EndReasonWinScore), results.Results[0].Reason)
	s.Equal(model.Player1Label, results.Results[0].Winner)
	s.True(s.app.MockClock.Now().Equal(results.Results[0].EndedAt))
}

// Test: A rematch plays a second round in the same session
func (s *IntegrationSuite) TestRematchPlaysSecondRound() {
	alice := testutil.NewRecordingConn("alice")
	bob := testutil.NewRecordingConn("bob")
	s.Require().NoError(s.app.Orchestrator.Connect(s.ctx, alice))
	s.Require().NoError(s.app.Orchestrator.Connect(s.ctx, bob))
	session := s.app.Matchmaker.SessionFor(alice.ID())

	for i := 0; i < 3; i++ {
		s.solve(bob)
	}
	s.Require().Equal(model.SessionStatusFinished, session.Status())

	s.send(alice, &protocol.RematchRequest{RequestRematch: true})
	s.send(bob, &protocol.RematchRequest{RequestRematch: true})
	s.app.MockClock.Advance(s.app.Config.Game.RematchDelay)
	s.Eventually(func() bool { return session.Status() == model.SessionStatusRunning }, 2*time.Second, 5*time.Millisecond)
	s.Equal(2, session.Round())

	for i := 0; i < 3; i++ {
		s.solve(alice)
	}

	var results response.ResultList
	s.Equal(http.StatusOK, s.get("/api/v1/results/"+string(session.ID()), &results))
	s.Require().Len(results.Results, 2)
	s.Equal(1, results.Results[0].Round)
	s.Equal(model.Player2Label, results.Results[0].Winner)
	s.Equal(2, results.Results[1].Round)
	s.Equal(model.Player1Label, results.Results[1].Winner)
}

// Test: Time running out ends the game on the shared clock
func (s *IntegrationSuite) TestTimeUpThroughClock() {
	alice := testutil.NewRecordingConn("alice")
	bob := testutil.NewRecordingConn("bob")
	s.Require().NoError(s.app.Orchestrator.Connect(s.ctx, alice))
	s.Require().NoError(s.app.Orchestrator.Connect(s.ctx, bob))
	s.solve(alice)

	s.app.MockClock.Advance(s.app.Config.Game.Duration)

	s.Eventually(func() bool {
		_, ok := testutil.Last[*protocol.GameOver](bob)
		return ok
	}, 2*time.Second, 5*time.Millisecond)

	count, err := s.app.Storage.CountSummaries(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, count)
}

// Test: Stats reflect live sessions
func (s *IntegrationSuite) TestStatsEndpoint() {
	for i := 0; i < 3; i++ {
		s.Require().NoError(s.app.Orchestrator.Connect(s.ctx, testutil.NewRecordingConn("conn-"+strconv.Itoa(i))))
	}

	var stats response.Stats
	s.Equal(http.StatusOK, s.get("/api/v1/stats", &stats))
	s.Equal(3, stats.Connections)
	s.Equal(2, stats.Sessions)
	s.Equal(1, stats.WaitingPlayers)
	s.Equal(1, stats.RunningGames)
	s.Equal(0, stats.Clients, "recording connections bypass the websocket hub")
}

// Test: Rate limit comes from configuration
func (s *IntegrationSuite) TestConfiguredRateLimit() {
	cfg := s.app.Config
	cfg.Game.RateLimit = 2
	_ = s.app.Orchestrator.Shutdown(context.Background())
	s.app = NewTestAppWithConfig(cfg)

	alice := testutil.NewRecordingConn("alice")
	s.Require().NoError(s.app.Orchestrator.Connect(s.ctx, alice))
	for i := 0; i < 3; i++ {
		s.send(alice, &protocol.Heartbeat{})
	}

	texts := testutil.ErrorTexts(alice)
	s.Require().Len(texts, 1)
	s.True(strings.HasPrefix(texts[0], "Too many messages"))
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Game.Duration = 0

	_, err := New(cfg, nil)
	if err == nil {
		t.Fatal("expected validation error")
	}
}
