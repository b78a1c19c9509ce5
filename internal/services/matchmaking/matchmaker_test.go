package matchmaking

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/warduel/internal/dependencies/mocks"
	"github.com/mcoot/warduel/internal/model"
	"github.com/mcoot/warduel/internal/protocol"
	"github.com/mcoot/warduel/internal/testutil"
)

type fakeConn struct {
	id model.ConnID
}

func (c *fakeConn) ID() model.ConnID            { return c.id }
func (c *fakeConn) Send(protocol.Message) error { return nil }
func (c *fakeConn) Close() error                { return nil }

func conn(id string) *fakeConn {
	return &fakeConn{id: model.ConnID(id)}
}

type MatchmakerSuite struct {
	suite.Suite
	clock      *mocks.MockClock
	matchmaker *Matchmaker
}

func TestMatchmakerSuite(t *testing.T) {
	suite.Run(t, new(MatchmakerSuite))
}

func (s *MatchmakerSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.matchmaker = NewMatchmaker(60*time.Second, s.clock, testutil.NopLogger())
}

// Join tests

func (s *MatchmakerSuite) TestFirstJoinCreatesPendingSession() {
	session, filled := s.matchmaker.Join(conn("p1"))

	s.False(filled)
	s.Equal(model.SessionStatusWaiting, session.Status())
	s.Same(session, s.matchmaker.Pending())
	s.Equal(model.Player1Label, session.Player1().Label())
	s.Equal(60*time.Second, session.Duration())
}

func (s *MatchmakerSuite) TestSecondJoinFillsSession() {
	first, _ := s.matchmaker.Join(conn("p1"))
	second, filled := s.matchmaker.Join(conn("p2"))

	s.True(filled)
	s.Same(first, second)
	s.Equal(model.SessionStatusReady, second.Status())
	s.Equal(model.Player2Label, second.Player2().Label())
	s.Nil(s.matchmaker.Pending())
}

func (s *MatchmakerSuite) TestThirdJoinStartsNewSession() {
	first, _ := s.matchmaker.Join(conn("p1"))
	s.matchmaker.Join(conn("p2"))

	third, filled := s.matchmaker.Join(conn("p3"))

	s.False(filled)
	s.NotSame(first, third)
	s.Equal(model.SessionStatusWaiting, third.Status())
	s.Equal(model.Player1Label, third.Player1().Label())
	s.Same(third, s.matchmaker.Pending())
}

func (s *MatchmakerSuite) TestJoinIsIdempotent() {
	first, _ := s.matchmaker.Join(conn("p1"))
	again, filled := s.matchmaker.Join(conn("p1"))

	s.False(filled)
	s.Same(first, again)
	s.Nil(first.Player2(), "rejoining must not occupy the second slot")
	s.Equal(Stats{Players: 1, Sessions: 1, WaitingPlayers: 1}, s.matchmaker.Stats())
}

func (s *MatchmakerSuite) TestSkipsPendingSessionThatIsNoLongerWaiting() {
	first, _ := s.matchmaker.Join(conn("p1"))
	first.End()

	second, filled := s.matchmaker.Join(conn("p2"))

	s.False(filled)
	s.NotSame(first, second)
	s.Same(second, s.matchmaker.Pending())
}

// RemovePlayer tests

func (s *MatchmakerSuite) TestRemoveLastPlayerDiscardsSession() {
	s.matchmaker.Join(conn("p1"))

	session, player, empty := s.matchmaker.RemovePlayer("p1")

	s.NotNil(session)
	s.Equal(model.ConnID("p1"), player.ID())
	s.True(empty)
	s.Nil(s.matchmaker.Pending())
	s.Nil(s.matchmaker.SessionFor("p1"))
	s.Equal(Stats{}, s.matchmaker.Stats())
}

func (s *MatchmakerSuite) TestRemoveUnknownConnection() {
	session, player, empty := s.matchmaker.RemovePlayer("ghost")
	s.Nil(session)
	s.Nil(player)
	s.False(empty)
}

func (s *MatchmakerSuite) TestGhostSessionIsNotReused() {
	s.matchmaker.Join(conn("p1"))
	s.matchmaker.RemovePlayer("p1")

	session, filled := s.matchmaker.Join(conn("p2"))
	s.False(filled)
	s.Equal(model.ConnID("p2"), session.Player1().ID())

	again, filled := s.matchmaker.Join(conn("p3"))
	s.True(filled)
	s.Same(session, again)
	s.Equal(model.ConnID("p3"), again.Player2().ID())
	s.Equal(model.SessionStatusReady, again.Status())
}

func (s *MatchmakerSuite) TestRemoveFromFullSessionKeepsOpponentRegistered() {
	session, _ := s.matchmaker.Join(conn("p1"))
	s.matchmaker.Join(conn("p2"))

	_, _, empty := s.matchmaker.RemovePlayer("p1")

	s.False(empty)
	s.Same(session, s.matchmaker.SessionFor("p2"))
	s.Nil(s.matchmaker.Opponent(session, "p2"))
	s.Nil(s.matchmaker.Pending(), "a session that already filled never becomes pending again")
}

func (s *MatchmakerSuite) TestOpponent() {
	session, _ := s.matchmaker.Join(conn("p1"))
	s.matchmaker.Join(conn("p2"))

	s.Equal(model.ConnID("p2"), s.matchmaker.Opponent(session, "p1").ID())
	s.Equal(model.ConnID("p1"), s.matchmaker.Opponent(session, "p2").ID())
	s.Nil(s.matchmaker.Opponent(nil, "p1"))
}

func (s *MatchmakerSuite) TestSessions() {
	s.matchmaker.Join(conn("p1"))
	s.matchmaker.Join(conn("p2"))
	s.matchmaker.Join(conn("p3"))

	s.Len(s.matchmaker.Sessions(), 2)
	s.Equal(Stats{Players: 3, Sessions: 2, WaitingPlayers: 1}, s.matchmaker.Stats())
}

func (s *MatchmakerSuite) TestConcurrentJoinsPairEveryone() {
	const players = 100

	var wg sync.WaitGroup
	var mu sync.Mutex
	filledCount := 0
	for i := 0; i < players; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, filled := s.matchmaker.Join(conn(fmt.Sprintf("p%d", i)))
			if filled {
				mu.Lock()
				filledCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.Equal(players/2, filledCount)
	s.Nil(s.matchmaker.Pending())
	for _, session := range s.matchmaker.Sessions() {
		s.True(session.IsFull())
		s.Equal(model.SessionStatusReady, session.Status())
	}
}
