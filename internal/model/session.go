package model

import (
	"sync"
	"time"

	"github.com/mcoot/warduel/internal/dependencies/clock"
)

// SessionID uniquely identifies a duel session
type SessionID string

// SessionStatus represents the lifecycle state of a session
type SessionStatus string

const (
	SessionStatusWaiting  SessionStatus = "WAITING"
	SessionStatusReady    SessionStatus = "READY"
	SessionStatusRunning  SessionStatus = "RUNNING"
	SessionStatusFinished SessionStatus = "FINISHED"
)

// Outcome sentinels returned by DetermineWinner
const (
	OutcomeDraw    = "Draw"
	OutcomeUnknown = "Unknown"
)

const (
	Player1Label = "Player 1"
	Player2Label = "Player 2"
)

// RematchResult describes what a rematch request did
type RematchResult int

const (
	// RematchRejected means the session was not finished
	RematchRejected RematchResult = iota
	// RematchPending means the caller's flag is set and the opponent's is not
	RematchPending
	// RematchReset means both flags were set and the session is READY again
	RematchReset
)

// Session is a two-player duel. All mutation goes through the session mutex.
type Session struct {
	id       SessionID
	duration time.Duration
	clock    clock.Clock

	mu        sync.Mutex
	status    SessionStatus
	player1   *Player
	player2   *Player
	startTime time.Time
	endTime   time.Time
	round     int
	questions []Question
	rematch1  bool
	rematch2  bool
}

// NewSession creates an empty WAITING session
func NewSession(id SessionID, duration time.Duration, clk clock.Clock) *Session {
	return &Session{
		id:       id,
		duration: duration,
		clock:    clk,
		status:   SessionStatusWaiting,
	}
}

// ID returns the session ID
func (s *Session) ID() SessionID {
	return s.id
}

// Duration returns the configured game length
func (s *Session) Duration() time.Duration {
	return s.duration
}

// Status returns the current lifecycle state
func (s *Session) Status() SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Round returns the number of times the session has started
func (s *Session) Round() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.round
}

// Player1 returns the slot 1 occupant, or nil
func (s *Session) Player1() *Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.player1
}

// Player2 returns the slot 2 occupant, or nil
func (s *Session) Player2() *Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.player2
}

// Players returns both slot occupants in slot order
func (s *Session) Players() (*Player, *Player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.player1, s.player2
}

// AddPlayer places p in the first free slot and labels it by position.
// Filling slot 2 moves the session to READY.
func (s *Session) AddPlayer(p *Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.player1 == nil:
		p.setLabel(Player1Label)
		s.player1 = p
	case s.player2 == nil:
		p.setLabel(Player2Label)
		s.player2 = p
		if s.status == SessionStatusWaiting {
			s.status = SessionStatusReady
		}
	default:
		return ErrSessionFull
	}
	return nil
}

// RemovePlayer clears the slot holding id. Status is left unchanged.
func (s *Session) RemovePlayer(id ConnID) *Player {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.player1 != nil && s.player1.ID() == id:
		p := s.player1
		s.player1 = nil
		s.rematch1 = false
		return p
	case s.player2 != nil && s.player2.ID() == id:
		p := s.player2
		s.player2 = nil
		s.rematch2 = false
		return p
	}
	return nil
}

// PlayerFor returns the player bound to id, or nil
func (s *Session) PlayerFor(id ConnID) *Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.player1 != nil && s.player1.ID() == id:
		return s.player1
	case s.player2 != nil && s.player2.ID() == id:
		return s.player2
	}
	return nil
}

// OpponentOf returns the occupant of the other slot, or nil
func (s *Session) OpponentOf(id ConnID) *Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.player1 != nil && s.player1.ID() == id:
		return s.player2
	case s.player2 != nil && s.player2.ID() == id:
		return s.player1
	}
	return nil
}

// IsFull reports whether both slots are occupied
func (s *Session) IsFull() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.player1 != nil && s.player2 != nil
}

// IsEmpty reports whether both slots are free
func (s *Session) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.player1 == nil && s.player2 == nil
}

// SetQuestions stores the baseline sequence used for reporting
func (s *Session) SetQuestions(questions []Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions = questions
}

// Questions returns the baseline sequence
func (s *Session) Questions() []Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.questions
}

// Start moves a READY session to RUNNING and resets both players' progress.
// Returns false unless the session is READY with both slots filled.
func (s *Session) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != SessionStatusReady || s.player1 == nil || s.player2 == nil {
		return false
	}

	now := s.clock.Now()
	s.status = SessionStatusRunning
	s.startTime = now
	s.endTime = now.Add(s.duration)
	s.round++
	s.rematch1 = false
	s.rematch2 = false
	s.player1.ResetProgress()
	s.player2.ResetProgress()
	return true
}

// End marks the session FINISHED and records the end time.
// Returns true if this call ended a RUNNING game.
func (s *Session) End() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	wasRunning := s.status == SessionStatusRunning
	s.status = SessionStatusFinished
	s.endTime = s.clock.Now()
	return wasRunning
}

// Finish ends the game only while round is the current RUNNING round.
// Returns true if this call ended it.
func (s *Session) Finish(round int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != SessionStatusRunning || s.round != round {
		return false
	}
	s.status = SessionStatusFinished
	s.endTime = s.clock.Now()
	return true
}

// IsTimeUp reports whether a RUNNING game has passed its end time
func (s *Session) IsTimeUp() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status == SessionStatusRunning && s.clock.Now().After(s.endTime)
}

// Remaining returns the time left in the game.
// Outside RUNNING it is the full configured duration.
func (s *Session) Remaining() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != SessionStatusRunning {
		return s.duration
	}
	left := s.endTime.Sub(s.clock.Now())
	if left < 0 {
		return 0
	}
	return left
}

// RemainingSeconds returns Remaining truncated to whole seconds
func (s *Session) RemainingSeconds() int {
	return int(s.Remaining() / time.Second)
}

// StartTime returns when the current game started
func (s *Session) StartTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startTime
}

// EndTime returns the scheduled or actual end of the current game
func (s *Session) EndTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endTime
}

// DetermineWinner returns the leader's label, OutcomeDraw on a tie,
// or OutcomeUnknown when a slot is empty.
func (s *Session) DetermineWinner() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.player1 == nil || s.player2 == nil {
		return OutcomeUnknown
	}
	score1, score2 := s.player1.Score(), s.player2.Score()
	switch {
	case score1 > score2:
		return s.player1.Label()
	case score2 > score1:
		return s.player2.Label()
	default:
		return OutcomeDraw
	}
}

// IsDraw reports a tie between two present players
func (s *Session) IsDraw() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player1 == nil || s.player2 == nil {
		return false
	}
	return s.player1.Score() == s.player2.Score()
}

// CurrentQuestionFor returns the question at p's cursor in p's own sequence
func (s *Session) CurrentQuestionFor(p *Player) (Question, bool) {
	if p == nil {
		return Question{}, false
	}
	return p.CurrentQuestion()
}

// SetRematch sets or clears the rematch flag for id's slot
func (s *Session) SetRematch(id ConnID, wants bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setRematchLocked(id, wants)
}

func (s *Session) setRematchLocked(id ConnID, wants bool) {
	switch {
	case s.player1 != nil && s.player1.ID() == id:
		s.rematch1 = wants
	case s.player2 != nil && s.player2.ID() == id:
		s.rematch2 = wants
	}
}

// WantsRematch reports the rematch flag for id's slot
func (s *Session) WantsRematch(id ConnID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.player1 != nil && s.player1.ID() == id:
		return s.rematch1
	case s.player2 != nil && s.player2.ID() == id:
		return s.rematch2
	}
	return false
}

// BothWantRematch reports whether both present players asked for a rematch
func (s *Session) BothWantRematch() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bothWantRematchLocked()
}

func (s *Session) bothWantRematchLocked() bool {
	return s.player1 != nil && s.player2 != nil && s.rematch1 && s.rematch2
}

// ResetForRematch moves a FINISHED session back to READY and clears all
// per-game state. Returns false unless the session is FINISHED.
func (s *Session) ResetForRematch() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resetLocked()
}

func (s *Session) resetLocked() bool {
	if s.status != SessionStatusFinished {
		return false
	}
	s.status = SessionStatusReady
	s.startTime = time.Time{}
	s.endTime = time.Time{}
	s.rematch1 = false
	s.rematch2 = false
	s.questions = nil
	for _, p := range []*Player{s.player1, s.player2} {
		if p != nil {
			p.ResetProgress()
			p.SetQuestions(nil)
		}
	}
	return true
}

// RequestRematch records id's rematch intent. When both players have asked
// and the session is FINISHED with both slots filled, it resets the session
// in the same critical section so only one caller observes RematchReset.
func (s *Session) RequestRematch(id ConnID) RematchResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != SessionStatusFinished {
		return RematchRejected
	}
	s.setRematchLocked(id, true)
	if !s.bothWantRematchLocked() {
		return RematchPending
	}
	s.resetLocked()
	return RematchReset
}
