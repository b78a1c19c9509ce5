package model

import (
	"sync"
	"sync/atomic"

	"github.com/mcoot/warduel/internal/protocol"
)

// ConnID identifies a single client connection
type ConnID string

// Conn is the outbound half of a client connection.
// Send must not block on a slow peer.
type Conn interface {
	ID() ConnID
	Send(msg protocol.Message) error
	Close() error
}

// Player is a participant bound to one connection.
// Score and cursor are safe for concurrent use without the session lock.
type Player struct {
	conn  Conn
	label string

	score  atomic.Int64
	cursor atomic.Int64

	mu        sync.Mutex
	answered  map[int]struct{}
	questions []Question
}

// NewPlayer creates a player for the given connection
func NewPlayer(conn Conn, label string) *Player {
	return &Player{
		conn:     conn,
		label:    label,
		answered: make(map[int]struct{}),
	}
}

// ID returns the player's connection ID
func (p *Player) ID() ConnID {
	return p.conn.ID()
}

// Conn returns the connection used for outbound messages
func (p *Player) Conn() Conn {
	return p.conn
}

// Label returns the positional display name ("Player 1" or "Player 2")
func (p *Player) Label() string {
	return p.label
}

func (p *Player) setLabel(label string) {
	p.label = label
}

// Score returns the current score
func (p *Player) Score() int {
	return int(p.score.Load())
}

// IncrementScore adds one point and returns the new score
func (p *Player) IncrementScore() int {
	return int(p.score.Add(1))
}

// Cursor returns the index of the player's current question
func (p *Player) Cursor() int {
	return int(p.cursor.Load())
}

// AdvanceCursor moves to the next question and returns the new index
func (p *Player) AdvanceCursor() int {
	return int(p.cursor.Add(1))
}

// MarkAnswered records idx in the answered ledger.
// Returns false if idx was already recorded.
func (p *Player) MarkAnswered(idx int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.answered[idx]; ok {
		return false
	}
	p.answered[idx] = struct{}{}
	return true
}

// HasAnswered reports whether idx is in the answered ledger
func (p *Player) HasAnswered(idx int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.answered[idx]
	return ok
}

// SetQuestions replaces the player's question sequence
func (p *Player) SetQuestions(questions []Question) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.questions = questions
}

// QuestionCount returns the length of the player's sequence
func (p *Player) QuestionCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.questions)
}

// QuestionAt returns the question at idx from the player's own sequence
func (p *Player) QuestionAt(idx int) (Question, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if idx < 0 || idx >= len(p.questions) {
		return Question{}, false
	}
	return p.questions[idx], true
}

// CurrentQuestion returns the question at the player's cursor
func (p *Player) CurrentQuestion() (Question, bool) {
	return p.QuestionAt(p.Cursor())
}

// ResetProgress zeroes score and cursor and clears the answered ledger
func (p *Player) ResetProgress() {
	p.mu.Lock()
	p.answered = make(map[int]struct{})
	p.mu.Unlock()
	p.score.Store(0)
	p.cursor.Store(0)
}
