package matchmaking

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mcoot/warduel/internal/dependencies/clock"
	"github.com/mcoot/warduel/internal/model"
)

// Stats is a point-in-time view of the matchmaker registries
type Stats struct {
	Players        int
	Sessions       int
	WaitingPlayers int
}

// Matchmaker pairs connections into two-player sessions.
// The pending session pointer and the connection registry share one mutex.
type Matchmaker struct {
	duration time.Duration
	clock    clock.Clock
	logger   *slog.Logger

	mu       sync.Mutex
	sessions map[model.ConnID]*model.Session
	pending  *model.Session
}

// NewMatchmaker creates a Matchmaker whose sessions last duration per game
func NewMatchmaker(duration time.Duration, clock clock.Clock, logger *slog.Logger) *Matchmaker {
	return &Matchmaker{
		duration: duration,
		clock:    clock,
		logger:   logger.With(slog.String("component", "matchmaker")),
		sessions: make(map[model.ConnID]*model.Session),
	}
}

// Join places conn in a session. A connection that is already registered
// gets its existing session back. filled is true only for the join that
// completed a session; the caller then prepares and starts the game.
func (m *Matchmaker) Join(conn model.Conn) (session *model.Session, filled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := conn.ID()
	if existing, ok := m.sessions[id]; ok {
		return existing, false
	}

	player := model.NewPlayer(conn, "")

	if m.pending != nil && m.pending.Status() == model.SessionStatusWaiting && !m.pending.IsFull() {
		session = m.pending
		if err := session.AddPlayer(player); err == nil {
			m.sessions[id] = session
			if session.IsFull() {
				m.pending = nil
				filled = true
			}
			m.logger.Info("player joined session",
				slog.String("session_id", string(session.ID())),
				slog.String("conn_id", string(id)),
				slog.String("player", player.Label()),
				slog.Bool("filled", filled))
			return session, filled
		}
	}

	session = model.NewSession(model.SessionID(uuid.NewString()), m.duration, m.clock)
	// A fresh session always has room
	_ = session.AddPlayer(player)
	m.sessions[id] = session
	m.pending = session

	m.logger.Info("session created",
		slog.String("session_id", string(session.ID())),
		slog.String("conn_id", string(id)))
	return session, false
}

// RemovePlayer deregisters id. It returns the session the connection was
// in, the removed player, and whether the session is now empty.
func (m *Matchmaker) RemovePlayer(id model.ConnID) (*model.Session, *model.Player, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[id]
	if !ok {
		return nil, nil, false
	}
	delete(m.sessions, id)

	player := session.RemovePlayer(id)
	empty := session.IsEmpty()

	if m.pending == session && (empty || session.Status() != model.SessionStatusWaiting) {
		m.pending = nil
	}

	m.logger.Info("player removed",
		slog.String("session_id", string(session.ID())),
		slog.String("conn_id", string(id)),
		slog.Bool("session_empty", empty))
	return session, player, empty
}

// SessionFor returns the session id is registered in, or nil
func (m *Matchmaker) SessionFor(id model.ConnID) *model.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id]
}

// Opponent returns the other player in session, or nil
func (m *Matchmaker) Opponent(session *model.Session, id model.ConnID) *model.Player {
	if session == nil {
		return nil
	}
	return session.OpponentOf(id)
}

// Pending returns the session currently waiting for a second player
func (m *Matchmaker) Pending() *model.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending
}

// Sessions returns each distinct registered session once
func (m *Matchmaker) Sessions() []*model.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[*model.Session]struct{}, len(m.sessions))
	result := make([]*model.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		result = append(result, s)
	}
	return result
}

// Stats returns registry counts
func (m *Matchmaker) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	distinct := make(map[*model.Session]struct{}, len(m.sessions))
	for _, s := range m.sessions {
		distinct[s] = struct{}{}
	}
	stats := Stats{
		Players:  len(m.sessions),
		Sessions: len(distinct),
	}
	if m.pending != nil {
		stats.WaitingPlayers = 1
	}
	return stats
}
