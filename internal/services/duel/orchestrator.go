package duel

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mcoot/warduel/internal/dependencies/clock"
	"github.com/mcoot/warduel/internal/dependencies/random"
	"github.com/mcoot/warduel/internal/model"
	"github.com/mcoot/warduel/internal/protocol"
	"github.com/mcoot/warduel/internal/services/matchmaking"
	"github.com/mcoot/warduel/internal/services/ratelimit"
	"github.com/mcoot/warduel/internal/storage"
)

// Notice texts sent to clients
const (
	msgRateLimited       = "Too many messages - slow down!"
	msgAnswerOutOfRange  = "Answer out of valid range"
	msgGameNotActive     = "Game not found or not active"
	msgTimeExpired       = "Time has expired"
	msgAlreadyAnswered   = "Already answered this question"
	msgNoQuestion        = "No more questions"
	msgProcessingError   = "Error processing message"
	msgRematchNotReady   = "Rematch is only available after the game"
	msgWaitingOpponent   = "Waiting for opponent..."
	msgOpponentWants     = "Opponent wants a rematch"
	msgRematchStarting   = "Rematch starting!"
	msgRematchWithdrawn  = "Rematch request withdrawn"
	msgOpponentLeft      = "Opponent left"
	msgOpponentLeftGame  = "Opponent left the game"
	msgOpponentLeftQueue = "Opponent left the queue"
)

var countdownTips = []string{
	"Solve math problems faster than your opponent!",
	"Type your answer and press Enter to submit",
	"First to answer 20 questions correctly wins!",
}

// QuestionSource produces question sequences for a game
type QuestionSource interface {
	Generate(count int) []model.Question
}

// Config holds game timing and limits
type Config struct {
	QuestionsPerGame int
	// WinScore ends the game early when reached. Zero or less disables it.
	WinScore int
	// Countdown is the pre-game countdown length, in whole seconds. Zero skips it.
	Countdown        time.Duration
	RematchDelay     time.Duration
	MaxAnswer        int
	LivenessInterval time.Duration
	LivenessTimeout  time.Duration
	ShutdownGrace    time.Duration
}

// DefaultConfig returns the standard game settings
func DefaultConfig() Config {
	return Config{
		QuestionsPerGame: 20,
		WinScore:         20,
		Countdown:        3 * time.Second,
		RematchDelay:     time.Second,
		MaxAnswer:        1_000_000,
		LivenessInterval: 3 * time.Second,
		LivenessTimeout:  10 * time.Second,
		ShutdownGrace:    5 * time.Second,
	}
}

// Stats is a point-in-time view of live play
type Stats struct {
	Connections    int
	Sessions       int
	WaitingPlayers int
	RunningGames   int
	CompletedGames int64
}

type connection struct {
	conn     model.Conn
	lastSeen time.Time
}

// Orchestrator drives duel sessions: it starts games, processes client
// messages, schedules the game clock and resolves how each game ends.
type Orchestrator struct {
	config     Config
	matchmaker *matchmaking.Matchmaker
	questions  QuestionSource
	limiter    *ratelimit.Limiter[model.ConnID]
	storage    storage.Storage
	clock      clock.Clock
	random     random.Random
	logger     *slog.Logger
	scheduler  *scheduler

	mu          sync.Mutex
	connections map[model.ConnID]*connection
	closing     bool

	completed atomic.Int64
}

// NewOrchestrator creates an Orchestrator
func NewOrchestrator(
	config Config,
	matchmaker *matchmaking.Matchmaker,
	questions QuestionSource,
	limiter *ratelimit.Limiter[model.ConnID],
	storage storage.Storage,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		config:      config,
		matchmaker:  matchmaker,
		questions:   questions,
		limiter:     limiter,
		storage:     storage,
		clock:       clock,
		random:      random,
		logger:      logger.With(slog.String("component", "orchestrator")),
		scheduler:   newScheduler(clock),
		connections: make(map[model.ConnID]*connection),
	}
}

// Connect registers a new connection and places it in matchmaking.
// When the join completes a session the game is prepared and started.
func (o *Orchestrator) Connect(ctx context.Context, conn model.Conn) error {
	id := conn.ID()

	o.mu.Lock()
	if o.closing {
		o.mu.Unlock()
		return model.ErrShuttingDown
	}
	o.connections[id] = &connection{conn: conn, lastSeen: o.clock.Now()}
	o.mu.Unlock()

	session, filled := o.matchmaker.Join(conn)
	o.logger.Info("connection registered",
		slog.String("conn_id", string(id)),
		slog.String("session_id", string(session.ID())))

	if filled {
		o.prepareGame(session)
		return nil
	}
	o.sendState(session, session.PlayerFor(id))
	return nil
}

// HandleMessage processes one inbound frame from id
func (o *Orchestrator) HandleMessage(ctx context.Context, id model.ConnID, data []byte) {
	if !o.touch(id) {
		o.logger.Warn("message from unregistered connection", slog.String("conn_id", string(id)))
		return
	}
	if !o.limiter.Allow(id) {
		o.sendError(id, msgRateLimited)
		return
	}

	msg, err := protocol.DecodeClient(data)
	if err != nil {
		o.logger.Warn("could not decode message",
			slog.String("conn_id", string(id)),
			slog.String("error", err.Error()))
		o.sendError(id, msgProcessingError)
		return
	}

	switch m := msg.(type) {
	case *protocol.JoinGame:
		o.handleJoin(id)
	case *protocol.Answer:
		o.handleAnswer(ctx, id, m.Answer)
	case *protocol.RematchRequest:
		o.handleRematch(id, m.RequestRematch)
	case *protocol.Forfeit:
		o.handleForfeit(ctx, id)
	case *protocol.Heartbeat:
		// touch already recorded the activity
	case *protocol.Unknown:
		o.logger.Warn("unknown message type",
			slog.String("conn_id", string(id)),
			slog.String("type", m.Type))
	}
}

// Disconnect resolves the departure of id from its session
func (o *Orchestrator) Disconnect(ctx context.Context, id model.ConnID) {
	o.mu.Lock()
	delete(o.connections, id)
	o.mu.Unlock()
	o.limiter.Forget(id)

	session := o.matchmaker.SessionFor(id)
	if session == nil {
		return
	}

	// Capture everything before the player leaves the session
	player := session.PlayerFor(id)
	opponent := session.OpponentOf(id)
	status := session.Status()
	round := session.Round()
	progressed := (player != nil && player.Cursor() > 0) || (opponent != nil && opponent.Cursor() > 0)

	_, _, empty := o.matchmaker.RemovePlayer(id)

	logger := o.logger.With(
		slog.String("session_id", string(session.ID())),
		slog.String("conn_id", string(id)),
		slog.String("status", string(status)))

	switch status {
	case model.SessionStatusRunning:
		if !session.Finish(round) {
			break
		}
		o.scheduler.cancelSession(session.ID())
		if progressed && opponent != nil && player != nil {
			logger.Info("player disconnected mid-game, opponent wins")
			o.send(opponent, &protocol.GameOver{
				YourScore:         opponent.Score(),
				OpponentScore:     0,
				YouWon:            true,
				WinnerName:        opponent.Label(),
				DisconnectMessage: player.Label() + " disconnected",
			})
			o.record(ctx, session, round, model.EndReasonDisconnect, opponent.Label(),
				resultFor(opponent, opponent.Score()), resultFor(player, 0))
		} else {
			logger.Info("player disconnected before any progress, game cancelled")
			o.send(opponent, &protocol.Error{ErrorMessage: msgOpponentLeftGame})
		}
	case model.SessionStatusWaiting, model.SessionStatusReady:
		session.End()
		o.scheduler.cancelSession(session.ID())
		logger.Info("player left before the game started")
		o.send(opponent, &protocol.Error{ErrorMessage: msgOpponentLeftQueue})
	case model.SessionStatusFinished:
		if opponent != nil {
			o.send(opponent, &protocol.RematchStatus{
				RequestRematch:   session.WantsRematch(opponent.ID()),
				OpponentAccepted: false,
				StatusMessage:    msgOpponentLeft,
			})
		}
	}

	if empty {
		o.scheduler.cancelSession(session.ID())
	}
}

// Shutdown stops accepting connections, cancels scheduled tasks and waits
// for running callbacks, bounded by the configured grace period.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	o.closing = true
	o.mu.Unlock()

	if o.config.ShutdownGrace > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.config.ShutdownGrace)
		defer cancel()
	}

	if err := o.scheduler.shutdown(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			o.logger.Warn("scheduled tasks did not finish within grace period")
		}
		return err
	}
	o.logger.Info("orchestrator stopped")
	return nil
}

// Stats returns live counts
func (o *Orchestrator) Stats() Stats {
	o.mu.Lock()
	connections := len(o.connections)
	o.mu.Unlock()

	mm := o.matchmaker.Stats()
	running := 0
	for _, s := range o.matchmaker.Sessions() {
		if s.Status() == model.SessionStatusRunning {
			running++
		}
	}
	return Stats{
		Connections:    connections,
		Sessions:       mm.Sessions,
		WaitingPlayers: mm.WaitingPlayers,
		RunningGames:   running,
		CompletedGames: o.completed.Load(),
	}
}

// prepareGame assigns questions to a freshly filled session, tells both
// players who they face and starts the countdown.
func (o *Orchestrator) prepareGame(session *model.Session) {
	o.assignQuestions(session)

	p1, p2 := session.Players()
	o.sendState(session, p1)
	o.sendState(session, p2)

	o.logger.Info("session ready", slog.String("session_id", string(session.ID())))
	o.startCountdown(session)
}

func (o *Orchestrator) assignQuestions(session *model.Session) {
	p1, p2 := session.Players()
	first := o.questions.Generate(o.config.QuestionsPerGame)
	second := o.questions.Generate(o.config.QuestionsPerGame)

	session.SetQuestions(first)
	if p1 != nil {
		p1.SetQuestions(first)
	}
	if p2 != nil {
		p2.SetQuestions(second)
	}
}

// startCountdown broadcasts one tick per second, then starts the game.
// The same tip is shown for the whole countdown.
func (o *Orchestrator) startCountdown(session *model.Session) {
	seconds := int(o.config.Countdown / time.Second)
	if seconds <= 0 {
		o.beginGame(session)
		return
	}

	tip := countdownTips[o.random.Intn(len(countdownTips))]
	o.broadcast(session, &protocol.Countdown{Countdown: seconds, Message: tip})

	for elapsed := 1; elapsed < seconds; elapsed++ {
		remaining := seconds - elapsed
		o.scheduler.after(session.ID(), time.Duration(elapsed)*time.Second, func() {
			if session.Status() != model.SessionStatusReady {
				return
			}
			o.broadcast(session, &protocol.Countdown{Countdown: remaining, Message: tip})
		})
	}
	o.scheduler.after(session.ID(), time.Duration(seconds)*time.Second, func() {
		o.beginGame(session)
	})
}

// beginGame starts a READY session, arms the end timer and liveness sweep,
// and sends each player its first question.
func (o *Orchestrator) beginGame(session *model.Session) {
	if !session.Start() {
		o.logger.Debug("session not ready to start",
			slog.String("session_id", string(session.ID())),
			slog.String("status", string(session.Status())))
		return
	}
	round := session.Round()
	id := session.ID()

	o.scheduler.after(id, session.Duration(), func() {
		o.finishGame(context.Background(), session, round, model.EndReasonTimeUp)
	})
	if o.config.LivenessInterval > 0 {
		o.scheduler.every(id, o.config.LivenessInterval, func() {
			o.sweep(session, round)
		})
	}

	p1, p2 := session.Players()
	o.refresh(p1)
	o.refresh(p2)

	o.logger.Info("game started",
		slog.String("session_id", string(id)),
		slog.Int("round", round))

	fullTime := int(session.Duration() / time.Second)
	o.sendQuestion(p1, 0, fullTime)
	o.sendQuestion(p2, 0, fullTime)
}

// finishGame ends round and sends both players the result
func (o *Orchestrator) finishGame(ctx context.Context, session *model.Session, round int, reason model.EndReason) {
	if !session.Finish(round) {
		return
	}
	o.scheduler.cancelSession(session.ID())

	p1, p2 := session.Players()
	winner := session.DetermineWinner()
	draw := session.IsDraw()

	o.sendResult(p1, p2, winner, draw)
	o.sendResult(p2, p1, winner, draw)

	o.logger.Info("game finished",
		slog.String("session_id", string(session.ID())),
		slog.Int("round", round),
		slog.String("reason", string(reason)),
		slog.String("winner", winner))

	o.record(ctx, session, round, reason, winner, resultFor(p1, scoreOf(p1)), resultFor(p2, scoreOf(p2)))
}

func (o *Orchestrator) sendResult(p, opponent *model.Player, winner string, draw bool) {
	if p == nil {
		return
	}
	o.send(p, &protocol.GameOver{
		YourScore:     p.Score(),
		OpponentScore: scoreOf(opponent),
		YouWon:        winner == p.Label(),
		Draw:          draw,
		WinnerName:    winner,
	})
}

// sweep closes connections that have been silent too long.
// Closing cascades into Disconnect through the transport.
func (o *Orchestrator) sweep(session *model.Session, round int) {
	if session.Status() != model.SessionStatusRunning || session.Round() != round {
		return
	}
	now := o.clock.Now()
	p1, p2 := session.Players()
	for _, p := range []*model.Player{p1, p2} {
		if p == nil {
			continue
		}
		last, ok := o.lastSeen(p.ID())
		if !ok || now.Sub(last) <= o.config.LivenessTimeout {
			continue
		}
		o.logger.Warn("connection timed out",
			slog.String("session_id", string(session.ID())),
			slog.String("conn_id", string(p.ID())),
			slog.Duration("silent_for", now.Sub(last)))
		if err := p.Conn().Close(); err != nil {
			o.logger.Warn("could not close connection",
				slog.String("conn_id", string(p.ID())),
				slog.String("error", err.Error()))
		}
	}
}

func (o *Orchestrator) handleJoin(id model.ConnID) {
	session := o.matchmaker.SessionFor(id)
	if session == nil {
		conn, ok := o.conn(id)
		if !ok {
			return
		}
		var filled bool
		session, filled = o.matchmaker.Join(conn)
		if filled {
			o.prepareGame(session)
			return
		}
	}
	o.sendState(session, session.PlayerFor(id))
}

func (o *Orchestrator) handleAnswer(ctx context.Context, id model.ConnID, value int) {
	if value > o.config.MaxAnswer || value < -o.config.MaxAnswer {
		o.sendError(id, msgAnswerOutOfRange)
		return
	}

	session := o.matchmaker.SessionFor(id)
	if session == nil || session.Status() != model.SessionStatusRunning {
		o.sendError(id, msgGameNotActive)
		return
	}
	if session.IsTimeUp() {
		o.sendError(id, msgTimeExpired)
		return
	}

	round := session.Round()
	player := session.PlayerFor(id)
	opponent := session.OpponentOf(id)
	if player == nil {
		o.sendError(id, msgGameNotActive)
		return
	}

	cursor := player.Cursor()
	if !player.MarkAnswered(cursor) {
		o.sendError(id, msgAlreadyAnswered)
		return
	}
	question, ok := player.QuestionAt(cursor)
	if !ok {
		o.sendError(id, msgNoQuestion)
		return
	}

	correct := question.IsCorrect(value)
	if correct {
		player.IncrementScore()
	}

	o.send(player, &protocol.ScoreUpdate{
		YourScore:     player.Score(),
		OpponentScore: scoreOf(opponent),
		WasCorrect:    correct,
	})
	if opponent != nil {
		o.send(opponent, &protocol.ScoreUpdate{
			YourScore:     opponent.Score(),
			OpponentScore: player.Score(),
			WasCorrect:    false,
		})
	}

	if correct && o.config.WinScore > 0 && player.Score() >= o.config.WinScore {
		o.finishGame(ctx, session, round, model.EndReasonWinScore)
		return
	}

	next := player.AdvanceCursor()
	o.sendQuestion(player, next, session.RemainingSeconds())
}

func (o *Orchestrator) handleRematch(id model.ConnID, wants bool) {
	session := o.matchmaker.SessionFor(id)
	if session == nil {
		o.sendError(id, msgGameNotActive)
		return
	}
	player := session.PlayerFor(id)
	opponent := session.OpponentOf(id)

	if !wants {
		if session.Status() != model.SessionStatusFinished {
			o.sendError(id, msgRematchNotReady)
			return
		}
		session.SetRematch(id, false)
		o.send(player, &protocol.RematchStatus{StatusMessage: msgRematchWithdrawn})
		return
	}
	if opponent == nil && session.Status() == model.SessionStatusFinished {
		o.send(player, &protocol.RematchStatus{RequestRematch: true, StatusMessage: msgOpponentLeft})
		return
	}

	switch session.RequestRematch(id) {
	case model.RematchRejected:
		o.sendError(id, msgRematchNotReady)
	case model.RematchPending:
		o.send(player, &protocol.RematchStatus{RequestRematch: true, StatusMessage: msgWaitingOpponent})
		o.send(opponent, &protocol.RematchStatus{OpponentAccepted: true, StatusMessage: msgOpponentWants})
	case model.RematchReset:
		o.assignQuestions(session)
		o.broadcast(session, &protocol.RematchStatus{
			RequestRematch:   true,
			OpponentAccepted: true,
			StatusMessage:    msgRematchStarting,
		})
		o.logger.Info("rematch accepted", slog.String("session_id", string(session.ID())))
		o.scheduler.after(session.ID(), o.config.RematchDelay, func() {
			o.beginGame(session)
		})
	}
}

func (o *Orchestrator) handleForfeit(ctx context.Context, id model.ConnID) {
	session := o.matchmaker.SessionFor(id)
	if session == nil || session.Status() != model.SessionStatusRunning {
		o.sendError(id, msgGameNotActive)
		return
	}
	round := session.Round()
	player := session.PlayerFor(id)
	opponent := session.OpponentOf(id)
	if player == nil || !session.Finish(round) {
		return
	}
	o.scheduler.cancelSession(session.ID())

	winner := model.OutcomeUnknown
	if opponent != nil {
		winner = opponent.Label()
		o.send(opponent, &protocol.GameOver{
			YourScore:     opponent.Score(),
			OpponentScore: 0,
			YouWon:        true,
			WinnerName:    winner,
		})
	}
	o.send(player, &protocol.GameOver{
		YourScore:     0,
		OpponentScore: scoreOf(opponent),
		YouWon:        false,
		WinnerName:    winner,
	})

	o.logger.Info("player forfeited",
		slog.String("session_id", string(session.ID())),
		slog.String("conn_id", string(id)))

	o.record(ctx, session, round, model.EndReasonForfeit, winner,
		resultFor(opponent, scoreOf(opponent)), resultFor(player, 0))
}

func (o *Orchestrator) record(ctx context.Context, session *model.Session, round int, reason model.EndReason, winner string, results ...model.PlayerResult) {
	o.completed.Add(1)

	players := make([]model.PlayerResult, 0, len(results))
	for _, r := range results {
		if r.Label != "" {
			players = append(players, r)
		}
	}
	summary := &model.DuelSummary{
		SessionID: session.ID(),
		Round:     round,
		Players:   players,
		Winner:    winner,
		Reason:    reason,
		EndedAt:   o.clock.Now(),
	}
	if err := o.storage.SaveSummary(ctx, summary); err != nil {
		o.logger.Error("failed to save duel summary",
			slog.String("session_id", string(session.ID())),
			slog.String("error", err.Error()))
	}
}

func (o *Orchestrator) sendQuestion(p *model.Player, idx, remaining int) {
	if p == nil {
		return
	}
	question, ok := p.QuestionAt(idx)
	if !ok {
		return
	}
	o.send(p, &protocol.Question{
		QuestionText:     question.Text,
		QuestionNumber:   idx + 1,
		RemainingSeconds: remaining,
	})
}

func (o *Orchestrator) sendState(session *model.Session, p *model.Player) {
	if p == nil {
		return
	}
	state := &protocol.GameState{
		GameStatus:       string(session.Status()),
		YourName:         p.Label(),
		RemainingSeconds: session.RemainingSeconds(),
	}
	if opponent := session.OpponentOf(p.ID()); opponent != nil {
		state.OpponentName = opponent.Label()
	}
	o.send(p, state)
}

func (o *Orchestrator) broadcast(session *model.Session, msg protocol.Message) {
	p1, p2 := session.Players()
	o.send(p1, msg)
	o.send(p2, msg)
}

// send delivers msg without blocking. Failures are logged and never
// interrupt game processing.
func (o *Orchestrator) send(p *model.Player, msg protocol.Message) {
	if p == nil {
		return
	}
	if err := p.Conn().Send(msg); err != nil {
		o.logger.Warn("failed to send message",
			slog.String("conn_id", string(p.ID())),
			slog.String("type", string(msg.Kind())),
			slog.String("error", err.Error()))
	}
}

func (o *Orchestrator) sendError(id model.ConnID, text string) {
	conn, ok := o.conn(id)
	if !ok {
		return
	}
	if err := conn.Send(&protocol.Error{ErrorMessage: text}); err != nil {
		o.logger.Warn("failed to send error notice",
			slog.String("conn_id", string(id)),
			slog.String("error", err.Error()))
	}
}

func (o *Orchestrator) conn(id model.ConnID) (model.Conn, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	c, ok := o.connections[id]
	if !ok {
		return nil, false
	}
	return c.conn, true
}

// touch records inbound activity. Returns false for unknown connections.
func (o *Orchestrator) touch(id model.ConnID) bool {
	now := o.clock.Now()
	o.mu.Lock()
	defer o.mu.Unlock()
	c, ok := o.connections[id]
	if ok {
		c.lastSeen = now
	}
	return ok
}

func (o *Orchestrator) refresh(p *model.Player) {
	if p != nil {
		o.touch(p.ID())
	}
}

func (o *Orchestrator) lastSeen(id model.ConnID) (time.Time, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	c, ok := o.connections[id]
	if !ok {
		return time.Time{}, false
	}
	return c.lastSeen, true
}

func scoreOf(p *model.Player) int {
	if p == nil {
		return 0
	}
	return p.Score()
}

func resultFor(p *model.Player, score int) model.PlayerResult {
	if p == nil {
		return model.PlayerResult{}
	}
	return model.PlayerResult{Label: p.Label(), Score: score}
}
