package cli

import (
	"log/slog"
	"strings"

	"github.com/mcoot/warduel/internal/dependencies/random"
	"github.com/mcoot/warduel/internal/protocol"
	"github.com/mcoot/warduel/internal/services/question"
)

const opponentLeftPrefix = "Opponent left"

// BotConfig controls how a bot plays
type BotConfig struct {
	// Games is the number of games to play in one session, using rematches
	Games int
	// ErrorRate is the fraction of questions answered wrongly on purpose
	ErrorRate float64
}

// Bot decides replies to server messages. It holds no connection so the
// decisions can be driven directly from tests.
type Bot struct {
	config BotConfig
	random random.Random
	logger *slog.Logger

	name    string
	played  int
	records []GameRecord
}

// NewBot creates a Bot
func NewBot(config BotConfig, rnd random.Random, logger *slog.Logger) *Bot {
	if config.Games < 1 {
		config.Games = 1
	}
	return &Bot{
		config: config,
		random: rnd,
		logger: logger,
	}
}

// Records returns the outcome of every finished game
func (b *Bot) Records() []GameRecord {
	return append([]GameRecord(nil), b.records...)
}

// React returns the messages to send in reply to msg and whether the bot
// has finished playing
func (b *Bot) React(msg protocol.Message) ([]protocol.Message, bool) {
	switch m := msg.(type) {
	case *protocol.GameState:
		b.name = m.YourName
		b.logger.Debug("game state", slog.String("status", m.GameStatus), slog.String("name", m.YourName))
	case *protocol.Countdown:
		b.logger.Debug("countdown", slog.Int("seconds", m.Countdown))
	case *protocol.Question:
		answer, err := question.Solve(m.QuestionText)
		if err != nil {
			b.logger.Warn("skipping question", slog.String("error", err.Error()))
			return nil, false
		}
		if b.fumble() {
			answer++
		}
		return []protocol.Message{&protocol.Answer{Answer: answer}}, false
	case *protocol.ScoreUpdate:
		b.logger.Debug("score", slog.Int("you", m.YourScore), slog.Int("opponent", m.OpponentScore))
	case *protocol.GameOver:
		return b.gameOver(m)
	case *protocol.RematchStatus:
		if strings.HasPrefix(m.StatusMessage, opponentLeftPrefix) {
			return nil, true
		}
	case *protocol.Error:
		b.logger.Info("server notice", slog.String("message", m.ErrorMessage))
		if strings.HasPrefix(m.ErrorMessage, opponentLeftPrefix) {
			return nil, true
		}
	}
	return nil, false
}

func (b *Bot) gameOver(m *protocol.GameOver) ([]protocol.Message, bool) {
	b.played++

	outcome := "lost"
	switch {
	case m.Draw:
		outcome = "draw"
	case m.YouWon:
		outcome = "won"
	}
	b.records = append(b.records, GameRecord{
		Game:          b.played,
		YourName:      b.name,
		YourScore:     m.YourScore,
		OpponentScore: m.OpponentScore,
		Outcome:       outcome,
		Note:          m.DisconnectMessage,
	})

	if b.played >= b.config.Games || m.DisconnectMessage != "" {
		return nil, true
	}
	return []protocol.Message{&protocol.RematchRequest{RequestRematch: true}}, false
}

func (b *Bot) fumble() bool {
	if b.config.ErrorRate <= 0 {
		return false
	}
	return b.random.Intn(1000) < int(b.config.ErrorRate*1000)
}
