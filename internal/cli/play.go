package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/mcoot/warduel/internal/dependencies/clock"
	"github.com/mcoot/warduel/internal/dependencies/random"
	"github.com/mcoot/warduel/internal/protocol"
)

// PlayOptions configure a websocket play session
type PlayOptions struct {
	Bot       BotConfig
	Delay     time.Duration
	Heartbeat time.Duration
}

func newPlayCmd() *cobra.Command {
	opts := PlayOptions{Bot: BotConfig{Games: 1}, Heartbeat: 3 * time.Second}

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Join the queue and play as a bot",
		Long: `Connect to the game websocket, wait for an opponent and answer every
question automatically.

With --games greater than one the bot asks for a rematch after each game.
Press Ctrl+C to leave.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Bot.ErrorRate < 0 || opts.Bot.ErrorRate > 1 {
				return fmt.Errorf("error rate must be between 0 and 1, got %v", opts.Bot.ErrorRate)
			}
			wsURL, err := cfg.WebSocketURL()
			if err != nil {
				return fmt.Errorf("invalid server url: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := NewOutput(cfg.Output)
			records, err := Play(ctx, wsURL, opts, clock.New(), random.New(), cliLogger())
			for _, r := range records {
				out.Print(r)
			}
			return err
		},
	}

	cmd.Flags().IntVar(&opts.Bot.Games, "games", opts.Bot.Games, "Number of games to play, rematching in between")
	cmd.Flags().Float64Var(&opts.Bot.ErrorRate, "error-rate", 0, "Fraction of answers to get wrong (0-1)")
	cmd.Flags().DurationVar(&opts.Delay, "delay", 500*time.Millisecond, "Thinking time before each answer")

	return cmd
}

func cliLogger() *slog.Logger {
	if !cfg.Verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// Play connects to wsURL and lets a Bot play until it is done or ctx ends.
// Finished games are returned even when an error ends the session early.
func Play(ctx context.Context, wsURL string, opts PlayOptions, clk clock.Clock, rnd random.Random, logger *slog.Logger) ([]GameRecord, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	bot := NewBot(opts.Bot, rnd, logger)

	incoming := make(chan protocol.Message)
	readErr := make(chan error, 1)
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			msg, err := protocol.DecodeServer(data)
			if err != nil {
				logger.Warn("dropping malformed frame", slog.String("error", err.Error()))
				continue
			}
			select {
			case incoming <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	var heartbeat <-chan time.Time
	if opts.Heartbeat > 0 {
		ticker := clk.NewTicker(opts.Heartbeat)
		defer ticker.Stop()
		heartbeat = ticker.Chan()
	}

	send := func(msg protocol.Message) error {
		data, err := protocol.Encode(msg)
		if err != nil {
			return err
		}
		return conn.WriteMessage(websocket.TextMessage, data)
	}

	for {
		select {
		case <-ctx.Done():
			closeConn(conn)
			return bot.Records(), nil
		case err := <-readErr:
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return bot.Records(), nil
			}
			return bot.Records(), fmt.Errorf("connection lost: %w", err)
		case <-heartbeat:
			if err := send(&protocol.Heartbeat{}); err != nil {
				return bot.Records(), fmt.Errorf("send heartbeat: %w", err)
			}
		case msg := <-incoming:
			replies, done := bot.React(msg)
			for _, reply := range replies {
				if _, ok := reply.(*protocol.Answer); ok && opts.Delay > 0 {
					select {
					case <-clk.After(opts.Delay):
					case <-ctx.Done():
						closeConn(conn)
						return bot.Records(), nil
					}
				}
				if err := send(reply); err != nil {
					return bot.Records(), fmt.Errorf("send %s: %w", reply.Kind(), err)
				}
			}
			if done {
				closeConn(conn)
				return bot.Records(), nil
			}
		}
	}
}

func closeConn(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}
