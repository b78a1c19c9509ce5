package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/mcoot/warduel/internal/services/question"
)

// EnvPrefix is prepended to every environment override
const EnvPrefix = "WARDUEL_"

// Config is the complete server configuration
type Config struct {
	Server  ServerConfig  `yaml:"server" envPrefix:"SERVER_"`
	Game    GameConfig    `yaml:"game" envPrefix:"GAME_"`
	Storage StorageConfig `yaml:"storage" envPrefix:"STORAGE_"`
	Log     LogConfig     `yaml:"log" envPrefix:"LOG_"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Host            string        `yaml:"host" env:"HOST"`
	Port            int           `yaml:"port" env:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	AllowedOrigins  []string      `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`
}

// GameConfig holds duel rules and timing
type GameConfig struct {
	Duration         time.Duration   `yaml:"duration" env:"DURATION"`
	QuestionsPerGame int             `yaml:"questions_per_game" env:"QUESTIONS_PER_GAME"`
	WinScore         int             `yaml:"win_score" env:"WIN_SCORE"`
	Countdown        time.Duration   `yaml:"countdown" env:"COUNTDOWN"`
	RematchDelay     time.Duration   `yaml:"rematch_delay" env:"REMATCH_DELAY"`
	MaxAnswer        int             `yaml:"max_answer" env:"MAX_ANSWER"`
	RateLimit        int             `yaml:"rate_limit" env:"RATE_LIMIT"`
	LivenessInterval time.Duration   `yaml:"liveness_interval" env:"LIVENESS_INTERVAL"`
	LivenessTimeout  time.Duration   `yaml:"liveness_timeout" env:"LIVENESS_TIMEOUT"`
	ShutdownGrace    time.Duration   `yaml:"shutdown_grace" env:"SHUTDOWN_GRACE"`
	Ranges           question.Ranges `yaml:"ranges"`
}

// StorageConfig sizes the result history
type StorageConfig struct {
	ResultsCapacity int `yaml:"results_capacity" env:"RESULTS_CAPACITY"`
}

// LogConfig controls log output
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			AllowedOrigins:  []string{"*"},
		},
		Game: GameConfig{
			Duration:         60 * time.Second,
			QuestionsPerGame: 20,
			WinScore:         20,
			Countdown:        3 * time.Second,
			RematchDelay:     time.Second,
			MaxAnswer:        1_000_000,
			RateLimit:        10,
			LivenessInterval: 3 * time.Second,
			LivenessTimeout:  10 * time.Second,
			ShutdownGrace:    5 * time.Second,
			Ranges:           question.DefaultRanges(),
		},
		Storage: StorageConfig{
			ResultsCapacity: 500,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file at
// path, then WARDUEL_ environment variables, and validates the result
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once
func (c Config) Validate() error {
	var errs []error

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}

	g := c.Game
	if g.Duration <= 0 {
		errs = append(errs, errors.New("game.duration must be positive"))
	}
	if g.QuestionsPerGame < 1 {
		errs = append(errs, errors.New("game.questions_per_game must be at least 1"))
	}
	if g.Countdown < 0 {
		errs = append(errs, errors.New("game.countdown must not be negative"))
	} else if g.Countdown%time.Second != 0 {
		errs = append(errs, fmt.Errorf("game.countdown %s must be a whole number of seconds", g.Countdown))
	}
	if g.RematchDelay < 0 {
		errs = append(errs, errors.New("game.rematch_delay must not be negative"))
	}
	if g.MaxAnswer < 1 {
		errs = append(errs, errors.New("game.max_answer must be at least 1"))
	}
	if g.LivenessInterval > 0 && g.LivenessTimeout < g.LivenessInterval {
		errs = append(errs, errors.New("game.liveness_timeout must not be shorter than game.liveness_interval"))
	}
	if err := g.Ranges.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("game.ranges: %w", err))
	}

	if c.Storage.ResultsCapacity < 1 {
		errs = append(errs, errors.New("storage.results_capacity must be at least 1"))
	}

	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or text, got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

// SlogLevel returns the configured log level
func (l LogConfig) SlogLevel() slog.Level {
	level, err := parseLevel(l.Level)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
