// internal/config/config.go
//
// Environment-driven configuration for the server and the terminal client.
// Responsibilities:
//   - Load .env in development, then parse env vars into nested structs.
//   - Reject values the game cannot run with (board size, negative delays).
//
// Notes:
//   - Every field has a default, so an empty environment is a working dev setup.

package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/robalobadob/memorymatch/internal/game"
)

// Config holds server and client configuration.
type Config struct {
	Server      ServerConfig
	Game        GameConfig
	Logging     LoggingConfig
	Leaderboard LeaderboardConfig
	Client      ClientConfig
}

// ServerConfig holds HTTP, auth and storage settings for cmd/server.
type ServerConfig struct {
	Port           string        `env:"PORT" envDefault:"5175"`
	Env            string        `env:"APP_ENV" envDefault:"development"`
	DBPath         string        `env:"DB_PATH" envDefault:"./data/memorymatch.db"`
	JWTSecret      string        `env:"JWT_SECRET" envDefault:"dev_secret_change_me"`
	JWTExpiresDays int           `env:"JWT_EXPIRES_DAYS" envDefault:"14"`
	CookieName     string        `env:"COOKIE_NAME" envDefault:"memorymatch_token"`
	ClientOrigin   string        `env:"CLIENT_ORIGIN" envDefault:"http://localhost:5173"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	SessionTTL     time.Duration `env:"SESSION_TTL" envDefault:"30m"`
}

// GameConfig tunes the board and its clocks.
type GameConfig struct {
	PairCount       int `env:"PAIR_COUNT" envDefault:"8"`
	RollbackDelayMs int `env:"ROLLBACK_DELAY_MS" envDefault:"800"`
	TickIntervalMs  int `env:"TICK_INTERVAL_MS" envDefault:"50"`
}

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"` // "json" or "console"
}

// LeaderboardConfig sizes leaderboard reads.
type LeaderboardConfig struct {
	Limit int `env:"LEADERBOARD_LIMIT" envDefault:"20"`
}

// ClientConfig is used by the terminal client.
type ClientConfig struct {
	BackendURL    string        `env:"BACKEND_URL" envDefault:"http://localhost:5175"`
	HTTPTimeout   time.Duration `env:"HTTP_TIMEOUT" envDefault:"10s"`
	RetryMaxTries uint          `env:"RETRY_MAX_TRIES" envDefault:"4"`
	LogLevel      string        `env:"CLIENT_LOG_LEVEL" envDefault:"warn"`
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return Parse()
}

// Parse reads the process environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Game.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (g GameConfig) validate() error {
	if g.PairCount < 1 || g.PairCount > game.MaxPairCount {
		return fmt.Errorf("PAIR_COUNT=%d: %w", g.PairCount, game.ErrInvalidPairCount)
	}
	if g.RollbackDelayMs < 0 {
		return fmt.Errorf("ROLLBACK_DELAY_MS must not be negative, got %d", g.RollbackDelayMs)
	}
	if g.TickIntervalMs < 0 {
		return fmt.Errorf("TICK_INTERVAL_MS must not be negative, got %d", g.TickIntervalMs)
	}
	return nil
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return ":" + c.Server.Port
}

func (g GameConfig) RollbackDelay() time.Duration {
	return time.Duration(g.RollbackDelayMs) * time.Millisecond
}

func (g GameConfig) TickInterval() time.Duration {
	return time.Duration(g.TickIntervalMs) * time.Millisecond
}
