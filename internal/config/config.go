// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

// Prefix is prepended to every variable name.
const Prefix = "ART_"

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"DB_PATH" envDefault:"ARTDB.db"`
	ListenAddr string `env:"LISTEN_ADDR" envDefault:"127.0.0.1:8080"`

	// BrowserURL is the DevTools websocket URL of an already running
	// browser. When empty a browser is launched.
	BrowserURL  string        `env:"BROWSER_URL"`
	ChromePath  string        `env:"CHROME_PATH"`
	Headless    bool          `env:"HEADLESS" envDefault:"false"`
	WaitTimeout time.Duration `env:"WAIT_TIMEOUT" envDefault:"30s"`

	// Password is read once and removed from the environment.
	Password         string `env:"PASSWORD,unset"`
	PasswordAttempts int    `env:"PASSWORD_ATTEMPTS" envDefault:"3"`

	HistoryLimit int        `env:"HISTORY_LIMIT" envDefault:"10"`
	LogLevel     slog.Level `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads ART_* environment variables and returns a validated Config.
// All variables are optional.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: Prefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.DBPath == "" {
		return nil, fmt.Errorf("%sDB_PATH must not be empty", Prefix)
	}
	if cfg.WaitTimeout <= 0 {
		return nil, fmt.Errorf("%sWAIT_TIMEOUT must be positive, got %s", Prefix, cfg.WaitTimeout)
	}
	if cfg.PasswordAttempts <= 0 {
		return nil, fmt.Errorf("%sPASSWORD_ATTEMPTS must be positive, got %d", Prefix, cfg.PasswordAttempts)
	}
	if cfg.HistoryLimit <= 0 {
		return nil, fmt.Errorf("%sHISTORY_LIMIT must be positive, got %d", Prefix, cfg.HistoryLimit)
	}

	return cfg, nil
}
