// internal/config/config.go
//
// Environment configuration. Parsed once in main after godotenv has loaded
// any local .env file; defaults suit local development.

package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds every environment-derived knob.
type Config struct {
	Port          string `env:"PORT" envDefault:"8080"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	DataDir       string `env:"DATA_DIR" envDefault:"./data/kv"`
	DBPath        string `env:"DB_PATH" envDefault:"./data/app.db"`
	SessionSecret string `env:"SESSION_SECRET" envDefault:"dev_secret_change_me"`
	CookieName    string `env:"COOKIE_NAME" envDefault:"sudoku_session"`
	ClientOrigin  string `env:"CLIENT_ORIGIN" envDefault:"http://localhost:5173"`
	Production    bool   `env:"PRODUCTION" envDefault:"false"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return c, nil
}
