// Package config loads server configuration from the environment.
//
// A .env file in the working directory is loaded first (if present); real
// environment variables always win over it.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Stats backends accepted by STATS_BACKEND.
const (
	BackendSQLite = "sqlite"
	BackendGdata  = "gdata"
	BackendMemory = "memory"
)

// Config holds all server configuration.
type Config struct {
	Port      string `env:"PORT" envDefault:"5175"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"false"`
	AppEnv    string `env:"APP_ENV" envDefault:"development"`

	DBPath       string `env:"DB_PATH" envDefault:"./data/numguess.db"`
	StatsBackend string `env:"STATS_BACKEND" envDefault:"sqlite"`
	GdataAppName string `env:"GDATA_APP_NAME" envDefault:"numguess"`

	JWTSecret      string        `env:"JWT_SECRET" envDefault:"dev_secret_change_me"`
	PlayerTokenTTL time.Duration `env:"PLAYER_TOKEN_TTL" envDefault:"4320h"`
	CookieName     string        `env:"COOKIE_NAME" envDefault:"numguess_player"`
	ClientOrigin   string        `env:"CLIENT_ORIGIN" envDefault:"http://localhost:5173"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`

	MaxTries int    `env:"MAX_TRIES" envDefault:"10"`
	QuitURL  string `env:"QUIT_URL" envDefault:"https://www.aoit.edu"`
}

// Load reads .env (optional) and the environment, then validates.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return errors.New("DB_PATH cannot be empty")
	}
	switch c.StatsBackend {
	case BackendSQLite, BackendGdata, BackendMemory:
	default:
		return fmt.Errorf("STATS_BACKEND %q is not one of sqlite, gdata, memory", c.StatsBackend)
	}
	if c.StatsBackend == BackendGdata && c.GdataAppName == "" {
		return errors.New("GDATA_APP_NAME cannot be empty with the gdata backend")
	}
	if c.MaxTries < 1 {
		return errors.New("MAX_TRIES must be >= 1")
	}
	if c.IsProduction() && (c.JWTSecret == "" || c.JWTSecret == "dev_secret_change_me") {
		return errors.New("JWT_SECRET must be set in production")
	}
	return nil
}

// IsProduction reports whether cookies should be Secure / SameSite=None.
func (c *Config) IsProduction() bool { return c.AppEnv == "production" }
