package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/numguess/assets"
	"github.com/robalobadob/numguess/internal/config"
	"github.com/robalobadob/numguess/internal/db"
	"github.com/robalobadob/numguess/internal/httpserver"
	"github.com/robalobadob/numguess/internal/kv"
	"github.com/robalobadob/numguess/internal/metrics"
	"github.com/robalobadob/numguess/internal/rounds"
	"github.com/robalobadob/numguess/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	setupLogging(cfg)

	conn, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("failed to open database")
	}
	defer conn.Close()

	migrations, err := assets.Migrations()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read embedded migrations")
	}
	if err := db.Migrate(conn, migrations); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	var backend kv.Backend
	switch cfg.StatsBackend {
	case config.BackendGdata:
		g, err := kv.OpenGdata(cfg.GdataAppName)
		if err != nil {
			// Degraded mode: statistics last for the process lifetime only.
			log.Warn().Err(err).Msg("gdata unavailable, keeping statistics in memory")
			backend = kv.NewMemory()
		} else {
			backend = g
		}
	case config.BackendMemory:
		backend = kv.NewMemory()
	default:
		backend = kv.NewSQLite(conn)
	}

	srv := httpserver.New(httpserver.Options{
		Config:   cfg,
		Sessions: store.NewMemoryStore(),
		Backend:  backend,
		Rounds:   rounds.NewStore(conn),
		Metrics:  metrics.New(),
	})

	log.Info().
		Str("port", cfg.Port).
		Str("stats_backend", cfg.StatsBackend).
		Int("max_tries", cfg.MaxTries).
		Msg("starting numguess")
	if err := srv.Start(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func setupLogging(cfg *config.Config) {
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	} else {
		log.Warn().Str("level", cfg.LogLevel).Msg("unknown LOG_LEVEL, keeping default")
	}
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}
