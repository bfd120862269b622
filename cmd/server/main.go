// cmd/server/main.go
//
// Entry point for the Memory Match backend.
// Responsibilities:
//   - Load config (.env + environment) and set up zerolog.
//   - Open and migrate SQLite, build the account and score stores.
//   - Serve the HTTP API and sweep idle hosted games.
//   - Shut down gracefully on SIGINT/SIGTERM.

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memorymatch/internal/accounts"
	"github.com/robalobadob/memorymatch/internal/config"
	"github.com/robalobadob/memorymatch/internal/httpserver"
	"github.com/robalobadob/memorymatch/internal/scores"
	"github.com/robalobadob/memorymatch/internal/storage"
	"github.com/robalobadob/memorymatch/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	setupLogging(cfg.Logging)

	db, err := storage.OpenAndMigrate(cfg.Server.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("db", cfg.Server.DBPath).Msg("open database")
	}
	defer db.Close()

	clock := clockwork.NewRealClock()
	games := store.NewMemoryStore(clock)
	defer games.Close()

	srv := httpserver.New(cfg,
		accounts.NewStore(db, accounts.WithClock(clock)),
		scores.NewStore(db, clock),
		games,
		httpserver.WithClock(clock),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go store.RunSweeper(ctx, games, clock, time.Minute, cfg.Server.SessionTTL)

	hs := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", hs.Addr).Str("env", cfg.Server.Env).Msg("starting memorymatch server")
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server exited")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}

func setupLogging(c config.LoggingConfig) {
	if lvl, err := zerolog.ParseLevel(c.Level); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if c.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}
