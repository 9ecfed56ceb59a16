package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"mcapx/internal/config"
	"mcapx/internal/extract"
)

func main() {
	cfg := config.Load()
	log := newLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(cfg, log).ExecuteContext(ctx); err != nil {
		if errors.Is(err, extract.ErrInterrupted) {
			log.Warn().Msg("stopped by user")
			os.Exit(130)
		}
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(lvl).
		With().Timestamp().Logger()
}
