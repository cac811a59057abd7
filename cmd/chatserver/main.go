package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/server-craftsman/restApi-social-media-conversation/internal/app"
	"github.com/server-craftsman/restApi-social-media-conversation/internal/config"
	"github.com/server-craftsman/restApi-social-media-conversation/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Error().Err(err).Msg("failed to load configuration")
		os.Exit(1)
	}
	logging.Init(cfg.Log)

	application, err := app.New(cfg)
	if err != nil {
		logging.Error().Err(err).Msg("failed to initialize application")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := application.Start(ctx); err != nil {
		logging.Error().Err(err).Msg("failed to start application")
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh
	logging.Info().Str("signal", sig.String()).Msg("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := application.Stop(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("shutdown error")
		os.Exit(1)
	}
}
