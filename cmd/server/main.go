// Package main is the entry point for the rebalancer server.
//
// The server serves DeFi strategy yields and rebalance suggestions over HTTP
// and refreshes yields on a cron schedule in the background.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/menabung/rebalancer/internal/config"
	"github.com/menabung/rebalancer/internal/di"
	"github.com/menabung/rebalancer/internal/server"
	"github.com/menabung/rebalancer/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log := logger.New(logger.Config{Level: "info", Pretty: true})
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Str("yield_mode", string(cfg.YieldMode)).
		Str("store_backend", cfg.StoreBackend).
		Msg("Starting rebalancer")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	container, jobs, err := di.Wire(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}

	srv := server.New(server.Config{
		Log:       log,
		Config:    cfg,
		Container: container,
	})

	container.Scheduler.Start()

	// Warm the cache and seed the previous-yields baseline before serving.
	if err := container.Scheduler.RunNow(jobs.YieldRefresh); err != nil {
		log.Warn().Err(err).Msg("Initial yield refresh failed")
	}

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	cancel()
	container.Scheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	if err := container.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close storage")
	}

	log.Info().Msg("Server stopped")
}
