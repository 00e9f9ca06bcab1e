// Package main is the entry point for the Greenfolio ESG analysis service.
// It scores sustainability projects, reports their risk and builds
// ESG-weighted portfolio allocations over HTTP.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/greenfolio/internal/config"
	"github.com/aristath/greenfolio/internal/di"
	"github.com/aristath/greenfolio/internal/scheduler"
	"github.com/aristath/greenfolio/internal/server"
	"github.com/aristath/greenfolio/pkg/logger"
)

// main wires the service and runs it until SIGINT or SIGTERM:
// 1. Loads configuration from the environment (.env supported)
// 2. Wires databases, benchmark source, services and background jobs
// 3. Starts the scheduler and the HTTP server
// 4. Shuts both down gracefully on signal
func main() {
	cfg, err := config.Load()
	if err != nil {
		// Config failed, so the configured level is unknown
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})

	log.Info().Str("data_dir", cfg.DataDir).Msg("Starting Greenfolio")

	sched := scheduler.New(log)

	container, jobs, err := di.Wire(cfg, log, sched)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer func() {
		if err := container.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close databases")
		}
	}()

	srv := server.New(server.Config{
		Log:       log,
		Port:      cfg.Port,
		DevMode:   cfg.DevMode,
		Container: container,
		Jobs:      jobs,
		Scheduler: sched,
	})

	sched.Start()

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start HTTP server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Greenfolio started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Running jobs finish before the databases close
	sched.Stop()
	log.Info().Msg("Scheduler stopped")

	// In-flight requests get 10 seconds
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
