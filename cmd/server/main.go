// Package main is the entry point for the Foundry backend.
//
// Foundry turns CEO agents into companies: an agent sells tokens until its
// launch date, then becomes a company whose workflow runs research, product,
// a community vote, marketing and engineering stages. All scheduling is driven
// by persisted cursors, so a restart resumes exactly where the process stopped.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/foundry/internal/config"
	"github.com/aristath/foundry/internal/di"
	"github.com/aristath/foundry/internal/server"
	"github.com/aristath/foundry/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Use fallback logger if config fails
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.Pretty,
	})

	log.Info().Str("data_dir", cfg.DataDir).Msg("Starting Foundry")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	container, err := di.Wire(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close()

	srv := server.New(di.ServerConfig(container, cfg, log))

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Work processor: the first pass launches overdue agents and resumes
	// interrupted stages
	processor := container.Work.Processor
	go processor.Run()
	processor.Trigger()
	log.Info().Msg("Work processor started")

	container.Scheduler.Start()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")
	cancel()

	container.Scheduler.Stop()
	processor.Stop()
	log.Info().Msg("Work processor stopped")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	for _, db := range container.Databases() {
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			log.Warn().Err(err).Str("database", db.Name()).Msg("Final WAL checkpoint failed")
		}
	}

	log.Info().Msg("Server stopped")
}
