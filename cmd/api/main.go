package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Tomlord1122/task-backend/internal/config"
	"github.com/Tomlord1122/task-backend/internal/logger"
	"github.com/Tomlord1122/task-backend/internal/repository"
	"github.com/Tomlord1122/task-backend/internal/server"
	"github.com/Tomlord1122/task-backend/internal/service"
)

func gracefulShutdown(apiServer *http.Server, store repository.TaskRepository, log zerolog.Logger, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Info().Msg("Shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// The server has 5 seconds to finish the requests it is currently handling
	ctxTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctxTimeout); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	if err := store.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing task store")
	} else {
		log.Info().Msg("Task store closed")
	}

	log.Info().Msg("Server exiting")
	done <- true
}

// setup opens the task store selected by TASKS_STORE_DRIVER and wires the
// service and HTTP server on top of it.
func setup(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*http.Server, repository.TaskRepository, error) {
	store, err := repository.Open(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}

	taskService := service.NewTaskService(store)
	return server.NewServer(cfg, taskService, store, log), store, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.Init("info", false)
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.Init(cfg.Log.Level, cfg.Log.Pretty)

	apiServer, store, err := setup(context.Background(), cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("Failed to open task store")
	}
	log.Info().Str("driver", cfg.Store.Driver).Msg("Task store ready")

	done := make(chan bool, 1)
	go gracefulShutdown(apiServer, store, log, done)

	log.Info().Str("addr", apiServer.Addr).Msg("Starting server")
	err = apiServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("HTTP server ListenAndServe error")
		store.Close()
		os.Exit(1)
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Info().Msg("Graceful shutdown complete.")
}
