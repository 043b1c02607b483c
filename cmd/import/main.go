// Command import appends the rows of a comma separated file to the task store.
//
//	import <file>
//
// Each line becomes one task: text before the first comma is the title, the
// rest is the description.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/Tomlord1122/task-backend/internal/config"
	"github.com/Tomlord1122/task-backend/internal/logger"
	"github.com/Tomlord1122/task-backend/internal/repository"
	"github.com/Tomlord1122/task-backend/internal/service"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <file>\n", os.Args[0])
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.Init("info", false)
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.Init(cfg.Log.Level, cfg.Log.Pretty)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	count, err := run(ctx, cfg, log, os.Args[1])
	if err != nil {
		log.Error().Err(err).Str("file", os.Args[1]).Msg("Import failed")
		os.Exit(1)
	}
	log.Info().Int("imported", count).Str("file", os.Args[1]).Str("driver", cfg.Store.Driver).Msg("Import complete")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	store, err := repository.Open(ctx, cfg, log)
	if err != nil {
		return 0, fmt.Errorf("opening task store: %w", err)
	}
	defer store.Close()

	return service.NewTaskService(store).Import(ctx, f)
}
