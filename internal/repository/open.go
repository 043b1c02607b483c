package repository

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Tomlord1122/task-backend/internal/config"
	"github.com/Tomlord1122/task-backend/internal/database"
)

// Open builds the repository selected by cfg.Store.Driver.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (TaskRepository, error) {
	switch cfg.Store.Driver {
	case config.DriverFile:
		return NewFileTaskRepository(cfg.Store.Path), nil
	case config.DriverSQLite:
		return NewSQLiteTaskRepository(ctx, cfg.SQLite.Path)
	case config.DriverPostgres:
		svc, err := database.New(ctx, cfg.Database.DSN(), log)
		if err != nil {
			return nil, err
		}
		repo, err := NewPostgresTaskRepository(ctx, svc)
		if err != nil {
			svc.Close()
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
