package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tomlord1122/task-backend/internal/config"
	"github.com/Tomlord1122/task-backend/internal/repository"
)

func TestRun(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "tasks.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("Buy milk,2 liters\nNo description\n"), 0o644))

	cfg := &config.Config{Store: config.StoreConfig{Driver: config.DriverFile, Path: filepath.Join(dir, "database.json")}}

	count, err := run(context.Background(), cfg, zerolog.Nop(), csvPath)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = run(context.Background(), cfg, zerolog.Nop(), csvPath)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	tasks, err := repository.NewFileTaskRepository(cfg.Store.Path).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 4)
	assert.Equal(t, "No description", tasks[1].Title)
	assert.Equal(t, "", tasks[1].Description)
	assert.NotEqual(t, tasks[0].ID, tasks[2].ID)
}

func TestRunMissingFile(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Driver: config.DriverFile, Path: filepath.Join(t.TempDir(), "database.json")}}

	_, err := run(context.Background(), cfg, zerolog.Nop(), filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
