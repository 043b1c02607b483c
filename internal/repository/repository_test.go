package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tomlord1122/task-backend/internal/config"
	"github.com/Tomlord1122/task-backend/internal/domain"
)

func sampleTask(id, title string) domain.Task {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return domain.Task{
		ID:          id,
		Title:       title,
		Description: title + " description",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// testRepositoryContract exercises the behaviour every backend shares.
func testRepositoryContract(t *testing.T, repo TaskRepository) {
	ctx := context.Background()

	t.Run("empty on first load", func(t *testing.T) {
		tasks, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, tasks)
		assert.NotNil(t, tasks)
	})

	t.Run("save then load keeps order", func(t *testing.T) {
		done := time.Date(2024, 5, 2, 8, 30, 0, 0, time.UTC)
		second := sampleTask("b", "Walk dog")
		second.CompletedAt = &done

		require.NoError(t, repo.Save(ctx, []domain.Task{sampleTask("a", "Buy milk"), second}))

		tasks, err := repo.Load(ctx)
		require.NoError(t, err)
		require.Len(t, tasks, 2)
		assert.Equal(t, "a", tasks[0].ID)
		assert.Equal(t, "b", tasks[1].ID)
		assert.Nil(t, tasks[0].CompletedAt)
		require.NotNil(t, tasks[1].CompletedAt)
		assert.True(t, done.Equal(*tasks[1].CompletedAt))
	})

	t.Run("update error leaves store untouched", func(t *testing.T) {
		boom := errors.New("boom")
		err := repo.Update(ctx, func(tasks []domain.Task) ([]domain.Task, error) {
			return nil, boom
		})
		assert.ErrorIs(t, err, boom)

		tasks, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Len(t, tasks, 2)
	})

	t.Run("concurrent updates are not lost", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, nil))

		const writers = 20
		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				err := repo.Update(ctx, func(tasks []domain.Task) ([]domain.Task, error) {
					return append(tasks, sampleTask(fmt.Sprintf("id-%d", i), "t")), nil
				})
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		tasks, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Len(t, tasks, writers)
	})

	t.Run("health", func(t *testing.T) {
		stats := repo.Health(ctx)
		assert.Equal(t, "up", stats["status"])
	})
}

func TestFileTaskRepository(t *testing.T) {
	repo := NewFileTaskRepository(filepath.Join(t.TempDir(), "data", "database.json"))
	t.Cleanup(func() { repo.Close() })
	testRepositoryContract(t, repo)
}

func TestFileTaskRepositoryCreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "database.json")
	repo := NewFileTaskRepository(path)

	tasks, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tasks)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestFileTaskRepositoryEmptyAndNull(t *testing.T) {
	for _, content := range []string{"", "  \n", "null"} {
		path := filepath.Join(t.TempDir(), "database.json")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		tasks, err := NewFileTaskRepository(path).Load(context.Background())
		require.NoError(t, err, "content %q", content)
		assert.Empty(t, tasks)
	}
}

func TestFileTaskRepositoryCorrupt(t *testing.T) {
	tests := map[string]string{
		"not json":     "{oops",
		"object":       `{"id":"a"}`,
		"duplicate id": `[{"id":"a","title":"x"},{"id":"a","title":"y"}]`,
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "database.json")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
			repo := NewFileTaskRepository(path)

			_, err := repo.Load(context.Background())
			assert.ErrorIs(t, err, ErrCorruptStore)

			err = repo.Update(context.Background(), func(tasks []domain.Task) ([]domain.Task, error) {
				t.Fatal("mutation must not run on a corrupt store")
				return tasks, nil
			})
			assert.ErrorIs(t, err, ErrCorruptStore)

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, content, string(data))
			assert.Equal(t, "down", repo.Health(context.Background())["status"])
		})
	}
}

func TestFileTaskRepositoryWritesIndentedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "database.json")
	repo := NewFileTaskRepository(path)
	require.NoError(t, repo.Save(context.Background(), []domain.Task{sampleTask("a", "Buy milk")}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  {\n    \"id\": \"a\"")
	assert.Contains(t, string(data), `"completed_at": null`)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileTaskRepositoryCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repo := NewFileTaskRepository(filepath.Join(t.TempDir(), "database.json"))
	_, err := repo.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSQLiteTaskRepository(t *testing.T) {
	repo, err := NewSQLiteTaskRepository(context.Background(), filepath.Join(t.TempDir(), "tasks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	testRepositoryContract(t, repo)
}

func TestSQLiteTaskRepositoryInMemory(t *testing.T) {
	repo, err := NewSQLiteTaskRepository(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	ctx := context.Background()
	require.NoError(t, repo.Update(ctx, func(tasks []domain.Task) ([]domain.Task, error) {
		return append(tasks, sampleTask("a", "Buy milk")), nil
	}))

	tasks, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Buy milk", tasks[0].Title)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	t.Run("file", func(t *testing.T) {
		cfg := &config.Config{Store: config.StoreConfig{Driver: config.DriverFile, Path: filepath.Join(dir, "db.json")}}
		repo, err := Open(context.Background(), cfg, zerolog.Nop())
		require.NoError(t, err)
		assert.Equal(t, "file", repo.Health(context.Background())["driver"])
	})

	t.Run("sqlite", func(t *testing.T) {
		cfg := &config.Config{
			Store:  config.StoreConfig{Driver: config.DriverSQLite},
			SQLite: config.SQLiteConfig{Path: filepath.Join(dir, "tasks.db")},
		}
		repo, err := Open(context.Background(), cfg, zerolog.Nop())
		require.NoError(t, err)
		t.Cleanup(func() { repo.Close() })
		assert.Equal(t, "sqlite", repo.Health(context.Background())["driver"])
	})

	t.Run("unknown", func(t *testing.T) {
		cfg := &config.Config{Store: config.StoreConfig{Driver: "mongo"}}
		_, err := Open(context.Background(), cfg, zerolog.Nop())
		assert.Error(t, err)
	})
}
