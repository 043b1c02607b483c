package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/Tomlord1122/task-backend/internal/domain"
)

// fileTaskRepository keeps the collection as an indented JSON array in a
// single file. Writes go to a temp file that is renamed over the target.
type fileTaskRepository struct {
	path string
	mu   sync.Mutex
}

// NewFileTaskRepository creates a repository backed by the JSON file at path.
// The file is created lazily on first load.
func NewFileTaskRepository(path string) TaskRepository {
	return &fileTaskRepository{path: path}
}

func (r *fileTaskRepository) Load(ctx context.Context) ([]domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}

func (r *fileTaskRepository) Save(ctx context.Context, tasks []domain.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.write(tasks)
}

func (r *fileTaskRepository) Update(ctx context.Context, fn MutateFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	tasks, err := r.load()
	if err != nil {
		return err
	}
	updated, err := fn(tasks)
	if err != nil {
		return err
	}
	return r.write(updated)
}

func (r *fileTaskRepository) load() ([]domain.Task, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := r.write(nil); err != nil {
			return nil, err
		}
		return []domain.Task{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", r.path, err)
	}

	tasks, err := decodeTasks(data)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", r.path, err)
	}
	return tasks, nil
}

func (r *fileTaskRepository) write(tasks []domain.Task) error {
	data, err := encodeTasks(tasks, true)
	if err != nil {
		return fmt.Errorf("encoding tasks: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("replacing %s: %w", r.path, err)
	}
	return nil
}

func (r *fileTaskRepository) Health(ctx context.Context) map[string]string {
	stats := map[string]string{"driver": "file", "path": r.path}

	info, err := os.Stat(r.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		stats["status"] = "up"
		stats["message"] = "Store file will be created on first use"
		return stats
	case err != nil:
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("stat store file: %v", err)
		return stats
	}

	if _, err := r.Load(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = err.Error()
		return stats
	}

	stats["status"] = "up"
	stats["message"] = "It's healthy"
	stats["size_bytes"] = strconv.FormatInt(info.Size(), 10)
	stats["modified_at"] = info.ModTime().UTC().Format(time.RFC3339)
	return stats
}

func (r *fileTaskRepository) Close() error {
	return nil
}
