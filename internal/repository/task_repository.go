package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Tomlord1122/task-backend/internal/domain"
)

// ErrCorruptStore is returned when the persisted collection cannot be decoded.
var ErrCorruptStore = errors.New("task store is corrupt")

// MutateFunc receives the current collection and returns the one to persist.
// Returning an error aborts the write.
type MutateFunc func(tasks []domain.Task) ([]domain.Task, error)

// TaskRepository persists the whole task collection as one serialized value.
type TaskRepository interface {
	// Load returns the full collection, initialising empty storage if needed.
	Load(ctx context.Context) ([]domain.Task, error)

	// Save overwrites the stored collection.
	Save(ctx context.Context, tasks []domain.Task) error

	// Update runs a load-mutate-save cycle that no other Update can interleave with.
	Update(ctx context.Context, fn MutateFunc) error

	Health(ctx context.Context) map[string]string
	Close() error
}

func decodeTasks(data []byte) ([]domain.Task, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []domain.Task{}, nil
	}

	var tasks []domain.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
	}
	if tasks == nil {
		return []domain.Task{}, nil
	}

	seen := make(map[string]struct{}, len(tasks))
	for _, t := range tasks {
		if _, dup := seen[t.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate task id %q", ErrCorruptStore, t.ID)
		}
		seen[t.ID] = struct{}{}
	}
	return tasks, nil
}

func encodeTasks(tasks []domain.Task, indent bool) ([]byte, error) {
	if tasks == nil {
		tasks = []domain.Task{}
	}
	if indent {
		return json.MarshalIndent(tasks, "", "  ")
	}
	return json.Marshal(tasks)
}
