package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Tomlord1122/task-backend/internal/domain"
	"github.com/Tomlord1122/task-backend/internal/importer"
	"github.com/Tomlord1122/task-backend/internal/repository"
)

var (
	// ErrValidation marks input the caller must fix (HTTP 400).
	ErrValidation = errors.New("validation failed")
	// ErrTaskNotFound is returned when the referenced id does not exist (HTTP 404).
	ErrTaskNotFound = errors.New("task not found")
)

// CreateTaskRequest holds the data needed to create a task. Both fields are required.
type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (r CreateTaskRequest) Validate() error {
	var missing []string
	if r.Title == "" {
		missing = append(missing, "title")
	}
	if r.Description == "" {
		missing = append(missing, "description")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s required", ErrValidation, strings.Join(missing, " and "))
	}
	return nil
}

// UpdateTaskRequest holds the fields of a partial update. A nil or empty
// field leaves the stored value unchanged.
type UpdateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// TaskResponse is the representation of a Task returned to clients.
type TaskResponse struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	CompletedAt *string `json:"completed_at"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

func toResponse(t domain.Task) TaskResponse {
	resp := TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:   t.UpdatedAt.Format(time.RFC3339Nano),
	}
	if t.CompletedAt != nil {
		completed := t.CompletedAt.Format(time.RFC3339Nano)
		resp.CompletedAt = &completed
	}
	return resp
}

// TaskService defines the operations for managing tasks.
type TaskService interface {
	CreateTask(ctx context.Context, req CreateTaskRequest) (*TaskResponse, error)

	// ListTasks returns every task whose title or description contains
	// search (case-sensitive). An empty search returns the full collection.
	ListTasks(ctx context.Context, search string) ([]TaskResponse, error)

	GetTask(ctx context.Context, id string) (*TaskResponse, error)
	UpdateTask(ctx context.Context, id string, req UpdateTaskRequest) (*TaskResponse, error)
	DeleteTask(ctx context.Context, id string) error

	// ToggleComplete flips completed_at between now and null.
	ToggleComplete(ctx context.Context, id string) (*TaskResponse, error)

	// Import appends one task per row of r and persists them in one write.
	Import(ctx context.Context, r io.Reader) (int, error)
}

type Option func(*taskService)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *taskService) { s.now = now }
}

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *taskService) { s.newID = newID }
}

type taskService struct {
	repo  repository.TaskRepository
	now   func() time.Time
	newID func() string
}

// NewTaskService creates a TaskService on top of repo.
func NewTaskService(repo repository.TaskRepository, opts ...Option) TaskService {
	s := &taskService{
		repo:  repo,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *taskService) timestamp() time.Time {
	return s.now().UTC()
}

// touch refreshes UpdatedAt without ever moving it backwards.
func (s *taskService) touch(t *domain.Task, now time.Time) {
	if now.Before(t.UpdatedAt) {
		now = t.UpdatedAt
	}
	t.UpdatedAt = now
}

func (s *taskService) newTask(title, description string, now time.Time) domain.Task {
	return domain.Task{
		ID:          s.newID(),
		Title:       title,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (s *taskService) CreateTask(ctx context.Context, req CreateTaskRequest) (*TaskResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	task := s.newTask(req.Title, req.Description, s.timestamp())
	err := s.repo.Update(ctx, func(tasks []domain.Task) ([]domain.Task, error) {
		return append(tasks, task), nil
	})
	if err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}

	resp := toResponse(task)
	return &resp, nil
}

func (s *taskService) ListTasks(ctx context.Context, search string) ([]TaskResponse, error) {
	tasks, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}

	responses := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		if search != "" && !strings.Contains(t.Title, search) && !strings.Contains(t.Description, search) {
			continue
		}
		responses = append(responses, toResponse(t))
	}
	return responses, nil
}

func (s *taskService) GetTask(ctx context.Context, id string) (*TaskResponse, error) {
	tasks, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting task %s: %w", id, err)
	}
	i := domain.IndexOf(tasks, id)
	if i == -1 {
		return nil, fmt.Errorf("task %s: %w", id, ErrTaskNotFound)
	}
	resp := toResponse(tasks[i])
	return &resp, nil
}

// mutate applies fn to the task with the given id inside one store update.
func (s *taskService) mutate(ctx context.Context, id string, fn func(t *domain.Task, now time.Time)) (*TaskResponse, error) {
	var updated domain.Task
	err := s.repo.Update(ctx, func(tasks []domain.Task) ([]domain.Task, error) {
		i := domain.IndexOf(tasks, id)
		if i == -1 {
			return nil, fmt.Errorf("task %s: %w", id, ErrTaskNotFound)
		}
		now := s.timestamp()
		fn(&tasks[i], now)
		s.touch(&tasks[i], now)
		updated = tasks[i]
		return tasks, nil
	})
	if err != nil {
		return nil, err
	}
	resp := toResponse(updated)
	return &resp, nil
}

func (s *taskService) UpdateTask(ctx context.Context, id string, req UpdateTaskRequest) (*TaskResponse, error) {
	resp, err := s.mutate(ctx, id, func(t *domain.Task, _ time.Time) {
		if req.Title != nil && *req.Title != "" {
			t.Title = *req.Title
		}
		if req.Description != nil && *req.Description != "" {
			t.Description = *req.Description
		}
	})
	if err != nil {
		return nil, fmt.Errorf("updating task: %w", err)
	}
	return resp, nil
}

func (s *taskService) ToggleComplete(ctx context.Context, id string) (*TaskResponse, error) {
	resp, err := s.mutate(ctx, id, func(t *domain.Task, now time.Time) {
		if t.IsCompleted() {
			t.CompletedAt = nil
			return
		}
		completed := now
		t.CompletedAt = &completed
	})
	if err != nil {
		return nil, fmt.Errorf("toggling task: %w", err)
	}
	return resp, nil
}

func (s *taskService) DeleteTask(ctx context.Context, id string) error {
	err := s.repo.Update(ctx, func(tasks []domain.Task) ([]domain.Task, error) {
		i := domain.IndexOf(tasks, id)
		if i == -1 {
			return nil, fmt.Errorf("task %s: %w", id, ErrTaskNotFound)
		}
		return append(tasks[:i], tasks[i+1:]...), nil
	})
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	return nil
}

func (s *taskService) Import(ctx context.Context, r io.Reader) (int, error) {
	rows, err := importer.ParseRows(r)
	if err != nil {
		return 0, fmt.Errorf("importing tasks: %w", err)
	}

	err = s.repo.Update(ctx, func(tasks []domain.Task) ([]domain.Task, error) {
		for _, row := range rows {
			tasks = append(tasks, s.newTask(row.Title, row.Description, s.timestamp()))
		}
		return tasks, nil
	})
	if err != nil {
		return 0, fmt.Errorf("importing tasks: %w", err)
	}
	return len(rows), nil
}
