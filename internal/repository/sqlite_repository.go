package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/Tomlord1122/task-backend/internal/domain"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS task_snapshots (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	tasks      TEXT NOT NULL DEFAULT '[]',
	updated_at TEXT NOT NULL
);`

type snapshotRow struct {
	Tasks     string `db:"tasks"`
	UpdatedAt string `db:"updated_at"`
}

// sqliteTaskRepository stores the serialized collection in the single row
// of task_snapshots. One connection is kept open so ":memory:" databases
// survive between calls.
type sqliteTaskRepository struct {
	db   *sqlx.DB
	path string
	mu   sync.Mutex
}

// NewSQLiteTaskRepository opens (or creates) the SQLite database at path.
func NewSQLiteTaskRepository(ctx context.Context, path string) (TaskRepository, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating task_snapshots: %w", err)
	}
	if _, err := db.ExecContext(ctx,
		"INSERT OR IGNORE INTO task_snapshots (id, tasks, updated_at) VALUES (1, '[]', ?)",
		time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("seeding task_snapshots: %w", err)
	}

	return &sqliteTaskRepository{db: db, path: path}, nil
}

func (r *sqliteTaskRepository) Load(ctx context.Context) ([]domain.Task, error) {
	var row snapshotRow
	if err := r.db.GetContext(ctx, &row, "SELECT tasks, updated_at FROM task_snapshots WHERE id = 1"); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []domain.Task{}, nil
		}
		return nil, fmt.Errorf("reading task snapshot: %w", err)
	}
	return decodeTasks([]byte(row.Tasks))
}

func (r *sqliteTaskRepository) Save(ctx context.Context, tasks []domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.write(ctx, r.db, tasks)
}

func (r *sqliteTaskRepository) Update(ctx context.Context, fn MutateFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var row snapshotRow
	if err := tx.GetContext(ctx, &row, "SELECT tasks, updated_at FROM task_snapshots WHERE id = 1"); err != nil {
		return fmt.Errorf("reading task snapshot: %w", err)
	}
	tasks, err := decodeTasks([]byte(row.Tasks))
	if err != nil {
		return err
	}

	updated, err := fn(tasks)
	if err != nil {
		return err
	}
	if err := r.write(ctx, tx, updated); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing task snapshot: %w", err)
	}
	return nil
}

func (r *sqliteTaskRepository) write(ctx context.Context, ex sqlx.ExecerContext, tasks []domain.Task) error {
	data, err := encodeTasks(tasks, false)
	if err != nil {
		return fmt.Errorf("encoding tasks: %w", err)
	}
	_, err = ex.ExecContext(ctx,
		"INSERT INTO task_snapshots (id, tasks, updated_at) VALUES (1, ?, ?) "+
			"ON CONFLICT(id) DO UPDATE SET tasks = excluded.tasks, updated_at = excluded.updated_at",
		string(data), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("writing task snapshot: %w", err)
	}
	return nil
}

func (r *sqliteTaskRepository) Health(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	stats := map[string]string{"driver": "sqlite", "path": r.path}
	if err := r.db.PingContext(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("sqlite down: %v", err)
		return stats
	}

	var row snapshotRow
	if err := r.db.GetContext(ctx, &row, "SELECT tasks, updated_at FROM task_snapshots WHERE id = 1"); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("reading task snapshot: %v", err)
		return stats
	}

	dbStats := r.db.Stats()
	stats["status"] = "up"
	stats["message"] = "It's healthy"
	stats["snapshot_updated_at"] = row.UpdatedAt
	stats["open_connections"] = strconv.Itoa(dbStats.OpenConnections)
	stats["in_use"] = strconv.Itoa(dbStats.InUse)
	return stats
}

func (r *sqliteTaskRepository) Close() error {
	return r.db.Close()
}
