package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Tomlord1122/task-backend/internal/database"
	"github.com/Tomlord1122/task-backend/internal/domain"
)

const snapshotID = 1

// TaskSnapshot is the single row holding the serialized collection.
type TaskSnapshot struct {
	ID        uint   `gorm:"primaryKey"`
	Tasks     string `gorm:"type:jsonb;not null;default:'[]'"`
	UpdatedAt time.Time
}

func (TaskSnapshot) TableName() string {
	return "task_snapshots"
}

// postgresTaskRepository implements TaskRepository on top of GORM. Updates
// lock the snapshot row, so writers in other processes are serialized too.
type postgresTaskRepository struct {
	svc database.Service
	db  *gorm.DB
}

// NewPostgresTaskRepository migrates the snapshot table and seeds its row.
func NewPostgresTaskRepository(ctx context.Context, svc database.Service) (TaskRepository, error) {
	db := svc.GetDB()
	if err := db.WithContext(ctx).AutoMigrate(&TaskSnapshot{}); err != nil {
		return nil, fmt.Errorf("migrating task_snapshots: %w", err)
	}

	r := &postgresTaskRepository{svc: svc, db: db}
	if err := r.ensureSnapshot(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *postgresTaskRepository) ensureSnapshot(ctx context.Context) error {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&TaskSnapshot{ID: snapshotID, Tasks: "[]"})
	if result.Error != nil {
		return fmt.Errorf("seeding task snapshot: %w", result.Error)
	}
	return nil
}

func (r *postgresTaskRepository) Load(ctx context.Context) ([]domain.Task, error) {
	var snap TaskSnapshot
	err := r.db.WithContext(ctx).First(&snap, snapshotID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := r.ensureSnapshot(ctx); err != nil {
			return nil, err
		}
		return []domain.Task{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading task snapshot: %w", err)
	}
	return decodeTasks([]byte(snap.Tasks))
}

func (r *postgresTaskRepository) Save(ctx context.Context, tasks []domain.Task) error {
	data, err := encodeTasks(tasks, false)
	if err != nil {
		return fmt.Errorf("encoding tasks: %w", err)
	}
	snap := TaskSnapshot{ID: snapshotID, Tasks: string(data)}
	if err := r.db.WithContext(ctx).Save(&snap).Error; err != nil {
		return fmt.Errorf("writing task snapshot: %w", err)
	}
	return nil
}

func (r *postgresTaskRepository) Update(ctx context.Context, fn MutateFunc) error {
	if err := r.ensureSnapshot(ctx); err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var snap TaskSnapshot
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&snap, snapshotID).Error; err != nil {
			return fmt.Errorf("locking task snapshot: %w", err)
		}

		tasks, err := decodeTasks([]byte(snap.Tasks))
		if err != nil {
			return err
		}
		updated, err := fn(tasks)
		if err != nil {
			return err
		}

		data, err := encodeTasks(updated, false)
		if err != nil {
			return fmt.Errorf("encoding tasks: %w", err)
		}
		if err := tx.Model(&snap).Update("tasks", string(data)).Error; err != nil {
			return fmt.Errorf("writing task snapshot: %w", err)
		}
		return nil
	})
}

func (r *postgresTaskRepository) Health(ctx context.Context) map[string]string {
	stats := r.svc.Health(ctx)
	stats["driver"] = "postgres"
	return stats
}

func (r *postgresTaskRepository) Close() error {
	return r.svc.Close()
}
