package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/example/task-marketplace/domain/task"
	"gorm.io/gorm"
)

// GormRepository stores tasks through GORM (SQLite by default).
type GormRepository struct {
	db *gorm.DB
}

var _ TaskRepository = (*GormRepository)(nil)

// NewGormRepository creates a new GORM-backed task repository.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// Create saves a new task.
func (r *GormRepository) Create(ctx context.Context, t *domain.Task) error {
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("%w: failed to create task: %w", domain.ErrStorage, err)
	}
	return nil
}

// FindByID retrieves a task by its ID.
func (r *GormRepository) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	var t domain.Task
	if err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("%w: failed to find task: %w", domain.ErrStorage, err)
	}
	return &t, nil
}

// Search returns the requested page of tasks matching filter.
func (r *GormRepository) Search(ctx context.Context, filter domain.Filter, page domain.PageRequest) ([]*domain.Task, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&domain.Task{}).
		Scopes(filterScope(filter)).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("%w: failed to count tasks: %w", domain.ErrStorage, err)
	}

	tasks := make([]*domain.Task, 0, page.Limit)
	if err := r.db.WithContext(ctx).
		Scopes(filterScope(filter)).
		Order("created_at DESC").
		Order("id DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&tasks).Error; err != nil {
		return nil, 0, fmt.Errorf("%w: failed to search tasks: %w", domain.ErrStorage, err)
	}
	return tasks, total, nil
}

// Update applies the set fields of patch while the task is still in status from.
func (r *GormRepository) Update(ctx context.Context, id string, from domain.Status, patch domain.Patch, at time.Time) error {
	cols := patchColumns(patch)
	if len(cols) == 0 {
		return domain.ErrEmptyPatch
	}
	cols["updated_at"] = at.UTC()
	return r.updateColumns(ctx, id, cols, "status = ?", string(from))
}

// Cancel marks a live task as cancelled.
func (r *GormRepository) Cancel(ctx context.Context, id string, at time.Time) error {
	return r.updateColumns(ctx, id, map[string]any{
		"status":     string(domain.StatusCancelled),
		"updated_at": at.UTC(),
	}, "status NOT IN ?", terminalStatuses)
}

func (r *GormRepository) updateColumns(ctx context.Context, id string, cols map[string]any, guard string, guardArgs ...any) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Task{}).
		Where("id = ?", id).
		Where(guard, guardArgs...).
		Updates(cols)
	if err := result.Error; err != nil {
		return fmt.Errorf("%w: failed to update task: %w", domain.ErrStorage, err)
	}
	if result.RowsAffected == 0 {
		return r.missingOrConflict(ctx, id)
	}
	return nil
}

// missingOrConflict explains an update that matched no row.
func (r *GormRepository) missingOrConflict(ctx context.Context, id string) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Task{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("%w: failed to check task: %w", domain.ErrStorage, err)
	}
	if count == 0 {
		return domain.ErrTaskNotFound
	}
	return domain.ErrTaskConflict
}

// Stats aggregates tasks per status.
func (r *GormRepository) Stats(ctx context.Context) (*domain.Stats, error) {
	var rows []statusCount
	if err := r.db.WithContext(ctx).
		Model(&domain.Task{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(platform_fee_pesewas), 0) AS fees").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to aggregate tasks: %w", domain.ErrStorage, err)
	}
	return newStats(rows), nil
}

// Ping verifies the database connection.
func (r *GormRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (r *GormRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func filterScope(f domain.Filter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.Query != nil {
			pattern := likePattern(*f.Query)
			db = db.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`, pattern, pattern)
		}
		if f.CategoryID != nil {
			db = db.Where("category_id = ?", *f.CategoryID)
		}
		if f.Status != nil {
			db = db.Where("status = ?", string(*f.Status))
		}
		if f.ClientID != nil {
			db = db.Where("client_id = ?", *f.ClientID)
		}
		if f.TaskerID != nil {
			db = db.Where("tasker_id = ?", *f.TaskerID)
		}
		if f.MinPrice != nil {
			db = db.Where("price_pesewas >= ?", int64(*f.MinPrice))
		}
		if f.MaxPrice != nil {
			db = db.Where("price_pesewas <= ?", int64(*f.MaxPrice))
		}
		if f.Location != nil {
			db = db.Where(`LOWER(location) LIKE ? ESCAPE '\'`, likePattern(*f.Location))
		}
		if f.Priority != nil {
			db = db.Where("priority = ?", string(*f.Priority))
		}
		if f.IsUrgent != nil {
			db = db.Where("is_urgent = ?", *f.IsUrgent)
		}
		return db
	}
}
