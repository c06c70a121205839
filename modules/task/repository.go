package task

import (
	"context"
	"strings"
	"time"

	domain "github.com/example/task-marketplace/domain/task"
)

// TaskRepository persists tasks. Implementations return
// domain.ErrTaskNotFound for missing rows and wrap every other failure
// with domain.ErrStorage.
type TaskRepository interface {
	Create(ctx context.Context, t *domain.Task) error
	FindByID(ctx context.Context, id string) (*domain.Task, error)
	// Search returns one page ordered newest first plus the total match count.
	Search(ctx context.Context, filter domain.Filter, page domain.PageRequest) ([]*domain.Task, int64, error)
	// Update writes only the fields set in patch and stamps updated_at. The
	// write applies only while the task is still in status from; otherwise
	// it returns domain.ErrTaskConflict.
	Update(ctx context.Context, id string, from domain.Status, patch domain.Patch, at time.Time) error
	// Cancel applies only to a task that is neither completed nor cancelled;
	// otherwise it returns domain.ErrTaskConflict.
	Cancel(ctx context.Context, id string, at time.Time) error
	// Stats aggregates task counts per status and the fee revenue of
	// completed tasks.
	Stats(ctx context.Context) (*domain.Stats, error)
	Ping(ctx context.Context) error
	Close() error
}

// patchColumns maps the set fields of a patch to column values.
func patchColumns(p domain.Patch) map[string]any {
	cols := make(map[string]any)
	if p.Title != nil {
		cols["title"] = *p.Title
	}
	if p.Description != nil {
		cols["description"] = *p.Description
	}
	if p.CategoryID != nil {
		cols["category_id"] = *p.CategoryID
	}
	if p.AddressID != nil {
		cols["address_id"] = *p.AddressID
	}
	if p.ScheduledAt != nil {
		cols["scheduled_at"] = p.ScheduledAt.UTC()
	}
	if p.DurationEstMins != nil {
		cols["duration_est_mins"] = *p.DurationEstMins
	}
	if p.Price != nil {
		cols["price_pesewas"] = int64(*p.Price)
	}
	if p.PlatformFee != nil {
		cols["platform_fee_pesewas"] = int64(*p.PlatformFee)
	}
	if p.Priority != nil {
		cols["priority"] = string(*p.Priority)
	}
	if p.IsUrgent != nil {
		cols["is_urgent"] = *p.IsUrgent
	}
	if p.Status != nil {
		cols["status"] = string(*p.Status)
	}
	if p.TaskerID != nil {
		cols["tasker_id"] = *p.TaskerID
	}
	if p.Location != nil {
		cols["location"] = *p.Location
	}
	if p.CompletionNotes != nil {
		cols["completion_notes"] = *p.CompletionNotes
	}
	return cols
}

// terminalStatuses are the values a cancel may not overwrite.
var terminalStatuses = []string{string(domain.StatusCompleted), string(domain.StatusCancelled)}

// statusCount is one row of the per-status aggregate.
type statusCount struct {
	Status string
	Count  int64
	Fees   int64
}

// newStats folds per-status rows into domain.Stats.
func newStats(rows []statusCount) *domain.Stats {
	stats := &domain.Stats{ByStatus: make(map[domain.Status]int64, len(rows))}
	for _, row := range rows {
		status := domain.Status(row.Status)
		stats.ByStatus[status] = row.Count
		stats.TotalTasks += row.Count
		if status == domain.StatusCompleted {
			stats.Revenue = domain.Money(row.Fees)
		}
	}
	return stats
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds a lower-cased substring pattern for LIKE ... ESCAPE '\'.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}
