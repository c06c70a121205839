package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	domain "github.com/example/task-marketplace/domain/task"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS tasks (
		id                   TEXT PRIMARY KEY,
		title                TEXT NOT NULL,
		description          TEXT NOT NULL,
		client_id            TEXT NOT NULL,
		tasker_id            TEXT,
		category_id          TEXT NOT NULL,
		address_id           TEXT NOT NULL,
		scheduled_at         TIMESTAMPTZ NOT NULL,
		duration_est_mins    INTEGER NOT NULL,
		status               TEXT NOT NULL,
		priority             TEXT NOT NULL,
		is_urgent            BOOLEAN NOT NULL DEFAULT FALSE,
		price_pesewas        BIGINT NOT NULL,
		platform_fee_pesewas BIGINT NOT NULL,
		currency             TEXT NOT NULL,
		location             TEXT NOT NULL DEFAULT '',
		latitude             DOUBLE PRECISION,
		longitude            DOUBLE PRECISION,
		requirements         JSONB,
		images               JSONB,
		completion_notes     TEXT,
		created_at           TIMESTAMPTZ NOT NULL,
		updated_at           TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_created_at ON tasks (created_at DESC, id DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_client_id ON tasks (client_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_tasker_id ON tasks (tasker_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks (status)`,
}

const taskColumns = `id, title, description, client_id, tasker_id, category_id, address_id,
	scheduled_at, duration_est_mins, status, priority, is_urgent, price_pesewas,
	platform_fee_pesewas, currency, location, latitude, longitude, requirements,
	images, completion_notes, created_at, updated_at`

// PostgresRepository stores tasks in PostgreSQL through a pgx pool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

var _ TaskRepository = (*PostgresRepository)(nil)

// NewPostgresRepository creates a new PostgreSQL-backed task repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Migrate creates the tasks table and its indexes when missing.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate tasks schema: %w", err)
		}
	}
	return nil
}

// Create saves a new task.
func (r *PostgresRepository) Create(ctx context.Context, t *domain.Task) error {
	requirements, err := encodeJSON(t.Requirements, len(t.Requirements) == 0)
	if err != nil {
		return fmt.Errorf("%w: failed to encode requirements: %w", domain.ErrStorage, err)
	}
	images, err := encodeJSON(t.Images, len(t.Images) == 0)
	if err != nil {
		return fmt.Errorf("%w: failed to encode images: %w", domain.ErrStorage, err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO tasks (`+taskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`,
		t.ID, t.Title, t.Description, t.ClientID, t.TaskerID, t.CategoryID, t.AddressID,
		t.ScheduledAt.UTC(), t.DurationEstMins, string(t.Status), string(t.Priority), t.IsUrgent,
		int64(t.Price), int64(t.PlatformFee), t.Currency, t.Location, t.Latitude, t.Longitude,
		requirements, images, t.CompletionNotes, t.CreatedAt.UTC(), t.UpdatedAt,
	)
	if err != nil {
		if isPgDuplicateKeyError(err) {
			return fmt.Errorf("%w: task %s already exists: %w", domain.ErrStorage, t.ID, err)
		}
		return fmt.Errorf("%w: failed to create task: %w", domain.ErrStorage, err)
	}
	return nil
}

// FindByID retrieves a task by its ID.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("%w: failed to find task: %w", domain.ErrStorage, err)
	}
	return t, nil
}

// Search returns the requested page of tasks matching filter.
func (r *PostgresRepository) Search(ctx context.Context, filter domain.Filter, page domain.PageRequest) ([]*domain.Task, int64, error) {
	where := buildWhere(filter)

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tasks`+where.sql(), where.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%w: failed to count tasks: %w", domain.ErrStorage, err)
	}

	limitArg := where.arg(page.Limit)
	offsetArg := where.arg(page.Offset())
	query := `SELECT ` + taskColumns + ` FROM tasks` + where.sql() +
		` ORDER BY created_at DESC, id DESC LIMIT ` + limitArg + ` OFFSET ` + offsetArg

	rows, err := r.pool.Query(ctx, query, where.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: failed to search tasks: %w", domain.ErrStorage, err)
	}
	defer rows.Close()

	tasks := make([]*domain.Task, 0, page.Limit)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: failed to scan task: %w", domain.ErrStorage, err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: failed to iterate tasks: %w", domain.ErrStorage, err)
	}
	return tasks, total, nil
}

// Update applies the set fields of patch in a single statement, guarded by
// the status the caller observed.
func (r *PostgresRepository) Update(ctx context.Context, id string, from domain.Status, patch domain.Patch, at time.Time) error {
	cols := patchColumns(patch)
	if len(cols) == 0 {
		return domain.ErrEmptyPatch
	}
	cols["updated_at"] = at.UTC()
	return r.updateColumns(ctx, id, cols, func(b *whereBuilder) string {
		return "status = " + b.arg(string(from))
	})
}

// Cancel marks a live task as cancelled.
func (r *PostgresRepository) Cancel(ctx context.Context, id string, at time.Time) error {
	return r.updateColumns(ctx, id, map[string]any{
		"status":     string(domain.StatusCancelled),
		"updated_at": at.UTC(),
	}, func(b *whereBuilder) string {
		return "status <> ALL(" + b.arg(terminalStatuses) + ")"
	})
}

func (r *PostgresRepository) updateColumns(ctx context.Context, id string, cols map[string]any, guard func(*whereBuilder) string) error {
	names := make([]string, 0, len(cols))
	for name := range cols {
		names = append(names, name)
	}
	sort.Strings(names)

	var b whereBuilder
	assignments := make([]string, 0, len(names))
	for _, name := range names {
		assignments = append(assignments, name+" = "+b.arg(cols[name]))
	}
	b.where("id = " + b.arg(id))
	b.where(guard(&b))
	query := `UPDATE tasks SET ` + strings.Join(assignments, ", ") + b.sql()

	tag, err := r.pool.Exec(ctx, query, b.args...)
	if err != nil {
		return fmt.Errorf("%w: failed to update task: %w", domain.ErrStorage, err)
	}
	if tag.RowsAffected() == 0 {
		return r.missingOrConflict(ctx, id)
	}
	return nil
}

// missingOrConflict explains an update that matched no row.
func (r *PostgresRepository) missingOrConflict(ctx context.Context, id string) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("%w: failed to check task: %w", domain.ErrStorage, err)
	}
	if !exists {
		return domain.ErrTaskNotFound
	}
	return domain.ErrTaskConflict
}

// Stats aggregates tasks per status.
func (r *PostgresRepository) Stats(ctx context.Context) (*domain.Stats, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT status, COUNT(*), COALESCE(SUM(platform_fee_pesewas), 0)::BIGINT FROM tasks GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to aggregate tasks: %w", domain.ErrStorage, err)
	}
	defer rows.Close()

	var counts []statusCount
	for rows.Next() {
		var c statusCount
		if err := rows.Scan(&c.Status, &c.Count, &c.Fees); err != nil {
			return nil, fmt.Errorf("%w: failed to scan task aggregate: %w", domain.ErrStorage, err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to iterate task aggregate: %w", domain.ErrStorage, err)
	}
	return newStats(counts), nil
}

// Ping verifies the pool can reach the database.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the connection pool.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// whereBuilder accumulates predicates and their positional arguments.
// User input only ever travels as an argument.
type whereBuilder struct {
	clauses []string
	args    []any
}

// arg registers v and returns its $n placeholder.
func (b *whereBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

func (b *whereBuilder) where(clause string) {
	b.clauses = append(b.clauses, clause)
}

func (b *whereBuilder) sql() string {
	if len(b.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.clauses, " AND ")
}

func buildWhere(f domain.Filter) *whereBuilder {
	b := &whereBuilder{}
	if f.Query != nil {
		p := b.arg(likePattern(*f.Query))
		b.where(`(title ILIKE ` + p + ` ESCAPE '\' OR description ILIKE ` + p + ` ESCAPE '\')`)
	}
	if f.CategoryID != nil {
		b.where("category_id = " + b.arg(*f.CategoryID))
	}
	if f.Status != nil {
		b.where("status = " + b.arg(string(*f.Status)))
	}
	if f.ClientID != nil {
		b.where("client_id = " + b.arg(*f.ClientID))
	}
	if f.TaskerID != nil {
		b.where("tasker_id = " + b.arg(*f.TaskerID))
	}
	if f.MinPrice != nil {
		b.where("price_pesewas >= " + b.arg(int64(*f.MinPrice)))
	}
	if f.MaxPrice != nil {
		b.where("price_pesewas <= " + b.arg(int64(*f.MaxPrice)))
	}
	if f.Location != nil {
		b.where(`location ILIKE ` + b.arg(likePattern(*f.Location)) + ` ESCAPE '\'`)
	}
	if f.Priority != nil {
		b.where("priority = " + b.arg(string(*f.Priority)))
	}
	if f.IsUrgent != nil {
		b.where("is_urgent = " + b.arg(*f.IsUrgent))
	}
	return b
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var (
		t                    domain.Task
		status, priority     string
		price, fee           int64
		requirements, images []byte
	)
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.ClientID, &t.TaskerID, &t.CategoryID, &t.AddressID,
		&t.ScheduledAt, &t.DurationEstMins, &status, &priority, &t.IsUrgent, &price,
		&fee, &t.Currency, &t.Location, &t.Latitude, &t.Longitude, &requirements,
		&images, &t.CompletionNotes, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Status = domain.Status(status)
	t.Priority = domain.Priority(priority)
	t.Price = domain.Money(price)
	t.PlatformFee = domain.Money(fee)
	if err := decodeJSON(requirements, &t.Requirements); err != nil {
		return nil, err
	}
	if err := decodeJSON(images, &t.Images); err != nil {
		return nil, err
	}
	return &t, nil
}

// encodeJSON marshals v for a JSONB column; empty values are stored as NULL.
func encodeJSON(v any, empty bool) ([]byte, error) {
	if empty {
		return nil, nil
	}
	return json.Marshal(v)
}

// decodeJSON unmarshals a JSONB column into dst, leaving it untouched for NULL.
func decodeJSON(raw []byte, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("failed to decode json column: %w", err)
	}
	return nil
}

// isPgDuplicateKeyError checks if the error is a PostgreSQL unique violation.
func isPgDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
