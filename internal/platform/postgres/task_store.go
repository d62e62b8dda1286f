package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskstream/taskstream-api/internal/domain"
	"github.com/taskstream/taskstream-api/internal/store"
)

// Compile-time check that PostgresTaskStore implements store.TaskStore.
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// taskColumns is the canonical column list used by every query that
// scans a full task row.
const taskColumns = "id, title, description, status, priority, assigned_to, created_at, updated_at, completed_at"

// PostgresTaskStore implements store.TaskStore using a PostgreSQL
// database. It can run against either a plain connection pool or a
// transaction through the store.DBTX abstraction.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgresTaskStore with the given
// database connection and logger.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTaskStore{
		db:     db,
		logger: logger.With("component", "task_store"),
	}
}

// WithTx returns a store instance bound to the provided transaction,
// sharing the receiver's logger.
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{
		db:     tx,
		logger: s.logger,
	}
}

// GetByID retrieves a task by its unique ID. Returns
// store.ErrTaskNotFound if no task with the given ID exists.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	query := fmt.Sprintf("SELECT %s FROM tasks WHERE id = $1", taskColumns)

	row := s.db.QueryRowContext(ctx, query, id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		s.logger.Error("failed to get task", "error", err, "task_id", id)
		return nil, MapError("task", "get", err)
	}
	return task, nil
}

// List retrieves tasks matching the filter, ordered newest-created
// first, with limit/offset pagination.
func (s *PostgresTaskStore) List(ctx context.Context, filter store.TaskFilter, limit, offset int) ([]*domain.Task, error) {
	where, args := buildTaskFilter(filter)
	query := fmt.Sprintf(
		"SELECT %s FROM tasks%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		taskColumns, where, len(args)+1, len(args)+2,
	)
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.logger.Error("failed to list tasks", "error", err)
		return nil, MapError("task", "list", err)
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, MapError("task", "list", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError("task", "list", err)
	}
	return tasks, nil
}

// Save persists a task with upsert semantics. An existing row with the
// same ID is updated in place; otherwise a new row is inserted.
func (s *PostgresTaskStore) Save(ctx context.Context, task *domain.Task) error {
	query := `
		INSERT INTO tasks (id, title, description, status, priority, assigned_to, created_at, updated_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			status = EXCLUDED.status,
			priority = EXCLUDED.priority,
			assigned_to = EXCLUDED.assigned_to,
			updated_at = EXCLUDED.updated_at,
			completed_at = EXCLUDED.completed_at`

	_, err := s.db.ExecContext(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		string(task.Status),
		string(task.Priority),
		nullString(task.AssignedTo),
		task.CreatedAt,
		task.UpdatedAt,
		nullTime(task.CompletedAt),
	)
	if err != nil {
		s.logger.Error("failed to save task", "error", err, "task_id", task.ID)
		return MapError("task", "save", err)
	}

	s.logger.Debug("task saved", "task_id", task.ID, "status", task.Status)
	return nil
}

// Delete removes a task by ID and reports whether a row was deleted.
func (s *PostgresTaskStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = $1", id)
	if err != nil {
		s.logger.Error("failed to delete task", "error", err, "task_id", id)
		return false, MapError("task", "delete", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, MapError("task", "delete", err)
	}
	return affected > 0, nil
}

// Exists reports whether a task with the given ID is present.
func (s *PostgresTaskStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM tasks WHERE id = $1)", id).Scan(&exists)
	if err != nil {
		s.logger.Error("failed to check task existence", "error", err, "task_id", id)
		return false, MapError("task", "exists", err)
	}
	return exists, nil
}

// Count returns the number of tasks matching the filter.
func (s *PostgresTaskStore) Count(ctx context.Context, filter store.TaskFilter) (int, error) {
	where, args := buildTaskFilter(filter)
	query := "SELECT COUNT(*) FROM tasks" + where

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		s.logger.Error("failed to count tasks", "error", err)
		return 0, MapError("task", "count", err)
	}
	return count, nil
}

// buildTaskFilter renders the WHERE clause and argument list for a
// filter. The returned clause includes a leading " WHERE" when any
// condition is present, and is empty otherwise.
func buildTaskFilter(filter store.TaskFilter) (string, []any) {
	conditions := make([]string, 0, 3)
	args := make([]any, 0, 3)

	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		conditions = append(conditions, fmt.Sprintf("assigned_to = $%d", len(args)))
	}
	if filter.Priority != nil {
		args = append(args, string(*filter.Priority))
		conditions = append(conditions, fmt.Sprintf("priority = $%d", len(args)))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// rowScanner abstracts over *sql.Row and *sql.Rows for scanTask.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task        domain.Task
		status      string
		priority    string
		assignedTo  sql.NullString
		completedAt sql.NullTime
	)

	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&status,
		&priority,
		&assignedTo,
		&task.CreatedAt,
		&task.UpdatedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Status = domain.TaskStatus(status)
	task.Priority = domain.TaskPriority(priority)
	if assignedTo.Valid {
		task.AssignedTo = &assignedTo.String
	}
	if completedAt.Valid {
		t := completedAt.Time
		task.CompletedAt = &t
	}
	return &task, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
