package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/taskstream/taskstream-api/internal/domain"
)

// TaskFilter narrows List and Count to tasks matching every non-nil
// field.
type TaskFilter struct {
	Status     *domain.TaskStatus
	AssignedTo *string
	Priority   *domain.TaskPriority
}

// TaskStore defines the storage-agnostic contract for task persistence.
// Implementations are safe to use either on a plain connection or, via
// WithTx, inside a transaction opened by RunInTransaction.
type TaskStore interface {
	// GetByID retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// List retrieves tasks matching the filter, ordered newest-created
	// first, with limit/offset pagination.
	List(ctx context.Context, filter TaskFilter, limit, offset int) ([]*domain.Task, error)

	// Save persists a task with upsert semantics: an existing id is
	// updated in place, a new id is inserted.
	Save(ctx context.Context, task *domain.Task) error

	// Delete removes a task by ID. It reports whether a row was
	// deleted; deleting a missing task is a no-op, not an error.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)

	// Exists reports whether a task with the given ID is present.
	Exists(ctx context.Context, id uuid.UUID) (bool, error)

	// Count returns the number of tasks matching the filter.
	Count(ctx context.Context, filter TaskFilter) (int, error)

	// WithTx returns a store instance bound to the provided
	// transaction. This is used for transactional operations.
	WithTx(tx *sql.Tx) TaskStore
}
