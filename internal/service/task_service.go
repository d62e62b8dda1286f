package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/taskstream/taskstream-api/internal/domain"
	"github.com/taskstream/taskstream-api/internal/events"
	"github.com/taskstream/taskstream-api/internal/store"
)

// statisticsSampleLimit caps how many tasks the per-priority tally
// fetches. Datasets larger than this undercount the priority breakdown.
const statisticsSampleLimit = 1000

// defaultListLimit is used when a caller requests a non-positive page
// size.
const defaultListLimit = 100

// CreateTaskInput carries the fields for creating a task.
type CreateTaskInput struct {
	Title       string
	Description string
	Priority    domain.TaskPriority
	AssignedTo  *string
	Actor       *string
}

// TaskStatistics summarizes the task population. ByStatus and
// ByPriority omit zero counts.
type TaskStatistics struct {
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"by_status"`
	ByPriority map[string]int `json:"by_priority"`
}

// TaskService provides task-related operations.
type TaskService interface {
	// Create validates the input, persists a new pending task, and
	// publishes task.created.
	Create(ctx context.Context, input CreateTaskInput) (*domain.Task, error)

	// Get retrieves a task by ID.
	Get(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// List returns tasks matching the filter plus the total match
	// count, newest-created first.
	List(ctx context.Context, filter store.TaskFilter, limit, offset int) ([]*domain.Task, int, error)

	// Update overwrites the provided non-empty detail fields. No event
	// is published.
	Update(ctx context.Context, id uuid.UUID, title, description string) (*domain.Task, error)

	// Start transitions the task to in_progress and publishes
	// task.started.
	Start(ctx context.Context, id uuid.UUID, actor *string) (*domain.Task, error)

	// Complete transitions the task to completed and publishes
	// task.completed.
	Complete(ctx context.Context, id uuid.UUID, actor *string) (*domain.Task, error)

	// Cancel transitions the task to cancelled and publishes
	// task.cancelled with the optional reason.
	Cancel(ctx context.Context, id uuid.UUID, reason, actor *string) (*domain.Task, error)

	// Assign sets the task's assignee and publishes task.assigned.
	Assign(ctx context.Context, id uuid.UUID, assignee string, actor *string) (*domain.Task, error)

	// Delete removes the task. Deleting an unknown task is a not-found
	// error. No event is published.
	Delete(ctx context.Context, id uuid.UUID) error

	// Statistics returns aggregate counts, optionally scoped to one
	// assignee.
	Statistics(ctx context.Context, assignedTo *string) (*TaskStatistics, error)
}

// taskServiceImpl implements the TaskService interface.
type taskServiceImpl struct {
	db        *sql.DB
	taskStore store.TaskStore
	publisher events.Publisher
	logger    *slog.Logger
}

// NewTaskService creates a new TaskService. It returns an error if any
// of the required dependencies are nil.
func NewTaskService(
	db *sql.DB,
	taskStore store.TaskStore,
	publisher events.Publisher,
	logger *slog.Logger,
) (TaskService, error) {
	if db == nil {
		return nil, &TaskServiceError{
			Operation: "create_service",
			Message:   "db cannot be nil",
		}
	}
	if taskStore == nil {
		return nil, &TaskServiceError{
			Operation: "create_service",
			Message:   "taskStore cannot be nil",
		}
	}
	if publisher == nil {
		return nil, &TaskServiceError{
			Operation: "create_service",
			Message:   "publisher cannot be nil",
		}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &taskServiceImpl{
		db:        db,
		taskStore: taskStore,
		publisher: publisher,
		logger:    logger.With("component", "task_service"),
	}, nil
}

// Create validates the input, persists a new task, and publishes the
// creation event, all before any state becomes durable.
func (s *taskServiceImpl) Create(ctx context.Context, input CreateTaskInput) (*domain.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, domain.NewBusinessRuleViolationError(
			"task_title_required", "Task title cannot be empty")
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, domain.NewBusinessRuleViolationError(
			"task_description_required", "Task description cannot be empty")
	}
	if input.Priority != "" && !domain.IsValidTaskPriority(input.Priority) {
		return nil, domain.NewBusinessRuleViolationError(
			"task_priority_invalid", "Unknown task priority: "+string(input.Priority))
	}

	task := domain.NewTask(title, description, input.Priority, input.AssignedTo)

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.taskStore.WithTx(tx)
		if err := txStore.Save(ctx, task); err != nil {
			return NewTaskServiceError("create_task", "failed to save task", err)
		}

		event := events.NewTaskCreatedEvent(task.ID, task.Title, task.AssignedTo, string(task.Priority))
		if err := s.publisher.Publish(ctx, event); err != nil {
			return NewTaskServiceError("create_task", "failed to publish event", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("task created", "task_id", task.ID, "priority", task.Priority)
	return task, nil
}

// Get retrieves a task by ID, translating store absence into the
// domain not-found error.
func (s *taskServiceImpl) Get(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	task, err := s.taskStore.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return nil, domain.NewNotFoundError("Task", id)
		}
		return nil, NewTaskServiceError("get_task", "failed to load task", err)
	}
	return task, nil
}

// List returns tasks matching the filter plus the total match count.
func (s *taskServiceImpl) List(ctx context.Context, filter store.TaskFilter, limit, offset int) ([]*domain.Task, int, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	tasks, err := s.taskStore.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, NewTaskServiceError("list_tasks", "failed to list tasks", err)
	}
	total, err := s.taskStore.Count(ctx, filter)
	if err != nil {
		return nil, 0, NewTaskServiceError("list_tasks", "failed to count tasks", err)
	}
	return tasks, total, nil
}

// Update overwrites the provided non-empty detail fields. Whitespace-only
// values are rejected before anything is loaded or saved.
func (s *taskServiceImpl) Update(ctx context.Context, id uuid.UUID, title, description string) (*domain.Task, error) {
	if title != "" && strings.TrimSpace(title) == "" {
		return nil, domain.NewBusinessRuleViolationError(
			"task_title_required", "Task title cannot be empty")
	}
	if description != "" && strings.TrimSpace(description) == "" {
		return nil, domain.NewBusinessRuleViolationError(
			"task_description_required", "Task description cannot be empty")
	}

	var task *domain.Task
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.taskStore.WithTx(tx)

		loaded, err := s.loadTask(ctx, txStore, "update_task", id)
		if err != nil {
			return err
		}

		loaded.UpdateDetails(strings.TrimSpace(title), strings.TrimSpace(description))
		if err := txStore.Save(ctx, loaded); err != nil {
			return NewTaskServiceError("update_task", "failed to save task", err)
		}

		task = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("task updated", "task_id", id)
	return task, nil
}

// Start transitions the task to in_progress and publishes the event.
func (s *taskServiceImpl) Start(ctx context.Context, id uuid.UUID, actor *string) (*domain.Task, error) {
	task, err := s.transition(ctx, "start_task", id, func(t *domain.Task) (*events.Event, error) {
		if err := t.Start(); err != nil {
			return nil, err
		}
		return events.NewTaskStartedEvent(id, actor), nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("task started", "task_id", id)
	return task, nil
}

// Complete transitions the task to completed and publishes the event.
func (s *taskServiceImpl) Complete(ctx context.Context, id uuid.UUID, actor *string) (*domain.Task, error) {
	task, err := s.transition(ctx, "complete_task", id, func(t *domain.Task) (*events.Event, error) {
		if err := t.Complete(); err != nil {
			return nil, err
		}
		return events.NewTaskCompletedEvent(id, actor), nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("task completed", "task_id", id)
	return task, nil
}

// Cancel transitions the task to cancelled and publishes the event with
// the optional reason.
func (s *taskServiceImpl) Cancel(ctx context.Context, id uuid.UUID, reason, actor *string) (*domain.Task, error) {
	task, err := s.transition(ctx, "cancel_task", id, func(t *domain.Task) (*events.Event, error) {
		if err := t.Cancel(); err != nil {
			return nil, err
		}
		return events.NewTaskCancelledEvent(id, actor, reason), nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("task cancelled", "task_id", id)
	return task, nil
}

// Assign sets the task's assignee and publishes the event. The assignee
// must be non-blank; the transition itself is legal from any status.
func (s *taskServiceImpl) Assign(ctx context.Context, id uuid.UUID, assignee string, actor *string) (*domain.Task, error) {
	assignee = strings.TrimSpace(assignee)
	if assignee == "" {
		return nil, domain.NewBusinessRuleViolationError(
			"assignee_required", "Assignee cannot be empty")
	}

	task, err := s.transition(ctx, "assign_task", id, func(t *domain.Task) (*events.Event, error) {
		t.AssignTo(assignee)
		return events.NewTaskAssignedEvent(id, assignee, actor), nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("task assigned", "task_id", id, "assignee", assignee)
	return task, nil
}

// Delete removes the task inside a transaction. The existence check and
// the delete are separate statements; a concurrent delete between them
// simply makes Delete report success for a row someone else removed.
func (s *taskServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.taskStore.WithTx(tx)

		exists, err := txStore.Exists(ctx, id)
		if err != nil {
			return NewTaskServiceError("delete_task", "failed to check task existence", err)
		}
		if !exists {
			return domain.NewNotFoundError("Task", id)
		}

		if _, err := txStore.Delete(ctx, id); err != nil {
			return NewTaskServiceError("delete_task", "failed to delete task", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("task deleted", "task_id", id)
	return nil
}

// Statistics aggregates totals, per-status counts, and a per-priority
// tally over a bounded sample of the newest tasks.
func (s *taskServiceImpl) Statistics(ctx context.Context, assignedTo *string) (*TaskStatistics, error) {
	filter := store.TaskFilter{AssignedTo: assignedTo}

	total, err := s.taskStore.Count(ctx, filter)
	if err != nil {
		return nil, NewTaskServiceError("task_statistics", "failed to count tasks", err)
	}

	stats := &TaskStatistics{
		Total:      total,
		ByStatus:   make(map[string]int),
		ByPriority: make(map[string]int),
	}

	for _, status := range []domain.TaskStatus{
		domain.TaskStatusPending,
		domain.TaskStatusInProgress,
		domain.TaskStatusCompleted,
		domain.TaskStatusCancelled,
	} {
		statusFilter := filter
		st := status
		statusFilter.Status = &st
		count, err := s.taskStore.Count(ctx, statusFilter)
		if err != nil {
			return nil, NewTaskServiceError("task_statistics", "failed to count tasks by status", err)
		}
		if count > 0 {
			stats.ByStatus[string(status)] = count
		}
	}

	tasks, err := s.taskStore.List(ctx, filter, statisticsSampleLimit, 0)
	if err != nil {
		return nil, NewTaskServiceError("task_statistics", "failed to sample tasks", err)
	}
	for _, task := range tasks {
		stats.ByPriority[string(task.Priority)]++
	}

	return stats, nil
}

// transition runs the shared load → mutate → save → publish → commit
// sequence for one task. mutate applies the domain operation and
// returns the event to publish.
func (s *taskServiceImpl) transition(
	ctx context.Context,
	operation string,
	id uuid.UUID,
	mutate func(t *domain.Task) (*events.Event, error),
) (*domain.Task, error) {
	var task *domain.Task
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.taskStore.WithTx(tx)

		loaded, err := s.loadTask(ctx, txStore, operation, id)
		if err != nil {
			return err
		}

		event, err := mutate(loaded)
		if err != nil {
			return err
		}

		if err := txStore.Save(ctx, loaded); err != nil {
			return NewTaskServiceError(operation, "failed to save task", err)
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			return NewTaskServiceError(operation, "failed to publish event", err)
		}

		task = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// loadTask fetches one task, translating store absence into the domain
// not-found error.
func (s *taskServiceImpl) loadTask(ctx context.Context, txStore store.TaskStore, operation string, id uuid.UUID) (*domain.Task, error) {
	task, err := txStore.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return nil, domain.NewNotFoundError("Task", id)
		}
		return nil, NewTaskServiceError(operation, "failed to load task", err)
	}
	return task, nil
}
