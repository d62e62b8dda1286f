package domain

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the lifecycle state of a task.
type TaskStatus string

// Possible task status values. Pending is the initial status;
// Completed and Cancelled are terminal.
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// IsValidTaskStatus checks if the given status is a known TaskStatus.
func IsValidTaskStatus(status TaskStatus) bool {
	switch status {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted, TaskStatusCancelled:
		return true
	default:
		return false
	}
}

// TaskPriority represents the urgency of a task.
type TaskPriority string

// Possible task priority values.
const (
	TaskPriorityLow      TaskPriority = "low"
	TaskPriorityMedium   TaskPriority = "medium"
	TaskPriorityHigh     TaskPriority = "high"
	TaskPriorityCritical TaskPriority = "critical"
)

// IsValidTaskPriority checks if the given priority is a known TaskPriority.
func IsValidTaskPriority(priority TaskPriority) bool {
	switch priority {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityCritical:
		return true
	default:
		return false
	}
}

// Task is the aggregate root for the task lifecycle. All mutations go
// through the named operations below, which enforce the status state
// machine and stamp UpdatedAt. Identity is by ID; ID never changes
// after creation.
//
// Title and description emptiness is validated by the service layer
// before construction or update; the entity does not re-check it.
type Task struct {
	ID          uuid.UUID    `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	AssignedTo  *string      `json:"assigned_to,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}

// NewTask creates a new Task in pending status with a fresh UUID and
// CreatedAt == UpdatedAt. An empty priority defaults to medium.
func NewTask(title, description string, priority TaskPriority, assignedTo *string) *Task {
	if priority == "" {
		priority = TaskPriorityMedium
	}

	now := time.Now().UTC()
	return &Task{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		Status:      TaskStatusPending,
		Priority:    priority,
		AssignedTo:  assignedTo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Start moves the task from pending to in_progress.
// Returns an invalid-operation error from any other status.
func (t *Task) Start() error {
	if t.Status != TaskStatusPending {
		return NewInvalidOperationError("start", t.Status)
	}

	t.Status = TaskStatusInProgress
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// Complete moves the task to completed and sets CompletedAt.
// CompletedAt equals UpdatedAt and is set exactly once; completing an
// already-completed or cancelled task fails with invalid-operation.
func (t *Task) Complete() error {
	if t.Status == TaskStatusCompleted || t.Status == TaskStatusCancelled {
		return NewInvalidOperationError("complete", t.Status)
	}

	now := time.Now().UTC()
	t.Status = TaskStatusCompleted
	t.CompletedAt = &now
	t.UpdatedAt = now
	return nil
}

// Cancel moves the task to cancelled. Only completed tasks reject
// cancellation; cancelling an already-cancelled task succeeds and
// re-stamps UpdatedAt.
func (t *Task) Cancel() error {
	if t.Status == TaskStatusCompleted {
		return NewInvalidOperationError("cancel", t.Status)
	}

	t.Status = TaskStatusCancelled
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// AssignTo sets the assignee and stamps UpdatedAt. The entity accepts
// any assignee in any status; the caller checks emptiness.
func (t *Task) AssignTo(assignee string) {
	t.AssignedTo = &assignee
	t.UpdatedAt = time.Now().UTC()
}

// UpdateDetails overwrites the provided non-empty fields and stamps
// UpdatedAt. An empty string means "no change", not "clear the field".
func (t *Task) UpdateDetails(title, description string) {
	if title != "" {
		t.Title = title
	}
	if description != "" {
		t.Description = description
	}
	t.UpdatedAt = time.Now().UTC()
}
