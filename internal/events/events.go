package events

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event type tags. The same dotted name is used as the stream routing
// field and inside the serialized envelope, so consumers dispatch on a
// single identifier.
const (
	TypeTaskCreated   = "task.created"
	TypeTaskStarted   = "task.started"
	TypeTaskCompleted = "task.completed"
	TypeTaskCancelled = "task.cancelled"
	TypeTaskAssigned  = "task.assigned"
)

// Event is a domain event describing one task state change. Events are
// write-once: constructed, published, never mutated.
type Event struct {
	// ID is a unique identifier for this event.
	ID uuid.UUID

	// Type is one of the Type* tags above.
	Type string

	// OccurredAt is the timestamp when the event was created.
	OccurredAt time.Time

	// Data holds the variant-specific payload of primitive fields.
	// Optional actor fields are present with a nil value when absent,
	// so the wire form carries an explicit null.
	Data map[string]any
}

// WireMap serializes the event to its flat transport mapping:
// {event_type, event_id, occurred_at (RFC 3339), data}.
func (e *Event) WireMap() map[string]any {
	return map[string]any{
		"event_type":  e.Type,
		"event_id":    e.ID.String(),
		"occurred_at": e.OccurredAt.Format(time.RFC3339Nano),
		"data":        e.Data,
	}
}

// FromWireMap reconstructs an Event from its transport mapping.
// It is the inverse of WireMap.
func FromWireMap(m map[string]any) (*Event, error) {
	eventType, ok := m["event_type"].(string)
	if !ok || eventType == "" {
		return nil, fmt.Errorf("event wire map missing event_type")
	}

	rawID, ok := m["event_id"].(string)
	if !ok {
		return nil, fmt.Errorf("event wire map missing event_id")
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("invalid event_id %q: %w", rawID, err)
	}

	rawOccurred, ok := m["occurred_at"].(string)
	if !ok {
		return nil, fmt.Errorf("event wire map missing occurred_at")
	}
	occurredAt, err := time.Parse(time.RFC3339Nano, rawOccurred)
	if err != nil {
		return nil, fmt.Errorf("invalid occurred_at %q: %w", rawOccurred, err)
	}

	data, _ := m["data"].(map[string]any)

	return &Event{
		ID:         id,
		Type:       eventType,
		OccurredAt: occurredAt,
		Data:       data,
	}, nil
}

// newEvent creates an event with a fresh identifier and timestamp.
func newEvent(eventType string, data map[string]any) *Event {
	return &Event{
		ID:         uuid.New(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

// optional converts a possibly-nil string pointer into a wire value,
// mapping absence to an explicit null.
func optional(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// NewTaskCreatedEvent builds the event emitted when a task is created.
func NewTaskCreatedEvent(taskID uuid.UUID, title string, assignedTo *string, priority string) *Event {
	return newEvent(TypeTaskCreated, map[string]any{
		"task_id":     taskID.String(),
		"title":       title,
		"assigned_to": optional(assignedTo),
		"priority":    priority,
	})
}

// NewTaskStartedEvent builds the event emitted when work on a task starts.
func NewTaskStartedEvent(taskID uuid.UUID, startedBy *string) *Event {
	return newEvent(TypeTaskStarted, map[string]any{
		"task_id":    taskID.String(),
		"started_by": optional(startedBy),
	})
}

// NewTaskCompletedEvent builds the event emitted when a task completes.
func NewTaskCompletedEvent(taskID uuid.UUID, completedBy *string) *Event {
	return newEvent(TypeTaskCompleted, map[string]any{
		"task_id":      taskID.String(),
		"completed_by": optional(completedBy),
	})
}

// NewTaskCancelledEvent builds the event emitted when a task is cancelled.
func NewTaskCancelledEvent(taskID uuid.UUID, cancelledBy, reason *string) *Event {
	return newEvent(TypeTaskCancelled, map[string]any{
		"task_id":      taskID.String(),
		"cancelled_by": optional(cancelledBy),
		"reason":       optional(reason),
	})
}

// NewTaskAssignedEvent builds the event emitted when a task is assigned.
func NewTaskAssignedEvent(taskID uuid.UUID, assignedTo string, assignedBy *string) *Event {
	return newEvent(TypeTaskAssigned, map[string]any{
		"task_id":     taskID.String(),
		"assigned_to": assignedTo,
		"assigned_by": optional(assignedBy),
	})
}
