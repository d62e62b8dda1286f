package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskstream/taskstream-api/internal/events"
)

type fakeSender struct {
	sent    []sentMessage
	sendErr error
}

type sentMessage struct {
	chatID string
	text   string
}

func (f *fakeSender) SendMessage(ctx context.Context, chatID, text string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

// entryFor renders an event the way the stream consumer delivers it:
// routing field plus pre-decoded envelope.
func entryFor(event *events.Event) map[string]any {
	wire := event.WireMap()
	envelope := map[string]any{
		"event_type":  wire["event_type"],
		"event_id":    wire["event_id"],
		"occurred_at": wire["occurred_at"],
		"data":        wire["data"],
	}
	return map[string]any{
		"event_type": event.Type,
		"data":       envelope,
	}
}

func TestTaskNotifier_Handle(t *testing.T) {
	t.Parallel()

	t.Run("formats created events with assignee", func(t *testing.T) {
		sender := &fakeSender{}
		notifier := NewTaskNotifier(sender, "-100123", nil)

		assignee := "alice"
		event := events.NewTaskCreatedEvent(uuid.New(), "Write report", &assignee, "high")
		require.NoError(t, notifier.Handle(context.Background(), entryFor(event)))

		require.Len(t, sender.sent, 1)
		assert.Equal(t, "-100123", sender.sent[0].chatID)
		text := sender.sent[0].text
		assert.Contains(t, text, "<b>New Task Created</b>")
		assert.Contains(t, text, "Title: Write report")
		assert.Contains(t, text, "Priority: high")
		assert.Contains(t, text, "Assigned to: alice")
	})

	t.Run("omits optional lines for absent actors", func(t *testing.T) {
		sender := &fakeSender{}
		notifier := NewTaskNotifier(sender, "-100123", nil)

		event := events.NewTaskCompletedEvent(uuid.New(), nil)
		require.NoError(t, notifier.Handle(context.Background(), entryFor(event)))

		require.Len(t, sender.sent, 1)
		assert.Contains(t, sender.sent[0].text, "<b>Task Completed</b>")
		assert.NotContains(t, sender.sent[0].text, "Completed by")
	})

	t.Run("formats cancelled events with actor and reason", func(t *testing.T) {
		sender := &fakeSender{}
		notifier := NewTaskNotifier(sender, "-100123", nil)

		actor := "bob"
		reason := "duplicate of another task"
		event := events.NewTaskCancelledEvent(uuid.New(), &actor, &reason)
		require.NoError(t, notifier.Handle(context.Background(), entryFor(event)))

		require.Len(t, sender.sent, 1)
		assert.Contains(t, sender.sent[0].text, "Cancelled by: bob")
		assert.Contains(t, sender.sent[0].text, "Reason: duplicate of another task")
	})

	t.Run("formats assigned events", func(t *testing.T) {
		sender := &fakeSender{}
		notifier := NewTaskNotifier(sender, "-100123", nil)

		actor := "carol"
		event := events.NewTaskAssignedEvent(uuid.New(), "dave", &actor)
		require.NoError(t, notifier.Handle(context.Background(), entryFor(event)))

		require.Len(t, sender.sent, 1)
		assert.Contains(t, sender.sent[0].text, "<b>Task Assigned</b>")
		assert.Contains(t, sender.sent[0].text, "Assigned to: dave")
		assert.Contains(t, sender.sent[0].text, "Assigned by: carol")
	})

	t.Run("decodes a JSON string envelope", func(t *testing.T) {
		sender := &fakeSender{}
		notifier := NewTaskNotifier(sender, "-100123", nil)

		fields := map[string]any{
			"event_type": events.TypeTaskCompleted,
			"data":       `{"event_type":"task.completed","data":{"task_id":"abc","completed_by":"eve"}}`,
		}
		require.NoError(t, notifier.Handle(context.Background(), fields))
		require.Len(t, sender.sent, 1)
		assert.Contains(t, sender.sent[0].text, "Completed by: eve")
	})

	t.Run("drops started events without sending", func(t *testing.T) {
		sender := &fakeSender{}
		notifier := NewTaskNotifier(sender, "-100123", nil)

		event := events.NewTaskStartedEvent(uuid.New(), nil)
		require.NoError(t, notifier.Handle(context.Background(), entryFor(event)))
		assert.Empty(t, sender.sent)
	})

	t.Run("drops unknown event types without error", func(t *testing.T) {
		sender := &fakeSender{}
		notifier := NewTaskNotifier(sender, "-100123", nil)

		fields := map[string]any{
			"event_type": "task.archived",
			"data":       map[string]any{"data": map[string]any{}},
		}
		require.NoError(t, notifier.Handle(context.Background(), fields))
		assert.Empty(t, sender.sent)
	})

	t.Run("propagates send failures", func(t *testing.T) {
		sender := &fakeSender{sendErr: errors.New("chat not found")}
		notifier := NewTaskNotifier(sender, "-100123", nil)

		event := events.NewTaskCreatedEvent(uuid.New(), "X", nil, "low")
		err := notifier.Handle(context.Background(), entryFor(event))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "chat not found")
	})

	t.Run("errors on a malformed envelope", func(t *testing.T) {
		sender := &fakeSender{}
		notifier := NewTaskNotifier(sender, "-100123", nil)

		fields := map[string]any{
			"event_type": events.TypeTaskCreated,
			"data":       "{broken",
		}
		require.Error(t, notifier.Handle(context.Background(), fields))

		require.Error(t, notifier.Handle(context.Background(), map[string]any{
			"event_type": events.TypeTaskCreated,
		}))
	})
}
