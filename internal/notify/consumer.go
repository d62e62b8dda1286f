// Package notify turns task events into chat notifications. It supplies
// the handler that the stream consumer dispatches entries to.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/taskstream/taskstream-api/internal/events"
)

// MessageSender delivers one formatted notification message.
type MessageSender interface {
	SendMessage(ctx context.Context, chatID, text string) error
}

// TaskNotifier formats task events into HTML chat messages and sends
// them to a fixed notification chat. A send failure propagates so the
// stream entry stays pending and is redelivered.
type TaskNotifier struct {
	sender MessageSender
	chatID string
	logger *slog.Logger
}

// NewTaskNotifier creates a notifier targeting the given chat.
func NewTaskNotifier(sender MessageSender, chatID string, logger *slog.Logger) *TaskNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskNotifier{
		sender: sender,
		chatID: chatID,
		logger: logger.With("component", "task_notifier"),
	}
}

// Handle processes one stream entry. Unknown event types are logged and
// dropped; malformed envelopes are an error so the entry is retried
// rather than silently lost.
func (n *TaskNotifier) Handle(ctx context.Context, fields map[string]any) error {
	eventType, _ := fields["event_type"].(string)
	payload, err := eventPayload(fields)
	if err != nil {
		return fmt.Errorf("failed to parse event %s: %w", eventType, err)
	}

	var text string
	switch eventType {
	case events.TypeTaskCreated:
		text = formatTaskCreated(payload)
	case events.TypeTaskCompleted:
		text = formatTaskCompleted(payload)
	case events.TypeTaskAssigned:
		text = formatTaskAssigned(payload)
	case events.TypeTaskCancelled:
		text = formatTaskCancelled(payload)
	case events.TypeTaskStarted:
		// No chat notification for work starting.
		return nil
	default:
		n.logger.Warn("unknown event type", "event_type", eventType)
		return nil
	}

	if err := n.sender.SendMessage(ctx, n.chatID, text); err != nil {
		return fmt.Errorf("failed to send notification for %s: %w", eventType, err)
	}
	n.logger.Info("notification sent", "event_type", eventType, "task_id", payload["task_id"])
	return nil
}

// eventPayload extracts the variant payload from an entry's envelope
// field. The envelope arrives either pre-decoded or as a JSON string.
func eventPayload(fields map[string]any) (map[string]any, error) {
	raw, ok := fields["data"]
	if !ok {
		return nil, fmt.Errorf("entry has no data field")
	}

	var envelope map[string]any
	switch v := raw.(type) {
	case map[string]any:
		envelope = v
	case string:
		if err := json.Unmarshal([]byte(v), &envelope); err != nil {
			return nil, fmt.Errorf("invalid event envelope: %w", err)
		}
	default:
		return nil, fmt.Errorf("unexpected data field type %T", raw)
	}

	payload, _ := envelope["data"].(map[string]any)
	if payload == nil {
		payload = map[string]any{}
	}
	return payload, nil
}

func formatTaskCreated(payload map[string]any) string {
	var b strings.Builder
	b.WriteString("🆕 <b>New Task Created</b>\n\n")
	fmt.Fprintf(&b, "📋 Title: %s\n", stringField(payload, "title"))
	fmt.Fprintf(&b, "🔖 ID: <code>%s</code>\n", stringField(payload, "task_id"))
	fmt.Fprintf(&b, "⚡ Priority: %s\n", stringField(payload, "priority"))
	if assignedTo := stringField(payload, "assigned_to"); assignedTo != "" {
		fmt.Fprintf(&b, "👤 Assigned to: %s\n", assignedTo)
	}
	return b.String()
}

func formatTaskCompleted(payload map[string]any) string {
	var b strings.Builder
	b.WriteString("✅ <b>Task Completed</b>\n\n")
	fmt.Fprintf(&b, "🔖 ID: <code>%s</code>\n", stringField(payload, "task_id"))
	if completedBy := stringField(payload, "completed_by"); completedBy != "" {
		fmt.Fprintf(&b, "👤 Completed by: %s\n", completedBy)
	}
	return b.String()
}

func formatTaskAssigned(payload map[string]any) string {
	var b strings.Builder
	b.WriteString("👥 <b>Task Assigned</b>\n\n")
	fmt.Fprintf(&b, "🔖 ID: <code>%s</code>\n", stringField(payload, "task_id"))
	fmt.Fprintf(&b, "👤 Assigned to: %s\n", stringField(payload, "assigned_to"))
	if assignedBy := stringField(payload, "assigned_by"); assignedBy != "" {
		fmt.Fprintf(&b, "📝 Assigned by: %s\n", assignedBy)
	}
	return b.String()
}

func formatTaskCancelled(payload map[string]any) string {
	var b strings.Builder
	b.WriteString("❌ <b>Task Cancelled</b>\n\n")
	fmt.Fprintf(&b, "🔖 ID: <code>%s</code>\n", stringField(payload, "task_id"))
	if cancelledBy := stringField(payload, "cancelled_by"); cancelledBy != "" {
		fmt.Fprintf(&b, "👤 Cancelled by: %s\n", cancelledBy)
	}
	if reason := stringField(payload, "reason"); reason != "" {
		fmt.Fprintf(&b, "📝 Reason: %s\n", reason)
	}
	return b.String()
}

// stringField reads a string payload field, treating absent, null and
// non-string values as empty.
func stringField(payload map[string]any, key string) string {
	s, _ := payload[key].(string)
	return s
}
