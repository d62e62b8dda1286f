package events

import "context"

// Publisher defines the port for emitting domain events onto the event
// stream. Publishing is fire-and-forget from the caller's perspective,
// but services invoke it inside the surrounding transaction, so a
// publish failure aborts the commit and nothing becomes durably
// visible.
type Publisher interface {
	// Publish emits one event onto the stream.
	Publish(ctx context.Context, event *Event) error
}
