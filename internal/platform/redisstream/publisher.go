package redisstream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/taskstream/taskstream-api/internal/events"
)

// Compile-time check that Publisher implements events.Publisher.
var _ events.Publisher = (*Publisher)(nil)

// Publisher appends domain events to a Redis stream. Each entry carries
// the event type as a routing field plus the full JSON envelope, so
// consumers can dispatch without decoding the body first.
type Publisher struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

// NewPublisher creates a Publisher writing to the given stream.
func NewPublisher(client *redis.Client, stream string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		client: client,
		stream: stream,
		logger: logger.With("component", "event_publisher"),
	}
}

// Publish serializes the event and appends it to the stream. A non-nil
// error means the entry was not appended and the caller's transaction
// should abort.
func (p *Publisher) Publish(ctx context.Context, event *events.Event) error {
	envelope, err := json.Marshal(event.WireMap())
	if err != nil {
		return fmt.Errorf("failed to serialize event %s: %w", event.Type, err)
	}

	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"event_type": event.Type,
			"data":       string(envelope),
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.Type, err)
	}

	p.logger.Debug("event published",
		"event_type", event.Type,
		"event_id", event.ID,
		"stream", p.stream,
		"entry_id", id)
	return nil
}

// Ping verifies connectivity to the Redis server.
func (p *Publisher) Ping(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}
