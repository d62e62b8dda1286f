package redisstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// defaultReadCount is the maximum number of entries fetched per
	// XREADGROUP call.
	defaultReadCount = 10

	// defaultBlockDuration bounds how long a read blocks waiting for new
	// entries before the loop re-checks for shutdown.
	defaultBlockDuration = 1 * time.Second

	// errorPauseDuration is how long the loop pauses after a read error
	// before retrying.
	errorPauseDuration = 1 * time.Second
)

// Handler processes one stream entry. The fields map holds the entry's
// field-value pairs with JSON-looking values already decoded. Returning
// an error leaves the entry unacknowledged for redelivery.
type Handler func(ctx context.Context, fields map[string]any) error

// streamClient is the subset of redis.Client the consumer uses.
// Narrowing the dependency keeps the read loop testable without a
// running Redis server.
type streamClient interface {
	XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd
	XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd
	XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd
}

// Consumer reads entries from one stream through a consumer group and
// dispatches them to a handler with at-least-once semantics. Entries
// are acknowledged only after the handler returns nil; a failed or
// crashed delivery stays in the pending list and is redelivered.
type Consumer struct {
	client  streamClient
	stream  string
	group   string
	name    string
	handler Handler
	logger  *slog.Logger

	readCount     int64
	blockDuration time.Duration
	pauseDuration time.Duration
}

// NewConsumer creates a consumer identified by name within the group.
func NewConsumer(client streamClient, stream, group, name string, handler Handler, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		client:        client,
		stream:        stream,
		group:         group,
		name:          name,
		handler:       handler,
		logger:        logger.With("component", "stream_consumer", "stream", stream, "group", group, "consumer", name),
		readCount:     defaultReadCount,
		blockDuration: defaultBlockDuration,
		pauseDuration: errorPauseDuration,
	}
}

// Name returns the consumer's identifier within its group.
func (c *Consumer) Name() string {
	return c.name
}

// Init ensures the consumer group exists, creating the stream if
// necessary. An already-existing group is not an error.
func (c *Consumer) Init(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.stream, c.group, "$").Err()
	if err != nil && !isBusyGroup(err) {
		return fmt.Errorf("failed to create consumer group %s: %w", c.group, err)
	}
	return nil
}

// isBusyGroup reports whether err is the Redis reply for creating a
// consumer group that already exists.
func isBusyGroup(err error) bool {
	return err != nil && strings.Contains(err.Error(), "BUSYGROUP")
}

// Run reads and dispatches entries until ctx is cancelled. It always
// returns ctx.Err(); read errors are logged and retried after a pause
// rather than terminating the loop.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("consumer started")
	defer c.logger.Info("consumer stopped")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.group,
			Consumer: c.name,
			Streams:  []string{c.stream, ">"},
			Count:    c.readCount,
			Block:    c.blockDuration,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error("failed to read from stream", "error", err)
			if !c.pause(ctx) {
				return ctx.Err()
			}
			continue
		}

		for _, stream := range streams {
			for _, message := range stream.Messages {
				c.dispatch(ctx, message)
			}
		}
	}
}

// dispatch runs the handler for one entry and acknowledges it on
// success. Handler failures are logged and the entry stays pending.
func (c *Consumer) dispatch(ctx context.Context, message redis.XMessage) {
	fields := parseFields(message.Values)

	if err := c.handler(ctx, fields); err != nil {
		c.logger.Error("failed to process entry", "error", err, "entry_id", message.ID)
		return
	}

	if err := c.client.XAck(ctx, c.stream, c.group, message.ID).Err(); err != nil {
		c.logger.Error("failed to acknowledge entry", "error", err, "entry_id", message.ID)
		return
	}
	c.logger.Debug("entry processed", "entry_id", message.ID)
}

// pause sleeps for the error backoff interval. It reports false if the
// context was cancelled while waiting.
func (c *Consumer) pause(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(c.pauseDuration):
		return true
	}
}

// parseFields converts raw entry values into handler fields. String
// values that look like JSON documents are decoded; everything else is
// passed through unchanged, including strings that fail to decode.
func parseFields(values map[string]any) map[string]any {
	fields := make(map[string]any, len(values))
	for key, value := range values {
		str, ok := value.(string)
		if !ok {
			fields[key] = value
			continue
		}
		if strings.HasPrefix(str, "{") || strings.HasPrefix(str, "[") {
			var decoded any
			if err := json.Unmarshal([]byte(str), &decoded); err == nil {
				fields[key] = decoded
				continue
			}
		}
		fields[key] = str
	}
	return fields
}
