package redisstream

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStreamClient scripts a sequence of XREADGROUP results and records
// acknowledgements. Once the script is exhausted it signals done and
// blocks reads until the context is cancelled.
type fakeStreamClient struct {
	mu       sync.Mutex
	groupErr error
	reads    [][]redis.XStream
	readErrs []error
	acked    []string
	ackErr   error
	done     chan struct{}
	doneOnce sync.Once
}

func newFakeStreamClient() *fakeStreamClient {
	return &fakeStreamClient{done: make(chan struct{})}
}

func (f *fakeStreamClient) XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd {
	return redis.NewStatusResult("OK", f.groupErr)
}

func (f *fakeStreamClient) XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd {
	f.mu.Lock()
	if len(f.readErrs) > 0 {
		err := f.readErrs[0]
		f.readErrs = f.readErrs[1:]
		f.mu.Unlock()
		return redis.NewXStreamSliceCmdResult(nil, err)
	}
	if len(f.reads) > 0 {
		streams := f.reads[0]
		f.reads = f.reads[1:]
		f.mu.Unlock()
		return redis.NewXStreamSliceCmdResult(streams, nil)
	}
	f.mu.Unlock()

	f.doneOnce.Do(func() { close(f.done) })
	<-ctx.Done()
	return redis.NewXStreamSliceCmdResult(nil, ctx.Err())
}

func (f *fakeStreamClient) XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ackErr != nil {
		return redis.NewIntResult(0, f.ackErr)
	}
	f.acked = append(f.acked, ids...)
	return redis.NewIntResult(int64(len(ids)), nil)
}

func (f *fakeStreamClient) ackedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.acked...)
}

func singleEntry(id string, values map[string]any) []redis.XStream {
	return []redis.XStream{{
		Stream:   "task_events",
		Messages: []redis.XMessage{{ID: id, Values: values}},
	}}
}

// runUntilDrained runs the consumer until the fake's script is
// exhausted, then cancels and waits for the loop to exit.
func runUntilDrained(t *testing.T, c *Consumer, client *fakeStreamClient) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(ctx) }()

	select {
	case <-client.done:
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not drain scripted reads")
	}
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop after cancellation")
	}
}

func TestConsumer_Init(t *testing.T) {
	t.Parallel()

	t.Run("creates the consumer group", func(t *testing.T) {
		client := newFakeStreamClient()
		c := NewConsumer(client, "task_events", "notifications", "worker-1", nil, nil)
		require.NoError(t, c.Init(context.Background()))
	})

	t.Run("tolerates an existing group", func(t *testing.T) {
		client := newFakeStreamClient()
		client.groupErr = errors.New("BUSYGROUP Consumer Group name already exists")
		c := NewConsumer(client, "task_events", "notifications", "worker-1", nil, nil)
		require.NoError(t, c.Init(context.Background()))
	})

	t.Run("propagates other errors", func(t *testing.T) {
		client := newFakeStreamClient()
		client.groupErr = errors.New("connection refused")
		c := NewConsumer(client, "task_events", "notifications", "worker-1", nil, nil)
		err := c.Init(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
	})
}

func TestConsumer_Run_AcknowledgesOnSuccess(t *testing.T) {
	t.Parallel()

	client := newFakeStreamClient()
	client.reads = [][]redis.XStream{
		singleEntry("1-0", map[string]any{
			"event_type": "task.created",
			"data":       `{"event_type":"task.created","data":{"task_id":"abc"}}`,
		}),
	}

	var (
		mu       sync.Mutex
		received []map[string]any
	)
	handler := func(ctx context.Context, fields map[string]any) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, fields)
		return nil
	}

	c := NewConsumer(client, "task_events", "notifications", "worker-1", handler, nil)
	runUntilDrained(t, c, client)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1)
	assert.Equal(t, "task.created", received[0]["event_type"])

	envelope, ok := received[0]["data"].(map[string]any)
	require.True(t, ok, "JSON field should be decoded before dispatch")
	assert.Equal(t, "task.created", envelope["event_type"])

	assert.Equal(t, []string{"1-0"}, client.ackedIDs())
}

func TestConsumer_Run_LeavesFailedEntriesPending(t *testing.T) {
	t.Parallel()

	entry := map[string]any{"event_type": "task.completed", "data": `{"x":1}`}
	client := newFakeStreamClient()
	client.reads = [][]redis.XStream{
		singleEntry("1-0", entry),
		singleEntry("1-0", entry), // redelivery of the unacknowledged entry
	}

	var calls int
	handler := func(ctx context.Context, fields map[string]any) error {
		calls++
		if calls == 1 {
			return errors.New("notification send failed")
		}
		return nil
	}

	c := NewConsumer(client, "task_events", "notifications", "worker-1", handler, nil)
	runUntilDrained(t, c, client)

	assert.Equal(t, 2, calls)
	assert.Equal(t, []string{"1-0"}, client.ackedIDs(), "entry is acknowledged exactly once, after the successful retry")
}

func TestConsumer_Run_PausesAfterReadError(t *testing.T) {
	t.Parallel()

	client := newFakeStreamClient()
	client.readErrs = []error{errors.New("i/o timeout")}
	client.reads = [][]redis.XStream{
		singleEntry("2-0", map[string]any{"event_type": "task.started"}),
	}

	var calls int
	handler := func(ctx context.Context, fields map[string]any) error {
		calls++
		return nil
	}

	c := NewConsumer(client, "task_events", "notifications", "worker-1", handler, nil)
	c.pauseDuration = time.Millisecond
	runUntilDrained(t, c, client)

	assert.Equal(t, 1, calls, "loop recovers and keeps consuming after a read error")
}

func TestParseFields(t *testing.T) {
	t.Parallel()

	fields := parseFields(map[string]any{
		"object":  `{"a":1}`,
		"array":   `[1,2]`,
		"plain":   "task.created",
		"broken":  "{not json",
		"numeric": int64(7),
	})

	assert.Equal(t, map[string]any{"a": float64(1)}, fields["object"])
	assert.Equal(t, []any{float64(1), float64(2)}, fields["array"])
	assert.Equal(t, "task.created", fields["plain"])
	assert.Equal(t, "{not json", fields["broken"])
	assert.Equal(t, int64(7), fields["numeric"])
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	t.Run("rejects duplicate names", func(t *testing.T) {
		r := NewRegistry(nil)
		client := newFakeStreamClient()
		require.NoError(t, r.Register(NewConsumer(client, "s", "g", "worker-1", nil, nil)))
		err := r.Register(NewConsumer(client, "s", "g", "worker-1", nil, nil))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already registered")
	})

	t.Run("starts and stops registered consumers", func(t *testing.T) {
		r := NewRegistry(nil)
		client := newFakeStreamClient()
		handler := func(ctx context.Context, fields map[string]any) error { return nil }
		require.NoError(t, r.Register(NewConsumer(client, "task_events", "notifications", "worker-1", handler, nil)))

		require.NoError(t, r.StartAll(context.Background()))
		select {
		case <-client.done:
		case <-time.After(5 * time.Second):
			t.Fatal("consumer never began reading")
		}
		r.StopAll()
	})

	t.Run("fails fast when a group cannot be created", func(t *testing.T) {
		r := NewRegistry(nil)
		client := newFakeStreamClient()
		client.groupErr = errors.New("connection refused")
		require.NoError(t, r.Register(NewConsumer(client, "task_events", "notifications", "worker-1", nil, nil)))

		err := r.StartAll(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "worker-1")
	})

	t.Run("StopAll without StartAll is a no-op", func(t *testing.T) {
		r := NewRegistry(nil)
		r.StopAll()
	})
}
