package redisstream

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Registry owns a set of consumers and manages their shared lifecycle:
// each registered consumer is initialized and run in its own goroutine,
// and StopAll cancels all of them and waits for the loops to drain.
type Registry struct {
	logger *slog.Logger

	mu        sync.Mutex
	consumers []*Consumer
	names     map[string]struct{}
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewRegistry creates an empty consumer registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger: logger.With("component", "consumer_registry"),
		names:  make(map[string]struct{}),
	}
}

// Register adds a consumer. Names must be unique within the registry.
func (r *Registry) Register(consumer *Consumer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.names[consumer.Name()]; exists {
		return fmt.Errorf("consumer %q is already registered", consumer.Name())
	}
	r.names[consumer.Name()] = struct{}{}
	r.consumers = append(r.consumers, consumer)
	return nil
}

// StartAll initializes every registered consumer and starts its read
// loop. An initialization failure stops the registry and returns the
// error; consumers already started are shut down.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	for _, consumer := range r.consumers {
		if err := consumer.Init(runCtx); err != nil {
			cancel()
			r.wg.Wait()
			return fmt.Errorf("failed to initialize consumer %s: %w", consumer.Name(), err)
		}

		r.wg.Add(1)
		go func(c *Consumer) {
			defer r.wg.Done()
			if err := c.Run(runCtx); err != nil && runCtx.Err() == nil {
				r.logger.Error("consumer exited", "error", err, "consumer", c.Name())
			}
		}(consumer)
	}

	r.logger.Info("consumers started", "count", len(r.consumers))
	return nil
}

// StopAll signals every consumer to stop and blocks until all read
// loops have returned. It is safe to call when StartAll never ran.
func (r *Registry) StopAll() {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	r.wg.Wait()
	r.logger.Info("consumers stopped")
}
