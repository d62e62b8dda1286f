package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/taskstream/taskstream-api/internal/config"
	"github.com/taskstream/taskstream-api/internal/notify"
	"github.com/taskstream/taskstream-api/internal/platform/googleai"
	"github.com/taskstream/taskstream-api/internal/platform/postgres"
	"github.com/taskstream/taskstream-api/internal/platform/redisstream"
	"github.com/taskstream/taskstream-api/internal/platform/telegram"
	"github.com/taskstream/taskstream-api/internal/service"
)

// notificationGroup identifies the consumer group handling chat
// notifications.
const notificationGroup = "task-notifications"

// application bundles every wired dependency. All construction happens
// in newApplication; nothing is global.
type application struct {
	config *config.Config
	logger *slog.Logger

	db          *sql.DB
	redisClient *redis.Client

	publisher   *redisstream.Publisher
	taskService service.TaskService
	telegram    *telegram.Client
	googleAI    *googleai.Client
	registry    *redisstream.Registry
}

// newApplication wires all services from configuration. The returned
// application owns the Redis client; the caller owns db.
func newApplication(ctx context.Context, cfg *config.Config, db *sql.DB, logger *slog.Logger) (*application, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	publisher := redisstream.NewPublisher(redisClient, cfg.Redis.EventStream, logger)

	taskStore := postgres.NewPostgresTaskStore(db, logger)
	taskService, err := service.NewTaskService(db, taskStore, publisher, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	telegramClient := telegram.NewClient(cfg.Telegram.BotToken, logger)

	googleAIClient, err := googleai.New(ctx, cfg.GoogleAI.APIKey, cfg.GoogleAI.Model, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create google AI client: %w", err)
	}

	registry := redisstream.NewRegistry(logger)
	notifier := notify.NewTaskNotifier(telegramClient, cfg.Telegram.NotificationChatID, logger)
	consumer := redisstream.NewConsumer(
		redisClient,
		cfg.Redis.EventStream,
		notificationGroup,
		"notifier-1",
		notifier.Handle,
		logger,
	)
	if err := registry.Register(consumer); err != nil {
		return nil, fmt.Errorf("failed to register notification consumer: %w", err)
	}

	return &application{
		config:      cfg,
		logger:      logger,
		db:          db,
		redisClient: redisClient,
		publisher:   publisher,
		taskService: taskService,
		telegram:    telegramClient,
		googleAI:    googleAIClient,
		registry:    registry,
	}, nil
}

// startConsumers launches the registered stream consumers.
func (app *application) startConsumers(ctx context.Context) error {
	if err := app.registry.StartAll(ctx); err != nil {
		return fmt.Errorf("failed to start consumers: %w", err)
	}
	return nil
}

// cleanup stops consumers and releases connections. Safe to call once
// at shutdown regardless of how far startup got.
func (app *application) cleanup() {
	app.registry.StopAll()

	if err := app.redisClient.Close(); err != nil {
		app.logger.Error("failed to close redis client", "error", err)
	}
}
