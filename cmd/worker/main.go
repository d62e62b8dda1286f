// Command worker runs the notification consumer as a standalone
// process, for deployments where consumers are separated from the API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/taskstream/taskstream-api/internal/config"
	"github.com/taskstream/taskstream-api/internal/notify"
	"github.com/taskstream/taskstream-api/internal/platform/logger"
	"github.com/taskstream/taskstream-api/internal/platform/redisstream"
	"github.com/taskstream/taskstream-api/internal/platform/telegram"
)

func main() {
	if err := run(); err != nil {
		slog.Error("worker exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(logger.Config{Level: cfg.Server.LogLevel})
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	ctx := logger.WithContext(context.Background(), log)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("failed to close redis client", "error", err)
		}
	}()

	telegramClient := telegram.NewClient(cfg.Telegram.BotToken, log)
	notifier := notify.NewTaskNotifier(telegramClient, cfg.Telegram.NotificationChatID, log)

	registry := redisstream.NewRegistry(log)
	consumer := redisstream.NewConsumer(
		redisClient,
		cfg.Redis.EventStream,
		"task-notifications",
		"notifier-1",
		notifier.Handle,
		log,
	)
	if err := registry.Register(consumer); err != nil {
		return fmt.Errorf("failed to register notification consumer: %w", err)
	}

	if err := registry.StartAll(ctx); err != nil {
		return fmt.Errorf("failed to start consumers: %w", err)
	}
	log.Info("worker started", "stream", cfg.Redis.EventStream)

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	<-shutdownCh

	log.Info("shutdown signal received")
	registry.StopAll()
	log.Info("worker shutdown completed")
	return nil
}
