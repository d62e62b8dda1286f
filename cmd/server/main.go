// Command server runs the task API: HTTP endpoints, database
// migrations, event publication, and (optionally) the notification
// consumer in-process.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/taskstream/taskstream-api/internal/config"
	"github.com/taskstream/taskstream-api/internal/platform/logger"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
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

	db, err := openDatabase(cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := runMigrations(db, log); err != nil {
		return err
	}

	app, err := newApplication(ctx, cfg, db, log)
	if err != nil {
		return err
	}
	defer app.cleanup()

	if cfg.Consumers.RunInAPI {
		if err := app.startConsumers(ctx); err != nil {
			return err
		}
		log.Info("notification consumer running in API process")
	}

	return app.startHTTPServer(ctx, app.setupRouter())
}
