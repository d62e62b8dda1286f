// Package config defines the application configuration and loads it
// from the environment and an optional config file.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all application configuration, grouped by concern.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Redis     RedisConfig     `mapstructure:"redis" validate:"required"`
	Telegram  TelegramConfig  `mapstructure:"telegram" validate:"required"`
	GoogleAI  GoogleAIConfig  `mapstructure:"google_ai" validate:"required"`
	Consumers ConsumersConfig `mapstructure:"consumers"`
}

// ServerConfig holds HTTP server and logging settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" validate:"required"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`

	// EventStream is the stream key task events are published to.
	EventStream string `mapstructure:"event_stream" validate:"required"`
}

// TelegramConfig holds Telegram bot settings.
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token" validate:"required"`

	// NotificationChatID is the chat task notifications are sent to.
	NotificationChatID string `mapstructure:"notification_chat_id" validate:"required"`
}

// GoogleAIConfig holds Gemini API settings.
type GoogleAIConfig struct {
	APIKey string `mapstructure:"api_key" validate:"required"`
	Model  string `mapstructure:"model" validate:"required"`
}

// ConsumersConfig controls where stream consumers run.
type ConsumersConfig struct {
	// RunInAPI runs the notification consumer inside the API process.
	// Disable it in production and run cmd/worker instead.
	RunInAPI bool `mapstructure:"run_in_api"`
}

// Load reads configuration from an optional config.yaml in the working
// directory plus TASKSTREAM_-prefixed environment variables, applies
// defaults, and validates the result. Environment variables take
// precedence over the file.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.event_stream", "events")
	v.SetDefault("google_ai.model", "gemini-2.0-flash")
	v.SetDefault("consumers.run_in_api", true)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("TASKSTREAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// AutomaticEnv alone does not surface env-only keys through
	// Unmarshal, so bind every known key explicitly.
	for _, key := range []string{
		"server.port", "server.log_level",
		"database.url",
		"redis.addr", "redis.password", "redis.db", "redis.event_stream",
		"telegram.bot_token", "telegram.notification_chat_id",
		"google_ai.api_key", "google_ai.model",
		"consumers.run_in_api",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
