// Package telegram provides a minimal client for the Telegram Bot API,
// covering the message delivery and health probing the notification
// pipeline needs.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const (
	defaultBaseURL = "https://api.telegram.org"
	defaultTimeout = 10 * time.Second
)

// Client sends messages through the Telegram Bot API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	botToken   string
	logger     *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL. Used in tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Telegram Bot API client for the given bot token.
func NewClient(botToken string, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    defaultBaseURL,
		botToken:   botToken,
		logger:     logger.With("component", "telegram_client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// apiResponse is the common envelope of every Bot API reply.
type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// SendMessage delivers an HTML-formatted message to the given chat.
// Notifications are sent silently, without a client-side alert sound.
func (c *Client) SendMessage(ctx context.Context, chatID, text string) error {
	payload := map[string]any{
		"chat_id":              chatID,
		"text":                 text,
		"parse_mode":           "HTML",
		"disable_notification": true,
	}
	if err := c.call(ctx, "sendMessage", payload); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	c.logger.Debug("telegram message sent", "chat_id", chatID)
	return nil
}

// CheckHealth verifies the bot token is valid and the API reachable.
func (c *Client) CheckHealth(ctx context.Context) error {
	if err := c.call(ctx, "getMe", nil); err != nil {
		return fmt.Errorf("telegram health check failed: %w", err)
	}
	return nil
}

// call performs one Bot API method invocation and decodes the standard
// response envelope.
func (c *Client) call(ctx context.Context, method string, payload map[string]any) error {
	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.botToken, method)

	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var decoded apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}
	if !decoded.OK {
		return fmt.Errorf("telegram API error (status %d): %s", resp.StatusCode, decoded.Description)
	}
	return nil
}
