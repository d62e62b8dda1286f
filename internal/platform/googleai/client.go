// Package googleai wraps the Google Gemini API for text generation and
// connectivity probing.
package googleai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"
)

// Client generates text through the Gemini API using a fixed model.
type Client struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

// New creates a Gemini client. The API key must be non-empty and the
// model name identifies which Gemini model serves requests.
func New(ctx context.Context, apiKey, model string, logger *slog.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("google AI API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("google AI model name is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Client{
		client: client,
		model:  model,
		logger: logger.With("component", "googleai_client"),
	}, nil
}

// GenerateText sends a prompt to the model and returns the generated
// text with surrounding whitespace trimmed.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("model returned an empty response")
	}

	c.logger.Debug("text generated", "model", c.model, "prompt_length", len(prompt))
	return text, nil
}

// CheckHealth probes the API with a token count request, the cheapest
// call that validates both the credentials and the model name.
func (c *Client) CheckHealth(ctx context.Context) error {
	_, err := c.client.Models.CountTokens(ctx, c.model, genai.Text("test"), nil)
	if err != nil {
		return fmt.Errorf("google AI health check failed: %w", err)
	}
	return nil
}
