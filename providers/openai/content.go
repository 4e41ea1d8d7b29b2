package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"trygo/config"
)

var httpClient = &http.Client{Timeout: 120 * time.Second}

const systemPrompt = "You are an SEO content writer for early-stage startups. " +
	"Always answer with a single JSON object containing the keys " +
	`"title", "outline", "body" and "suggestedImagePrompt".`

// Client talks to an OpenAI-compatible chat completion endpoint.
type Client struct {
	Config *config.Config
	Logger *zap.Logger
}

// NewClient creates a new completion client.
func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	return &Client{Config: cfg, Logger: logger}
}

// Name returns the adapter name.
func (c *Client) Name() string {
	return "openai"
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends the prompt as a user message and returns the raw completion.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if c.Config.OpenAIAPIKey == "" {
		return "", fmt.Errorf("openai api key is not configured")
	}

	body, err := json.Marshal(chatRequest{
		Model: c.Config.OpenAIModel,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat payload: %w", err)
	}

	url := c.Config.OpenAIBaseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Config.OpenAIAPIKey)
	req.Header.Set("Content-Type", "application/json")

	c.Logger.Debug("Calling OpenAI chat completion", zap.String("model", c.Config.OpenAIModel))

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("openai error %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
