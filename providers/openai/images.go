package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"trygo/config"
)

// ImageClient talks to the OpenAI image-generation endpoint.
type ImageClient struct {
	Config *config.Config
	Logger *zap.Logger
}

// NewImageClient creates a new image-generation client.
func NewImageClient(cfg *config.Config, logger *zap.Logger) *ImageClient {
	return &ImageClient{Config: cfg, Logger: logger}
}

type imageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format"`
}

type imageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

// GenerateImage requests one image for the prompt and returns its raw bytes.
func (c *ImageClient) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	body, err := json.Marshal(imageRequest{
		Model:          c.Config.OpenAIImageModel,
		Prompt:         prompt,
		N:              1,
		Size:           c.Config.OpenAIImageSize,
		ResponseFormat: "b64_json",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal image payload: %w", err)
	}

	url := c.Config.OpenAIBaseURL + "/images/generations"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Config.OpenAIAPIKey)
	req.Header.Set("Content-Type", "application/json")

	c.Logger.Debug("Calling OpenAI image generation", zap.String("model", c.Config.OpenAIImageModel))

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("openai image error %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	var parsed imageResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode image response: %w", err)
	}
	if len(parsed.Data) == 0 || parsed.Data[0].B64JSON == "" {
		return nil, fmt.Errorf("openai returned no image data")
	}

	data, err := base64.StdEncoding.DecodeString(parsed.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("decode image base64: %w", err)
	}
	return data, nil
}
