package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"trygo/config"
	"trygo/providers"
)

var httpClient = &http.Client{Timeout: 60 * time.Second}

// Client talks to a WordPress REST API (posts + media sub-resources) using
// Basic auth with an application password.
type Client struct {
	Config *config.Config
	Logger *zap.Logger
}

// NewClient creates a new WordPress publish client.
func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	return &Client{Config: cfg, Logger: logger}
}

type wpPost struct {
	ID   int64  `json:"id"`
	Link string `json:"link"`
}

type wpError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type wpCategory struct {
	ID int64 `json:"id"`
}

// Publish creates a live post. Any non-2xx answer from WordPress is reported
// as Success=false with the API's message; only transport-level failures are
// returned as errors.
func (c *Client) Publish(ctx context.Context, in providers.PostInput) (*providers.PublishResult, error) {
	log := c.Logger.With(zap.String("title", in.Title))

	var mediaID int64
	if in.ImageURL != "" {
		id, err := c.sideloadMedia(ctx, in.ImageURL)
		if err != nil {
			// A missing featured image does not block the post itself.
			log.Warn("Media sideload failed, publishing without featured image", zap.Error(err))
		} else {
			mediaID = id
		}
	}

	payload := map[string]any{
		"title":   in.Title,
		"content": in.Content,
		"status":  "publish",
	}
	if mediaID != 0 {
		payload["featured_media"] = mediaID
	}
	if in.Category != "" {
		if catID, err := c.ensureCategory(ctx, in.Category); err != nil {
			log.Warn("Category lookup failed, publishing uncategorized", zap.String("category", in.Category), zap.Error(err))
		} else {
			payload["categories"] = []int64{catID}
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal post payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("posts"), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.SetBasicAuth(c.Config.WordPressUser, c.Config.WordPressAppPassword)
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read post response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var apiErr wpError
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
			msg = apiErr.Message
		}
		log.Warn("WordPress rejected the post", zap.Int("status", resp.StatusCode), zap.String("message", msg))
		return &providers.PublishResult{Success: false, ErrorMessage: msg}, nil
	}

	var post wpPost
	if err := json.Unmarshal(raw, &post); err != nil {
		return nil, fmt.Errorf("decode post response: %w", err)
	}

	log.Info("WordPress post created", zap.Int64("post_id", post.ID), zap.String("link", post.Link))
	return &providers.PublishResult{Success: true, PostID: post.ID, PostURL: post.Link}, nil
}

// sideloadMedia downloads the asset and uploads it to the media sub-resource.
func (c *Client) sideloadMedia(ctx context.Context, assetURL string) (int64, error) {
	dlReq, err := http.NewRequestWithContext(ctx, http.MethodGet, assetURL, nil)
	if err != nil {
		return 0, fmt.Errorf("new download request: %w", err)
	}
	dlResp, err := httpClient.Do(dlReq)
	if err != nil {
		return 0, err
	}
	defer dlResp.Body.Close()
	if dlResp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("asset download failed with status %d", dlResp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(dlResp.Body, 20<<20))
	if err != nil {
		return 0, fmt.Errorf("read asset: %w", err)
	}

	filename := path.Base(assetURL)
	if filename == "" || filename == "." || filename == "/" {
		filename = "featured-image.png"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("media"), bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("new media request: %w", err)
	}
	req.SetBasicAuth(c.Config.WordPressUser, c.Config.WordPressAppPassword)
	contentType := dlResp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/png"
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	resp, err := httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return 0, fmt.Errorf("media upload failed %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	var media wpPost
	if err := json.NewDecoder(resp.Body).Decode(&media); err != nil {
		return 0, fmt.Errorf("decode media response: %w", err)
	}
	return media.ID, nil
}

// ensureCategory resolves a category name to its id, creating it on demand.
func (c *Client) ensureCategory(ctx context.Context, name string) (int64, error) {
	searchURL := c.endpoint("categories") + "?search=" + url.QueryEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return 0, fmt.Errorf("new category request: %w", err)
	}
	req.SetBasicAuth(c.Config.WordPressUser, c.Config.WordPressAppPassword)

	resp, err := httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		var cats []wpCategory
		if err := json.NewDecoder(resp.Body).Decode(&cats); err == nil && len(cats) > 0 {
			return cats[0].ID, nil
		}
	}

	body, err := json.Marshal(map[string]string{"name": name})
	if err != nil {
		return 0, fmt.Errorf("marshal category payload: %w", err)
	}
	createReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("categories"), bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("new category request: %w", err)
	}
	createReq.SetBasicAuth(c.Config.WordPressUser, c.Config.WordPressAppPassword)
	createReq.Header.Set("Content-Type", "application/json")

	createResp, err := httpClient.Do(createReq)
	if err != nil {
		return 0, err
	}
	defer createResp.Body.Close()
	if createResp.StatusCode < http.StatusOK || createResp.StatusCode >= http.StatusMultipleChoices {
		return 0, fmt.Errorf("category create failed with status %d", createResp.StatusCode)
	}

	var cat wpCategory
	if err := json.NewDecoder(createResp.Body).Decode(&cat); err != nil {
		return 0, fmt.Errorf("decode category response: %w", err)
	}
	return cat.ID, nil
}

func (c *Client) endpoint(resource string) string {
	return strings.TrimRight(c.Config.WordPressBaseURL, "/") + "/wp-json/wp/v2/" + resource
}
