package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"ccms/internal/config"
	"ccms/internal/domain"
	"ccms/internal/ports"
	"ccms/internal/retry"
)

const (
	postsPath = "/wp-json/wp/v2/posts"
	mediaPath = "/wp-json/wp/v2/media"
	mePath    = "/wp-json/wp/v2/users/me"
)

// Client publishes posts and media through the WordPress REST API using an application password.
type Client struct {
	baseURL     string
	username    string
	appPassword string
	client      *http.Client
	logger      *zap.Logger
}

var _ ports.Publisher = (*Client)(nil)

// httpError keeps the last response status so failed results can report it.
type httpError struct {
	code   int
	status string
	body   string
}

func (e *httpError) Error() string {
	if e.body == "" {
		return "wordpress returned " + e.status
	}
	return fmt.Sprintf("wordpress returned %s: %s", e.status, e.body)
}

// NewClient registers the site and credentials.
func NewClient(cfg config.WordPressConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		username:    cfg.Username,
		appPassword: cfg.AppPassword,
		client:      &http.Client{Timeout: timeout},
		logger:      logger,
	}
}

// Check verifies the credentials against the current-user endpoint.
func (c *Client) Check(ctx context.Context) error {
	if err := c.configured(); err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodGet, mePath, nil)
	if err != nil {
		return err
	}
	_, err = c.do(req, nil)
	return err
}

// Publish creates the post, then attaches ACF fields. An ACF failure only adds a warning.
func (c *Client) Publish(ctx context.Context, req domain.PublishRequest) domain.PublishResult {
	if err := c.configured(); err != nil {
		return domain.PublishResult{Error: err.Error()}
	}

	status := req.Status
	if status == "" {
		status = "draft"
	}
	payload := map[string]any{
		"title":          req.Title,
		"content":        req.HTML,
		"status":         status,
		"excerpt":        req.Excerpt,
		"comment_status": "closed",
		"ping_status":    "closed",
	}
	if req.FeaturedMedia > 0 {
		payload["featured_media"] = req.FeaturedMedia
	}
	if len(req.Meta) > 0 {
		payload["meta"] = req.Meta
	}

	policy := retry.FromSettings(req.Retry)
	var created struct {
		ID   int    `json:"id"`
		Link string `json:"link"`
	}
	code, attempts, err := c.sendJSON(ctx, policy, postsPath, payload, &created)
	if err != nil {
		result := domain.PublishResult{Attempts: attempts, Error: err.Error()}
		var he *httpError
		if errors.As(err, &he) {
			result.StatusCode, result.StatusText = he.code, he.status
		}
		c.logger.Error("publish failed", zap.Int("attempts", attempts), zap.Error(err))
		return result
	}

	result := domain.PublishResult{
		Success:    true,
		PostID:     created.ID,
		URL:        created.Link,
		StatusCode: code,
		StatusText: http.StatusText(code),
		Attempts:   attempts,
	}

	if len(req.ACF) > 0 {
		path := fmt.Sprintf("%s/%d", postsPath, created.ID)
		if _, _, err := c.sendJSON(ctx, policy, path, map[string]any{"acf": req.ACF}, nil); err != nil {
			c.logger.Warn("acf update failed", zap.Int("post_id", created.ID), zap.Error(err))
			result.Warnings = append(result.Warnings, "acf update failed: "+err.Error())
		}
	}

	c.logger.Info("post published", zap.Int("post_id", created.ID), zap.String("url", created.Link), zap.String("status", status))
	return result
}

// UploadMedia sends raw bytes to the media library and sets alt text when given.
func (c *Client) UploadMedia(ctx context.Context, upload domain.MediaUpload) domain.MediaUploadResult {
	if err := c.configured(); err != nil {
		return domain.MediaUploadResult{Error: err.Error()}
	}
	if len(upload.Data) == 0 {
		return domain.MediaUploadResult{Error: "empty media payload"}
	}

	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	var created struct {
		ID        int    `json:"id"`
		SourceURL string `json:"source_url"`
	}
	policy := retry.FromSettings(upload.Retry)
	code, attempts, err := retry.Do(ctx, policy, func(ctx context.Context) (int, error) {
		req, err := c.newRequest(ctx, http.MethodPost, mediaPath, bytes.NewReader(upload.Data))
		if err != nil {
			return 0, retry.Permanent(err)
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", upload.Filename))
		return c.do(req, &created)
	}, c.notify(mediaPath))
	if err != nil {
		result := domain.MediaUploadResult{Attempts: attempts, Error: err.Error()}
		var he *httpError
		if errors.As(err, &he) {
			result.StatusCode, result.StatusText = he.code, he.status
		}
		return result
	}

	if upload.AltText != "" {
		path := fmt.Sprintf("%s/%d", mediaPath, created.ID)
		if _, _, err := c.sendJSON(ctx, retry.Policy{Attempts: 1}, path, map[string]any{"alt_text": upload.AltText}, nil); err != nil {
			c.logger.Warn("alt text update failed", zap.Int("media_id", created.ID), zap.Error(err))
		}
	}

	return domain.MediaUploadResult{
		Success:    true,
		ID:         created.ID,
		URL:        created.SourceURL,
		StatusCode: code,
		StatusText: http.StatusText(code),
		Attempts:   attempts,
	}
}

func (c *Client) sendJSON(ctx context.Context, policy retry.Policy, path string, payload, v any) (int, int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, 0, fmt.Errorf("marshal payload: %w", err)
	}
	return retry.Do(ctx, policy, func(ctx context.Context) (int, error) {
		req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(body))
		if err != nil {
			return 0, retry.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		return c.do(req, v)
	}, c.notify(path))
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.SetBasicAuth(c.username, c.appPassword)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// do accepts 200 and 201. Every other status is returned as a retryable error.
func (c *Client) do(req *http.Request, v any) (int, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resp.StatusCode, &httpError{code: resp.StatusCode, status: resp.Status, body: strings.TrimSpace(string(snippet))}
	}

	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return resp.StatusCode, retry.Permanent(fmt.Errorf("decode response: %w", err))
		}
	}
	return resp.StatusCode, nil
}

func (c *Client) notify(path string) retry.Notify {
	return func(attempt int, err error, next time.Duration) {
		c.logger.Warn("wordpress request failed",
			zap.String("path", path),
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", next),
			zap.Error(err))
	}
}

func (c *Client) configured() error {
	if c.baseURL == "" || c.username == "" || c.appPassword == "" {
		return errors.New("wordpress client misconfigured")
	}
	return nil
}
