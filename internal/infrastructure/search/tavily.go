package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"ccms/internal/config"
	"ccms/internal/domain"
	"ccms/internal/ports"
	"ccms/internal/retry"
)

// TavilyClient queries the Tavily search API.
type TavilyClient struct {
	endpoint string
	apiKey   string
	http     *http.Client
	limiter  *rate.Limiter
	policy   retry.Policy
	logger   *zap.Logger
}

var _ ports.WebSearcher = (*TavilyClient)(nil)

type statusError struct {
	status string
	code   int
}

func (e *statusError) Error() string { return "unexpected status " + e.status }

// retryable covers server errors, request timeouts and rate limiting.
func (e *statusError) retryable() bool {
	return e.code >= 500 || e.code == http.StatusRequestTimeout || e.code == http.StatusTooManyRequests
}

// NewTavilyClient creates a rate-limited client. A zero rate disables limiting.
func NewTavilyClient(cfg config.SearchConfig, logger *zap.Logger) *TavilyClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &TavilyClient{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		http:     &http.Client{Timeout: timeout},
		limiter:  rate.NewLimiter(limit, 1),
		policy:   retry.DefaultPolicy(),
		logger:   logger,
	}
}

// Search runs one query and returns at most maxResults hits.
func (c *TavilyClient) Search(ctx context.Context, query string, maxResults int) ([]domain.SearchHit, error) {
	if c.apiKey == "" {
		return nil, errors.New("tavily api key is not configured")
	}
	if maxResults <= 0 {
		maxResults = 5
	}

	payload := map[string]any{
		"api_key":        c.apiKey,
		"query":          query,
		"max_results":    maxResults,
		"search_depth":   "basic",
		"include_answer": false,
	}

	var resp struct {
		Results []domain.SearchHit `json:"results"`
	}

	_, attempts, err := retry.Do(ctx, c.policy, func(ctx context.Context) (struct{}, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return struct{}{}, retry.Permanent(err)
		}
		err := c.post(ctx, payload, &resp)
		var se *statusError
		if errors.As(err, &se) && !se.retryable() {
			return struct{}{}, retry.Permanent(err)
		}
		return struct{}{}, err
	}, func(attempt int, err error, next time.Duration) {
		c.logger.Warn("search attempt failed",
			zap.String("query", query),
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", next),
			zap.Error(err))
	})
	if err != nil {
		return nil, fmt.Errorf("tavily search %q after %d attempts: %w", query, attempts, err)
	}

	if len(resp.Results) > maxResults {
		resp.Results = resp.Results[:maxResults]
	}
	return resp.Results, nil
}

func (c *TavilyClient) post(ctx context.Context, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &statusError{status: resp.Status, code: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
