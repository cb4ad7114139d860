package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const updatePath = "/job-post-embeddings/update-job-embedding"

// ClientConfig holds matching service connection settings
type ClientConfig struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64 // requests per second, 0 disables limiting
	Burst     int
}

// Result is the matching service reply to an update
type Result struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	JobID         int64  `json:"job_id"`
	EmbeddingSize int    `json:"embedding_size"`
	WasEdited     bool   `json:"was_edited"`
}

// StatusError is returned for non-2xx replies
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("matching service returned status %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether retrying may succeed
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// Client calls the matching service over HTTP
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a matching service client
func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		logger:     logger,
	}
}

// Update recomputes the embedding of one job and returns the service reply
func (c *Client) Update(ctx context.Context, req RefreshRequest) (*Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	body, err := json.Marshal(struct {
		JobID   int64   `json:"job_id"`
		JobData JobData `json:"job_data"`
	}{JobID: req.JobID, JobData: req.JobData})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+updatePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build embedding request: %w", err)
	}
	httpReq.Header.Set("Content-Type", ContentType)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call matching service: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read matching service response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(payload))}
	}

	var result Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("failed to decode matching service response: %w", err)
	}

	c.logger.Info("Job embedding updated",
		slog.Int64("job_id", req.JobID),
		slog.Int("embedding_size", result.EmbeddingSize),
		slog.Bool("was_edited", result.WasEdited),
		slog.Duration("latency", time.Since(start)),
	)

	return &result, nil
}

// Refresh satisfies the refresher contract for deployments without a broker
func (c *Client) Refresh(ctx context.Context, req RefreshRequest) error {
	_, err := c.Update(ctx, req)
	return err
}
