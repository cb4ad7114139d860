// Package notify delivers job posting change notifications to stakeholders.
package notify

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

	"github.com/cuongbtq/ats-ingest/internal/api/domain"
)

// Message is the payload posted to the email service
type Message struct {
	To     string            `json:"to"`
	Action domain.Action     `json:"action"`
	Job    *domain.JobRecord `json:"job"`
	Info   domain.ActionInfo `json:"info"`
}

// HTTPConfig holds email service settings
type HTTPConfig struct {
	Endpoint string
	Timeout  time.Duration
}

// HTTPNotifier posts notifications to an email service endpoint
type HTTPNotifier struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPNotifier creates an HTTPNotifier
func NewHTTPNotifier(cfg HTTPConfig, logger *slog.Logger) *HTTPNotifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPNotifier{
		endpoint:   cfg.Endpoint,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (n *HTTPNotifier) SendCreate(ctx context.Context, to string, job *domain.JobRecord, info domain.ActionInfo) error {
	return n.send(ctx, Message{To: to, Action: domain.ActionCreated, Job: job, Info: info})
}

func (n *HTTPNotifier) SendUpdate(ctx context.Context, to string, job *domain.JobRecord, info domain.ActionInfo) error {
	return n.send(ctx, Message{To: to, Action: info.Action, Job: job, Info: info})
}

func (n *HTTPNotifier) SendDelete(ctx context.Context, to string, job *domain.JobRecord, info domain.ActionInfo) error {
	return n.send(ctx, Message{To: to, Action: domain.ActionDeleted, Job: job, Info: info})
}

func (n *HTTPNotifier) send(ctx context.Context, msg Message) error {
	if msg.Action == "" {
		msg.Action = domain.ActionUpdated
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("email service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	n.logger.Info("Notification sent",
		slog.String("to", msg.To),
		slog.String("action", string(msg.Action)),
		slog.Int64("job_id", msg.Job.ID),
	)
	return nil
}

// LogNotifier only logs notifications. Used when email delivery is disabled.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendCreate(_ context.Context, to string, job *domain.JobRecord, info domain.ActionInfo) error {
	n.log(to, domain.ActionCreated, job, info)
	return nil
}

func (n *LogNotifier) SendUpdate(_ context.Context, to string, job *domain.JobRecord, info domain.ActionInfo) error {
	n.log(to, info.Action, job, info)
	return nil
}

func (n *LogNotifier) SendDelete(_ context.Context, to string, job *domain.JobRecord, info domain.ActionInfo) error {
	n.log(to, domain.ActionDeleted, job, info)
	return nil
}

func (n *LogNotifier) log(to string, action domain.Action, job *domain.JobRecord, info domain.ActionInfo) {
	n.logger.Info("Notification skipped, delivery disabled",
		slog.String("to", to),
		slog.String("action", string(action)),
		slog.Int64("job_id", job.ID),
		slog.String("actor", info.ActorName),
		slog.String("reason", info.Reason),
	)
}
