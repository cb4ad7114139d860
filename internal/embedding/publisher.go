package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// MessagePublisher is the broker side of the publisher
type MessagePublisher interface {
	PublishWithRetry(ctx context.Context, body []byte, contentType string) error
}

// Publisher hands refresh requests to the embedding worker through the broker
type Publisher struct {
	broker MessagePublisher
	logger *slog.Logger
}

// NewPublisher creates a Publisher
func NewPublisher(broker MessagePublisher, logger *slog.Logger) *Publisher {
	return &Publisher{broker: broker, logger: logger}
}

// Refresh enqueues a refresh request
func (p *Publisher) Refresh(ctx context.Context, req RefreshRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal refresh request: %w", err)
	}

	if err := p.broker.PublishWithRetry(ctx, body, ContentType); err != nil {
		return fmt.Errorf("failed to publish refresh request for job %d: %w", req.JobID, err)
	}

	p.logger.Debug("Embedding refresh enqueued",
		slog.Int64("job_id", req.JobID),
	)
	return nil
}
