package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/ats-ingest/internal/embedding"
	"github.com/cuongbtq/ats-ingest/internal/worker/domain"
)

var errRejected = errors.New("matching service rejected update")

// processJob claims the job, sends its current content to the matching service and records the outcome.
// A nil return acknowledges the message.
func (w *Worker) processJob(ctx context.Context, msg *domain.JobMessage) error {
	job, err := w.store.ClaimRefresh(ctx, msg.JobID, w.workerID, w.staleAfter())
	switch {
	case errors.Is(err, domain.ErrJobNotFound):
		w.logger.Warn("Job posting deleted before refresh, skipping",
			slog.Int64("job_id", msg.JobID),
		)
		return nil
	case errors.Is(err, domain.ErrRefreshInProgress):
		if msg.Redelivered {
			return fmt.Errorf("%w: %v", domain.ErrMaxRetriesExceeded, err)
		}
		return domain.NewRetryableError(err)
	case err != nil:
		if msg.Redelivered {
			return fmt.Errorf("%w: failed to claim job: %v", domain.ErrMaxRetriesExceeded, err)
		}
		return domain.NewRetryableError(fmt.Errorf("failed to claim job: %w", err))
	}

	if isStale(msg, job) {
		w.logger.Info("Embedding already newer than request, skipping",
			slog.Int64("job_id", job.ID),
			slog.Time("requested_at", msg.RequestedAt),
			slog.Time("refreshed_at", job.EmbeddingRefreshedAt.Time),
		)
		if err := w.store.Release(ctx, job.ID, w.workerID); err != nil {
			w.logger.Error("Failed to release claim",
				slog.Int64("job_id", job.ID),
				slog.String("error", err.Error()),
			)
		}
		return nil
	}

	jobCtx := ctx
	if w.jobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, w.jobTimeout)
		defer cancel()
	}

	heartbeatDone := make(chan struct{})
	go w.sendJobHeartbeat(jobCtx, job.ID, heartbeatDone)
	defer close(heartbeatDone)

	result, err := w.embedder.Update(jobCtx, refreshRequest(job, msg.RequestedAt))
	if err == nil && !result.Success {
		err = fmt.Errorf("%w: %s", errRejected, result.Message)
	}
	if err != nil && ctx.Err() != nil {
		// shutting down: hand the message back untouched
		if relErr := w.store.Release(context.WithoutCancel(ctx), job.ID, w.workerID); relErr != nil {
			w.logger.Error("Failed to release claim",
				slog.Int64("job_id", job.ID),
				slog.String("error", relErr.Error()),
			)
		}
		return domain.NewRetryableError(fmt.Errorf("refresh interrupted: %w", err))
	}
	if err != nil {
		if markErr := w.store.MarkFailed(ctx, job.ID, w.workerID, err.Error()); markErr != nil {
			w.logger.Error("Failed to mark embedding FAILED",
				slog.Int64("job_id", job.ID),
				slog.String("error", markErr.Error()),
			)
		}

		if isTemporary(err) && !msg.Redelivered {
			w.logger.Info("Refresh will be retried",
				slog.Int64("job_id", job.ID),
				slog.String("error", err.Error()),
			)
			return domain.NewRetryableError(fmt.Errorf("embedding update failed: %w", err))
		}
		return fmt.Errorf("%w: %v", domain.ErrMaxRetriesExceeded, err)
	}

	if err := w.store.MarkRefreshed(ctx, job.ID, w.workerID, result.EmbeddingSize); err != nil {
		// the embedding exists in the matching service, so the message is still acknowledged
		w.logger.Error("Failed to mark embedding READY",
			slog.Int64("job_id", job.ID),
			slog.String("error", err.Error()),
		)
	}

	w.logger.Info("Embedding refreshed",
		slog.Int64("job_id", job.ID),
		slog.Int("embedding_size", result.EmbeddingSize),
		slog.Bool("was_edited", result.WasEdited),
	)
	return nil
}

// sendJobHeartbeat periodically extends the claim while the update runs
func (w *Worker) sendJobHeartbeat(ctx context.Context, jobID int64, done <-chan struct{}) {
	ticker := time.NewTicker(w.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.store.TouchHeartbeat(ctx, jobID, w.workerID); err != nil {
				w.logger.Warn("Failed to update heartbeat",
					slog.Int64("job_id", jobID),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

func refreshRequest(job *domain.EmbeddingJob, requestedAt time.Time) embedding.RefreshRequest {
	return embedding.RefreshRequest{
		JobID: job.ID,
		JobData: embedding.JobData{
			ID:              job.ID,
			Title:           job.Title,
			Description:     job.Description,
			Requirements:    job.Requirements,
			RequiredSkills:  job.RequiredSkills,
			ExperienceLevel: job.ExperienceLevel,
			Company:         job.Company,
		},
		RequestedAt: requestedAt,
	}
}

// isStale reports whether the stored embedding was computed after the request was made
func isStale(msg *domain.JobMessage, job *domain.EmbeddingJob) bool {
	if msg.RequestedAt.IsZero() || !job.EmbeddingRefreshedAt.Valid {
		return false
	}
	return job.EmbeddingRefreshedAt.Time.After(msg.RequestedAt)
}

// isTemporary treats transport failures, timeouts and 5xx/429 replies as retryable
func isTemporary(err error) bool {
	if errors.Is(err, errRejected) {
		return false
	}
	var statusErr *embedding.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}
	return true
}
