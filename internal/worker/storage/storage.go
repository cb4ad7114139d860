package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/ats-ingest/internal/worker/domain"
	"github.com/jmoiron/sqlx"
)

// Storage handles the embedding columns of job_postings for the worker
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
	}
}

// ClaimRefresh marks the job as PROCESSING for workerID and returns its current content.
// A PROCESSING claim whose heartbeat is older than staleAfter can be taken over.
func (s *Storage) ClaimRefresh(ctx context.Context, jobID int64, workerID string, staleAfter time.Duration) (*domain.EmbeddingJob, error) {
	query := `
		UPDATE job_postings
		SET embedding_status = $1,
		    embedding_worker_id = $2,
		    embedding_heartbeat_at = NOW(),
		    embedding_error = NULL
		WHERE id = $3
		  AND (embedding_status <> $1
		       OR embedding_heartbeat_at IS NULL
		       OR embedding_heartbeat_at < NOW() - $4 * INTERVAL '1 second')
		RETURNING id, title, company, description, requirements, required_skills,
		          experience_level, embedding_refreshed_at
	`

	var job domain.EmbeddingJob
	err := s.db.GetContext(ctx, &job, query, domain.EmbeddingStatusProcessing, workerID, jobID, staleAfter.Seconds())
	if err == nil {
		s.logger.Info("Embedding refresh claimed",
			slog.Int64("job_id", jobID),
			slog.String("worker_id", workerID),
		)
		return &job, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to claim job: %w", err)
	}

	var exists bool
	if err := s.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM job_postings WHERE id = $1)`, jobID); err != nil {
		return nil, fmt.Errorf("failed to check job: %w", err)
	}
	if !exists {
		return nil, domain.ErrJobNotFound
	}

	s.logger.Warn("Embedding refresh held by another worker",
		slog.Int64("job_id", jobID),
		slog.String("worker_id", workerID),
	)
	return nil, domain.ErrRefreshInProgress
}

// MarkRefreshed records a completed embedding and releases the claim
func (s *Storage) MarkRefreshed(ctx context.Context, jobID int64, workerID string, embeddingSize int) error {
	query := `
		UPDATE job_postings
		SET embedding_status = $1,
		    embedding_size = $2,
		    embedding_refreshed_at = NOW(),
		    embedding_worker_id = NULL,
		    embedding_error = NULL
		WHERE id = $3 AND embedding_worker_id = $4
	`
	return s.settle(ctx, query, jobID, domain.EmbeddingStatusReady, embeddingSize, jobID, workerID)
}

// MarkFailed records the failure reason and releases the claim
func (s *Storage) MarkFailed(ctx context.Context, jobID int64, workerID, reason string) error {
	query := `
		UPDATE job_postings
		SET embedding_status = $1,
		    embedding_error = $2,
		    embedding_worker_id = NULL
		WHERE id = $3 AND embedding_worker_id = $4
	`
	return s.settle(ctx, query, jobID, domain.EmbeddingStatusFailed, reason, jobID, workerID)
}

// Release drops the claim without touching the stored embedding
func (s *Storage) Release(ctx context.Context, jobID int64, workerID string) error {
	query := `
		UPDATE job_postings
		SET embedding_status = $1,
		    embedding_worker_id = NULL
		WHERE id = $2 AND embedding_worker_id = $3
	`
	return s.settle(ctx, query, jobID, domain.EmbeddingStatusReady, jobID, workerID)
}

func (s *Storage) settle(ctx context.Context, query string, jobID int64, status string, args ...any) error {
	args = append([]any{status}, args...)
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to set embedding status %s: %w", status, err)
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		s.logger.Warn("Embedding status update matched no rows (claim lost)",
			slog.Int64("job_id", jobID),
			slog.String("status", status),
		)
		return nil
	}

	s.logger.Info("Embedding status updated",
		slog.Int64("job_id", jobID),
		slog.String("status", status),
	)
	return nil
}

// TouchHeartbeat extends the worker's claim on a PROCESSING job
func (s *Storage) TouchHeartbeat(ctx context.Context, jobID int64, workerID string) error {
	query := `
		UPDATE job_postings
		SET embedding_heartbeat_at = NOW()
		WHERE id = $1 AND embedding_status = $2 AND embedding_worker_id = $3
	`

	result, err := s.db.ExecContext(ctx, query, jobID, domain.EmbeddingStatusProcessing, workerID)
	if err != nil {
		return fmt.Errorf("failed to update heartbeat: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		s.logger.Warn("Heartbeat update - no rows affected (claim may have been taken over)",
			slog.Int64("job_id", jobID),
		)
	}

	return nil
}
