package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cuongbtq/ats-ingest/internal/api/domain"
	"github.com/cuongbtq/ats-ingest/internal/embedding"
)

// EmbeddingRefresher regenerates the search embedding of a job
type EmbeddingRefresher interface {
	Refresh(ctx context.Context, req embedding.RefreshRequest) error
}

// Notifier tells stakeholders about job posting changes
type Notifier interface {
	SendCreate(ctx context.Context, to string, job *domain.JobRecord, info domain.ActionInfo) error
	SendUpdate(ctx context.Context, to string, job *domain.JobRecord, info domain.ActionInfo) error
	SendDelete(ctx context.Context, to string, job *domain.JobRecord, info domain.ActionInfo) error
}

const defaultRefreshTimeout = 30 * time.Second

// Orchestrator runs the best-effort side effects of a successful write.
// The embedding refresh is detached from the request; the notification is awaited but
// can never fail the write.
type Orchestrator struct {
	refresher      EmbeddingRefresher
	notifier       Notifier
	logger         *slog.Logger
	refreshTimeout time.Duration
	now            func() time.Time

	inflight sync.WaitGroup
}

// NewOrchestrator creates an Orchestrator
func NewOrchestrator(refresher EmbeddingRefresher, notifier Notifier, refreshTimeout time.Duration, logger *slog.Logger) *Orchestrator {
	if refreshTimeout <= 0 {
		refreshTimeout = defaultRefreshTimeout
	}
	return &Orchestrator{
		refresher:      refresher,
		notifier:       notifier,
		logger:         logger,
		refreshTimeout: refreshTimeout,
		now:            time.Now,
	}
}

// JobCreated fires the refresh and the creation notification
func (o *Orchestrator) JobCreated(ctx context.Context, job *domain.JobRecord, actor domain.Actor) {
	o.refresh(ctx, job)
	o.notify(ctx, job, domain.ActionInfo{
		Action:     domain.ActionCreated,
		ActorName:  actor.DisplayName(),
		ActorEmail: actor.Email,
		Timestamp:  o.now(),
		Reason:     "New job posting created",
	})
}

// JobUpdated refreshes the embedding only when searchable content changed,
// and sends an update or status change notification
func (o *Orchestrator) JobUpdated(ctx context.Context, before, after *domain.JobRecord, actor domain.Actor) {
	if domain.ContentChanged(&before.JobPosting, &after.JobPosting) {
		o.refresh(ctx, after)
	} else {
		o.logger.Debug("Embedding content unchanged, skipping refresh", slog.Int64("job_id", after.ID))
	}

	info := domain.ActionInfo{
		Action:     domain.ActionUpdated,
		ActorName:  actor.DisplayName(),
		ActorEmail: actor.Email,
		Timestamp:  o.now(),
		Reason:     "Job posting updated",
	}
	if before.JobStatus != after.JobStatus {
		info.Action = domain.ActionStatusChanged
		info.Reason = fmt.Sprintf("Job status changed from %s to %s", before.JobStatus, after.JobStatus)
	}
	o.notify(ctx, after, info)
}

// Wait blocks until in-flight refreshes finish or ctx is done
func (o *Orchestrator) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		o.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) refresh(ctx context.Context, job *domain.JobRecord) {
	if o.refresher == nil {
		return
	}

	req := embedding.NewRefreshRequest(job, o.now())
	detached := context.WithoutCancel(ctx)

	o.inflight.Add(1)
	go func() {
		defer o.inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				o.logger.Error("Embedding refresh panicked",
					slog.Int64("job_id", req.JobID),
					slog.Any("panic", r),
				)
			}
		}()

		refreshCtx, cancel := context.WithTimeout(detached, o.refreshTimeout)
		defer cancel()

		if err := o.refresher.Refresh(refreshCtx, req); err != nil {
			o.logger.Warn("Embedding refresh failed",
				slog.Int64("job_id", req.JobID),
				slog.Any("error", err),
			)
			return
		}
		o.logger.Info("Embedding refresh requested", slog.Int64("job_id", req.JobID))
	}()
}

func (o *Orchestrator) notify(ctx context.Context, job *domain.JobRecord, info domain.ActionInfo) {
	if o.notifier == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("Notification panicked",
				slog.Int64("job_id", job.ID),
				slog.Any("panic", r),
			)
		}
	}()

	var err error
	switch info.Action {
	case domain.ActionCreated:
		err = o.notifier.SendCreate(ctx, job.Email, job, info)
	case domain.ActionDeleted:
		err = o.notifier.SendDelete(ctx, job.Email, job, info)
	default:
		err = o.notifier.SendUpdate(ctx, job.Email, job, info)
	}
	if err != nil {
		o.logger.Warn("Notification failed",
			slog.Int64("job_id", job.ID),
			slog.String("action", string(info.Action)),
			slog.Any("error", err),
		)
	}
}
