package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cuongbtq/ats-ingest/internal/embedding"
	"github.com/cuongbtq/ats-ingest/internal/worker/domain"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Store is the embedding state of job postings
type Store interface {
	ClaimRefresh(ctx context.Context, jobID int64, workerID string, staleAfter time.Duration) (*domain.EmbeddingJob, error)
	MarkRefreshed(ctx context.Context, jobID int64, workerID string, embeddingSize int) error
	MarkFailed(ctx context.Context, jobID int64, workerID, reason string) error
	Release(ctx context.Context, jobID int64, workerID string) error
	TouchHeartbeat(ctx context.Context, jobID int64, workerID string) error
}

// Embedder recomputes a job embedding in the matching service
type Embedder interface {
	Update(ctx context.Context, req embedding.RefreshRequest) (*embedding.Result, error)
}

// Broker delivers refresh messages
type Broker interface {
	Consume(consumerTag string, prefetch int) (<-chan amqp.Delivery, error)
}

// Config holds worker configuration
type Config struct {
	Logger            *slog.Logger
	Store             Store
	Embedder          Embedder
	Broker            Broker
	QueueName         string
	Concurrency       int
	PrefetchCount     int
	JobTimeout        time.Duration
	HeartbeatInterval time.Duration
}

// Worker consumes embedding refresh messages and calls the matching service
type Worker struct {
	logger            *slog.Logger
	store             Store
	embedder          Embedder
	broker            Broker
	workerID          string
	queueName         string
	concurrency       int
	prefetchCount     int
	jobTimeout        time.Duration
	heartbeatInterval time.Duration
	jobsChan          chan *domain.JobMessage
	wg                sync.WaitGroup
	stopChan          chan struct{}
	stopOnce          sync.Once
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	prefetch := cfg.PrefetchCount
	if prefetch < concurrency {
		prefetch = concurrency
	}
	heartbeat := cfg.HeartbeatInterval
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}

	return &Worker{
		logger:            cfg.Logger,
		store:             cfg.Store,
		embedder:          cfg.Embedder,
		broker:            cfg.Broker,
		workerID:          uuid.NewString(),
		queueName:         cfg.QueueName,
		concurrency:       concurrency,
		prefetchCount:     prefetch,
		jobTimeout:        cfg.JobTimeout,
		heartbeatInterval: heartbeat,
		jobsChan:          make(chan *domain.JobMessage),
		stopChan:          make(chan struct{}),
	}
}

// ID is the worker's claim identity
func (w *Worker) ID() string {
	return w.workerID
}

// Start consumes until ctx is canceled
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.Duration("job_timeout", w.jobTimeout),
	)

	deliveries, err := w.setupConsumer()
	if err != nil {
		return fmt.Errorf("failed to set up consumer: %w", err)
	}

	w.spawnWorkerPool(ctx)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.startMessageDispatcher(ctx, deliveries)
	}()

	<-ctx.Done()
	w.logger.Info("Worker context canceled, stopping...")
	return nil
}

// Stop waits for in-flight refreshes to settle
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	w.stopOnce.Do(func() { close(w.stopChan) })
	w.wg.Wait()
	w.logger.Info("Worker stopped")
}

// staleAfter is how long a silent claim is honoured before another worker may take it
func (w *Worker) staleAfter() time.Duration {
	return 3 * w.heartbeatInterval
}
