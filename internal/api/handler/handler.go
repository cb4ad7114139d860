package handler

import (
	"context"
	"log/slog"

	"github.com/cuongbtq/ats-ingest/internal/api/domain"
	"github.com/cuongbtq/ats-ingest/internal/api/storage"
	"github.com/cuongbtq/ats-ingest/internal/ingest"
)

// DefaultMaxBodyBytes bounds the size of a submitted request body
const DefaultMaxBodyBytes = 4 << 20

// JobReader serves the read endpoints
type JobReader interface {
	FindByID(ctx context.Context, id int64) (*domain.JobRecord, error)
	ListJobs(ctx context.Context, filter storage.JobFilter) ([]*domain.JobRecord, error)
}

// HealthChecker is a dependency reported by /health
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger       *slog.Logger
	Pipeline     *ingest.Pipeline
	Aggregator   *ingest.Aggregator
	Jobs         JobReader
	HealthChecks map[string]HealthChecker
	MaxBodyBytes int64
	ServiceName  string
}

// JobHandler handles job posting HTTP requests
type JobHandler struct {
	logger       *slog.Logger
	pipeline     *ingest.Pipeline
	aggregator   *ingest.Aggregator
	jobs         JobReader
	maxBodyBytes int64
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	maxBody := deps.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	return &JobHandler{
		logger:       deps.Logger,
		pipeline:     deps.Pipeline,
		aggregator:   deps.Aggregator,
		jobs:         deps.Jobs,
		maxBodyBytes: maxBody,
	}
}
