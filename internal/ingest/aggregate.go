package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/cuongbtq/ats-ingest/internal/api/domain"
	"github.com/cuongbtq/ats-ingest/internal/api/dto"
)

// DefaultMaxBatchSize caps the number of postings accepted in one request
const DefaultMaxBatchSize = 50

// Aggregator runs a submission through the pipeline and builds the HTTP response
type Aggregator struct {
	pipeline     *Pipeline
	maxBatchSize int
	logger       *slog.Logger
}

// NewAggregator creates an Aggregator
func NewAggregator(pipeline *Pipeline, maxBatchSize int, logger *slog.Logger) *Aggregator {
	if maxBatchSize <= 0 {
		maxBatchSize = DefaultMaxBatchSize
	}
	return &Aggregator{
		pipeline:     pipeline,
		maxBatchSize: maxBatchSize,
		logger:       logger,
	}
}

// Run processes every item in input order and returns the status code and body
func (a *Aggregator) Run(ctx context.Context, sub *dto.Submission, actor domain.Actor) (int, any) {
	if !sub.Batch {
		return a.single(ctx, sub.Items[0], actor)
	}

	n := len(sub.Items)
	if n == 0 {
		return http.StatusBadRequest, dto.ErrorResponse{
			Success: false,
			Message: "No job postings provided",
			Error:   "request body must contain at least one job posting",
		}
	}
	if n > a.maxBatchSize {
		return http.StatusBadRequest, dto.ErrorResponse{
			Success: false,
			Message: "Too many job postings in one request",
			Error:   fmt.Sprintf("batch contains %d job postings, the limit is %d", n, a.maxBatchSize),
		}
	}

	resp := dto.BatchResponse{
		TotalJobs: n,
		Results:   []dto.ItemResult{},
		Errors:    []dto.ItemError{},
	}
	merged := make(map[string]string)
	seen := make(map[string]bool)

	for i, item := range sub.Items {
		out := a.pipeline.Process(ctx, item, actor)
		if out.Success() {
			resp.Results = append(resp.Results, dto.ItemResult{
				Index:   i,
				Success: true,
				Job:     dto.NewJobPostingDTO(out.Record),
			})
			continue
		}

		itemErr := dto.ItemError{Index: i, Success: false, Error: out.Err.Error()}
		var verr *ValidationError
		if errors.As(out.Err, &verr) {
			itemErr.FieldErrors = verr.FieldErrors()
			itemErr.Suggestions = verr.Suggestions()
			for field, msg := range itemErr.FieldErrors {
				merged[fmt.Sprintf("jobs[%d].%s", i, field)] = msg
			}
			for _, s := range itemErr.Suggestions {
				if !seen[s] {
					seen[s] = true
					resp.Suggestions = append(resp.Suggestions, s)
				}
			}
		}
		resp.Errors = append(resp.Errors, itemErr)
	}

	resp.SuccessfulJobs = len(resp.Results)
	resp.FailedJobs = len(resp.Errors)
	if len(merged) > 0 {
		resp.ValidationErrors = merged
	}

	a.logger.Info("Batch processed",
		slog.Int("total", n),
		slog.Int("successful", resp.SuccessfulJobs),
		slog.Int("failed", resp.FailedJobs),
	)

	switch {
	case resp.FailedJobs == 0:
		resp.Success = true
		resp.Message = fmt.Sprintf("Successfully created %d job postings", n)
		return http.StatusCreated, resp
	case resp.SuccessfulJobs == 0:
		resp.Success = false
		resp.Message = fmt.Sprintf("Failed to create all %d job postings", n)
		return http.StatusBadRequest, resp
	default:
		resp.Success = true
		resp.Message = fmt.Sprintf("Partially successful: created %d of %d job postings", resp.SuccessfulJobs, n)
		return http.StatusMultiStatus, resp
	}
}

func (a *Aggregator) single(ctx context.Context, item dto.Item, actor domain.Actor) (int, any) {
	out := a.pipeline.Process(ctx, item, actor)
	if !out.Success() {
		return http.StatusBadRequest, dto.SingleResponse{
			Success: false,
			Message: "Failed to create job posting",
			Error:   out.Err.Error(),
		}
	}
	return http.StatusCreated, dto.SingleResponse{
		Success: true,
		Message: "Job posting created successfully",
		Job:     dto.NewJobPostingDTO(out.Record),
	}
}
