package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/cuongbtq/ats-ingest/internal/api/domain"
	"github.com/cuongbtq/ats-ingest/internal/api/dto"
	"github.com/cuongbtq/ats-ingest/internal/api/storage"
	"github.com/cuongbtq/ats-ingest/internal/ingest"
	"github.com/cuongbtq/ats-ingest/internal/slug"
	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	headerActorName  = "X-Actor-Name"
	headerActorEmail = "X-Actor-Email"
)

// CreateJobPostings handles POST /api/v1/job-postings.
// The body is a single job posting object or an array of them.
func (h *JobHandler) CreateJobPostings(c *gin.Context) {
	body, ok := h.readBody(c)
	if !ok {
		return
	}

	sub, err := dto.DecodeSubmission(body)
	if err != nil {
		if errors.Is(err, dto.ErrEmptyBody) {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Success: false,
				Message: "No job postings provided",
				Error:   err.Error(),
			})
			return
		}
		h.internalError(c, "Failed to decode job postings", err)
		return
	}

	status, resp := h.aggregator.Run(c.Request.Context(), sub, actorFrom(c))
	c.JSON(status, resp)
}

// UpdateJobPosting handles PATCH /api/v1/job-postings/:id
func (h *JobHandler) UpdateJobPosting(c *gin.Context) {
	id, ok := h.jobID(c)
	if !ok {
		return
	}

	body, ok := h.readBody(c)
	if !ok {
		return
	}

	rec, err := h.pipeline.Update(c.Request.Context(), id, body, actorFrom(c))
	if err != nil {
		var verr *ingest.ValidationError
		switch {
		case errors.Is(err, domain.ErrJobNotFound):
			h.notFound(c, id)
		case errors.As(err, &verr):
			c.JSON(http.StatusBadRequest, dto.SingleResponse{
				Success: false,
				Message: "Failed to update job posting",
				Error:   verr.Error(),
			})
		default:
			h.internalError(c, "Failed to update job posting", err)
		}
		return
	}

	c.JSON(http.StatusOK, dto.SingleResponse{
		Success: true,
		Message: "Job posting updated successfully",
		Job:     dto.NewJobPostingDTO(rec),
	})
}

// GetJobPosting handles GET /api/v1/job-postings/:id
func (h *JobHandler) GetJobPosting(c *gin.Context) {
	id, ok := h.jobID(c)
	if !ok {
		return
	}

	rec, err := h.jobs.FindByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			h.notFound(c, id)
			return
		}
		h.internalError(c, "Failed to get job posting", err)
		return
	}

	c.JSON(http.StatusOK, dto.SingleResponse{
		Success: true,
		Message: "Job posting retrieved successfully",
		Job:     dto.NewJobPostingDTO(rec),
	})
}

// ListJobPostings handles GET /api/v1/job-postings with cursor pagination
func (h *JobHandler) ListJobPostings(c *gin.Context) {
	var req dto.ListJobPostingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.badRequest(c, "Invalid query parameters", err.Error())
		return
	}

	if req.PageSize <= 0 {
		req.PageSize = defaultPageSize
	}
	if req.PageSize > maxPageSize {
		req.PageSize = maxPageSize
	}

	filter := storage.JobFilter{
		CompanyID: req.CompanyID,
		PageSize:  req.PageSize,
	}

	if req.JobStatus != "" {
		status := domain.JobStatus(strings.ToUpper(req.JobStatus))
		if !containsStatus(status) {
			h.badRequest(c, "Invalid query parameters", "jobStatus must be one of ACTIVE, PAUSED, CLOSED, FILLED")
			return
		}
		filter.JobStatus = string(status)
	}
	if req.WorkType != "" {
		workType := domain.WorkType(strings.ToUpper(req.WorkType))
		if !containsWorkType(workType) {
			h.badRequest(c, "Invalid query parameters", "workType must be one of ONSITE, REMOTE, HYBRID")
			return
		}
		filter.WorkType = string(workType)
	}

	cursor, err := DecodeJobCursor(req.Cursor)
	if err != nil {
		h.badRequest(c, "Invalid cursor", err.Error())
		return
	}
	filter.Cursor = cursor

	jobs, err := h.jobs.ListJobs(c.Request.Context(), filter)
	if err != nil {
		h.internalError(c, "Failed to list job postings", err)
		return
	}

	hasMore := len(jobs) > req.PageSize
	if hasMore {
		jobs = jobs[:req.PageSize]
	}

	resp := dto.ListJobPostingsResponse{Jobs: make([]*dto.JobPostingDTO, len(jobs))}
	for i, job := range jobs {
		resp.Jobs[i] = dto.NewJobPostingDTO(job)
	}
	if hasMore {
		last := jobs[len(jobs)-1]
		resp.NextCursor = EncodeJobCursor(&storage.JobCursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	c.JSON(http.StatusOK, resp)
}

// GetJobListing handles GET /api/v1/job-listings/:slug.
// Only the trailing id is authoritative; a stale slug resolves with redirect set.
func (h *JobHandler) GetJobListing(c *gin.Context) {
	requested := c.Param("slug")

	id, err := slug.ParseID(requested)
	if err != nil {
		h.badRequest(c, "Invalid job listing slug", err.Error())
		return
	}

	rec, err := h.jobs.FindByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			h.notFound(c, id)
			return
		}
		h.internalError(c, "Failed to get job listing", err)
		return
	}

	job := dto.NewJobPostingDTO(rec)
	c.JSON(http.StatusOK, dto.JobListingResponse{
		Success:       true,
		Job:           job,
		CanonicalSlug: job.Slug,
		Redirect:      job.Slug != requested,
	})
}

func (h *JobHandler) readBody(c *gin.Context) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, dto.ErrorResponse{
				Success: false,
				Message: "Request body too large",
				Error:   err.Error(),
			})
			return nil, false
		}
		h.internalError(c, "Failed to read request body", err)
		return nil, false
	}
	return body, true
}

func (h *JobHandler) jobID(c *gin.Context) (int64, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		h.badRequest(c, "Invalid job posting id", "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func (h *JobHandler) badRequest(c *gin.Context, message, detail string) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Success: false, Message: message, Error: detail})
}

func (h *JobHandler) notFound(c *gin.Context, id int64) {
	c.JSON(http.StatusNotFound, dto.ErrorResponse{
		Success: false,
		Message: "Job posting not found",
		Error:   domain.ErrJobNotFound.Error() + ": " + strconv.FormatInt(id, 10),
	})
}

func (h *JobHandler) internalError(c *gin.Context, what string, err error) {
	h.logger.Error(what,
		slog.String("path", c.Request.URL.Path),
		slog.Any("error", err),
	)
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
		Success: false,
		Message: "Internal server error",
		Error:   err.Error(),
	})
}

func actorFrom(c *gin.Context) domain.Actor {
	return domain.Actor{
		Name:  strings.TrimSpace(c.GetHeader(headerActorName)),
		Email: strings.TrimSpace(c.GetHeader(headerActorEmail)),
	}
}

func containsStatus(s domain.JobStatus) bool {
	for _, v := range domain.JobStatuses {
		if v == s {
			return true
		}
	}
	return false
}

func containsWorkType(w domain.WorkType) bool {
	for _, v := range domain.WorkTypes {
		if v == w {
			return true
		}
	}
	return false
}
