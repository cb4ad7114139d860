package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/ats-ingest/internal/api/domain"
	"github.com/cuongbtq/ats-ingest/internal/api/dto"
)

// JobStore persists job postings. Each call is one atomic write or read.
type JobStore interface {
	Create(ctx context.Context, job *domain.JobPosting) (*domain.JobRecord, error)
	Update(ctx context.Context, id int64, job *domain.JobPosting) (*domain.JobRecord, error)
	FindByID(ctx context.Context, id int64) (*domain.JobRecord, error)
}

// CompanyChecker reports whether a company exists
type CompanyChecker interface {
	CompanyExists(ctx context.Context, id int64) (bool, error)
}

// Outcome is the result of processing one job posting: a record or an error
type Outcome struct {
	Record *domain.JobRecord
	Err    error
}

// Success reports whether the item was persisted
func (o Outcome) Success() bool {
	return o.Err == nil
}

// Pipeline validates, persists and announces job postings one at a time
type Pipeline struct {
	store     JobStore
	companies CompanyChecker
	effects   *Orchestrator
	logger    *slog.Logger
}

// NewPipeline creates a Pipeline. companies may be nil, in which case the store's
// foreign key is the only company check.
func NewPipeline(store JobStore, companies CompanyChecker, effects *Orchestrator, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		store:     store,
		companies: companies,
		effects:   effects,
		logger:    logger,
	}
}

// Process runs one submitted item through validation, persistence and side effects
func (p *Pipeline) Process(ctx context.Context, item dto.Item, actor domain.Actor) Outcome {
	if item.Err != nil {
		return Outcome{Err: payloadError(item.Err)}
	}

	job, err := Normalize(&item.Input)
	if err != nil {
		return Outcome{Err: err}
	}

	if err := p.checkCompany(ctx, job.CompanyID); err != nil {
		return Outcome{Err: err}
	}

	rec, err := p.store.Create(ctx, job)
	if err != nil {
		return Outcome{Err: p.persistError(err, job.CompanyID, "create")}
	}

	p.logger.Info("Job posting created",
		slog.Int64("job_id", rec.ID),
		slog.Int64("company_id", rec.CompanyID),
	)

	p.effects.JobCreated(ctx, rec, actor)
	return Outcome{Record: rec}
}

// Update overlays a partial JSON object on an existing job posting and re-validates the result
func (p *Pipeline) Update(ctx context.Context, id int64, patch []byte, actor domain.Actor) (*domain.JobRecord, error) {
	before, err := p.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(patch, &fields); err != nil || fields == nil {
		if err == nil {
			err = errors.New("update body must be a JSON object")
		}
		return nil, payloadError(err)
	}

	in := before.Input()
	_, hasCity := fields["city"]
	_, hasCountry := fields["country"]
	if _, hasLocation := fields["fullLocation"]; (hasCity || hasCountry) && !hasLocation {
		in.FullLocation = ""
	}
	if err := json.Unmarshal(patch, &in); err != nil {
		return nil, payloadError(err)
	}

	job, err := Normalize(&in)
	if err != nil {
		return nil, err
	}

	if job.CompanyID != before.CompanyID {
		if err := p.checkCompany(ctx, job.CompanyID); err != nil {
			return nil, err
		}
	}

	after, err := p.store.Update(ctx, id, job)
	if err != nil {
		return nil, p.persistError(err, job.CompanyID, "update")
	}

	p.logger.Info("Job posting updated",
		slog.Int64("job_id", after.ID),
		slog.Int("fields", len(fields)),
	)

	p.effects.JobUpdated(ctx, before, after, actor)
	return after, nil
}

func (p *Pipeline) checkCompany(ctx context.Context, id int64) error {
	if p.companies == nil {
		return nil
	}
	exists, err := p.companies.CompanyExists(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check company %d: %w", id, err)
	}
	if !exists {
		return companyNotFound(id)
	}
	return nil
}

func (p *Pipeline) persistError(err error, companyID int64, op string) error {
	switch {
	case errors.Is(err, domain.ErrCompanyNotFound):
		return companyNotFound(companyID)
	case errors.Is(err, domain.ErrJobNotFound):
		return err
	case errors.Is(err, domain.ErrConstraintViolation):
		return payloadError(err)
	}
	p.logger.Error("Failed to persist job posting",
		slog.String("op", op),
		slog.Any("error", err),
	)
	return fmt.Errorf("failed to %s job posting: %w", op, err)
}

func companyNotFound(id int64) *ValidationError {
	verr := invalid(fieldCompanyID, KindCompanyNotFound, "Company ID %d does not exist", id)
	verr.cause = domain.ErrCompanyNotFound
	return verr
}

func payloadError(err error) *ValidationError {
	verr := invalid(fieldPayload, KindPayload, "Invalid job posting payload: %v", err)
	verr.cause = domain.ErrInvalidPayload
	return verr
}
