package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cuongbtq/ats-ingest/internal/api/domain"
	"github.com/cuongbtq/ats-ingest/internal/api/model"
	"github.com/cuongbtq/ats-ingest/shared/postgresql"
	"github.com/jmoiron/sqlx"
)

const jobColumns = `
	id, title, company, company_id, company_name, department, internal_spoc,
	recruiter, email, job_type, experience_level, country, city, full_location,
	work_type, job_status, salary_min, salary_max, priority, description,
	requirements, required_skills, benefits, created_at, updated_at`

// Storage is the Postgres job posting store
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{db: db, logger: logger}
}

// Create inserts a job posting and returns the stored record
func (s *Storage) Create(ctx context.Context, job *domain.JobPosting) (*domain.JobRecord, error) {
	query := `
		INSERT INTO job_postings (
			title, company, company_id, company_name, department, internal_spoc,
			recruiter, email, job_type, experience_level, country, city, full_location,
			work_type, job_status, salary_min, salary_max, priority, description,
			requirements, required_skills, benefits
		) VALUES (
			:title, :company, :company_id, :company_name, :department, :internal_spoc,
			:recruiter, :email, :job_type, :experience_level, :country, :city, :full_location,
			:work_type, :job_status, :salary_min, :salary_max, :priority, :description,
			:requirements, :required_skills, :benefits
		)
		RETURNING ` + jobColumns

	row, err := s.namedGet(ctx, query, model.FromPosting(job))
	if err != nil {
		return nil, mapWriteError(err, "create")
	}
	return row.ToRecord(), nil
}

// Update replaces every mutable column of a job posting
func (s *Storage) Update(ctx context.Context, id int64, job *domain.JobPosting) (*domain.JobRecord, error) {
	query := `
		UPDATE job_postings SET
			title = :title, company = :company, company_id = :company_id,
			company_name = :company_name, department = :department,
			internal_spoc = :internal_spoc, recruiter = :recruiter, email = :email,
			job_type = :job_type, experience_level = :experience_level,
			country = :country, city = :city, full_location = :full_location,
			work_type = :work_type, job_status = :job_status,
			salary_min = :salary_min, salary_max = :salary_max, priority = :priority,
			description = :description, requirements = :requirements,
			required_skills = :required_skills, benefits = :benefits,
			updated_at = NOW()
		WHERE id = :id
		RETURNING ` + jobColumns

	arg := model.FromPosting(job)
	arg.ID = id

	row, err := s.namedGet(ctx, query, arg)
	if err != nil {
		return nil, mapWriteError(err, "update")
	}
	return row.ToRecord(), nil
}

// FindByID loads one job posting
func (s *Storage) FindByID(ctx context.Context, id int64) (*domain.JobRecord, error) {
	var row model.JobPosting
	err := s.db.GetContext(ctx, &row, `SELECT `+jobColumns+` FROM job_postings WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job posting: %w", err)
	}
	return row.ToRecord(), nil
}

func (s *Storage) namedGet(ctx context.Context, query string, arg *model.JobPosting) (*model.JobPosting, error) {
	rows, err := sqlx.NamedQueryContext(ctx, s.db, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, sql.ErrNoRows
	}

	var row model.JobPosting
	if err := rows.StructScan(&row); err != nil {
		return nil, err
	}
	return &row, rows.Err()
}

func mapWriteError(err error, op string) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return domain.ErrJobNotFound
	case postgresql.IsForeignKeyViolation(err):
		return fmt.Errorf("%w: %s", domain.ErrCompanyNotFound, postgresql.ConstraintName(err))
	case postgresql.IsCheckViolation(err), postgresql.IsUniqueViolation(err):
		return fmt.Errorf("%w: %s", domain.ErrConstraintViolation, postgresql.ConstraintName(err))
	}
	return fmt.Errorf("failed to %s job posting: %w", op, err)
}

// JobFilter narrows a job listing
type JobFilter struct {
	CompanyID int64
	JobStatus string
	WorkType  string
	PageSize  int
	Cursor    *JobCursor
}

// JobCursor is the position after the last row of a page
type JobCursor struct {
	CreatedAt time.Time
	ID        int64
}

// ListJobs returns up to PageSize+1 rows so the caller can tell whether more exist
func (s *Storage) ListJobs(ctx context.Context, filter JobFilter) ([]*domain.JobRecord, error) {
	query, args := buildListQuery(filter)

	var rows []model.JobPosting
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list job postings: %w", err)
	}

	out := make([]*domain.JobRecord, len(rows))
	for i := range rows {
		out[i] = rows[i].ToRecord()
	}
	return out, nil
}

func buildListQuery(filter JobFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.CompanyID > 0 {
		where = append(where, "company_id = "+arg(filter.CompanyID))
	}
	if filter.JobStatus != "" {
		where = append(where, "job_status = "+arg(filter.JobStatus))
	}
	if filter.WorkType != "" {
		where = append(where, "work_type = "+arg(filter.WorkType))
	}
	if filter.Cursor != nil {
		createdAt := arg(filter.Cursor.CreatedAt)
		id := arg(filter.Cursor.ID)
		where = append(where, fmt.Sprintf("(created_at, id) < (%s, %s)", createdAt, id))
	}

	var b strings.Builder
	b.WriteString("SELECT " + jobColumns + " FROM job_postings")
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY created_at DESC, id DESC")
	b.WriteString(" LIMIT " + arg(filter.PageSize+1))

	return b.String(), args
}
