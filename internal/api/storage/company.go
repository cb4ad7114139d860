package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Cache is the key/value store used to remember known companies
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// CompanyDirectory answers whether a company exists, caching positive answers.
// Unknown ids are not cached so a newly created company is visible immediately.
type CompanyDirectory struct {
	db     *sqlx.DB
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewCompanyDirectory creates a CompanyDirectory. cache may be nil.
func NewCompanyDirectory(db *sqlx.DB, cache Cache, ttl time.Duration, logger *slog.Logger) *CompanyDirectory {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CompanyDirectory{db: db, cache: cache, ttl: ttl, logger: logger}
}

func companyKey(id int64) string {
	return fmt.Sprintf("ats:company:%d:exists", id)
}

// CompanyExists checks the cache, then the companies table
func (d *CompanyDirectory) CompanyExists(ctx context.Context, id int64) (bool, error) {
	if d.cache != nil {
		if _, ok, err := d.cache.Get(ctx, companyKey(id)); err != nil {
			d.logger.Warn("Company cache read failed", slog.Int64("company_id", id), slog.Any("error", err))
		} else if ok {
			return true, nil
		}
	}

	var exists bool
	if err := d.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM companies WHERE id = $1)`, id); err != nil {
		return false, fmt.Errorf("failed to look up company: %w", err)
	}

	if exists && d.cache != nil {
		if err := d.cache.Set(ctx, companyKey(id), "1", d.ttl); err != nil {
			d.logger.Warn("Company cache write failed", slog.Int64("company_id", id), slog.Any("error", err))
		}
	}
	return exists, nil
}
