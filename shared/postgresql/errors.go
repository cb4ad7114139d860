package postgresql

import (
	"errors"

	"github.com/lib/pq"
)

// SQLSTATE codes the stores branch on
const (
	codeForeignKeyViolation = "23503"
	codeUniqueViolation     = "23505"
	codeCheckViolation      = "23514"
)

// SQLState returns the SQLSTATE of a Postgres error, or "" for anything else
func SQLState(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// IsForeignKeyViolation reports whether err is a foreign key constraint violation
func IsForeignKeyViolation(err error) bool { return SQLState(err) == codeForeignKeyViolation }

// IsUniqueViolation reports whether err is a unique constraint violation
func IsUniqueViolation(err error) bool { return SQLState(err) == codeUniqueViolation }

// IsCheckViolation reports whether err is a check constraint violation
func IsCheckViolation(err error) bool { return SQLState(err) == codeCheckViolation }

// ConstraintName returns the violated constraint, if any
func ConstraintName(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Constraint
	}
	return ""
}
