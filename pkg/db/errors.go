package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const pgUniqueViolationCode = "23505"

// IsUniqueViolation reports whether err is a unique constraint violation.
// When column is provided, the violated constraint must reference it. The
// match is a substring so the postgres constraint name and the sqlite error
// text both satisfy it.
func IsUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != pgUniqueViolationCode {
			return false
		}
		return column == "" || strings.Contains(pgErr.ConstraintName, column)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if string(pqErr.Code) != pgUniqueViolationCode {
			return false
		}
		return column == "" || strings.Contains(pqErr.Constraint, column)
	}

	msg := err.Error()
	if column != "" {
		return strings.Contains(msg, column) &&
			(strings.Contains(msg, "duplicate key value") ||
				strings.Contains(msg, "UNIQUE constraint failed"))
	}
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
