package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique-constraint failure from
// Postgres (pgx or lib/pq) or sqlite. When column is provided, the helper also
// requires the constraint, detail or message to mention it.
func IsUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}

	var haystack string
	switch {
	case asPgx(err, &haystack):
	case asPQ(err, &haystack):
	case errors.Is(err, gorm.ErrDuplicatedKey):
		haystack = err.Error()
	default:
		msg := err.Error()
		if !strings.Contains(msg, "duplicate key value") && !strings.Contains(msg, "UNIQUE constraint failed") {
			return false
		}
		haystack = msg
	}

	if column == "" {
		return true
	}
	return strings.Contains(haystack, column)
}

// IsNotFound reports whether err is gorm's missing-row sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func asPgx(err error, haystack *string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return false
	}
	*haystack = strings.Join([]string{pgErr.ConstraintName, pgErr.Detail, pgErr.Message}, " ")
	return true
}

func asPQ(err error, haystack *string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || string(pqErr.Code) != pgUniqueViolation {
		return false
	}
	*haystack = strings.Join([]string{pqErr.Constraint, pqErr.Detail, pqErr.Message}, " ")
	return true
}
