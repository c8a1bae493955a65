package pg

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/code19m/errx"
	"github.com/jackc/pgx/v5/pgconn"
)

// unique_violation per the PostgreSQL error code table.
const pgUniqueViolation = "23505"

// IsConflict reports whether err is a unique constraint violation.
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// IsNotFound reports whether err means no rows matched.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// ConstraintName returns the constraint behind a PostgreSQL error, or ""
// for non-constraint errors. Repositories use it to map constraint names
// to domain conflict codes.
func ConstraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

// GetPgErrorDetails builds an errx detail map out of a PostgreSQL error
// and the query that triggered it.
func GetPgErrorDetails(err error, query fmt.Stringer) errx.D {
	details := make(errx.D)

	if q := safeQueryString(query); q != "" {
		details["query"] = strings.ReplaceAll(q, `"`, ``)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return details
	}

	for key, value := range map[string]string{
		"pg.code":       pgErr.Code,
		"pg.severity":   pgErr.Severity,
		"pg.message":    pgErr.Message,
		"pg.detail":     pgErr.Detail,
		"pg.hint":       pgErr.Hint,
		"pg.schema":     pgErr.SchemaName,
		"pg.table":      pgErr.TableName,
		"pg.column":     pgErr.ColumnName,
		"pg.data_type":  pgErr.DataTypeName,
		"pg.constraint": pgErr.ConstraintName,
	} {
		details[key] = value
	}

	return details
}

// safeQueryString renders the query, tolerating String implementations
// that panic on partially built queries (bun's insert query does).
func safeQueryString(query fmt.Stringer) (s string) {
	defer func() { _ = recover() }()

	if query == nil {
		return ""
	}
	return query.String()
}
