package pg_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/meridiancms/mediacore/pg"
)

func conflictErr(constraint string) error {
	return fmt.Errorf("insert failed: %w", &pgconn.PgError{
		Code:           "23505",
		ConstraintName: constraint,
	})
}

func TestIsConflict(t *testing.T) {
	assert.True(t, pg.IsConflict(conflictErr("cms_fields_collection_field_key")))
	assert.False(t, pg.IsConflict(&pgconn.PgError{Code: "23503"}))
	assert.False(t, pg.IsConflict(errors.New("plain error")))
	assert.False(t, pg.IsConflict(nil))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, pg.IsNotFound(sql.ErrNoRows))
	assert.True(t, pg.IsNotFound(fmt.Errorf("lookup: %w", sql.ErrNoRows)))
	assert.False(t, pg.IsNotFound(errors.New("plain error")))
}

func TestConstraintName(t *testing.T) {
	assert.Equal(t, "cms_fields_collection_field_key", pg.ConstraintName(conflictErr("cms_fields_collection_field_key")))
	assert.Empty(t, pg.ConstraintName(errors.New("plain error")))
	assert.Empty(t, pg.ConstraintName(nil))
}

func TestGetPgErrorDetails(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           "23505",
		Severity:       "ERROR",
		Message:        "duplicate key value violates unique constraint",
		TableName:      "cms_fields",
		ConstraintName: "cms_fields_collection_field_key",
	}

	details := pg.GetPgErrorDetails(pgErr, nil)

	assert.Equal(t, "23505", details["pg.code"])
	assert.Equal(t, "cms_fields", details["pg.table"])
	assert.Equal(t, "cms_fields_collection_field_key", details["pg.constraint"])
	assert.NotContains(t, details, "query")
}
