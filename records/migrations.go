package records

import (
	"context"
	"database/sql"
	"embed"

	"github.com/code19m/errx"
	"github.com/uptrace/bun"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// migrations map each managed table to the statements that create it.
//
//nolint:gochecknoglobals // static migration manifest
var migrations = []struct {
	table string
	file  string
}{
	{table: CollectionFiles, file: "migrations/001_cms_files.sql"},
	{table: CollectionFields, file: "migrations/002_cms_fields.sql"},
}

// MigrationConfig configures where the managed tables live.
type MigrationConfig struct {
	Schema string `yaml:"schema" json:"schema" default:"public"`
}

// RunMigrations creates the managed tables that do not exist yet.
// Tables already present in the schema are left untouched, so it is safe to
// run on every startup.
func RunMigrations(ctx context.Context, db *bun.DB, cfg MigrationConfig) error {
	if cfg.Schema == "" {
		cfg.Schema = "public"
	}

	err := db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewRaw("CREATE SCHEMA IF NOT EXISTS ?", bun.Ident(cfg.Schema)).Exec(ctx); err != nil {
			return errx.Wrap(err, errx.WithDetails(errx.D{"schema": cfg.Schema}))
		}
		if _, err := tx.NewRaw("SET LOCAL search_path TO ?", bun.Ident(cfg.Schema)).Exec(ctx); err != nil {
			return errx.Wrap(err, errx.WithDetails(errx.D{"schema": cfg.Schema}))
		}

		for _, m := range migrations {
			exists, err := TableExists(ctx, tx, cfg.Schema, m.table)
			if err != nil {
				return err
			}
			if exists {
				continue
			}

			stmts, err := migrationFS.ReadFile(m.file)
			if err != nil {
				return errx.Wrap(err, errx.WithDetails(errx.D{"file": m.file}))
			}

			if _, err := tx.ExecContext(ctx, string(stmts)); err != nil {
				return errx.Wrap(err, errx.WithDetails(errx.D{"table": m.table, "file": m.file}))
			}
		}
		return nil
	})
	if err != nil {
		return errx.Wrap(err)
	}

	return nil
}

// TableExists reports whether the table is present in the schema.
func TableExists(ctx context.Context, idb bun.IDB, schema, table string) (bool, error) {
	exists, err := idb.NewSelect().
		ColumnExpr("1").
		TableExpr("information_schema.tables").
		Where("table_schema = ?", schema).
		Where("table_name = ?", table).
		Exists(ctx)
	if err != nil {
		return false, errx.Wrap(err, errx.WithDetails(errx.D{"schema": schema, "table": table}))
	}

	return exists, nil
}
