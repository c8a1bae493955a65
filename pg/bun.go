// Package pg bootstraps PostgreSQL access for the content services.
//
// It builds pgx connection pools and bun database handles, registers the
// debug and OpenTelemetry query hooks, and carries the small helpers the
// repositories need: timestamp embedding and pg error inspection.
package pg

import (
	"github.com/code19m/errx"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/extra/bunotel"

	"github.com/meridiancms/mediacore/pg/hooks"
)

// NewBunDB opens a bun database over a fresh pgx pool.
//
// Two query hooks are attached: the debug hook, active only when
// cfg.Debug is set, and the bunotel hook, which always records query
// spans on the ambient tracer.
func NewBunDB(cfg Config) (*bun.DB, error) {
	pool, err := NewPool(cfg)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	db := bun.NewDB(stdlib.OpenDBFromPool(pool), pgdialect.New())

	db.AddQueryHook(hooks.NewDebugHook(
		hooks.WithEnabled(cfg.Debug),
		hooks.WithVerbose(true),
	))
	db.AddQueryHook(bunotel.NewQueryHook())

	return db, nil
}
