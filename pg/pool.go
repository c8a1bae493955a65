package pg

import (
	"context"

	"github.com/code19m/errx"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool opens a pgx connection pool sized per the config. The pool
// connects lazily; the first query surfaces connectivity problems.
func NewPool(cfg Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.dsn())
	if err != nil {
		return nil, errx.Wrap(err)
	}

	poolCfg.MinConns = cfg.PoolMinConns
	poolCfg.MaxConns = cfg.PoolMaxConns
	poolCfg.MaxConnLifetime = cfg.PoolMaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.PoolMaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, errx.Wrap(err)
	}
	return pool, nil
}
