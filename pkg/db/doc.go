// Package db bootstraps the PostgreSQL connection pool backing the
// Postgres queue store.
//
// It wraps [github.com/jackc/pgx/v5/pgxpool] with retrying startup and runs
// schema migrations through [github.com/pressly/goose/v3] over the pgx
// stdlib bridge.
//
// # Configuration
//
// Config carries env tags so it can be embedded in an application config
// and parsed with caarlos0/env:
//
//	DATABASE_URL                - PostgreSQL connection URL (required)
//	DATABASE_MAX_CONNS          - maximum pool size (default: 10)
//	DATABASE_MIN_CONNS          - minimum idle connections (default: 2)
//	DATABASE_HEALTHCHECK_PERIOD - pool health check interval (default: 1m)
//	DATABASE_MAX_CONN_IDLE_TIME - connection idle cutoff (default: 10m)
//	DATABASE_MAX_CONN_LIFETIME  - connection lifetime cutoff (default: 30m)
//	DATABASE_RETRY_ATTEMPTS     - startup connect attempts (default: 3)
//	DATABASE_RETRY_INTERVAL     - base wait between attempts (default: 5s)
//
// # Usage
//
//	pool, err := db.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer pool.Close()
//
//	if err := pgqueue.Migrate(ctx, pool, logger); err != nil {
//		log.Fatal(err)
//	}
package db
