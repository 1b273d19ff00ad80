// Package pgqueue provides a PostgreSQL-backed mailer.Store.
//
// Records live in the email_queue table; Claim uses FOR UPDATE SKIP LOCKED
// so that any number of workers, in any number of processes, can poll the
// same table without double-claiming a record inside its lease.
package pgqueue

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/mailroom/pkg/db"
	"github.com/dmitrymomot/mailroom/pkg/mailer"
)

//go:embed migrations/*.sql
var migrations embed.FS

// MigrationsTable is the goose bookkeeping table used by Migrate.
const MigrationsTable = "mailroom_migrations"

// Migrate creates or updates the email_queue schema.
func Migrate(ctx context.Context, pool *pgxpool.Pool, log *slog.Logger) error {
	return db.Migrate(ctx, pool, migrations, MigrationsTable, log)
}

// Store is a mailer.Store backed by PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a store on top of an existing connection pool. Run Migrate
// once before first use.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Insert implements mailer.Store. The job is committed before Insert
// returns.
func (s *Store) Insert(ctx context.Context, job mailer.Job) (uuid.UUID, error) {
	payload, err := job.Encode()
	if err != nil {
		return uuid.Nil, fmt.Errorf("pgqueue: encode job: %w", err)
	}

	var id uuid.UUID
	err = s.pool.QueryRow(ctx,
		`INSERT INTO email_queue (payload) VALUES ($1) RETURNING id`,
		payload,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("pgqueue: insert job: %w", err)
	}
	return id, nil
}

// Claim implements mailer.Store. The subquery picks the oldest available
// record; SKIP LOCKED keeps concurrent claimers from blocking on or
// double-taking the same row, and the update pushes availability past the
// lease in the same statement.
func (s *Store) Claim(ctx context.Context, lease time.Duration) (*mailer.Record, error) {
	var (
		id         uuid.UUID
		payload    []byte
		enqueuedAt time.Time
	)
	err := s.pool.QueryRow(ctx, `
		UPDATE email_queue
		SET available_at = now() + make_interval(secs => $1)
		WHERE id = (
			SELECT id
			FROM email_queue
			WHERE available_at <= now()
			ORDER BY enqueued_at, id
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, payload, enqueued_at`,
		lease.Seconds(),
	).Scan(&id, &payload, &enqueuedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, mailer.ErrQueueEmpty
		}
		return nil, fmt.Errorf("pgqueue: claim job: %w", err)
	}

	job, err := mailer.ParseJob(payload)
	if err != nil {
		// The record is already leased, so the next claim moves past it.
		return nil, fmt.Errorf("record %s: %w", id, err)
	}

	return &mailer.Record{ID: id, Job: job, EnqueuedAt: enqueuedAt}, nil
}

// Release implements mailer.Store.
func (s *Store) Release(ctx context.Context, id uuid.UUID, delay time.Duration) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE email_queue
		SET available_at = now() + make_interval(secs => $2)
		WHERE id = $1`,
		id, delay.Seconds(),
	)
	if err != nil {
		return fmt.Errorf("pgqueue: release job %s: %w", id, err)
	}
	return nil
}

// Delete implements mailer.Store.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM email_queue WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgqueue: delete job %s: %w", id, err)
	}
	return nil
}
