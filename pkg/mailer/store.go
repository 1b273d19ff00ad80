package mailer

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Record is the durable form of a job: the job itself plus store-assigned
// metadata. The store owns the record lifecycle; the worker only claims and
// deletes.
type Record struct {
	EnqueuedAt time.Time
	Job        Job
	ID         uuid.UUID
}

// Store is a durable FIFO of pending jobs with at-least-once semantics.
//
// Claim returns the oldest available record and leases it for the given
// duration; until the lease expires the record is invisible to further
// claims, which is the mutual-exclusion point that keeps multiple workers
// (including workers in other processes) from double-sending beyond the
// accepted at-least-once trade-off. A claimed record that is neither
// deleted nor released becomes claimable again once the lease runs out, so
// a worker crash between send and delete results in a duplicate send, never
// a lost message.
//
// Release puts a failed record back with a visibility delay. There is no
// attempt counter and no dead-letter path: a permanently failing record is
// retried forever and must be removed by an operator. The delay only keeps
// it from hogging the head of the queue every single poll cycle.
type Store interface {
	// Insert durably records a job and returns its identifier. The job is
	// persisted before Insert returns.
	Insert(ctx context.Context, job Job) (uuid.UUID, error)

	// Claim leases the oldest available record. Returns ErrQueueEmpty when
	// no record is available, or an error wrapping ErrInvalidRecord when
	// the oldest record cannot be decoded (the record stays leased so the
	// next claim can move past it).
	Claim(ctx context.Context, lease time.Duration) (*Record, error)

	// Release makes a claimed record available again after the delay.
	Release(ctx context.Context, id uuid.UUID, delay time.Duration) error

	// Delete removes a record for good. Deleting an already-removed record
	// is not an error.
	Delete(ctx context.Context, id uuid.UUID) error
}
