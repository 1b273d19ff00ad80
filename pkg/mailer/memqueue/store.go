// Package memqueue provides an in-memory mailer.Store.
//
// It keeps full FIFO, lease and release-delay semantics, which makes it the
// store of choice for tests and local development. Nothing survives a
// process restart; production setups should use pgqueue or redisqueue.
package memqueue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/mailroom/pkg/mailer"
)

type record struct {
	enqueuedAt  time.Time
	availableAt time.Time
	job         mailer.Job
	id          uuid.UUID
}

// Store is a mutex-guarded in-memory job queue ordered by insertion.
type Store struct {
	mu      sync.Mutex
	records []*record
	now     func() time.Time
}

// Option configures the store.
type Option func(*Store)

// WithClock replaces the time source. Tests use this to expire leases
// without sleeping.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates an empty in-memory store.
func New(opts ...Option) *Store {
	s := &Store{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Insert implements mailer.Store.
func (s *Store) Insert(_ context.Context, job mailer.Job) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	rec := &record{
		id:          uuid.New(),
		job:         job.Clone(),
		enqueuedAt:  now,
		availableAt: now,
	}
	s.records = append(s.records, rec)
	return rec.id, nil
}

// Claim implements mailer.Store. Records are scanned in insertion order and
// the first available one is leased.
func (s *Store) Claim(_ context.Context, lease time.Duration) (*mailer.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for _, rec := range s.records {
		if rec.availableAt.After(now) {
			continue
		}
		rec.availableAt = now.Add(lease)
		return &mailer.Record{
			ID:         rec.id,
			Job:        rec.job.Clone(),
			EnqueuedAt: rec.enqueuedAt,
		}, nil
	}
	return nil, mailer.ErrQueueEmpty
}

// Release implements mailer.Store.
func (s *Store) Release(_ context.Context, id uuid.UUID, delay time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.records {
		if rec.id == id {
			rec.availableAt = s.now().Add(delay)
			return nil
		}
	}
	return fmt.Errorf("memqueue: record %s not found", id)
}

// Delete implements mailer.Store. Deleting a record that is already gone is
// a no-op.
func (s *Store) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, rec := range s.records {
		if rec.id == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return nil
		}
	}
	return nil
}

// Len reports the number of records currently held, claimed or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
