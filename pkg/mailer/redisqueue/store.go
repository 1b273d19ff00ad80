// Package redisqueue provides a Redis-backed mailer.Store.
//
// Layout per queue name (default "mailroom"):
//
//	<name>:pending - ZSET, member = record id, score = enqueue time (FIFO)
//	<name>:leases  - ZSET, member = record id, score = available-at millis
//	<name>:records - HASH, field = record id, value = JSON envelope
//
// Claim runs as a Lua script so that picking the oldest available record
// and writing its lease is atomic across concurrent workers. The script
// walks the pending set in enqueue order, which is linear in queue depth;
// fine for the moderate queues a mail sender sees, not for a general job
// bus.
package redisqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/mailroom/pkg/mailer"
)

// DefaultQueue is the key prefix used unless WithQueueName overrides it.
const DefaultQueue = "mailroom"

// claimScript picks the first pending id without a live lease, leases it
// and returns the id with its stored envelope.
var claimScript = redis.NewScript(`
local ids = redis.call('ZRANGE', KEYS[1], 0, -1)
local now = tonumber(ARGV[1])
for _, id in ipairs(ids) do
	local avail = redis.call('ZSCORE', KEYS[2], id)
	if not avail or tonumber(avail) <= now then
		redis.call('ZADD', KEYS[2], ARGV[2], id)
		return {id, redis.call('HGET', KEYS[3], id)}
	end
end
return false
`)

// envelope is the stored form of a record.
type envelope struct {
	ID         uuid.UUID       `json:"id"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
	Job        json.RawMessage `json:"job"`
}

// Store is a mailer.Store backed by Redis.
type Store struct {
	client redis.UniversalClient
	name   string
	now    func() time.Time
}

// Option configures the store.
type Option func(*Store)

// WithQueueName sets the key prefix, letting several queues share one
// Redis database.
func WithQueueName(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.name = name
		}
	}
}

// WithClock replaces the time source, used by tests to expire leases.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a store on top of an existing Redis client.
func New(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{client: client, name: DefaultQueue, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) pendingKey() string { return s.name + ":pending" }
func (s *Store) leasesKey() string  { return s.name + ":leases" }
func (s *Store) recordsKey() string { return s.name + ":records" }

// Insert implements mailer.Store.
func (s *Store) Insert(ctx context.Context, job mailer.Job) (uuid.UUID, error) {
	raw, err := job.Encode()
	if err != nil {
		return uuid.Nil, fmt.Errorf("redisqueue: encode job: %w", err)
	}

	now := s.now()
	env := envelope{ID: uuid.New(), EnqueuedAt: now, Job: raw}
	data, err := json.Marshal(env)
	if err != nil {
		return uuid.Nil, fmt.Errorf("redisqueue: encode envelope: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, s.pendingKey(), redis.Z{
		Score:  float64(now.UnixMicro()),
		Member: env.ID.String(),
	})
	pipe.HSet(ctx, s.recordsKey(), env.ID.String(), data)
	if _, err := pipe.Exec(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("redisqueue: insert job: %w", err)
	}
	return env.ID, nil
}

// Claim implements mailer.Store.
func (s *Store) Claim(ctx context.Context, lease time.Duration) (*mailer.Record, error) {
	now := s.now()
	res, err := claimScript.Run(ctx, s.client,
		[]string{s.pendingKey(), s.leasesKey(), s.recordsKey()},
		now.UnixMilli(),
		now.Add(lease).UnixMilli(),
	).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, mailer.ErrQueueEmpty
		}
		return nil, fmt.Errorf("redisqueue: claim job: %w", err)
	}

	pair, ok := res.([]any)
	if !ok || len(pair) != 2 {
		return nil, fmt.Errorf("redisqueue: unexpected claim reply %T", res)
	}
	idStr, _ := pair[0].(string)
	raw, _ := pair[1].(string)

	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		// Leased above, so the next claim moves past this record.
		return nil, fmt.Errorf("record %s: %w: %v", idStr, mailer.ErrInvalidRecord, err)
	}
	job, err := mailer.ParseJob(env.Job)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", idStr, err)
	}

	return &mailer.Record{ID: env.ID, Job: job, EnqueuedAt: env.EnqueuedAt}, nil
}

// Release implements mailer.Store.
func (s *Store) Release(ctx context.Context, id uuid.UUID, delay time.Duration) error {
	err := s.client.ZAdd(ctx, s.leasesKey(), redis.Z{
		Score:  float64(s.now().Add(delay).UnixMilli()),
		Member: id.String(),
	}).Err()
	if err != nil {
		return fmt.Errorf("redisqueue: release job %s: %w", id, err)
	}
	return nil
}

// Delete implements mailer.Store.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	pipe := s.client.TxPipeline()
	pipe.ZRem(ctx, s.pendingKey(), id.String())
	pipe.ZRem(ctx, s.leasesKey(), id.String())
	pipe.HDel(ctx, s.recordsKey(), id.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redisqueue: delete job %s: %w", id, err)
	}
	return nil
}
