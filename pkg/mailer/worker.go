package mailer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// StartWorker launches the background delivery loop: poll the store at the
// configured interval, claim the oldest pending job, dispatch it, delete it
// on success. Exactly one loop runs per Mailer; calling StartWorker while
// the worker is already running returns ErrAlreadyStarted and starts
// nothing, so the same queue is never polled twice from one instance.
//
// The loop stops when ctx is cancelled or Stop is called.
func (m *Mailer) StartWorker(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return ErrAlreadyStarted
	}
	if m.store == nil {
		return ErrNotStarted
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	m.started = true

	go m.run(runCtx, m.done)

	m.logger.Info("mailer worker started",
		slog.Duration("poll_interval", m.config.PollInterval),
	)
	return nil
}

// Stop signals the worker to exit and waits for the in-flight job, if any,
// to finish. Returns ErrNotStarted when the worker is not running, or the
// context error if ctx expires before the loop winds down.
func (m *Mailer) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return ErrNotStarted
	}
	cancel, done := m.cancel, m.done
	m.started = false
	m.mu.Unlock()

	cancel()
	select {
	case <-done:
		m.logger.Info("mailer worker stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the worker loop. One job is processed fully per tick; job-level
// failures are logged and released for a later retry, never propagated, so
// a single bad job cannot terminate the loop.
func (m *Mailer) run(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.processNext(ctx)
		}
	}
}

// processNext handles one poll cycle: claim, reconstruct, dispatch, ack.
func (m *Mailer) processNext(ctx context.Context) {
	rec, err := m.store.Claim(ctx, m.config.ClaimLease)
	switch {
	case errors.Is(err, ErrQueueEmpty):
		return
	case errors.Is(err, ErrInvalidRecord):
		// Undecodable record: it stays leased so this cycle's claim moved
		// past it; it will be seen again after the lease and must be
		// cleared by an operator.
		m.logger.ErrorContext(ctx, "skipping malformed queue record", slog.Any("error", err))
		return
	case err != nil:
		// Store unreachable: skip this cycle, retry on the next tick.
		m.logger.ErrorContext(ctx, "failed to claim job from queue", slog.Any("error", err))
		return
	}

	log := m.logger.With(slog.String("job_id", rec.ID.String()))

	if !rec.Job.HasContent() {
		// The template rendered to nothing at enqueue time.
		m.retryLater(ctx, log, rec.ID, "job has no content", ErrNoContent)
		return
	}

	from, err := m.resolveSender(rec.Job.Sender)
	if err != nil {
		m.retryLater(ctx, log, rec.ID, "job has no usable sender", err)
		return
	}

	if err := m.dispatcher.Dispatch(ctx, rec.Job, from); err != nil {
		m.retryLater(ctx, log, rec.ID, "failed to dispatch job", err)
		return
	}

	if err := m.store.Delete(ctx, rec.ID); err != nil {
		// Sent but not acknowledged: once the lease expires the job will
		// be claimed and sent again. Accepted at-least-once trade-off.
		log.ErrorContext(ctx, "failed to delete dispatched job", slog.Any("error", err))
		return
	}

	log.InfoContext(ctx, "email job dispatched",
		slog.String("subject", rec.Job.Subject),
		slog.Int("recipients", len(rec.Job.Recipients)),
	)
}

// retryLater logs a job-level failure and schedules the record's next
// attempt. Failed jobs are retried indefinitely; see Store.Release.
func (m *Mailer) retryLater(ctx context.Context, log *slog.Logger, id uuid.UUID, msg string, err error) {
	log.ErrorContext(ctx, msg, slog.Any("error", err))
	if rerr := m.store.Release(ctx, id, m.config.RetryDelay); rerr != nil {
		log.ErrorContext(ctx, "failed to release job for retry", slog.Any("error", rerr))
	}
}
