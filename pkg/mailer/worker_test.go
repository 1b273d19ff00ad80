package mailer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func queuedRecord(subject string) *Record {
	return &Record{
		ID:         uuid.New(),
		EnqueuedAt: time.Now(),
		Job: Job{
			Subject:    subject,
			Recipients: []string{"a@example.com"},
			HTML:       "<p>Hi</p>",
			Sender:     &testSender,
		},
	}
}

func TestWorker_ProcessNext_DispatchAndAck(t *testing.T) {
	t.Parallel()

	store := &MockStore{}
	dispatcher := &MockDispatcher{}
	m := newTestMailer(t, store, dispatcher)

	rec := queuedRecord("Hi")
	store.On("Claim", mock.Anything, m.config.ClaimLease).Return(rec, nil).Once()
	dispatcher.On("Dispatch", mock.Anything, mock.MatchedBy(func(job Job) bool {
		return job.Subject == "Hi" && job.HTML == "<p>Hi</p>"
	}), *rec.Job.Sender).Return(nil).Once()
	store.On("Delete", mock.Anything, rec.ID).Return(nil).Once()

	m.processNext(context.Background())

	store.AssertExpectations(t)
	dispatcher.AssertExpectations(t)
	store.AssertNotCalled(t, "Release")
}

func TestWorker_ProcessNext_EmptyQueue(t *testing.T) {
	t.Parallel()

	store := &MockStore{}
	dispatcher := &MockDispatcher{}
	m := newTestMailer(t, store, dispatcher)

	store.On("Claim", mock.Anything, mock.Anything).Return(nil, ErrQueueEmpty).Once()

	m.processNext(context.Background())

	dispatcher.AssertNotCalled(t, "Dispatch")
	store.AssertNotCalled(t, "Delete")
}

func TestWorker_ProcessNext_DispatchFailureReleases(t *testing.T) {
	t.Parallel()

	store := &MockStore{}
	dispatcher := &MockDispatcher{}
	m := newTestMailer(t, store, dispatcher)

	rec := queuedRecord("Hi")
	store.On("Claim", mock.Anything, mock.Anything).Return(rec, nil).Once()
	dispatcher.On("Dispatch", mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("connection refused")).Once()
	store.On("Release", mock.Anything, rec.ID, m.config.RetryDelay).Return(nil).Once()

	m.processNext(context.Background())

	store.AssertExpectations(t)
	store.AssertNotCalled(t, "Delete")
}

func TestWorker_ProcessNext_NoContentReleases(t *testing.T) {
	t.Parallel()

	store := &MockStore{}
	dispatcher := &MockDispatcher{}
	m := newTestMailer(t, store, dispatcher)

	rec := queuedRecord("Hi")
	rec.Job.HTML = ""
	store.On("Claim", mock.Anything, mock.Anything).Return(rec, nil).Once()
	store.On("Release", mock.Anything, rec.ID, mock.Anything).Return(nil).Once()

	m.processNext(context.Background())

	dispatcher.AssertNotCalled(t, "Dispatch")
	store.AssertExpectations(t)
}

func TestWorker_ProcessNext_NoSenderReleases(t *testing.T) {
	t.Parallel()

	store := &MockStore{}
	dispatcher := &MockDispatcher{}
	m := newTestMailer(t, store, dispatcher) // no default sender configured

	rec := queuedRecord("Hi")
	rec.Job.Sender = nil
	store.On("Claim", mock.Anything, mock.Anything).Return(rec, nil).Once()
	store.On("Release", mock.Anything, rec.ID, mock.Anything).Return(nil).Once()

	m.processNext(context.Background())

	dispatcher.AssertNotCalled(t, "Dispatch")
	store.AssertExpectations(t)
}

func TestWorker_ProcessNext_DefaultSenderSubstituted(t *testing.T) {
	t.Parallel()

	store := &MockStore{}
	dispatcher := &MockDispatcher{}
	m := newTestMailer(t, store, dispatcher, WithDefaultSender(testSender))

	rec := queuedRecord("Hi")
	rec.Job.Sender = nil
	store.On("Claim", mock.Anything, mock.Anything).Return(rec, nil).Once()
	dispatcher.On("Dispatch", mock.Anything, mock.Anything, testSender).Return(nil).Once()
	store.On("Delete", mock.Anything, rec.ID).Return(nil).Once()

	m.processNext(context.Background())

	dispatcher.AssertExpectations(t)
}

func TestWorker_ProcessNext_DeleteFailureKeepsRecord(t *testing.T) {
	t.Parallel()

	store := &MockStore{}
	dispatcher := &MockDispatcher{}
	m := newTestMailer(t, store, dispatcher)

	rec := queuedRecord("Hi")
	store.On("Claim", mock.Anything, mock.Anything).Return(rec, nil).Once()
	dispatcher.On("Dispatch", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	store.On("Delete", mock.Anything, rec.ID).Return(errors.New("store down")).Once()

	m.processNext(context.Background())

	// The send already happened: the job must not be released for an
	// immediate retry, the expiring lease handles redelivery.
	store.AssertNotCalled(t, "Release")
}

func TestWorker_ProcessNext_MalformedRecordSkipped(t *testing.T) {
	t.Parallel()

	store := &MockStore{}
	dispatcher := &MockDispatcher{}
	m := newTestMailer(t, store, dispatcher)

	store.On("Claim", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("record x: %w", ErrInvalidRecord)).Once()

	m.processNext(context.Background())

	dispatcher.AssertNotCalled(t, "Dispatch")
	store.AssertNotCalled(t, "Release")
	store.AssertNotCalled(t, "Delete")
}

func TestWorker_StartIdempotent(t *testing.T) {
	t.Parallel()

	store := &MockStore{}
	m := newTestMailer(t, store, &MockDispatcher{})
	m.config.PollInterval = 10 * time.Millisecond

	var claims atomic.Int64
	store.On("Claim", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { claims.Add(1) }).
		Return(nil, ErrQueueEmpty)

	ctx := context.Background()
	require.NoError(t, m.StartWorker(ctx))
	require.ErrorIs(t, m.StartWorker(ctx), ErrAlreadyStarted)

	time.Sleep(55 * time.Millisecond)
	require.NoError(t, m.Stop(ctx))

	// A second loop would roughly double the claim count; with one loop
	// and a 10ms tick, 55ms cannot produce more than ~6 claims.
	require.LessOrEqual(t, claims.Load(), int64(7))
	require.Positive(t, claims.Load())
}

func TestWorker_StopWithoutStart(t *testing.T) {
	t.Parallel()

	m := newTestMailer(t, &MockStore{}, &MockDispatcher{})
	require.ErrorIs(t, m.Stop(context.Background()), ErrNotStarted)
}

func TestWorker_RestartAfterStop(t *testing.T) {
	t.Parallel()

	store := &MockStore{}
	m := newTestMailer(t, store, &MockDispatcher{})
	m.config.PollInterval = 5 * time.Millisecond

	store.On("Claim", mock.Anything, mock.Anything).Return(nil, ErrQueueEmpty)

	ctx := context.Background()
	require.NoError(t, m.StartWorker(ctx))
	require.NoError(t, m.Stop(ctx))
	require.NoError(t, m.StartWorker(ctx))
	require.NoError(t, m.Stop(ctx))
}

func TestWorker_StartWithoutStore(t *testing.T) {
	t.Parallel()

	m := New(nil, &MockDispatcher{}, NewRenderer(testTemplates()), Config{})
	require.ErrorIs(t, m.StartWorker(context.Background()), ErrNotStarted)
}
