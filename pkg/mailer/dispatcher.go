package mailer

import "context"

// Dispatcher is the transport boundary. Implementations transmit one job as
// a single envelope to all of its recipients, opening exactly one session
// per call (connect, authenticate, send, close). No connection pooling and
// no batching across jobs: a failed call must leave no half-open state
// behind, because the same job may be retried on a later poll cycle.
type Dispatcher interface {
	Dispatch(ctx context.Context, job Job, from Sender) error
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(ctx context.Context, job Job, from Sender) error

// Dispatch implements Dispatcher.
func (f DispatcherFunc) Dispatch(ctx context.Context, job Job, from Sender) error {
	return f(ctx, job, from)
}
