package mailer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"
	texttemplate "text/template"

	"github.com/google/uuid"
)

// Mailer owns the queue store, the transport and the renderer, and exposes
// the two producer-facing paths: Queue (durable, delivered by the
// background worker) and SendNow (synchronous, bypasses the queue).
type Mailer struct {
	store         Store
	dispatcher    Dispatcher
	renderer      *Renderer
	logger        *slog.Logger
	defaultSender *Sender
	config        Config

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// Option configures a Mailer.
type Option func(*Mailer)

// WithLogger sets the logger used by the background worker. Defaults to a
// discarding logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Mailer) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithDefaultSender sets the sender identity substituted into every send
// that does not carry its own.
func WithDefaultSender(s Sender) Option {
	return func(m *Mailer) {
		m.defaultSender = &s
	}
}

// New creates a Mailer. The store may be nil for a send-only mailer; Queue
// and StartWorker then fail with ErrQueueWrite and ErrNotStarted
// respectively.
func New(store Store, dispatcher Dispatcher, renderer *Renderer, cfg Config, opts ...Option) *Mailer {
	m := &Mailer{
		store:      store,
		dispatcher: dispatcher,
		renderer:   renderer,
		config:     cfg.withDefaults(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SendParams describes one templated send.
type SendParams struct {
	Data       any      // template data
	Sender     *Sender  // optional sender override
	Template   string   // template filename, e.g. "welcome.md"
	Subject    string   // overrides frontmatter subject
	Layout     string   // overrides the default layout
	Recipients []string // at least one required
}

// Queue renders the template, resolves the sender and durably records the
// job for background delivery. The record is written before Queue returns:
// a crash right after a successful Queue call loses nothing.
//
// Render and sender-resolution failures surface here, before anything is
// persisted; store failures wrap ErrQueueWrite.
func (m *Mailer) Queue(ctx context.Context, params SendParams) (uuid.UUID, error) {
	job, err := m.buildJob(params)
	if err != nil {
		return uuid.Nil, err
	}
	if m.store == nil {
		return uuid.Nil, errors.Join(ErrQueueWrite, errors.New("mailer: no queue store configured"))
	}

	id, err := m.store.Insert(ctx, job)
	if err != nil {
		return uuid.Nil, errors.Join(ErrQueueWrite, err)
	}

	m.logger.DebugContext(ctx, "email job queued",
		slog.String("job_id", id.String()),
		slog.String("template", params.Template),
	)
	return id, nil
}

// SendNow renders the template and dispatches immediately, bypassing the
// queue entirely: no durability, no retry. Transport failures wrap
// ErrDispatchFailed.
func (m *Mailer) SendNow(ctx context.Context, params SendParams) error {
	job, err := m.buildJob(params)
	if err != nil {
		return err
	}
	if err := m.dispatcher.Dispatch(ctx, job, *job.Sender); err != nil {
		return errors.Join(ErrDispatchFailed, err)
	}
	return nil
}

// buildJob renders params into a dispatchable job with a resolved sender.
func (m *Mailer) buildJob(params SendParams) (Job, error) {
	if len(params.Recipients) == 0 {
		return Job{}, ErrNoRecipient
	}

	from, err := m.resolveSender(params.Sender)
	if err != nil {
		return Job{}, err
	}

	layout := params.Layout
	if layout == "" {
		layout = m.config.DefaultLayout
	}

	result, err := m.renderer.Render(layout, params.Template, params.Data)
	if err != nil {
		return Job{}, err
	}

	subject := params.Subject
	if subject == "" {
		if s, ok := result.Metadata["Subject"].(string); ok {
			subject = s
		} else {
			subject = m.config.FallbackSubject
		}
	}
	subject, err = executeSubject(subject, params.Data)
	if err != nil {
		return Job{}, err
	}

	job := Job{
		Subject:    subject,
		Recipients: slices.Clone(params.Recipients),
		Body:       result.Text,
		HTML:       result.HTML,
		Sender:     &from,
	}
	if !job.HasContent() {
		return Job{}, ErrNoContent
	}
	return job, nil
}

// resolveSender picks the explicit sender when given, the configured
// default otherwise.
func (m *Mailer) resolveSender(override *Sender) (Sender, error) {
	switch {
	case override != nil:
		return *override, nil
	case m.defaultSender != nil:
		return *m.defaultSender, nil
	default:
		return Sender{}, ErrNoSender
	}
}

// executeSubject runs the subject line through text/template so subjects
// support {{.Variable}} interpolation, both inline and from frontmatter.
func executeSubject(subject string, data any) (string, error) {
	tmpl, err := texttemplate.New("subject").Parse(subject)
	if err != nil {
		return "", errors.Join(ErrRenderFailed, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", errors.Join(ErrRenderFailed, err)
	}
	return buf.String(), nil
}
