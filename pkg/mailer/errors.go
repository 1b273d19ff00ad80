package mailer

import "errors"

var (
	// ErrNoRecipient indicates a job without any recipient addresses.
	ErrNoRecipient = errors.New("mailer: job must have at least one recipient")

	// ErrNoSender indicates no sender was given and no default is configured.
	ErrNoSender = errors.New("mailer: no sender given and no default sender configured")

	// ErrNoContent indicates the rendered job carries neither text nor HTML.
	ErrNoContent = errors.New("mailer: job has neither text nor html content")

	// ErrTemplateNotFound indicates the template file was not found.
	ErrTemplateNotFound = errors.New("mailer: template not found")

	// ErrLayoutNotFound indicates the layout file was not found.
	ErrLayoutNotFound = errors.New("mailer: layout not found")

	// ErrRenderFailed indicates template rendering failed.
	ErrRenderFailed = errors.New("mailer: failed to render template")

	// ErrInvalidFrontmatter indicates malformed YAML frontmatter.
	ErrInvalidFrontmatter = errors.New("mailer: invalid frontmatter")

	// ErrInvalidRecord indicates a stored queue record that cannot be
	// decoded back into a valid job.
	ErrInvalidRecord = errors.New("mailer: invalid queue record")

	// ErrQueueWrite indicates the queue store rejected an insert.
	ErrQueueWrite = errors.New("mailer: failed to write job to queue store")

	// ErrQueueEmpty is returned by Store.Claim when no job is available.
	ErrQueueEmpty = errors.New("mailer: no pending jobs")

	// ErrDispatchFailed indicates the transport failed to deliver a job.
	ErrDispatchFailed = errors.New("mailer: failed to dispatch email")

	// ErrAlreadyStarted is returned by StartWorker when the background
	// worker is already running.
	ErrAlreadyStarted = errors.New("mailer: worker already started")

	// ErrNotStarted is returned by Stop when the worker is not running.
	ErrNotStarted = errors.New("mailer: worker not started")
)
