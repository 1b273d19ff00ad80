// Package mailer delivers templated emails either immediately or through a
// durable, background-processed queue.
//
// It decouples the code that decides "send this notification" from the
// mechanics of rendering a template, opening an SMTP session and reporting
// the outcome. Producers call Queue (durable, delivered by the background
// worker) or SendNow (synchronous, bypasses the queue); everything between
// a queued job and the wire is handled by the worker loop.
//
// # Architecture
//
//   - Sender / Job: immutable value objects with a stable JSON wire form
//   - Renderer: markdown templates with YAML frontmatter, converted to HTML
//   - Store: durable FIFO of pending jobs (Postgres, Redis or in-memory
//     adapters live in the subpackages pgqueue, redisqueue and memqueue)
//   - Dispatcher: the transport boundary (SMTP adapter in subpackage smtp)
//   - Mailer: owns all of the above plus the background worker
//
// # Usage
//
//	pool, _ := db.Connect(ctx, dbCfg)
//	_ = pgqueue.Migrate(ctx, pool, logger)
//
//	m := mailer.New(
//		pgqueue.New(pool),
//		smtp.New(),
//		mailer.NewRenderer(os.DirFS("templates/emails")),
//		mailer.Config{DefaultLayout: "base.html"},
//		mailer.WithDefaultSender(smtpCfg.Sender()),
//		mailer.WithLogger(logger),
//	)
//
//	if err := m.StartWorker(ctx); err != nil { ... }
//	defer m.Stop(context.Background())
//
//	_, err := m.Queue(ctx, mailer.SendParams{
//		Template:   "welcome.md",
//		Recipients: []string{"user@example.com"},
//		Data:       map[string]any{"Name": "John"},
//	})
//
// # Delivery guarantees
//
// Queued delivery is at-least-once. A job is deleted from the store only
// after the SMTP session succeeds; a crash between send and delete means
// the job is sent again once its claim lease expires. Jobs that fail to
// dispatch are retried forever at RetryDelay intervals with no attempt cap
// and no dead-letter queue: a permanently failing job keeps being retried
// (and logged) until an operator removes it. The worker never stops because
// a job failed.
//
// Multiple processes may run workers against the same store; Store.Claim is
// the single point of mutual exclusion.
//
// # Templates
//
// Templates are markdown files with optional YAML frontmatter:
//
//	---
//	Subject: Welcome {{.Name}}!
//	---
//
//	# Welcome
//
//	Hello {{.Name}}, glad to have you.
//
// The processed markdown is used as the plain-text body and its HTML
// conversion, wrapped in the layout, as the HTML body. Subjects resolve in
// order: SendParams.Subject, frontmatter Subject, Config.FallbackSubject,
// and support {{.Variable}} interpolation.
//
// # Errors
//
// All failure modes are package-level sentinels (ErrNoSender,
// ErrRenderFailed, ErrQueueWrite, ErrDispatchFailed, ...) combined with
// errors.Join; test with errors.Is. Producer-facing calls propagate errors
// to the caller; worker-loop errors are observable only through the logger.
package mailer
