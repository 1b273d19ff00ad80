// Package smtp implements mailer.Dispatcher over plain SMTP.
//
// Every Dispatch call runs one full session against the server named by the
// job's sender: dial, negotiate TLS, authenticate, transmit the envelope to
// all recipients, quit. No connections are pooled or reused across jobs, so
// a failed attempt leaves nothing behind for the retry to trip over.
package smtp

import (
	"context"
	"crypto/tls"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/dmitrymomot/mailroom/pkg/mailer"
)

// Dispatcher sends jobs over SMTP using the sender identity attached to
// each job (server, port, credentials, TLS flag).
type Dispatcher struct {
	tlsConfig *tls.Config
}

// Option configures the dispatcher.
type Option func(*Dispatcher)

// WithTLSConfig overrides the TLS client configuration used for both
// STARTTLS and implicit TLS sessions. Useful for custom roots or, in test
// environments, InsecureSkipVerify.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(d *Dispatcher) {
		d.tlsConfig = cfg
	}
}

// New creates an SMTP dispatcher.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch implements mailer.Dispatcher. The message is multipart when the
// job carries both text and HTML bodies. gomail has no context support, so
// ctx is only honored up front; an in-flight session runs to completion.
func (d *Dispatcher) Dispatch(ctx context.Context, job mailer.Job, from mailer.Sender) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", from.Address, from.DisplayName)
	msg.SetHeader("To", job.Recipients...)
	msg.SetHeader("Subject", job.Subject)

	switch {
	case job.Body != "" && job.HTML != "":
		msg.SetBody("text/plain", job.Body)
		msg.AddAlternative("text/html", job.HTML)
	case job.HTML != "":
		msg.SetBody("text/html", job.HTML)
	default:
		msg.SetBody("text/plain", job.Body)
	}

	if err := d.dialer(from).DialAndSend(msg); err != nil {
		return fmt.Errorf("smtp: send via %s:%d: %w", from.Server, from.Port, err)
	}
	return nil
}

// dialer builds a one-shot dialer for the sender. Port 465 with TLS enabled
// means implicit TLS; otherwise gomail upgrades via STARTTLS when the
// server offers it.
func (d *Dispatcher) dialer(from mailer.Sender) *gomail.Dialer {
	dialer := gomail.NewDialer(from.Server, from.Port, from.Username, from.Password)
	dialer.SSL = from.UseTLS && from.Port == 465
	if d.tlsConfig != nil {
		dialer.TLSConfig = d.tlsConfig
	} else if from.UseTLS {
		dialer.TLSConfig = &tls.Config{ServerName: from.Server}
	}
	return dialer
}
