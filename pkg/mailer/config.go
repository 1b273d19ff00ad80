package mailer

import "time"

// Config holds mailer configuration.
// Embed this in your app config for env parsing with caarlos0/env.
type Config struct {
	// FallbackSubject is used when neither SendParams nor the template
	// frontmatter provide a subject.
	FallbackSubject string `env:"MAILER_FALLBACK_SUBJECT" envDefault:"Notification"`

	// DefaultLayout wraps rendered HTML unless overridden per send.
	DefaultLayout string `env:"MAILER_DEFAULT_LAYOUT" envDefault:"base.html"`

	// PollInterval is the fixed wait between successive queue checks by
	// the background worker.
	PollInterval time.Duration `env:"MAILER_POLL_INTERVAL" envDefault:"5s"`

	// RetryDelay is how long a failed job stays invisible before it
	// becomes claimable again. Keep it above PollInterval so that a
	// poisoned record does not win every poll cycle over younger jobs.
	RetryDelay time.Duration `env:"MAILER_RETRY_DELAY" envDefault:"30s"`

	// ClaimLease is how long a claimed job stays invisible while the
	// worker processes it. If the process dies mid-send, the job
	// resurfaces after the lease and is sent again (at-least-once).
	ClaimLease time.Duration `env:"MAILER_CLAIM_LEASE" envDefault:"1m"`
}

func (c Config) withDefaults() Config {
	if c.FallbackSubject == "" {
		c.FallbackSubject = "Notification"
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 5 * time.Second
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 30 * time.Second
	}
	if c.ClaimLease <= 0 {
		c.ClaimLease = time.Minute
	}
	return c
}
