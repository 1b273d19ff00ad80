package mailer

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Sender describes one SMTP identity: the server a message is submitted
// through and the address it is sent as. A Sender is an immutable value with
// no connection state, so it is safe to share across concurrent sends.
type Sender struct {
	Server      string `json:"server"`
	Port        int    `json:"port"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	UseTLS      bool   `json:"use_tls"`
	Address     string `json:"address"`
	DisplayName string `json:"display_name,omitempty"`
}

// From returns the RFC 5322 From value: "Display Name <address>" when a
// display name is set, the bare address otherwise.
func (s Sender) From() string {
	if s.DisplayName == "" {
		return s.Address
	}
	return fmt.Sprintf("%s <%s>", s.DisplayName, s.Address)
}

// Validate checks that the sender can actually be used to open an SMTP
// session. Username and password stay optional: unauthenticated submission
// is common against local relays.
func (s Sender) Validate() error {
	if s.Server == "" {
		return fmt.Errorf("%w: sender is missing server", ErrInvalidRecord)
	}
	if s.Port <= 0 {
		return fmt.Errorf("%w: sender has invalid port %d", ErrInvalidRecord, s.Port)
	}
	if s.Address == "" {
		return fmt.Errorf("%w: sender is missing address", ErrInvalidRecord)
	}
	return nil
}

// ParseSender decodes the flat wire form of a Sender and validates required
// fields. The wire keys are server, port, username, password, use_tls,
// address and display_name.
func ParseSender(data []byte) (Sender, error) {
	var s Sender
	if err := json.Unmarshal(data, &s); err != nil {
		return Sender{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if err := s.Validate(); err != nil {
		return Sender{}, err
	}
	return s, nil
}

// Job describes one email to deliver: subject, recipients, pre-rendered
// text and/or HTML content, and optionally the sender identity to deliver
// it as. Jobs are immutable once constructed; the queue store persists them
// in their wire form and the worker reconstructs them on claim.
type Job struct {
	Subject    string   `json:"subject"`
	Recipients []string `json:"recipients"`
	Body       string   `json:"body,omitempty"`
	HTML       string   `json:"html,omitempty"`
	Sender     *Sender  `json:"sender,omitempty"`
}

// Validate checks the invariants a job must hold to be dispatchable,
// except content presence, which is checked separately via HasContent so
// that an empty render can be reported as a render failure rather than a
// malformed record.
func (j Job) Validate() error {
	if j.Subject == "" {
		return fmt.Errorf("%w: job is missing subject", ErrInvalidRecord)
	}
	if len(j.Recipients) == 0 {
		return fmt.Errorf("%w: job has no recipients", ErrInvalidRecord)
	}
	for _, r := range j.Recipients {
		if r == "" {
			return fmt.Errorf("%w: job has an empty recipient address", ErrInvalidRecord)
		}
	}
	if j.Sender != nil {
		if err := j.Sender.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// HasContent reports whether the job carries at least one of the text or
// HTML bodies.
func (j Job) HasContent() bool {
	return j.Body != "" || j.HTML != ""
}

// Equal reports structural equality between two jobs, including the
// optional sender value.
func (j Job) Equal(other Job) bool {
	if j.Subject != other.Subject || j.Body != other.Body || j.HTML != other.HTML {
		return false
	}
	if !slices.Equal(j.Recipients, other.Recipients) {
		return false
	}
	switch {
	case j.Sender == nil && other.Sender == nil:
		return true
	case j.Sender == nil || other.Sender == nil:
		return false
	default:
		return *j.Sender == *other.Sender
	}
}

// Clone returns a deep copy of the job. Stores keep clones so that callers
// cannot mutate persisted state through shared slices.
func (j Job) Clone() Job {
	c := j
	c.Recipients = slices.Clone(j.Recipients)
	if j.Sender != nil {
		s := *j.Sender
		c.Sender = &s
	}
	return c
}

// Encode serializes the job into its wire form:
//
//	{"subject": ..., "recipients": [...], "body": ..., "html": ..., "sender": {...}}
//
// Optional fields are omitted when empty; ParseJob treats missing and null
// the same way, so Encode/ParseJob round-trips every valid job.
func (j Job) Encode() ([]byte, error) {
	return json.Marshal(j)
}

// ParseJob decodes a stored queue record back into a Job and validates it.
// Records missing required fields fail with ErrInvalidRecord.
func ParseJob(data []byte) (Job, error) {
	var j Job
	if err := json.Unmarshal(data, &j); err != nil {
		return Job{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if err := j.Validate(); err != nil {
		return Job{}, err
	}
	return j, nil
}
