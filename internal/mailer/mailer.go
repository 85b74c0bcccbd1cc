// Package mailer sends transactional email. The SMTP implementation is used
// when a server is configured; otherwise messages are only logged.
package mailer

import (
	"context"
	"errors"
	"log/slog"
)

// Message is a single outgoing email.
type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
	Text    string
	ReplyTo string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// ErrNoRecipient is returned for messages without a To address.
var ErrNoRecipient = errors.New("message has no recipient")

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct{}

// Send logs the message envelope.
func (LogMailer) Send(_ context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	slog.Info("email not sent, smtp not configured",
		"to", msg.To,
		"subject", msg.Subject,
	)
	return nil
}
