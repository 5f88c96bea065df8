package notify

import (
	"context"
	"errors"
)

// ErrNotConfigured no mailer is available.
var ErrNotConfigured = errors.New("email service is not configured")

// Message plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer port for outbound email.
type Mailer interface {
	Send(ctx context.Context, m Message) (messageID string, err error)
}
