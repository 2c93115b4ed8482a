package mail

import (
	"context"
	"io"
)

// Message is one email. TextBody is required by this service; HTMLBody is
// sent as an alternative part when set.
type Message struct {
	// From overrides the configured sender.
	From string
	To   []string
	Cc   []string
	Bcc  []string

	Subject  string
	TextBody string
	HTMLBody string
}

// Mail delivers messages. Send makes exactly one delivery attempt.
type Mail interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}
