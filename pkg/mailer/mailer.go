// Package mailer sends transactional email. Production uses Postmark; local
// development writes messages to disk.
package mailer

import "context"

// Mailer sends a single transactional email.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Message is one outbound email.
type Message struct {
	To       string
	Subject  string
	BodyHTML string
	Tag      string
}
