// Package dispatch renders and sends the waitlist confirmation email.
//
// The dispatcher makes exactly one delivery attempt per invocation and
// reports the outcome; retrying is the caller's decision. Transport is an
// injected Sender so tests never touch a real relay.
package dispatch

import "context"

// Message is a fully-rendered email ready for a transport.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Sender submits one message to a mail relay and returns the
// transport-assigned message identifier.
type Sender interface {
	Send(ctx context.Context, m *Message) (messageID string, err error)
}
