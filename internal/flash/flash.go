// Package flash carries one-shot alert messages across a redirect.
//
// Each session has a single slot. Put replaces whatever is there and
// restarts its expiry; Take returns the message and clears the slot in one
// step, so a message is shown on exactly one page view.
package flash

import (
	"context"
	"time"
)

// Kind is the alert style.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Display lifetimes: list pages dismiss alerts after ListLifetime, forms
// after FormLifetime.
const (
	ListLifetime = 4 * time.Second
	FormLifetime = 5 * time.Second
)

// DefaultTTL bounds how long an unread message waits for the next page view.
const DefaultTTL = 2 * time.Minute

// Message is one alert.
type Message struct {
	Kind     Kind          `json:"kind"`
	Text     string        `json:"text"`
	Lifetime time.Duration `json:"lifetime"`
}

func Success(text string, lifetime time.Duration) Message {
	return Message{Kind: KindSuccess, Text: text, Lifetime: lifetime}
}

func Error(text string, lifetime time.Duration) Message {
	return Message{Kind: KindError, Text: text, Lifetime: lifetime}
}

// DismissAfter is the auto-dismiss delay in milliseconds, rendered as the
// alert's data-dismiss attribute.
func (m Message) DismissAfter() int64 {
	if m.Lifetime <= 0 {
		return ListLifetime.Milliseconds()
	}
	return m.Lifetime.Milliseconds()
}

// Store is session-scoped flash storage keyed by session id.
type Store interface {
	Put(ctx context.Context, sid string, m Message) error
	Take(ctx context.Context, sid string) (Message, bool, error)
}
