package notification

import (
	"context"
	"time"
)

// TruncationMarker is appended when a message is cut to the channel limit.
const TruncationMarker = "..."

// Message is a single outbound notification.
type Message struct {
	To        string `json:"to"`
	Body      string `json:"body"`
	RequestID string `json:"requestId,omitempty"`
}

// Sender delivers a message over the messaging channel and returns its id.
type Sender interface {
	Send(ctx context.Context, to, body string) (string, error)
}

// Handler processes a dequeued message.
type Handler func(ctx context.Context, msg Message)

// Queue hands messages to a Handler outside the request path.
type Queue interface {
	Enqueue(ctx context.Context, msg Message) error
	SetHandler(handler Handler)
	Close(ctx context.Context) error
}

// Config controls the dispatcher.
type Config struct {
	Enabled            bool
	MaxLength          int
	SendTimeout        time.Duration
	DefaultCountryCode string
}
