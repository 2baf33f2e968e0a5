package notifyqueue

import (
	"context"
	"errors"

	"github.com/agrosathi/agrosathi/internal/domain/notification"
)

var errNoHandler = errors.New("notification queue has no handler")

// ImmediateQueue delivers each message on the enqueuing goroutine.
type ImmediateQueue struct {
	handler notification.Handler
}

// NewImmediateQueue constructs the queue.
func NewImmediateQueue() *ImmediateQueue {
	return &ImmediateQueue{}
}

// SetHandler replaces the handler used for queued messages.
func (q *ImmediateQueue) SetHandler(handler notification.Handler) {
	q.handler = handler
}

// Enqueue invokes the handler before returning.
func (q *ImmediateQueue) Enqueue(ctx context.Context, msg notification.Message) error {
	if q.handler == nil {
		return errNoHandler
	}
	q.handler(ctx, msg)
	return nil
}

// Close is a no-op; callers own the goroutines that enqueue.
func (q *ImmediateQueue) Close(ctx context.Context) error {
	return nil
}

var _ notification.Queue = (*ImmediateQueue)(nil)
