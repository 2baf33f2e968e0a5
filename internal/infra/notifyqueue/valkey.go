package notifyqueue

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/agrosathi/agrosathi/internal/domain/notification"
)

const defaultQueueKey = "agrosathi:notifications"

// ValkeyQueue keeps messages in a Valkey list and delivers them from a worker.
type ValkeyQueue struct {
	client      valkey.Client
	queueKey    string
	handler     notification.Handler
	logger      *slog.Logger
	stop        chan struct{}
	done        chan struct{}
	once        sync.Once
	pollTimeout time.Duration
}

// NewValkeyQueue constructs a Valkey-backed queue.
func NewValkeyQueue(client valkey.Client, queueKey string, logger *slog.Logger) *ValkeyQueue {
	if queueKey == "" {
		queueKey = defaultQueueKey
	}
	return &ValkeyQueue{
		client:      client,
		queueKey:    queueKey,
		logger:      logger.With("component", "notifyqueue.valkey"),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
		pollTimeout: 5 * time.Second,
	}
}

// SetHandler starts the worker loop that pops messages and invokes the handler.
func (q *ValkeyQueue) SetHandler(handler notification.Handler) {
	if handler == nil || q.handler != nil {
		q.handler = handler
		return
	}
	q.handler = handler
	go q.consume()
}

// Enqueue pushes a message onto the list.
func (q *ValkeyQueue) Enqueue(ctx context.Context, msg notification.Message) error {
	encoded, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	cmd := q.client.B().Lpush().Key(q.queueKey).Element(string(encoded)).Build()
	return q.client.Do(ctx, cmd).Error()
}

// Close stops the worker after its current poll and waits for it to exit.
func (q *ValkeyQueue) Close(ctx context.Context) error {
	q.once.Do(func() { close(q.stop) })
	if q.handler == nil {
		return nil
	}
	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *ValkeyQueue) consume() {
	defer close(q.done)
	ctx := context.Background()
	for {
		select {
		case <-q.stop:
			return
		default:
		}
		resp := q.client.Do(ctx, q.client.B().Brpop().Key(q.queueKey).Timeout(q.pollTimeout.Seconds()).Build())
		values, err := resp.ToArray()
		if err != nil {
			if !valkey.IsValkeyNil(err) {
				q.logger.Warn("valkey queue pop failed", "error", err)
				q.backoff()
			}
			continue
		}
		if len(values) < 2 || q.handler == nil {
			continue
		}
		raw, err := values[1].ToString()
		if err != nil {
			q.logger.Warn("valkey queue payload decode failed", "error", err)
			continue
		}
		var msg notification.Message
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			q.logger.Warn("valkey queue unmarshal failed", "error", err)
			continue
		}
		q.handler(ctx, msg)
	}
}

func (q *ValkeyQueue) backoff() {
	select {
	case <-q.stop:
	case <-time.After(time.Second):
	}
}

var _ notification.Queue = (*ValkeyQueue)(nil)
