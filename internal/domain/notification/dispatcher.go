package notification

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/agrosathi/agrosathi/pkg/logger"
)

const enqueueTimeout = 5 * time.Second

var e164 = regexp.MustCompile(`^\+[1-9][0-9]{7,14}$`)

// Dispatcher relays advice to a farmer's phone without blocking the caller.
type Dispatcher struct {
	cfg    Config
	queue  Queue
	sender Sender
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewDispatcher wires the dispatcher and registers its delivery handler on
// queue. A nil sender leaves the queue without a handler.
func NewDispatcher(cfg Config, queue Queue, sender Sender, logger *slog.Logger) *Dispatcher {
	d := &Dispatcher{
		cfg:    cfg,
		queue:  queue,
		sender: sender,
		logger: logger.With("component", "notification.dispatcher"),
	}
	if queue != nil && sender != nil {
		queue.SetHandler(d.deliver)
	}
	return d
}

// Notify truncates text and schedules its delivery to contactID. It returns
// immediately; the delivery ignores cancellation of ctx and failures are only
// logged.
func (d *Dispatcher) Notify(ctx context.Context, contactID, text string) {
	if strings.TrimSpace(contactID) == "" {
		return
	}
	log := logger.FromContext(ctx, d.logger)
	if !d.cfg.Enabled || d.queue == nil || d.sender == nil {
		log.Debug("notification skipped", "reason", "disabled")
		return
	}
	to, ok := NormalizePhone(contactID, d.cfg.DefaultCountryCode)
	if !ok {
		log.Warn("notification skipped", "reason", "invalid phone number")
		return
	}
	msg := Message{
		To:        to,
		Body:      Truncate(text, d.cfg.MaxLength),
		RequestID: logger.RequestID(ctx),
	}

	detached := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		enqueueCtx, cancel := context.WithTimeout(detached, enqueueTimeout)
		defer cancel()
		if err := d.queue.Enqueue(enqueueCtx, msg); err != nil {
			log.Error("notification enqueue failed", "error", err)
		}
	}()
}

// deliver sends msg within SendTimeout. The budget starts here, not at
// enqueue, so a queue that runs handlers inline does not shorten it.
func (d *Dispatcher) deliver(ctx context.Context, msg Message) {
	ctx = logger.WithRequestID(context.WithoutCancel(ctx), msg.RequestID)
	log := logger.FromContext(ctx, d.logger)
	if d.cfg.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.SendTimeout)
		defer cancel()
	}
	start := time.Now()
	id, err := d.sender.Send(ctx, msg.To, msg.Body)
	if err != nil {
		log.Error("notification delivery failed", "error", err, "latency_ms", time.Since(start).Milliseconds())
		return
	}
	log.Info("notification sent", "message_id", id, "chars", utf8.RuneCountInString(msg.Body), "latency_ms", time.Since(start).Milliseconds())
}

// Close waits for scheduled enqueues, then drains and closes the queue.
func (d *Dispatcher) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	if d.queue == nil {
		return nil
	}
	if err := d.queue.Close(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Truncate cuts text to at most limit runes, marker included.
func Truncate(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	keep := limit - utf8.RuneCountInString(TruncationMarker)
	if keep <= 0 {
		return string([]rune(text)[:limit])
	}
	return string([]rune(text)[:keep]) + TruncationMarker
}

// NormalizePhone converts a user supplied number to E.164. Ten digit numbers
// without a country code get defaultCountryCode.
func NormalizePhone(raw, defaultCountryCode string) (string, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(strings.ToLower(s), "whatsapp:")
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '.':
			return -1
		}
		return r
	}, s)
	if strings.HasPrefix(s, "00") {
		s = "+" + s[2:]
	}
	if !strings.HasPrefix(s, "+") {
		if len(s) == 10 && defaultCountryCode != "" {
			s = "+" + strings.TrimPrefix(defaultCountryCode, "+") + s
		} else {
			s = "+" + s
		}
	}
	if !e164.MatchString(s) {
		return "", false
	}
	return s, true
}
