// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dikshapatel15/Decentralized-Voting-System/election"
	"github.com/dikshapatel15/Decentralized-Voting-System/metrics"
)

// DefaultDeliveryTimeout bounds a single downstream Publish call.
const DefaultDeliveryTimeout = 5 * time.Second

var (
	// ErrInboxFull is returned by Publish when the event was dropped.
	ErrInboxFull = errors.New("notification inbox full")
	// ErrClosed is returned by Publish after Close.
	ErrClosed = errors.New("dispatcher closed")
)

// Dispatcher queues events and delivers them to a downstream publisher on a
// single worker goroutine, so slow sinks never hold up the ledger. Delivery
// order follows Publish order.
type Dispatcher struct {
	next    Publisher
	inbox   chan election.Event
	logger  *slog.Logger
	metrics *metrics.Metrics
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used for failed deliveries.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithMetrics counts dropped notifications in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithDeliveryTimeout overrides DefaultDeliveryTimeout.
func WithDeliveryTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// NewDispatcher creates a dispatcher holding up to buffer undelivered events.
func NewDispatcher(next Publisher, buffer int, opts ...Option) *Dispatcher {
	if buffer < 1 {
		buffer = 1
	}
	d := &Dispatcher{
		next:    next,
		inbox:   make(chan election.Event, buffer),
		logger:  slog.Default(),
		timeout: DefaultDeliveryTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Publish enqueues ev without blocking. A full inbox drops the event.
func (d *Dispatcher) Publish(_ context.Context, ev election.Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrClosed
	}
	select {
	case d.inbox <- ev:
		return nil
	default:
		d.metrics.IncNotificationsDropped()
		return ErrInboxFull
	}
}

// Close stops accepting events. Run delivers what is already queued and
// then returns.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	d.closed = true
	close(d.inbox)
}

// Run delivers queued events until Close has been called and the inbox is
// empty, or until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-d.inbox:
			if !ok {
				return nil
			}
			d.deliver(ctx, ev)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, ev election.Event) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.next.Publish(ctx, ev); err != nil {
		d.logger.WarnContext(ctx, "notification delivery failed",
			"seq", ev.Seq,
			"kind", ev.Kind,
			"error", err,
		)
	}
}
