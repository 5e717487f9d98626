package events

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ErrQueueFull is returned when the dispatch buffer has no room left.
var ErrQueueFull = errors.New("event queue full")

const (
	DefaultQueueSize      = 256
	DefaultPublishTimeout = 5 * time.Second
)

// AsyncPublisher hands events to a buffered queue that a single worker
// drains into the wrapped Publisher. Publish never waits on the broker.
type AsyncPublisher struct {
	next    Publisher
	queue   chan Event
	timeout time.Duration
	logger  *zap.Logger
	dropped atomic.Int64
}

func NewAsyncPublisher(next Publisher, size int, timeout time.Duration, logger *zap.Logger) *AsyncPublisher {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AsyncPublisher{
		next:    next,
		queue:   make(chan Event, size),
		timeout: timeout,
		logger:  logger,
	}
}

// Publish enqueues event. It returns ErrQueueFull instead of blocking.
func (a *AsyncPublisher) Publish(_ context.Context, event Event) error {
	select {
	case a.queue <- event:
		return nil
	default:
		a.dropped.Add(1)
		return ErrQueueFull
	}
}

// Dropped reports how many events were rejected because the queue was full.
func (a *AsyncPublisher) Dropped() int64 {
	return a.dropped.Load()
}

// Run delivers queued events until ctx is done, then flushes what is
// still buffered within one publish timeout.
func (a *AsyncPublisher) Run(ctx context.Context) error {
	a.logger.Info("Event dispatcher started", zap.Int("queue_size", cap(a.queue)))

	for {
		select {
		case <-ctx.Done():
			a.flush()
			a.logger.Info("Event dispatcher stopped", zap.Int64("dropped", a.Dropped()))
			return nil
		case event := <-a.queue:
			a.deliver(context.Background(), event)
		}
	}
}

func (a *AsyncPublisher) flush() {
	deadline, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	for {
		select {
		case event := <-a.queue:
			if deadline.Err() != nil {
				a.dropped.Add(1)
				continue
			}
			a.deliver(deadline, event)
		default:
			return
		}
	}
}

func (a *AsyncPublisher) deliver(parent context.Context, event Event) {
	ctx, cancel := context.WithTimeout(parent, a.timeout)
	defer cancel()

	if err := a.next.Publish(ctx, event); err != nil {
		a.logger.Warn("Failed to deliver event",
			zap.String("event_type", event.Type),
			zap.Uint("user_id", event.UserID),
			zap.Error(err),
		)
	}
}

// Close closes the wrapped publisher. Call it after Run has returned.
func (a *AsyncPublisher) Close() error {
	return a.next.Close()
}
