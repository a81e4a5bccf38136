package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	// ErrBufferFull is returned when the outgoing buffer has no room.
	ErrBufferFull = errors.New("event buffer full")
	// ErrPublisherClosed is returned by Publish after Close.
	ErrPublisherClosed = errors.New("event publisher closed")
)

// Sender delivers one event to the broker.  *Publisher implements it.
type Sender interface {
	Publish(ctx context.Context, ev CareRecordEvent) error
}

// AsyncPublisher queues events in a bounded buffer and delivers them from a
// single goroutine, so request handlers never wait on the broker.  Publish
// only fails when the buffer is full or the publisher is closed.
type AsyncPublisher struct {
	next      Sender
	timeout   time.Duration
	delivered func(ev CareRecordEvent, err error)

	mu     sync.RWMutex
	closed bool
	events chan CareRecordEvent
	done   chan struct{}
}

// NewAsyncPublisher starts the delivery goroutine.  delivered, when not nil,
// is called with the outcome of every delivery attempt.
func NewAsyncPublisher(next Sender, buffer int, timeout time.Duration, delivered func(CareRecordEvent, error)) *AsyncPublisher {
	if buffer < 1 {
		buffer = 1
	}
	a := &AsyncPublisher{
		next:      next,
		timeout:   timeout,
		delivered: delivered,
		events:    make(chan CareRecordEvent, buffer),
		done:      make(chan struct{}),
	}
	go a.run()
	return a
}

// Publish queues ev without blocking.
func (a *AsyncPublisher) Publish(_ context.Context, ev CareRecordEvent) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrPublisherClosed
	}
	select {
	case a.events <- ev:
		return nil
	default:
		return ErrBufferFull
	}
}

func (a *AsyncPublisher) run() {
	defer close(a.done)
	for ev := range a.events {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		err := a.next.Publish(ctx, ev)
		cancel()
		if err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"kind":      ev.Kind,
				"action":    ev.Action,
				"record_id": ev.RecordID,
			}).Warn("deliver care record event failed")
		}
		if a.delivered != nil {
			a.delivered(ev, err)
		}
	}
}

// Close stops accepting events and waits until the buffer is drained or ctx
// is done.
func (a *AsyncPublisher) Close(ctx context.Context) error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.events)
	}
	a.mu.Unlock()

	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
