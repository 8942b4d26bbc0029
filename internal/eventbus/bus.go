// Package eventbus provides an in-process pub/sub bus for alerts.
// Publishers never block; subscribers run on a single consumer goroutine.
package eventbus

import (
	"context"
	"sync"

	"github.com/matthewbaird/nightwatch/internal/event"
	"github.com/matthewbaird/nightwatch/internal/logging"
)

// Handler processes an alert. Implementations must be safe for
// concurrent calls from different goroutines.
type Handler interface {
	HandleEvent(ctx context.Context, a event.Alert) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, a event.Alert) error

func (f HandlerFunc) HandleEvent(ctx context.Context, a event.Alert) error {
	return f(ctx, a)
}

// Bus is a simple in-process event bus. Alerts are published to a buffered
// channel and dispatched to all subscribers in a single consumer goroutine,
// which keeps per-subscriber delivery in publish order.
type Bus struct {
	mu          sync.RWMutex
	subscribers []namedHandler
	events      chan event.Alert
	done        chan struct{}
	started     bool
	closed      bool
}

type namedHandler struct {
	name    string
	handler Handler
}

// New creates a new Bus with the given channel buffer size.
func New(bufSize int) *Bus {
	if bufSize < 1 {
		bufSize = 256
	}
	return &Bus{
		events: make(chan event.Alert, bufSize),
		done:   make(chan struct{}),
	}
}

// Subscribe registers a named handler.
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, namedHandler{name: name, handler: h})
}

// Publish sends an alert to the bus. Non-blocking: if the buffer is full
// or the bus is stopped the alert is dropped and a warning is logged.
func (b *Bus) Publish(_ context.Context, a event.Alert) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		logging.Logger.WithField("alert_id", a.ID).Warn("eventbus: publish after stop, dropping alert")
		return
	}
	select {
	case b.events <- a:
	default:
		logging.Logger.WithField("alert_id", a.ID).Warnf("eventbus: buffer full, dropping %s alert", a.Kind)
	}
}

// Start begins the consumer goroutine. It processes alerts until the
// context is cancelled or Stop is called.
func (b *Bus) Start(ctx context.Context) {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return
	}
	b.started = true
	b.mu.Unlock()

	go func() {
		defer close(b.done)
		for {
			select {
			case a, ok := <-b.events:
				if !ok {
					return
				}
				b.dispatch(ctx, a)
			case <-ctx.Done():
				// Drain remaining alerts before exiting.
				for {
					select {
					case a, ok := <-b.events:
						if !ok {
							return
						}
						b.dispatch(ctx, a)
					default:
						return
					}
				}
			}
		}
	}()
}

// Stop closes the bus and waits for the consumer goroutine to finish.
// Alerts already buffered are delivered first. A bus that was never
// started is closed without waiting.
func (b *Bus) Stop() {
	b.mu.Lock()
	if !b.closed {
		b.closed = true
		close(b.events)
	}
	started := b.started
	b.mu.Unlock()
	if started {
		<-b.done
	}
}

func (b *Bus) dispatch(ctx context.Context, a event.Alert) {
	b.mu.RLock()
	subs := b.subscribers
	b.mu.RUnlock()

	for _, s := range subs {
		if err := s.handler.HandleEvent(ctx, a); err != nil {
			logging.Logger.WithError(err).Errorf("eventbus: %s handler failed for alert %s", s.name, a.ID)
		}
	}
}
