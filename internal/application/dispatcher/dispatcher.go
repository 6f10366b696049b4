// Package dispatcher fans domain events out to in-process handlers such as
// the broker forwarder.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/garyjia/merchant-onboarding/internal/domain/event"
)

// ErrClosed is returned when dispatching after Close
var ErrClosed = errors.New("dispatcher is closed")

// Dispatcher routes events to registered handlers
type Dispatcher interface {
	// Subscribe registers a handler for an event type, or AllEvents
	Subscribe(eventType event.Type, handler Handler)

	// SubscribeNamed registers a handler with a name used in logs
	SubscribeNamed(eventType event.Type, name string, handler Handler)

	// Unsubscribe removes a handler by name
	Unsubscribe(eventType event.Type, name string)

	// Dispatch runs the handlers in registration order and stops at the
	// first failure. Typed handlers run before AllEvents handlers.
	Dispatch(ctx context.Context, evt *event.Event) error

	// DispatchAsync runs every handler in its own goroutine
	DispatchAsync(ctx context.Context, evt *event.Event)

	// ListHandlers returns registered handlers for an event type
	ListHandlers(eventType event.Type) []HandlerInfo

	// Stats reports delivery counters since creation
	Stats() Stats

	// Close rejects further events and waits for async handlers
	Close() error
}

// Stats counts handler invocations
type Stats struct {
	Delivered int64 `json:"delivered"`
	Failed    int64 `json:"failed"`
	InFlight  int64 `json:"inFlight"`
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type eventDispatcher struct {
	mu       sync.RWMutex
	handlers map[event.Type][]HandlerInfo
	seq      map[event.Type]int
	logger   Logger

	delivered atomic.Int64
	failed    atomic.Int64
	inFlight  atomic.Int64

	pending sync.WaitGroup
	closed  atomic.Bool
}

// Option configures the dispatcher
type Option func(*eventDispatcher)

// WithLogger sets a logger for the dispatcher
func WithLogger(logger Logger) Option {
	return func(d *eventDispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDispatcher creates a new event dispatcher
func NewDispatcher(opts ...Option) Dispatcher {
	d := &eventDispatcher{
		handlers: make(map[event.Type][]HandlerInfo),
		seq:      make(map[event.Type]int),
		logger:   nopLogger{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Subscribe registers a handler under a generated name
func (d *eventDispatcher) Subscribe(eventType event.Type, handler Handler) {
	d.mu.Lock()
	name := fmt.Sprintf("handler-%d", d.seq[eventType])
	d.mu.Unlock()
	d.SubscribeNamed(eventType, name, handler)
}

func (d *eventDispatcher) SubscribeNamed(eventType event.Type, name string, handler Handler) {
	d.mu.Lock()
	d.seq[eventType]++
	d.handlers[eventType] = append(d.handlers[eventType], HandlerInfo{
		Name:      name,
		EventType: eventType,
		Handler:   handler,
	})
	d.mu.Unlock()

	d.logger.Info("Handler registered", "event_type", eventType, "handler_name", name)
}

func (d *eventDispatcher) Unsubscribe(eventType event.Type, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	kept := d.handlers[eventType][:0:0]
	for _, h := range d.handlers[eventType] {
		if h.Name != name {
			kept = append(kept, h)
		}
	}
	d.handlers[eventType] = kept
}

// route returns the typed handlers followed by the AllEvents handlers
func (d *eventDispatcher) route(eventType event.Type) []HandlerInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()

	route := make([]HandlerInfo, 0, len(d.handlers[eventType])+len(d.handlers[AllEvents]))
	route = append(route, d.handlers[eventType]...)
	if eventType != AllEvents {
		route = append(route, d.handlers[AllEvents]...)
	}
	return route
}

func (d *eventDispatcher) Dispatch(ctx context.Context, evt *event.Event) error {
	if d.closed.Load() {
		return ErrClosed
	}

	for _, h := range d.route(evt.Type) {
		if err := d.invoke(ctx, evt, h); err != nil {
			return fmt.Errorf("handler %s failed: %w", h.Name, err)
		}
	}
	return nil
}

// DispatchAsync hands the event to every handler in the background. The
// handlers get a context that survives the caller's cancellation.
func (d *eventDispatcher) DispatchAsync(ctx context.Context, evt *event.Event) {
	if d.closed.Load() {
		d.logger.Error("Dropping event, dispatcher is closed",
			"event_type", evt.Type,
			"event_id", evt.ID)
		return
	}

	detached := context.WithoutCancel(ctx)
	for _, h := range d.route(evt.Type) {
		d.pending.Add(1)
		go func(h HandlerInfo) {
			defer d.pending.Done()
			_ = d.invoke(detached, evt, h)
		}(h)
	}
}

func (d *eventDispatcher) ListHandlers(eventType event.Type) []HandlerInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]HandlerInfo, 0, len(d.handlers[eventType]))
	for _, h := range d.handlers[eventType] {
		out = append(out, HandlerInfo{Name: h.Name, EventType: h.EventType})
	}
	return out
}

func (d *eventDispatcher) Stats() Stats {
	return Stats{
		Delivered: d.delivered.Load(),
		Failed:    d.failed.Load(),
		InFlight:  d.inFlight.Load(),
	}
}

func (d *eventDispatcher) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return fmt.Errorf("dispatcher already closed")
	}

	d.logger.Info("Closing dispatcher", "in_flight", d.inFlight.Load())
	d.pending.Wait()
	return nil
}

// invoke runs one handler, turning a panic into an error and counting the outcome
func (d *eventDispatcher) invoke(ctx context.Context, evt *event.Event, h HandlerInfo) (err error) {
	d.inFlight.Add(1)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
		d.inFlight.Add(-1)
		if err != nil {
			d.failed.Add(1)
			d.logger.Error("Event handler failed",
				"event_type", evt.Type,
				"event_id", evt.ID,
				"handler_name", h.Name,
				"error", err)
			return
		}
		d.delivered.Add(1)
	}()

	return h.Handler(ctx, evt)
}
