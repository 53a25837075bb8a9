package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bnrm/backoffice/internal/domain/event"
)

// ErrClosed is returned when publishing on a closed dispatcher
var ErrClosed = errors.New("dispatcher is closed")

// Dispatcher fans workflow events out to subscribers
type Dispatcher interface {
	// Subscribe registers handler under name for the given types. A second
	// subscription with the same name replaces the first.
	Subscribe(name string, handler Handler, types ...event.Type)

	// Unsubscribe removes the subscription registered under name
	Unsubscribe(name string)

	// Dispatch runs every matching handler in subscription order and returns
	// their joined errors
	Dispatch(ctx context.Context, evt *event.Event) error

	// Publish runs matching handlers in the background. Handlers outlive the
	// caller's cancellation but not the handler timeout.
	Publish(ctx context.Context, evt *event.Event)

	// Subscribers returns the names subscribed to t
	Subscribers(t event.Type) []string

	// Close stops accepting events and waits for background handlers
	Close() error
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
	mu   sync.RWMutex
	subs []subscription

	logger  Logger
	timeout time.Duration
	slots   chan struct{}

	wg     sync.WaitGroup
	closed atomic.Bool
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

// WithHandlerTimeout bounds each background handler run
func WithHandlerTimeout(timeout time.Duration) Option {
	return func(d *eventDispatcher) {
		d.timeout = timeout
	}
}

// WithMaxInFlight caps concurrently running background handlers. Publish
// blocks while the cap is reached.
func WithMaxInFlight(n int) Option {
	return func(d *eventDispatcher) {
		if n > 0 {
			d.slots = make(chan struct{}, n)
		}
	}
}

// NewDispatcher creates a new event dispatcher
func NewDispatcher(opts ...Option) Dispatcher {
	d := &eventDispatcher{
		logger:  nopLogger{},
		timeout: 30 * time.Second,
		slots:   make(chan struct{}, 16),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *eventDispatcher) Subscribe(name string, handler Handler, types ...event.Type) {
	set := make(map[event.Type]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	sub := subscription{name: name, types: set, handler: handler}

	d.mu.Lock()
	replaced := false
	for i := range d.subs {
		if d.subs[i].name == name {
			d.subs[i] = sub
			replaced = true
			break
		}
	}
	if !replaced {
		d.subs = append(d.subs, sub)
	}
	d.mu.Unlock()

	d.logger.Info("Handler subscribed", "handler_name", name, "event_types", types)
}

func (d *eventDispatcher) Unsubscribe(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	kept := d.subs[:0]
	for _, s := range d.subs {
		if s.name != name {
			kept = append(kept, s)
		}
	}
	d.subs = kept
}

// matching copies the subscriptions for t so handlers never run under the lock
func (d *eventDispatcher) matching(t event.Type) []subscription {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []subscription
	for _, s := range d.subs {
		if s.wants(t) {
			out = append(out, s)
		}
	}
	return out
}

func (d *eventDispatcher) Dispatch(ctx context.Context, evt *event.Event) error {
	if d.closed.Load() {
		return ErrClosed
	}

	var errs []error
	for _, s := range d.matching(evt.Type) {
		if err := d.run(ctx, evt, s); err != nil {
			errs = append(errs, fmt.Errorf("handler %s: %w", s.name, err))
		}
	}
	return errors.Join(errs...)
}

func (d *eventDispatcher) Publish(ctx context.Context, evt *event.Event) {
	if d.closed.Load() {
		d.logger.Error("Event dropped, dispatcher is closed",
			"event_type", evt.Type,
			"event_id", evt.ID,
		)
		return
	}

	subs := d.matching(evt.Type)
	if len(subs) == 0 {
		return
	}

	base := context.WithoutCancel(ctx)

	for _, s := range subs {
		d.slots <- struct{}{}
		d.wg.Add(1)
		go func(s subscription) {
			defer d.wg.Done()
			defer func() { <-d.slots }()

			hctx, cancel := context.WithTimeout(base, d.timeout)
			defer cancel()

			_ = d.run(hctx, evt, s)
		}(s)
	}
}

func (d *eventDispatcher) Subscribers(t event.Type) []string {
	subs := d.matching(t)
	names := make([]string, len(subs))
	for i, s := range subs {
		names[i] = s.name
	}
	return names
}

func (d *eventDispatcher) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return fmt.Errorf("dispatcher already closed")
	}

	d.wg.Wait()
	d.logger.Info("Dispatcher closed")
	return nil
}

// run executes one handler, turning panics into errors
func (d *eventDispatcher) run(ctx context.Context, evt *event.Event, s subscription) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			d.logger.Error("Event handler failed",
				"event_type", evt.Type,
				"event_id", evt.ID,
				"entity", evt.Key(),
				"handler_name", s.name,
				"error", err,
			)
		}
	}()

	return s.handler(ctx, evt)
}
