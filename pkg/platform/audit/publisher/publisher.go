// Package publisher emits audit events to a backing store with best-effort,
// non-blocking semantics: Emit enqueues and returns, a drain goroutine
// persists, and a full buffer drops the event with a warning rather than
// slowing the primary operation.
package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	audit "quorum/pkg/platform/audit"
)

type Publisher struct {
	store  audit.Store
	logger *slog.Logger

	inbox  chan audit.Event
	wg     sync.WaitGroup
	closed chan struct{}
	once   sync.Once
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithBuffer sets the async queue depth. Defaults to 256.
func WithBuffer(size int) Option {
	return func(p *Publisher) {
		p.inbox = make(chan audit.Event, size)
	}
}

func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		closed: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox == nil {
		p.inbox = make(chan audit.Event, 256)
	}

	p.wg.Add(1)
	go p.drain()

	return p
}

// Emit enqueues an event without blocking. A full buffer drops the event;
// audit is a side channel and must never extend the primary response.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case <-p.closed:
		return nil
	default:
	}

	select {
	case p.inbox <- event:
	default:
		if p.logger != nil {
			p.logger.WarnContext(ctx, "audit buffer full, dropping event", "action", event.Action)
		}
	}
	return nil
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for {
		select {
		case event := <-p.inbox:
			p.persist(event)
		case <-p.closed:
			// Flush whatever is queued before exiting.
			for {
				select {
				case event := <-p.inbox:
					p.persist(event)
				default:
					return
				}
			}
		}
	}
}

func (p *Publisher) persist(event audit.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.store.Append(ctx, event); err != nil && p.logger != nil {
		p.logger.Warn("failed to persist audit event", "action", event.Action, "error", err)
	}
}

// Close stops the drain goroutine after flushing queued events.
func (p *Publisher) Close() {
	p.once.Do(func() { close(p.closed) })
	p.wg.Wait()
}
