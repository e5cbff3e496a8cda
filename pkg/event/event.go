// Package event is an in-process publish/subscribe bus for domain events
// such as order.placed and order.paid.
package event

import (
	"context"
	"sync"

	"github.com/shashiranjanraj/storefront/pkg/logger"
)

// Handler receives an event payload. Errors are logged, never propagated
// back to the publisher.
type Handler func(ctx context.Context, payload any) error

// Bus dispatches named events to registered handlers.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	wg       sync.WaitGroup
}

func New() *Bus {
	return &Bus{handlers: map[string][]Handler{}}
}

// Listen registers handler for event.
func (b *Bus) Listen(event string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[event] = append(b.handlers[event], handler)
}

func (b *Bus) snapshot(event string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	hs := make([]Handler, len(b.handlers[event]))
	copy(hs, b.handlers[event])
	return hs
}

// Fire runs every handler synchronously, in registration order.
func (b *Bus) Fire(ctx context.Context, event string, payload any) {
	for _, h := range b.snapshot(event) {
		b.call(ctx, event, h, payload)
	}
}

// FireAsync runs each handler in its own goroutine, detached from the
// request's cancellation.
func (b *Bus) FireAsync(ctx context.Context, event string, payload any) {
	ctx = context.WithoutCancel(ctx)
	for _, h := range b.snapshot(event) {
		b.wg.Add(1)
		go func(h Handler) {
			defer b.wg.Done()
			b.call(ctx, event, h, payload)
		}(h)
	}
}

// Wait blocks until all FireAsync handlers have returned.
func (b *Bus) Wait() { b.wg.Wait() }

func (b *Bus) call(ctx context.Context, event string, h Handler, payload any) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithCtx(ctx).Error("event: handler panicked", "event", event, "panic", r)
		}
	}()
	if err := h(ctx, payload); err != nil {
		logger.WithCtx(ctx).Error("event: handler failed", "event", event, "error", err)
	}
}
