package events

import (
	"context"
	"sync"
	"time"

	"introportal_backend/platform/logger"
)

// handlerTimeout bounds async handler execution so a stuck handler cannot
// leak goroutines forever.
const handlerTimeout = 30 * time.Second

// InMemoryBus is a simple in-process event bus. Handlers registered for an
// event name receive every published event of that name.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	log      *logger.Logger
}

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return &InMemoryBus{
		handlers: make(map[string][]Handler),
		log:      log,
	}
}

// Subscribe registers a handler for a specific event type.
func (b *InMemoryBus) Subscribe(eventName string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventName] = append(b.handlers[eventName], handler)
}

// Publish sends an event to all registered handlers asynchronously.
// Handler errors and panics are logged, never propagated to the publisher.
func (b *InMemoryBus) Publish(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[event.EventName()]...)
	b.mu.RUnlock()

	for _, handler := range handlers {
		go b.run(event, handler)
	}
}

// PublishSync sends an event and waits for all handlers to complete.
// Returns the first handler error encountered.
func (b *InMemoryBus) PublishSync(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[event.EventName()]...)
	b.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler.Handle(ctx, event); err != nil {
			return err
		}
	}

	return nil
}

func (b *InMemoryBus) run(event Event, handler Handler) {
	defer func() {
		if r := recover(); r != nil && b.log != nil {
			b.log.Error("event handler panic",
				"event", event.EventName(),
				"panic", r,
			)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	if err := handler.Handle(ctx, event); err != nil && b.log != nil {
		b.log.Error("event handler failed",
			"event", event.EventName(),
			"error", err.Error(),
		)
	}
}
