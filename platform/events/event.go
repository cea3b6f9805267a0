// Package events carries domain events between modules in-process. Event
// definitions live with the modules that publish them; this package only
// provides the bus and the contracts around it.
package events

import (
	"context"
	"time"
)

// Event is anything a module can publish on the bus. EventName doubles as
// the subscription key.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent carries the timestamp shared by every event. Embed it and add
// the event's own fields.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

// OccurredAt reports when the event was published.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps a base event with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler consumes events it subscribed to.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, event Event) error

// Handle calls the underlying function.
func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus routes published events to their subscribers.
type Bus interface {
	// Publish delivers the event to every subscriber of its name. Delivery
	// is asynchronous; publishers never block on slow consumers.
	Publish(ctx context.Context, event Event)

	// PublishSync delivers the event and waits for every subscriber,
	// returning the first handler error.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler under an event name, as returned by
	// Event.EventName.
	Subscribe(eventName string, handler Handler)
}
