// Package events is the in-process event bus the workflow engine publishes
// audit transitions on. The notification dispatcher subscribes here to
// enqueue delivery work without the engine knowing about queues or
// channels. Platform layer only; event payloads live in internal/events.
package events

import (
	"context"
	"time"
)

// Event is implemented by every published event payload.
type Event interface {
	// EventName identifies the event type for subscription matching.
	EventName() string
	// OccurredAt reports when the event was published.
	OccurredAt() time.Time
}

// BaseEvent carries the timestamp so payload structs only add their own
// fields. Embed it and construct with NewBaseEvent.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps a fresh base event with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler consumes events of one subscribed type.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus fans events out to subscribed handlers.
type Bus interface {
	// Publish delivers the event to its subscribers asynchronously, so a
	// publisher in the middle of a request never waits on handlers.
	Publish(ctx context.Context, event Event)

	// PublishSync delivers the event and waits for every handler,
	// returning their joined errors.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler for the event name, which must match
	// the payload's EventName.
	Subscribe(eventName string, handler Handler)
}
