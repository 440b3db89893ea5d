// Package eventbus defines the contract for publishing and subscribing to
// domain events. Events are emitted after a transition commits; handlers run
// outside the transaction and must not assume one.
package eventbus

import "context"

// Event is implemented by every domain event.
type Event interface {
	// Type returns the event's registration key, e.g. "AppointmentCreated".
	Type() string
}

// HandlerFunc handles one dispatched event.
type HandlerFunc func(ctx context.Context, event Event) error

// Bus defines the contract for publishing and subscribing to domain events.
type Bus interface {
	// Emit dispatches the event to every handler registered for its type.
	Emit(ctx context.Context, event Event) error

	// Register subscribes a handler to an event type.
	Register(eventType string, handler HandlerFunc)
}
