package appointment

import (
	"time"

	"github.com/google/uuid"
)

// Event type registration keys.
const (
	EventTypeCreated   = "AppointmentCreated"
	EventTypeModified  = "AppointmentModified"
	EventTypeCancelled = "AppointmentCancelled"
)

// CreatedEvent is emitted after an Add transition commits.
type CreatedEvent struct {
	EventID       uuid.UUID
	AppointmentID uuid.UUID
	PolicyNo      string
	Version       uint
	Actor         string
	OccurredAt    time.Time
}

// Type returns the event type name.
func (e CreatedEvent) Type() string { return EventTypeCreated }

// ModifiedEvent is emitted after a Modify transition commits.
type ModifiedEvent struct {
	EventID       uuid.UUID
	AppointmentID uuid.UUID
	PolicyNo      string
	Version       uint
	Actor         string
	OccurredAt    time.Time
}

// Type returns the event type name.
func (e ModifiedEvent) Type() string { return EventTypeModified }

// CancelledEvent is emitted after a Cancel transition commits.
type CancelledEvent struct {
	EventID       uuid.UUID
	AppointmentID uuid.UUID
	PolicyNo      string
	Version       uint
	Actor         string
	OccurredAt    time.Time
}

// Type returns the event type name.
func (e CancelledEvent) Type() string { return EventTypeCancelled }
