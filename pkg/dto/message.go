package dto

import (
	"time"

	"github.com/google/uuid"
)

// MessageRead is a read-optimized DTO for one audit message with its
// rendered detail lines in sequence order.
type MessageRead struct {
	ID            uuid.UUID
	AppointmentID uuid.UUID
	Version       uint // appointment version at emission
	Transition    string
	Actor         string
	CreatedAt     time.Time
	Lines         []MessageLineRead
}

// MessageCreate is a DTO for persisting a rendered message. Messages are
// append-only; there is no update DTO.
type MessageCreate struct {
	ID            uuid.UUID
	AppointmentID uuid.UUID
	Version       uint
	Transition    string
	Actor         string
	CreatedAt     time.Time
	Lines         []MessageLineCreate
}

// MessageLineRead is one stored detail line.
type MessageLineRead struct {
	Seq  int
	Code string
	Text string
}

// MessageLineCreate is one detail line written with its message.
type MessageLineCreate struct {
	Seq  int
	Code string
	Text string
}
