package appointment

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrEmptyMessage is returned when a ledger message is built with no detail
// lines. Every transition renders at least a title line.
var ErrEmptyMessage = errors.New("message must carry at least one line")

// ErrMessageNotFound is returned when a ledger message does not exist.
var ErrMessageNotFound = errors.New("message not found")

// LineCode classifies a rendered ledger line. The codes follow the print
// record layout the downstream letter job consumes.
type LineCode string

const (
	// LineTitle opens the message.
	LineTitle LineCode = "10"
	// LineProcessDate carries the processing date.
	LineProcessDate LineCode = "42"
	// LineBody lines snapshot the appointment, its legs or remittance, and
	// the computed total.
	LineBody LineCode = "U8"
	// LineFooterThanks and LineFooterContact close the message.
	LineFooterThanks  LineCode = "Z1"
	LineFooterContact LineCode = "Z2"
)

// MessageLine is one rendered detail line. Lines are ordered by Seq.
type MessageLine struct {
	Seq  int
	Code LineCode
	Text string
}

// Message is the immutable audit record of one lifecycle transition, keyed by
// (appointment id, version). Once written it is never updated or deleted.
type Message struct {
	ID            uuid.UUID
	AppointmentID uuid.UUID
	Version       uint
	Transition    Transition
	Actor         string
	CreatedAt     time.Time
	Lines         []MessageLine
}

// NewMessage assembles a ledger message for one transition. The lines must
// already be in render order; their sequence numbers are assigned here.
func NewMessage(
	appointmentID uuid.UUID,
	version uint,
	transition Transition,
	actor string,
	at time.Time,
	lines []MessageLine,
) (*Message, error) {
	if actor == "" {
		return nil, ErrActorRequired
	}
	if len(lines) == 0 {
		return nil, ErrEmptyMessage
	}
	numbered := make([]MessageLine, len(lines))
	copy(numbered, lines)
	for i := range numbered {
		numbered[i].Seq = i + 1
	}
	return &Message{
		ID:            uuid.New(),
		AppointmentID: appointmentID,
		Version:       version,
		Transition:    transition,
		Actor:         actor,
		CreatedAt:     at,
		Lines:         numbered,
	}, nil
}
