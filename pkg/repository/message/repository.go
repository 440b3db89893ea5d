package message

import (
	"context"

	"github.com/amirasaad/appointments/pkg/dto"
	"github.com/google/uuid"
)

// Repository defines the interface for audit message access. The ledger is
// append-only: messages are created once per lifecycle transition and never
// updated or deleted.
type Repository interface {
	// Create inserts a rendered message with its detail lines.
	Create(ctx context.Context, create dto.MessageCreate) error

	// Get retrieves one message by its id.
	Get(ctx context.Context, id uuid.UUID) (*dto.MessageRead, error)

	// ListByAppointment returns an appointment's full message history
	// ordered by the version at emission.
	ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*dto.MessageRead, error)
}
