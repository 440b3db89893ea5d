package appointment

import (
	"context"

	"github.com/amirasaad/appointments/pkg/dto"
	"github.com/google/uuid"
)

// Repository defines the interface for appointment data access operations
// with support for CQRS (Command/Query Responsibility Segregation).
type Repository interface {
	// Create inserts a new appointment aggregate from a DTO, including its
	// legs or remittance detail.
	Create(ctx context.Context, create dto.AppointmentCreate) error

	// UpdateVersioned replaces the stored aggregate with the update, but
	// only while the stored version still equals expectedVersion. A lost
	// race returns appointment.ErrConcurrentModification and writes
	// nothing.
	UpdateVersioned(ctx context.Context, id uuid.UUID, expectedVersion uint, update dto.AppointmentUpdate) error

	// Get retrieves an appointment with its legs and remittance detail as a
	// read-optimized DTO.
	Get(ctx context.Context, id uuid.UUID) (*dto.AppointmentRead, error)

	// List returns the appointments matching the query, ordered by
	// effective date and then by id.
	List(ctx context.Context, query dto.AppointmentQuery) ([]*dto.AppointmentRead, error)

	// ListLiveByPolicy returns the policy's Active and Modified
	// appointments, used for cross-appointment conflict checks.
	ListLiveByPolicy(ctx context.Context, policyNo string) ([]*dto.AppointmentRead, error)
}
