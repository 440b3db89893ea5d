// Package memrepo provides in-memory repository fakes backing service and
// handler tests. The fakes honor the same error contracts as the real
// persistence layer; per-method error fields simulate storage faults.
package memrepo

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/amirasaad/appointments/pkg/domain/appointment"
	"github.com/amirasaad/appointments/pkg/dto"
	"github.com/amirasaad/appointments/pkg/repository"
	appointmentrepo "github.com/amirasaad/appointments/pkg/repository/appointment"
	messagerepo "github.com/amirasaad/appointments/pkg/repository/message"
	"github.com/google/uuid"
)

// AppointmentRepo is an in-memory appointment store.
type AppointmentRepo struct {
	mu   sync.RWMutex
	rows map[uuid.UUID]dto.AppointmentRead

	CreateErr error
	UpdateErr error
	GetErr    error
	ListErr   error
}

// NewAppointmentRepo creates an empty appointment store.
func NewAppointmentRepo() *AppointmentRepo {
	return &AppointmentRepo{rows: make(map[uuid.UUID]dto.AppointmentRead)}
}

// Create inserts a new row; duplicate identifiers are rejected.
func (r *AppointmentRepo) Create(_ context.Context, create dto.AppointmentCreate) error {
	if r.CreateErr != nil {
		return r.CreateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[create.ID]; ok {
		return fmt.Errorf("appointment %s already stored", create.ID)
	}
	r.rows[create.ID] = readFromCreate(create)
	return nil
}

// UpdateVersioned applies the update only while the stored version still
// matches expectedVersion.
func (r *AppointmentRepo) UpdateVersioned(
	_ context.Context,
	id uuid.UUID,
	expectedVersion uint,
	update dto.AppointmentUpdate,
) error {
	if r.UpdateErr != nil {
		return r.UpdateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok || row.Version != expectedVersion {
		return appointment.ErrConcurrentModification
	}
	row.Status = update.Status
	row.Amount = update.Amount
	row.Currency = update.Currency
	row.EffectiveDate = update.EffectiveDate
	row.Frequency = update.Frequency
	row.RecurrenceMonths = update.RecurrenceMonths
	row.Version = update.Version
	row.Legs = legsFromCreate(id, update.Legs)
	row.Remittance = remittanceFromCreate(id, update.Remittance)
	row.ModifiedBy = update.ModifiedBy
	row.ModifiedAt = update.ModifiedAt
	r.rows[id] = row
	return nil
}

// Get returns a copy of one stored row.
func (r *AppointmentRepo) Get(_ context.Context, id uuid.UUID) (*dto.AppointmentRead, error) {
	if r.GetErr != nil {
		return nil, r.GetErr
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	out := row
	return &out, nil
}

// List returns the rows matching the query ordered by effective date then id.
func (r *AppointmentRepo) List(
	_ context.Context,
	query dto.AppointmentQuery,
) ([]*dto.AppointmentRead, error) {
	if r.ListErr != nil {
		return nil, r.ListErr
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*dto.AppointmentRead, 0, len(r.rows))
	for _, row := range r.rows {
		if query.PolicyNo != "" && row.PolicyNo != query.PolicyNo {
			continue
		}
		if query.Status != "" && row.Status != query.Status {
			continue
		}
		if query.Type != "" && row.Type != query.Type {
			continue
		}
		if query.From != nil && row.EffectiveDate.Before(*query.From) {
			continue
		}
		if query.To != nil && row.EffectiveDate.After(*query.To) {
			continue
		}
		copied := row
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EffectiveDate.Equal(out[j].EffectiveDate) {
			return out[i].EffectiveDate.Before(out[j].EffectiveDate)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

// ListLiveByPolicy returns the policy's Active and Modified rows.
func (r *AppointmentRepo) ListLiveByPolicy(
	_ context.Context,
	policyNo string,
) ([]*dto.AppointmentRead, error) {
	if r.ListErr != nil {
		return nil, r.ListErr
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*dto.AppointmentRead, 0)
	for _, row := range r.rows {
		if row.PolicyNo != policyNo {
			continue
		}
		if row.Status != string(appointment.StatusActive) &&
			row.Status != string(appointment.StatusModified) {
			continue
		}
		copied := row
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

// Seed stores a row directly, bypassing the create path.
func (r *AppointmentRepo) Seed(row dto.AppointmentRead) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[row.ID] = row
}

// MessageRepo is an in-memory append-only message store.
type MessageRepo struct {
	mu   sync.RWMutex
	rows []dto.MessageRead

	CreateErr error
	ListErr   error
}

// NewMessageRepo creates an empty message store.
func NewMessageRepo() *MessageRepo {
	return &MessageRepo{}
}

// Create appends a message; nothing is ever rewritten.
func (r *MessageRepo) Create(_ context.Context, create dto.MessageCreate) error {
	if r.CreateErr != nil {
		return r.CreateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	lines := make([]dto.MessageLineRead, len(create.Lines))
	for i, line := range create.Lines {
		lines[i] = dto.MessageLineRead{Seq: line.Seq, Code: line.Code, Text: line.Text}
	}
	r.rows = append(r.rows, dto.MessageRead{
		ID:            create.ID,
		AppointmentID: create.AppointmentID,
		Version:       create.Version,
		Transition:    create.Transition,
		Actor:         create.Actor,
		CreatedAt:     create.CreatedAt,
		Lines:         lines,
	})
	return nil
}

// Get returns one message by id.
func (r *MessageRepo) Get(_ context.Context, id uuid.UUID) (*dto.MessageRead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, row := range r.rows {
		if row.ID == id {
			out := row
			return &out, nil
		}
	}
	return nil, appointment.ErrMessageNotFound
}

// ListByAppointment returns one appointment's messages ordered by version.
func (r *MessageRepo) ListByAppointment(
	_ context.Context,
	appointmentID uuid.UUID,
) ([]*dto.MessageRead, error) {
	if r.ListErr != nil {
		return nil, r.ListErr
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*dto.MessageRead, 0)
	for _, row := range r.rows {
		if row.AppointmentID == appointmentID {
			copied := row
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// Uow is a pass-through unit of work over the in-memory repositories. It
// provides no rollback; tests assert on the writes the service performed.
type Uow struct {
	Appointments *AppointmentRepo
	Messages     *MessageRepo

	DoErr error
}

// NewUow wires a fresh pair of in-memory repositories.
func NewUow() *Uow {
	return &Uow{Appointments: NewAppointmentRepo(), Messages: NewMessageRepo()}
}

// Do invokes fn with the unit of work itself.
func (u *Uow) Do(_ context.Context, fn func(uow repository.UnitOfWork) error) error {
	if u.DoErr != nil {
		return u.DoErr
	}
	return fn(u)
}

// GetRepository resolves a repository by interface type.
func (u *Uow) GetRepository(repoType reflect.Type) (any, error) {
	switch repoType {
	case reflect.TypeOf((*appointmentrepo.Repository)(nil)).Elem():
		return u.Appointments, nil
	case reflect.TypeOf((*messagerepo.Repository)(nil)).Elem():
		return u.Messages, nil
	}
	return nil, fmt.Errorf("unsupported repository type: %v", repoType)
}

// AppointmentRepository returns the appointment store.
func (u *Uow) AppointmentRepository() (appointmentrepo.Repository, error) {
	return u.Appointments, nil
}

// MessageRepository returns the message store.
func (u *Uow) MessageRepository() (messagerepo.Repository, error) {
	return u.Messages, nil
}

var (
	_ repository.UnitOfWork      = (*Uow)(nil)
	_ appointmentrepo.Repository = (*AppointmentRepo)(nil)
	_ messagerepo.Repository     = (*MessageRepo)(nil)
)

func readFromCreate(c dto.AppointmentCreate) dto.AppointmentRead {
	return dto.AppointmentRead{
		ID:               c.ID,
		PolicyNo:         c.PolicyNo,
		Type:             c.Type,
		Status:           c.Status,
		Amount:           c.Amount,
		Currency:         c.Currency,
		EffectiveDate:    c.EffectiveDate,
		Frequency:        c.Frequency,
		RecurrenceMonths: c.RecurrenceMonths,
		Version:          c.Version,
		Legs:             legsFromCreate(c.ID, c.Legs),
		Remittance:       remittanceFromCreate(c.ID, c.Remittance),
		CreatedBy:        c.CreatedBy,
		ModifiedBy:       c.CreatedBy,
		CreatedAt:        c.CreatedAt,
		ModifiedAt:       c.CreatedAt,
	}
}

func legsFromCreate(id uuid.UUID, legs []dto.LegCreate) []dto.LegRead {
	if len(legs) == 0 {
		return nil
	}
	out := make([]dto.LegRead, len(legs))
	for i, leg := range legs {
		out[i] = dto.LegRead{
			AppointmentID: id,
			Type:          leg.Type,
			FundCode:      leg.FundCode,
			Percentage:    leg.Percentage,
			Amount:        leg.Amount,
			Sequence:      leg.Sequence,
		}
	}
	return out
}

func remittanceFromCreate(id uuid.UUID, r *dto.RemittanceCreate) *dto.RemittanceRead {
	if r == nil {
		return nil
	}
	return &dto.RemittanceRead{
		AppointmentID: id,
		Disbursement:  r.Disbursement,
		BankCode:      r.BankCode,
		AccountNo:     r.AccountNo,
		Payee:         r.Payee,
		Swift:         r.Swift,
		Amount:        r.Amount,
		Currency:      r.Currency,
		RemitDate:     r.RemitDate,
	}
}
