// Package appointment provides business logic for the appointment lifecycle:
// staging and activating appointments, applying full-replacement
// modifications, cancelling, and answering queries together with their
// message history.
//
// Every mutating operation runs inside a unit of work so the validation
// reads, the versioned write, and the ledger message commit or roll back
// together. Lifecycle events are emitted only after the transaction commits.
package appointment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/appointments/pkg/config"
	"github.com/amirasaad/appointments/pkg/domain/appointment"
	"github.com/amirasaad/appointments/pkg/dto"
	"github.com/amirasaad/appointments/pkg/eventbus"
	"github.com/amirasaad/appointments/pkg/ledger"
	"github.com/amirasaad/appointments/pkg/mapper"
	"github.com/amirasaad/appointments/pkg/repository"
	appointmentrepo "github.com/amirasaad/appointments/pkg/repository/appointment"
	"github.com/amirasaad/appointments/pkg/validation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service provides business logic for appointment lifecycle operations.
type Service struct {
	uow        repository.UnitOfWork
	allocation *validation.AllocationValidator
	schedule   *validation.ScheduleValidator
	writer     *ledger.Writer
	bus        eventbus.Bus
	logger     *slog.Logger
	now        func() time.Time
}

// NewService creates a new Service with the provided dependencies.
func NewService(deps config.Deps) *Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		uow:        deps.Uow,
		allocation: validation.NewAllocationValidator(deps.Refdata, deps.Refdata, deps.Refdata),
		schedule:   validation.NewScheduleValidator(deps.Refdata),
		writer:     ledger.NewWriter(deps.Refdata, deps.Refdata),
		bus:        deps.EventBus,
		logger:     deps.Logger,
		now:        now,
	}
}

// AddCommand carries the payload for staging or activating a new appointment.
type AddCommand struct {
	// ID is optional; when zero a fresh identifier is assigned. Supplying
	// the identifier of an existing appointment rejects the Add.
	ID            uuid.UUID
	PolicyNo      string
	Type          appointment.Type
	Draft         bool
	Amount        decimal.Decimal
	Currency      string
	EffectiveDate time.Time
	Frequency     appointment.Frequency
	Recurrence    *appointment.RecurrenceRule
	Legs          []appointment.AllocationLeg
	Remittance    *appointment.RemittanceDetail
	Actor         string
}

// ModifyCommand carries the full replacement payload for a modification.
// A modify is never a partial patch: the legs and remittance given here
// become the appointment's entire allocation.
type ModifyCommand struct {
	Amount        decimal.Decimal
	Currency      string
	EffectiveDate time.Time
	Frequency     appointment.Frequency
	Recurrence    *appointment.RecurrenceRule
	Legs          []appointment.AllocationLeg
	Remittance    *appointment.RemittanceDetail
	// Finalize promotes a Draft to Active as part of the modification.
	Finalize bool
	Actor    string
}

// Result is the outcome of a lifecycle transition. Either the transition
// committed and Appointment carries the new state with the id of its ledger
// message, or validation rejected it and Failures lists every violated rule.
type Result struct {
	Appointment *appointment.Appointment
	MessageID   uuid.UUID
	Failures    []validation.Failure
}

// Rejected reports whether validation stopped the transition.
func (r *Result) Rejected() bool { return len(r.Failures) > 0 }

// QueryItem pairs an appointment snapshot with its full message history and
// the next date a recurring appointment runs.
type QueryItem struct {
	Appointment *dto.AppointmentRead
	Messages    []*dto.MessageRead
	// NextRunAt is zero for cancelled appointments.
	NextRunAt time.Time
}

// Add stages or activates a new appointment. Validation, the insert, and the
// ledger message run in one transaction; a rejection returns the failures
// and persists nothing.
func (s *Service) Add(ctx context.Context, cmd AddCommand) (res *Result, err error) {
	logger := s.logger.With(
		"operation", "Add",
		"policy_no", cmd.PolicyNo,
		"actor", cmd.Actor,
	)
	logger.Info("Add started")
	processing := s.now().UTC()
	start := time.Now()
	var failures validation.Result
	defer func() { observeTransition("add", start, failures, err) }()

	builder := appointment.New().
		WithPolicy(cmd.PolicyNo).
		WithType(cmd.Type).
		WithAmount(cmd.Amount, cmd.Currency).
		WithSchedule(cmd.EffectiveDate, cmd.Frequency).
		WithRecurrence(cmd.Recurrence).
		WithLegs(cmd.Legs).
		WithRemittance(cmd.Remittance).
		WithActor(cmd.Actor).
		WithCreatedAt(processing)
	if cmd.ID != uuid.Nil {
		builder = builder.WithID(cmd.ID)
	}
	if cmd.Draft {
		builder = builder.AsDraft()
	}
	apt, err := builder.Build()
	if err != nil {
		logger.Error("Add failed: domain error", "error", err)
		return nil, err
	}

	var msgID uuid.UUID
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AppointmentRepository()
		if err != nil {
			logger.Error("Add failed: AppointmentRepository error", "error", err)
			return err
		}
		messages, err := uow.MessageRepository()
		if err != nil {
			logger.Error("Add failed: MessageRepository error", "error", err)
			return err
		}
		if cmd.ID != uuid.Nil {
			if _, err := repo.Get(ctx, cmd.ID); err == nil {
				logger.Error("Add failed: identifier already in use", "appointment_id", cmd.ID)
				return appointment.ErrAlreadyExists
			} else if !errors.Is(err, appointment.ErrAppointmentNotFound) {
				return err
			}
		}

		failures, err = s.validate(ctx, repo, apt, processing, nil)
		if err != nil {
			logger.Error("Add failed: validation fault", "error", err)
			return err
		}
		if !failures.Valid() {
			return nil
		}

		msg, err := s.writer.Render(ctx, apt, appointment.TransitionAdd, cmd.Actor, processing)
		if err != nil {
			logger.Error("Add failed: render error", "error", err)
			return err
		}
		if err = repo.Create(ctx, mapper.MapAppointmentToCreate(apt)); err != nil {
			logger.Error("Add failed: repo create error", "error", err)
			return err
		}
		if err = messages.Create(ctx, mapper.MapMessageToCreate(msg)); err != nil {
			logger.Error("Add failed: message create error", "error", err)
			return err
		}
		msgID = msg.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !failures.Valid() {
		logger.Info("Add rejected by validation", "failures", len(failures.Failures))
		return &Result{Failures: failures.Failures}, nil
	}
	s.emit(ctx, appointment.CreatedEvent{
		EventID:       uuid.New(),
		AppointmentID: apt.ID,
		PolicyNo:      apt.PolicyNo,
		Version:       apt.Version,
		Actor:         cmd.Actor,
		OccurredAt:    processing,
	})
	logger.Info("Add successful", "appointment_id", apt.ID, "status", apt.Status)
	return &Result{Appointment: apt, MessageID: msgID}, nil
}

// Modify replaces an appointment's terms and allocation atomically and
// re-runs both validators against the replacement state. The stored version
// is read and written back incremented, conditioned on the read version
// still matching; a lost race surfaces as ErrConcurrentModification.
func (s *Service) Modify(ctx context.Context, id uuid.UUID, cmd ModifyCommand) (res *Result, err error) {
	logger := s.logger.With(
		"operation", "Modify",
		"appointment_id", id,
		"actor", cmd.Actor,
	)
	logger.Info("Modify started")
	processing := s.now().UTC()
	start := time.Now()
	var apt *appointment.Appointment
	var failures validation.Result
	var msgID uuid.UUID
	defer func() { observeTransition("modify", start, failures, err) }()

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AppointmentRepository()
		if err != nil {
			logger.Error("Modify failed: AppointmentRepository error", "error", err)
			return err
		}
		messages, err := uow.MessageRepository()
		if err != nil {
			logger.Error("Modify failed: MessageRepository error", "error", err)
			return err
		}

		read, err := repo.Get(ctx, id)
		if err != nil {
			logger.Error("Modify failed: get error", "error", err)
			return err
		}
		apt, err = mapper.MapAppointmentReadToDomain(read)
		if err != nil {
			logger.Error("Modify failed: stored appointment unreadable", "error", err)
			return err
		}
		expected := apt.Version
		originalEffective := apt.EffectiveDate

		if err = apt.Modify(cmd.Actor, processing, cmd.Finalize); err != nil {
			logger.Error("Modify failed: domain error", "error", err)
			return err
		}
		if err = apt.SetTerms(
			cmd.Amount, cmd.Currency, cmd.EffectiveDate, cmd.Frequency, cmd.Recurrence,
		); err != nil {
			logger.Error("Modify failed: domain error", "error", err)
			return err
		}
		apt.Remittance = cmd.Remittance
		if err = apt.ReplaceLegs(cmd.Legs); err != nil {
			logger.Error("Modify failed: domain error", "error", err)
			return err
		}

		failures, err = s.validate(ctx, repo, apt, processing, &originalEffective)
		if err != nil {
			logger.Error("Modify failed: validation fault", "error", err)
			return err
		}
		if !failures.Valid() {
			return nil
		}

		msg, err := s.writer.Render(ctx, apt, appointment.TransitionModify, cmd.Actor, processing)
		if err != nil {
			logger.Error("Modify failed: render error", "error", err)
			return err
		}
		if err = repo.UpdateVersioned(ctx, id, expected, mapper.MapAppointmentToUpdate(apt)); err != nil {
			logger.Error("Modify failed: versioned update error", "error", err)
			return err
		}
		if err = messages.Create(ctx, mapper.MapMessageToCreate(msg)); err != nil {
			logger.Error("Modify failed: message create error", "error", err)
			return err
		}
		msgID = msg.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !failures.Valid() {
		logger.Info("Modify rejected by validation", "failures", len(failures.Failures))
		return &Result{Failures: failures.Failures}, nil
	}
	s.emit(ctx, appointment.ModifiedEvent{
		EventID:       uuid.New(),
		AppointmentID: apt.ID,
		PolicyNo:      apt.PolicyNo,
		Version:       apt.Version,
		Actor:         cmd.Actor,
		OccurredAt:    processing,
	})
	logger.Info("Modify successful", "version", apt.Version, "status", apt.Status)
	return &Result{Appointment: apt, MessageID: msgID}, nil
}

// Cancel moves an appointment to its terminal state, clearing the leg set
// and remittance detail while keeping the record and its full history. No
// validators run; an already cancelled appointment returns
// ErrAlreadyCancelled.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, actor string) (res *Result, err error) {
	logger := s.logger.With(
		"operation", "Cancel",
		"appointment_id", id,
		"actor", actor,
	)
	logger.Info("Cancel started")
	processing := s.now().UTC()
	start := time.Now()
	var apt *appointment.Appointment
	var msgID uuid.UUID
	defer func() { observeTransition("cancel", start, validation.Result{}, err) }()

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AppointmentRepository()
		if err != nil {
			logger.Error("Cancel failed: AppointmentRepository error", "error", err)
			return err
		}
		messages, err := uow.MessageRepository()
		if err != nil {
			logger.Error("Cancel failed: MessageRepository error", "error", err)
			return err
		}

		read, err := repo.Get(ctx, id)
		if err != nil {
			logger.Error("Cancel failed: get error", "error", err)
			return err
		}
		apt, err = mapper.MapAppointmentReadToDomain(read)
		if err != nil {
			logger.Error("Cancel failed: stored appointment unreadable", "error", err)
			return err
		}
		expected := apt.Version

		if err = apt.Cancel(actor, processing); err != nil {
			logger.Error("Cancel failed: domain error", "error", err)
			return err
		}

		msg, err := s.writer.Render(ctx, apt, appointment.TransitionCancel, actor, processing)
		if err != nil {
			logger.Error("Cancel failed: render error", "error", err)
			return err
		}
		if err = repo.UpdateVersioned(ctx, id, expected, mapper.MapAppointmentToUpdate(apt)); err != nil {
			logger.Error("Cancel failed: versioned update error", "error", err)
			return err
		}
		if err = messages.Create(ctx, mapper.MapMessageToCreate(msg)); err != nil {
			logger.Error("Cancel failed: message create error", "error", err)
			return err
		}
		msgID = msg.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, appointment.CancelledEvent{
		EventID:       uuid.New(),
		AppointmentID: apt.ID,
		PolicyNo:      apt.PolicyNo,
		Version:       apt.Version,
		Actor:         actor,
		OccurredAt:    processing,
	})
	logger.Info("Cancel successful", "version", apt.Version)
	return &Result{Appointment: apt, MessageID: msgID}, nil
}

// Get returns one appointment with its full message history.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (item *QueryItem, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AppointmentRepository()
		if err != nil {
			return err
		}
		messages, err := uow.MessageRepository()
		if err != nil {
			return err
		}
		read, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		history, err := messages.ListByAppointment(ctx, id)
		if err != nil {
			return err
		}
		item = &QueryItem{
			Appointment: read,
			Messages:    history,
			NextRunAt:   s.nextRunAt(read),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Query returns the appointments matching the filter, each with its full
// message history, ordered by effective date.
func (s *Service) Query(ctx context.Context, filter dto.AppointmentQuery) (items []QueryItem, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AppointmentRepository()
		if err != nil {
			return err
		}
		messages, err := uow.MessageRepository()
		if err != nil {
			return err
		}
		reads, err := repo.List(ctx, filter)
		if err != nil {
			return err
		}
		items = make([]QueryItem, 0, len(reads))
		for _, read := range reads {
			history, err := messages.ListByAppointment(ctx, read.ID)
			if err != nil {
				return err
			}
			items = append(items, QueryItem{
				Appointment: read,
				Messages:    history,
				NextRunAt:   s.nextRunAt(read),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Messages returns the append-only message history of one appointment,
// ordered by the version each message was emitted at.
func (s *Service) Messages(ctx context.Context, id uuid.UUID) (history []*dto.MessageRead, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AppointmentRepository()
		if err != nil {
			return err
		}
		messages, err := uow.MessageRepository()
		if err != nil {
			return err
		}
		if _, err = repo.Get(ctx, id); err != nil {
			return err
		}
		history, err = messages.ListByAppointment(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return history, nil
}

// validate runs the allocation and schedule rule sets plus the
// cross-appointment fund guard, merging every failure into one result.
func (s *Service) validate(
	ctx context.Context,
	repo appointmentrepo.Repository,
	apt *appointment.Appointment,
	processing time.Time,
	original *time.Time,
) (validation.Result, error) {
	res, err := s.allocation.Validate(ctx, apt)
	if err != nil {
		return validation.Result{}, err
	}
	sched, err := s.schedule.Validate(ctx, apt, processing, original)
	if err != nil {
		return validation.Result{}, err
	}
	res.Merge(sched)
	if apt.Finalized() && len(apt.Legs) > 0 {
		conflicts, err := s.conflictingAllocations(ctx, repo, apt)
		if err != nil {
			return validation.Result{}, err
		}
		res.Merge(conflicts)
	}
	return res, nil
}

// conflictingAllocations rejects funds already allocated by another live
// appointment of the same policy with the same leg type and effective
// day-of-month.
func (s *Service) conflictingAllocations(
	ctx context.Context,
	repo appointmentrepo.Repository,
	apt *appointment.Appointment,
) (validation.Result, error) {
	var res validation.Result
	others, err := repo.ListLiveByPolicy(ctx, apt.PolicyNo)
	if err != nil {
		return res, fmt.Errorf("list live appointments for policy %s: %w", apt.PolicyNo, err)
	}
	day := apt.EffectiveDate.Day()
	reported := make(map[string]bool)
	for _, other := range others {
		if other.ID == apt.ID || other.EffectiveDate.Day() != day {
			continue
		}
		for _, otherLeg := range other.Legs {
			for _, leg := range apt.Legs {
				key := string(leg.Type) + "/" + leg.FundCode
				if reported[key] || leg.FundCode != otherLeg.FundCode || string(leg.Type) != otherLeg.Type {
					continue
				}
				reported[key] = true
				res.Failures = append(res.Failures, validation.Failure{
					Code: validation.CodeConflictingAppointment,
					Message: fmt.Sprintf(
						"fund %s is already allocated by appointment %s",
						leg.FundCode, other.ID),
					FundCode: leg.FundCode,
					Sequence: leg.Sequence,
				})
			}
		}
	}
	return res, nil
}

// nextRunAt computes the next occurrence for a live appointment.
func (s *Service) nextRunAt(read *dto.AppointmentRead) time.Time {
	if read.Status == string(appointment.StatusCancelled) {
		return time.Time{}
	}
	var rule *appointment.RecurrenceRule
	if read.RecurrenceMonths > 0 {
		rule = &appointment.RecurrenceRule{IntervalMonths: read.RecurrenceMonths}
	}
	return appointment.NextRunAt(
		read.EffectiveDate,
		appointment.Frequency(read.Frequency),
		rule,
		s.now().UTC(),
	)
}

// emit publishes a lifecycle event after the transaction committed. Emission
// failures are logged, never propagated; the transition already happened.
func (s *Service) emit(ctx context.Context, event eventbus.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Emit(ctx, event); err != nil {
		s.logger.Error("event emit failed", "type", event.Type(), "error", err)
	}
}
