// Package appointment provides the GORM-backed persistence for appointment
// aggregates. Write methods expect to run inside a unit of work transaction;
// the leg set and remittance detail are replaced as a whole on every update.
package appointment

import (
	"context"
	"errors"

	domain "github.com/amirasaad/appointments/pkg/domain/appointment"
	"github.com/amirasaad/appointments/pkg/dto"
	repo "github.com/amirasaad/appointments/pkg/repository/appointment"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// New creates a new appointment repository bound to the given connection or
// transaction handle.
func New(db *gorm.DB) repo.Repository {
	return &repository{db: db}
}

// mapError translates storage errors to the domain vocabulary.
func mapError(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrAppointmentNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.ErrAlreadyExists
	}
	return err
}

func (r *repository) Create(ctx context.Context, create dto.AppointmentCreate) error {
	row := mapCreateDTOToModel(create)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return mapError(err)
	}
	if len(create.Legs) > 0 {
		legs := mapLegCreatesToModels(create.ID, create.Legs)
		if err := r.db.WithContext(ctx).Create(&legs).Error; err != nil {
			return mapError(err)
		}
	}
	if create.Remittance != nil {
		rem := mapRemittanceCreateToModel(create.ID, *create.Remittance)
		if err := r.db.WithContext(ctx).Create(&rem).Error; err != nil {
			return mapError(err)
		}
	}
	return nil
}

func (r *repository) UpdateVersioned(
	ctx context.Context,
	id uuid.UUID,
	expectedVersion uint,
	update dto.AppointmentUpdate,
) error {
	res := r.db.WithContext(ctx).Model(&Appointment{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(mapUpdateDTOToModel(update))
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrConcurrentModification
	}
	if err := r.db.WithContext(ctx).
		Where("appointment_id = ?", id).
		Delete(&AllocationLeg{}).Error; err != nil {
		return mapError(err)
	}
	if len(update.Legs) > 0 {
		legs := mapLegCreatesToModels(id, update.Legs)
		if err := r.db.WithContext(ctx).Create(&legs).Error; err != nil {
			return mapError(err)
		}
	}
	if err := r.db.WithContext(ctx).
		Where("appointment_id = ?", id).
		Delete(&RemittanceDetail{}).Error; err != nil {
		return mapError(err)
	}
	if update.Remittance != nil {
		rem := mapRemittanceCreateToModel(id, *update.Remittance)
		if err := r.db.WithContext(ctx).Create(&rem).Error; err != nil {
			return mapError(err)
		}
	}
	return nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*dto.AppointmentRead, error) {
	var row Appointment
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, mapError(err)
	}
	return r.readAggregate(ctx, row)
}

func (r *repository) List(ctx context.Context, query dto.AppointmentQuery) ([]*dto.AppointmentRead, error) {
	q := r.db.WithContext(ctx).Model(&Appointment{})
	if query.PolicyNo != "" {
		q = q.Where("policy_no = ?", query.PolicyNo)
	}
	if query.Status != "" {
		q = q.Where("status = ?", query.Status)
	}
	if query.Type != "" {
		q = q.Where("type = ?", query.Type)
	}
	if query.From != nil {
		q = q.Where("effective_date >= ?", *query.From)
	}
	if query.To != nil {
		q = q.Where("effective_date <= ?", *query.To)
	}
	var rows []Appointment
	if err := q.Order("effective_date, id").Find(&rows).Error; err != nil {
		return nil, mapError(err)
	}
	return r.readAggregates(ctx, rows)
}

func (r *repository) ListLiveByPolicy(ctx context.Context, policyNo string) ([]*dto.AppointmentRead, error) {
	var rows []Appointment
	err := r.db.WithContext(ctx).
		Where("policy_no = ? AND status IN ?", policyNo,
			[]string{string(domain.StatusActive), string(domain.StatusModified)}).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, mapError(err)
	}
	return r.readAggregates(ctx, rows)
}

// readAggregate loads the legs and remittance detail belonging to a row and
// assembles the read DTO.
func (r *repository) readAggregate(ctx context.Context, row Appointment) (*dto.AppointmentRead, error) {
	read := mapModelToDTO(row)
	var legs []AllocationLeg
	if err := r.db.WithContext(ctx).
		Where("appointment_id = ?", row.ID).
		Order("sequence").
		Find(&legs).Error; err != nil {
		return nil, mapError(err)
	}
	for _, leg := range legs {
		read.Legs = append(read.Legs, mapLegModelToDTO(leg))
	}
	var rems []RemittanceDetail
	if err := r.db.WithContext(ctx).
		Where("appointment_id = ?", row.ID).
		Find(&rems).Error; err != nil {
		return nil, mapError(err)
	}
	if len(rems) > 0 {
		rem := mapRemittanceModelToDTO(rems[0])
		read.Remittance = &rem
	}
	return read, nil
}

func (r *repository) readAggregates(ctx context.Context, rows []Appointment) ([]*dto.AppointmentRead, error) {
	reads := make([]*dto.AppointmentRead, 0, len(rows))
	for _, row := range rows {
		read, err := r.readAggregate(ctx, row)
		if err != nil {
			return nil, err
		}
		reads = append(reads, read)
	}
	return reads, nil
}

func mapCreateDTOToModel(create dto.AppointmentCreate) Appointment {
	return Appointment{
		ID:               create.ID,
		PolicyNo:         create.PolicyNo,
		Type:             create.Type,
		Status:           create.Status,
		Amount:           create.Amount,
		Currency:         create.Currency,
		EffectiveDate:    create.EffectiveDate,
		Frequency:        create.Frequency,
		RecurrenceMonths: create.RecurrenceMonths,
		Version:          create.Version,
		CreatedBy:        create.CreatedBy,
		ModifiedBy:       create.CreatedBy,
		CreatedAt:        create.CreatedAt,
		ModifiedAt:       create.CreatedAt,
	}
}

// mapUpdateDTOToModel builds the column map for a versioned update. A map is
// used so zero values such as RecurrenceMonths 0 still overwrite.
func mapUpdateDTOToModel(update dto.AppointmentUpdate) map[string]any {
	return map[string]any{
		"status":            update.Status,
		"amount":            update.Amount,
		"currency":          update.Currency,
		"effective_date":    update.EffectiveDate,
		"frequency":         update.Frequency,
		"recurrence_months": update.RecurrenceMonths,
		"version":           update.Version,
		"modified_by":       update.ModifiedBy,
		"modified_at":       update.ModifiedAt,
	}
}

func mapModelToDTO(row Appointment) *dto.AppointmentRead {
	return &dto.AppointmentRead{
		ID:               row.ID,
		PolicyNo:         row.PolicyNo,
		Type:             row.Type,
		Status:           row.Status,
		Amount:           row.Amount,
		Currency:         row.Currency,
		EffectiveDate:    row.EffectiveDate,
		Frequency:        row.Frequency,
		RecurrenceMonths: row.RecurrenceMonths,
		Version:          row.Version,
		CreatedBy:        row.CreatedBy,
		ModifiedBy:       row.ModifiedBy,
		CreatedAt:        row.CreatedAt,
		ModifiedAt:       row.ModifiedAt,
	}
}

func mapLegCreatesToModels(appointmentID uuid.UUID, legs []dto.LegCreate) []AllocationLeg {
	models := make([]AllocationLeg, 0, len(legs))
	for _, leg := range legs {
		models = append(models, AllocationLeg{
			AppointmentID: appointmentID,
			Type:          leg.Type,
			FundCode:      leg.FundCode,
			Percentage:    leg.Percentage,
			Amount:        leg.Amount,
			Sequence:      leg.Sequence,
		})
	}
	return models
}

func mapLegModelToDTO(leg AllocationLeg) dto.LegRead {
	return dto.LegRead{
		AppointmentID: leg.AppointmentID,
		Type:          leg.Type,
		FundCode:      leg.FundCode,
		Percentage:    leg.Percentage,
		Amount:        leg.Amount,
		Sequence:      leg.Sequence,
	}
}

func mapRemittanceCreateToModel(appointmentID uuid.UUID, rem dto.RemittanceCreate) RemittanceDetail {
	return RemittanceDetail{
		AppointmentID: appointmentID,
		Disbursement:  rem.Disbursement,
		BankCode:      rem.BankCode,
		AccountNo:     rem.AccountNo,
		Payee:         rem.Payee,
		Swift:         rem.Swift,
		Amount:        rem.Amount,
		Currency:      rem.Currency,
		RemitDate:     rem.RemitDate,
	}
}

func mapRemittanceModelToDTO(rem RemittanceDetail) dto.RemittanceRead {
	return dto.RemittanceRead{
		AppointmentID: rem.AppointmentID,
		Disbursement:  rem.Disbursement,
		BankCode:      rem.BankCode,
		AccountNo:     rem.AccountNo,
		Payee:         rem.Payee,
		Swift:         rem.Swift,
		Amount:        rem.Amount,
		Currency:      rem.Currency,
		RemitDate:     rem.RemitDate,
	}
}
