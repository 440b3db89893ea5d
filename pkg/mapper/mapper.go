// Package mapper converts between domain aggregates and persistence DTOs.
package mapper

import (
	"errors"
	"fmt"

	"github.com/amirasaad/appointments/pkg/domain/appointment"
	"github.com/amirasaad/appointments/pkg/dto"
)

// MapAppointmentReadToDomain rehydrates a stored appointment into the domain
// aggregate. Stored enums are checked so a corrupt row surfaces as an error
// instead of a silently broken state machine.
func MapAppointmentReadToDomain(read *dto.AppointmentRead) (*appointment.Appointment, error) {
	if read == nil {
		return nil, errors.New("appointment read is nil")
	}
	typ := appointment.Type(read.Type)
	if !typ.Valid() {
		return nil, fmt.Errorf("stored appointment %s has unknown type %q", read.ID, read.Type)
	}
	status := appointment.Status(read.Status)
	if !status.Valid() {
		return nil, fmt.Errorf("stored appointment %s has unknown status %q", read.ID, read.Status)
	}
	freq := appointment.Frequency(read.Frequency)
	if !freq.Valid() {
		return nil, fmt.Errorf("stored appointment %s has unknown frequency %q", read.ID, read.Frequency)
	}

	var rule *appointment.RecurrenceRule
	if read.RecurrenceMonths > 0 {
		rule = &appointment.RecurrenceRule{IntervalMonths: read.RecurrenceMonths}
	}

	legs := make([]appointment.AllocationLeg, len(read.Legs))
	for i, leg := range read.Legs {
		legs[i] = appointment.AllocationLeg{
			AppointmentID: read.ID,
			Type:          appointment.LegType(leg.Type),
			FundCode:      leg.FundCode,
			Percentage:    leg.Percentage,
			Amount:        leg.Amount,
			Sequence:      leg.Sequence,
		}
	}

	var remit *appointment.RemittanceDetail
	if r := read.Remittance; r != nil {
		remit = &appointment.RemittanceDetail{
			AppointmentID: read.ID,
			Disbursement:  appointment.Disbursement(r.Disbursement),
			BankCode:      r.BankCode,
			AccountNo:     r.AccountNo,
			Payee:         r.Payee,
			Swift:         r.Swift,
			Amount:        r.Amount,
			Currency:      r.Currency,
			RemitDate:     r.RemitDate,
		}
	}

	return &appointment.Appointment{
		ID:            read.ID,
		PolicyNo:      read.PolicyNo,
		Type:          typ,
		Status:        status,
		Amount:        read.Amount,
		Currency:      read.Currency,
		EffectiveDate: read.EffectiveDate,
		Frequency:     freq,
		Recurrence:    rule,
		Legs:          legs,
		Remittance:    remit,
		Version:       read.Version,
		CreatedBy:     read.CreatedBy,
		ModifiedBy:    read.ModifiedBy,
		CreatedAt:     read.CreatedAt,
		ModifiedAt:    read.ModifiedAt,
	}, nil
}

// MapAppointmentToCreate maps a new aggregate to its persistence DTO.
func MapAppointmentToCreate(apt *appointment.Appointment) dto.AppointmentCreate {
	return dto.AppointmentCreate{
		ID:               apt.ID,
		PolicyNo:         apt.PolicyNo,
		Type:             string(apt.Type),
		Status:           string(apt.Status),
		Amount:           apt.Amount,
		Currency:         apt.Currency,
		EffectiveDate:    apt.EffectiveDate,
		Frequency:        string(apt.Frequency),
		RecurrenceMonths: recurrenceMonths(apt.Recurrence),
		Version:          apt.Version,
		Legs:             mapLegsToCreate(apt.Legs),
		Remittance:       mapRemittanceToCreate(apt.Remittance),
		CreatedBy:        apt.CreatedBy,
		CreatedAt:        apt.CreatedAt,
	}
}

// MapAppointmentToUpdate maps a mutated aggregate to the full replacement
// state written by Modify and Cancel.
func MapAppointmentToUpdate(apt *appointment.Appointment) dto.AppointmentUpdate {
	return dto.AppointmentUpdate{
		Status:           string(apt.Status),
		Amount:           apt.Amount,
		Currency:         apt.Currency,
		EffectiveDate:    apt.EffectiveDate,
		Frequency:        string(apt.Frequency),
		RecurrenceMonths: recurrenceMonths(apt.Recurrence),
		Version:          apt.Version,
		Legs:             mapLegsToCreate(apt.Legs),
		Remittance:       mapRemittanceToCreate(apt.Remittance),
		ModifiedBy:       apt.ModifiedBy,
		ModifiedAt:       apt.ModifiedAt,
	}
}

// MapAppointmentToRead maps a domain aggregate to the read DTO shape, as a
// freshly written transition would be read back.
func MapAppointmentToRead(apt *appointment.Appointment) *dto.AppointmentRead {
	read := &dto.AppointmentRead{
		ID:               apt.ID,
		PolicyNo:         apt.PolicyNo,
		Type:             string(apt.Type),
		Status:           string(apt.Status),
		Amount:           apt.Amount,
		Currency:         apt.Currency,
		EffectiveDate:    apt.EffectiveDate,
		Frequency:        string(apt.Frequency),
		RecurrenceMonths: recurrenceMonths(apt.Recurrence),
		Version:          apt.Version,
		CreatedBy:        apt.CreatedBy,
		ModifiedBy:       apt.ModifiedBy,
		CreatedAt:        apt.CreatedAt,
		ModifiedAt:       apt.ModifiedAt,
	}
	for _, leg := range apt.Legs {
		read.Legs = append(read.Legs, dto.LegRead{
			AppointmentID: apt.ID,
			Type:          string(leg.Type),
			FundCode:      leg.FundCode,
			Percentage:    leg.Percentage,
			Amount:        leg.Amount,
			Sequence:      leg.Sequence,
		})
	}
	if r := apt.Remittance; r != nil {
		read.Remittance = &dto.RemittanceRead{
			AppointmentID: apt.ID,
			Disbursement:  string(r.Disbursement),
			BankCode:      r.BankCode,
			AccountNo:     r.AccountNo,
			Payee:         r.Payee,
			Swift:         r.Swift,
			Amount:        r.Amount,
			Currency:      r.Currency,
			RemitDate:     r.RemitDate,
		}
	}
	return read
}

// MapMessageToCreate maps a rendered message to its persistence DTO.
func MapMessageToCreate(msg *appointment.Message) dto.MessageCreate {
	lines := make([]dto.MessageLineCreate, len(msg.Lines))
	for i, line := range msg.Lines {
		lines[i] = dto.MessageLineCreate{
			Seq:  line.Seq,
			Code: string(line.Code),
			Text: line.Text,
		}
	}
	return dto.MessageCreate{
		ID:            msg.ID,
		AppointmentID: msg.AppointmentID,
		Version:       msg.Version,
		Transition:    string(msg.Transition),
		Actor:         msg.Actor,
		CreatedAt:     msg.CreatedAt,
		Lines:         lines,
	}
}

func mapLegsToCreate(legs []appointment.AllocationLeg) []dto.LegCreate {
	if len(legs) == 0 {
		return nil
	}
	out := make([]dto.LegCreate, len(legs))
	for i, leg := range legs {
		out[i] = dto.LegCreate{
			Type:       string(leg.Type),
			FundCode:   leg.FundCode,
			Percentage: leg.Percentage,
			Amount:     leg.Amount,
			Sequence:   leg.Sequence,
		}
	}
	return out
}

func mapRemittanceToCreate(r *appointment.RemittanceDetail) *dto.RemittanceCreate {
	if r == nil {
		return nil
	}
	return &dto.RemittanceCreate{
		Disbursement: string(r.Disbursement),
		BankCode:     r.BankCode,
		AccountNo:    r.AccountNo,
		Payee:        r.Payee,
		Swift:        r.Swift,
		Amount:       r.Amount,
		Currency:     r.Currency,
		RemitDate:    r.RemitDate,
	}
}

func recurrenceMonths(rule *appointment.RecurrenceRule) int {
	if rule == nil {
		return 0
	}
	return rule.IntervalMonths
}
