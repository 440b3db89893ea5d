package appointment

import (
	"time"

	"github.com/amirasaad/appointments/pkg/dto"
	"github.com/amirasaad/appointments/pkg/validation"
)

//revive:disable

// dateLayout is the wire format for effective and remittance dates.
const dateLayout = "2006-01-02"

// LegRequest is one allocation line of an add or modify request.
type LegRequest struct {
	Type       string  `json:"type" validate:"required,oneof=Sell Buy"`
	FundCode   string  `json:"fund_code" validate:"required,min=2,max=8,uppercase"`
	Percentage float64 `json:"percentage" validate:"required,gt=0,lte=100"`
	Sequence   int     `json:"sequence" validate:"required,gt=0"`
}

// RemittanceRequest is the cash-movement detail of a remittance appointment.
type RemittanceRequest struct {
	Disbursement string  `json:"disbursement" validate:"required,oneof=BankTransfer PersonalAccount PolicyAccount"`
	BankCode     string  `json:"bank_code" validate:"omitempty,min=3,max=8"`
	AccountNo    string  `json:"account_no" validate:"omitempty,min=6,max=34"`
	Payee        string  `json:"payee" validate:"omitempty,max=64"`
	Swift        string  `json:"swift" validate:"omitempty,min=8,max=11"`
	Amount       float64 `json:"amount" validate:"required,gt=0"`
	Currency     string  `json:"currency" validate:"required,len=3,uppercase,alpha"`
	RemitDate    string  `json:"remit_date" validate:"required,datetime=2006-01-02"`
}

// AddAppointmentRequest represents the request body for adding an appointment.
// The id is optional; when present it must be new, as identifiers are never
// reused.
type AddAppointmentRequest struct {
	ID               string             `json:"id" validate:"omitempty,uuid4"`
	PolicyNo         string             `json:"policy_no" validate:"required,min=6,max=20"`
	Type             string             `json:"type" validate:"required,oneof=Sell Buy Remittance Mixed"`
	Draft            bool               `json:"draft"`
	Amount           float64            `json:"amount" validate:"required,gt=0"`
	Currency         string             `json:"currency" validate:"required,len=3,uppercase,alpha"`
	EffectiveDate    string             `json:"effective_date" validate:"required,datetime=2006-01-02"`
	Frequency        string             `json:"frequency" validate:"required,oneof=OneTime Monthly Quarterly Annual Custom"`
	RecurrenceMonths int                `json:"recurrence_months" validate:"omitempty,gt=0"`
	Legs             []LegRequest       `json:"legs" validate:"omitempty,dive"`
	Remittance       *RemittanceRequest `json:"remittance"`
}

// ModifyAppointmentRequest represents the request body for modifying an
// appointment. The legs and remittance always replace the stored set.
type ModifyAppointmentRequest struct {
	Amount           float64            `json:"amount" validate:"required,gt=0"`
	Currency         string             `json:"currency" validate:"required,len=3,uppercase,alpha"`
	EffectiveDate    string             `json:"effective_date" validate:"required,datetime=2006-01-02"`
	Frequency        string             `json:"frequency" validate:"required,oneof=OneTime Monthly Quarterly Annual Custom"`
	RecurrenceMonths int                `json:"recurrence_months" validate:"omitempty,gt=0"`
	Finalize         bool               `json:"finalize"`
	Legs             []LegRequest       `json:"legs" validate:"omitempty,dive"`
	Remittance       *RemittanceRequest `json:"remittance"`
}

// LegDTO is the API response representation of an allocation leg.
type LegDTO struct {
	Type       string `json:"type"`
	FundCode   string `json:"fund_code"`
	Percentage string `json:"percentage"`
	Amount     string `json:"amount"`
	Sequence   int    `json:"sequence"`
}

// RemittanceDTO is the API response representation of a remittance detail.
type RemittanceDTO struct {
	Disbursement string `json:"disbursement"`
	BankCode     string `json:"bank_code,omitempty"`
	AccountNo    string `json:"account_no,omitempty"`
	Payee        string `json:"payee,omitempty"`
	Swift        string `json:"swift,omitempty"`
	Amount       string `json:"amount"`
	Currency     string `json:"currency"`
	RemitDate    string `json:"remit_date"`
}

// AppointmentDTO is the API response representation of an appointment.
type AppointmentDTO struct {
	ID               string         `json:"id"`
	PolicyNo         string         `json:"policy_no"`
	Type             string         `json:"type"`
	Status           string         `json:"status"`
	Amount           string         `json:"amount"`
	Currency         string         `json:"currency"`
	EffectiveDate    string         `json:"effective_date"`
	Frequency        string         `json:"frequency"`
	RecurrenceMonths int            `json:"recurrence_months,omitempty"`
	Version          uint           `json:"version"`
	Legs             []LegDTO       `json:"legs,omitempty"`
	Remittance       *RemittanceDTO `json:"remittance,omitempty"`
	NextRunAt        string         `json:"next_run_at,omitempty"`
	CreatedBy        string         `json:"created_by"`
	ModifiedBy       string         `json:"modified_by"`
	CreatedAt        string         `json:"created_at"`
	ModifiedAt       string         `json:"modified_at"`
}

// MessageLineDTO is one rendered line of an audit message.
type MessageLineDTO struct {
	Seq  int    `json:"seq"`
	Code string `json:"code"`
	Text string `json:"text"`
}

// MessageDTO is the API response representation of an audit message.
type MessageDTO struct {
	ID            string           `json:"id"`
	AppointmentID string           `json:"appointment_id"`
	Version       uint             `json:"version"`
	Transition    string           `json:"transition"`
	Actor         string           `json:"actor"`
	CreatedAt     string           `json:"created_at"`
	Lines         []MessageLineDTO `json:"lines"`
}

// FailureDTO is one validation failure in a rejected transition response.
type FailureDTO struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	FundCode string `json:"fund_code,omitempty"`
	Sequence int    `json:"sequence,omitempty"`
}

// TransitionDTO is the success payload of an add, modify, or cancel.
type TransitionDTO struct {
	Appointment *AppointmentDTO `json:"appointment"`
	MessageID   string          `json:"message_id"`
}

// AppointmentDetailDTO is the payload of a single-appointment query.
type AppointmentDetailDTO struct {
	Appointment *AppointmentDTO `json:"appointment"`
	Messages    []MessageDTO    `json:"messages"`
}

// ToAppointmentDTO converts a read DTO to its API representation. A zero
// nextRun leaves next_run_at empty.
func ToAppointmentDTO(read *dto.AppointmentRead, nextRun time.Time) *AppointmentDTO {
	if read == nil {
		return nil
	}
	out := &AppointmentDTO{
		ID:               read.ID.String(),
		PolicyNo:         read.PolicyNo,
		Type:             read.Type,
		Status:           read.Status,
		Amount:           read.Amount.StringFixed(2),
		Currency:         read.Currency,
		EffectiveDate:    read.EffectiveDate.Format(dateLayout),
		Frequency:        read.Frequency,
		RecurrenceMonths: read.RecurrenceMonths,
		Version:          read.Version,
		CreatedBy:        read.CreatedBy,
		ModifiedBy:       read.ModifiedBy,
		CreatedAt:        read.CreatedAt.Format(time.RFC3339),
		ModifiedAt:       read.ModifiedAt.Format(time.RFC3339),
	}
	if !nextRun.IsZero() {
		out.NextRunAt = nextRun.Format(dateLayout)
	}
	for _, leg := range read.Legs {
		out.Legs = append(out.Legs, LegDTO{
			Type:       leg.Type,
			FundCode:   leg.FundCode,
			Percentage: leg.Percentage.StringFixed(2),
			Amount:     leg.Amount.StringFixed(2),
			Sequence:   leg.Sequence,
		})
	}
	if r := read.Remittance; r != nil {
		out.Remittance = &RemittanceDTO{
			Disbursement: r.Disbursement,
			BankCode:     r.BankCode,
			AccountNo:    r.AccountNo,
			Payee:        r.Payee,
			Swift:        r.Swift,
			Amount:       r.Amount.StringFixed(2),
			Currency:     r.Currency,
			RemitDate:    r.RemitDate.Format(dateLayout),
		}
	}
	return out
}

// ToMessageDTO converts a message read DTO to its API representation.
func ToMessageDTO(read *dto.MessageRead) MessageDTO {
	out := MessageDTO{
		ID:            read.ID.String(),
		AppointmentID: read.AppointmentID.String(),
		Version:       read.Version,
		Transition:    read.Transition,
		Actor:         read.Actor,
		CreatedAt:     read.CreatedAt.Format(time.RFC3339),
	}
	for _, line := range read.Lines {
		out.Lines = append(out.Lines, MessageLineDTO{
			Seq:  line.Seq,
			Code: line.Code,
			Text: line.Text,
		})
	}
	return out
}

// ToFailureDTOs converts validation failures to their API representation.
func ToFailureDTOs(failures []validation.Failure) []FailureDTO {
	out := make([]FailureDTO, 0, len(failures))
	for _, f := range failures {
		out = append(out, FailureDTO{
			Code:     string(f.Code),
			Message:  f.Message,
			FundCode: f.FundCode,
			Sequence: f.Sequence,
		})
	}
	return out
}
