package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AppointmentRead is a read-optimized DTO for appointment queries, API
// responses, and reporting. Legs come back ordered by sequence.
type AppointmentRead struct {
	ID               uuid.UUID
	PolicyNo         string
	Type             string
	Status           string
	Amount           decimal.Decimal
	Currency         string
	EffectiveDate    time.Time
	Frequency        string
	RecurrenceMonths int // 0 when the appointment has no custom rule
	Version          uint
	Legs             []LegRead
	Remittance       *RemittanceRead
	CreatedBy        string
	ModifiedBy       string
	CreatedAt        time.Time
	ModifiedAt       time.Time
}

// AppointmentCreate is a DTO for persisting a new appointment together with
// its legs or remittance detail.
type AppointmentCreate struct {
	ID               uuid.UUID
	PolicyNo         string
	Type             string
	Status           string
	Amount           decimal.Decimal
	Currency         string
	EffectiveDate    time.Time
	Frequency        string
	RecurrenceMonths int
	Version          uint
	Legs             []LegCreate
	Remittance       *RemittanceCreate
	CreatedBy        string
	CreatedAt        time.Time
}

// AppointmentUpdate carries the full replacement state written by a Modify
// or Cancel. Legs and Remittance always replace the stored set; a Modify is
// never a partial patch.
type AppointmentUpdate struct {
	Status           string
	Amount           decimal.Decimal
	Currency         string
	EffectiveDate    time.Time
	Frequency        string
	RecurrenceMonths int
	Version          uint // the new version to write
	Legs             []LegCreate
	Remittance       *RemittanceCreate
	ModifiedBy       string
	ModifiedAt       time.Time
}

// AppointmentQuery filters appointment listings. Zero fields match
// everything; From and To bound the effective date inclusively.
type AppointmentQuery struct {
	PolicyNo string
	Status   string
	Type     string
	From     *time.Time
	To       *time.Time
}

// LegRead is one stored allocation leg.
type LegRead struct {
	AppointmentID uuid.UUID
	Type          string // Sell or Buy
	FundCode      string
	Percentage    decimal.Decimal
	Amount        decimal.Decimal
	Sequence      int
}

// LegCreate is one allocation leg written with its appointment.
type LegCreate struct {
	Type       string
	FundCode   string
	Percentage decimal.Decimal
	Amount     decimal.Decimal
	Sequence   int
}

// RemittanceRead is a stored remittance detail.
type RemittanceRead struct {
	AppointmentID uuid.UUID
	Disbursement  string
	BankCode      string
	AccountNo     string
	Payee         string
	Swift         string
	Amount        decimal.Decimal
	Currency      string
	RemitDate     time.Time
}

// RemittanceCreate is a remittance detail written with its appointment.
type RemittanceCreate struct {
	Disbursement string
	BankCode     string
	AccountNo    string
	Payee        string
	Swift        string
	Amount       decimal.Decimal
	Currency     string
	RemitDate    time.Time
}
