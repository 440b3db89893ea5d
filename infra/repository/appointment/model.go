package appointment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Appointment represents an appointment record in the database. Legs and the
// remittance detail live in their own tables and are loaded explicitly; the
// version column backs the optimistic write guard.
type Appointment struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	PolicyNo         string          `gorm:"type:varchar(20);not null;index"`
	Type             string          `gorm:"type:varchar(12);not null"`
	Status           string          `gorm:"type:varchar(12);not null;index"`
	Amount           decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	Currency         string          `gorm:"type:varchar(3);not null"`
	EffectiveDate    time.Time       `gorm:"not null;index"`
	Frequency        string          `gorm:"type:varchar(12);not null"`
	RecurrenceMonths int             `gorm:"not null"`
	Version          uint            `gorm:"not null"`
	CreatedBy        string          `gorm:"type:varchar(64);not null"`
	ModifiedBy       string          `gorm:"type:varchar(64);not null"`
	CreatedAt        time.Time       `gorm:"not null"`
	ModifiedAt       time.Time       `gorm:"not null"`
}

// TableName specifies the table name for the Appointment model.
func (Appointment) TableName() string {
	return "appointments"
}

// AllocationLeg represents one allocation leg record. The full leg set of an
// appointment is replaced as a whole on every modification.
type AllocationLeg struct {
	ID            uint            `gorm:"primaryKey;autoIncrement"`
	AppointmentID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Type          string          `gorm:"type:varchar(4);not null"`
	FundCode      string          `gorm:"type:varchar(8);not null"`
	Percentage    decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	Sequence      int             `gorm:"not null"`
}

// TableName specifies the table name for the AllocationLeg model.
func (AllocationLeg) TableName() string {
	return "allocation_legs"
}

// RemittanceDetail represents the one-to-one remittance record of a
// remittance appointment.
type RemittanceDetail struct {
	AppointmentID uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Disbursement  string          `gorm:"type:varchar(16);not null"`
	BankCode      string          `gorm:"type:varchar(8)"`
	AccountNo     string          `gorm:"type:varchar(34)"`
	Payee         string          `gorm:"type:varchar(64)"`
	Swift         string          `gorm:"type:varchar(11)"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	Currency      string          `gorm:"type:varchar(3);not null"`
	RemitDate     time.Time       `gorm:"not null"`
}

// TableName specifies the table name for the RemittanceDetail model.
func (RemittanceDetail) TableName() string {
	return "remittance_details"
}
