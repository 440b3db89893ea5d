package appointment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LegType distinguishes sell lines from buy lines.
type LegType string

const (
	LegSell LegType = "Sell"
	LegBuy  LegType = "Buy"
)

// Disbursement is how a remittance pays out.
type Disbursement string

const (
	// DisbursementBankTransfer wires the amount to an external bank account.
	DisbursementBankTransfer Disbursement = "BankTransfer"
	// DisbursementPersonalAccount credits the client's personal account.
	DisbursementPersonalAccount Disbursement = "PersonalAccount"
	// DisbursementPolicyAccount credits the policy's own account.
	DisbursementPolicyAccount Disbursement = "PolicyAccount"
)

// Valid reports whether d is one of the known disbursement types.
func (d Disbursement) Valid() bool {
	switch d {
	case DisbursementBankTransfer, DisbursementPersonalAccount, DisbursementPolicyAccount:
		return true
	}
	return false
}

// AllocationLeg is one sell or buy line within an appointment. The amount is
// always derived from the appointment total and the leg percentage; it is
// recomputed whenever the leg set is replaced.
type AllocationLeg struct {
	AppointmentID uuid.UUID
	Type          LegType
	FundCode      string
	Percentage    decimal.Decimal
	Amount        decimal.Decimal
	Sequence      int
}

// RemittanceDetail is the cash-movement alternative to allocation legs. An
// appointment carries either legs or a remittance detail, never both.
type RemittanceDetail struct {
	AppointmentID uuid.UUID
	Disbursement  Disbursement
	BankCode      string
	AccountNo     string
	Payee         string
	Swift         string
	Amount        decimal.Decimal
	Currency      string
	RemitDate     time.Time
}

// legAmount computes a leg's amount from the appointment total, rounded to
// two decimals.
func legAmount(total, percentage decimal.Decimal) decimal.Decimal {
	return total.Mul(percentage).Div(decimal.NewFromInt(100)).Round(2)
}

// SumPercentages totals the percentages of all legs of one type.
func SumPercentages(legs []AllocationLeg, t LegType) decimal.Decimal {
	sum := decimal.Zero
	for _, leg := range legs {
		if leg.Type == t {
			sum = sum.Add(leg.Percentage)
		}
	}
	return sum
}

// LegsOfType returns the legs of one type preserving sequence order.
func LegsOfType(legs []AllocationLeg, t LegType) []AllocationLeg {
	out := make([]AllocationLeg, 0, len(legs))
	for _, leg := range legs {
		if leg.Type == t {
			out = append(out, leg)
		}
	}
	return out
}
