package validation

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/amirasaad/appointments/pkg/domain/appointment"
	"github.com/amirasaad/appointments/pkg/refdata"
	"github.com/shopspring/decimal"
)

// homeCurrency is the policy book currency. Bank transfers in any other
// currency route through SWIFT and need the extra detail.
const homeCurrency = "TWD"

var (
	hundred   = decimal.NewFromInt(100)
	tolerance = decimal.New(1, -2) // 0.01
)

// AllocationValidator checks the internal consistency of an appointment's
// allocation legs or remittance detail against reference data.
type AllocationValidator struct {
	funds      refdata.FundResolver
	banks      refdata.BankResolver
	currencies refdata.CurrencyResolver
}

// NewAllocationValidator wires the validator to its reference data lookups.
func NewAllocationValidator(
	funds refdata.FundResolver,
	banks refdata.BankResolver,
	currencies refdata.CurrencyResolver,
) *AllocationValidator {
	return &AllocationValidator{funds: funds, banks: banks, currencies: currencies}
}

// Validate runs every allocation rule against apt. No rule short-circuits:
// the result reports all violations together, ordered by rule and then by
// leg sequence. Completeness is skipped while the appointment is a Draft.
func (v *AllocationValidator) Validate(
	ctx context.Context,
	apt *appointment.Appointment,
) (Result, error) {
	var res Result
	if apt == nil {
		return res, fmt.Errorf("appointment is nil: %w", ErrMalformedInput)
	}

	legs := make([]appointment.AllocationLeg, len(apt.Legs))
	copy(legs, apt.Legs)
	sort.SliceStable(legs, func(i, j int) bool { return legs[i].Sequence < legs[j].Sequence })
	for _, leg := range legs {
		if leg.Sequence < 0 {
			return Result{}, fmt.Errorf(
				"leg for fund %s has sequence %d: %w", leg.FundCode, leg.Sequence, ErrMalformedInput)
		}
	}

	infos, err := v.resolveFunds(ctx, legs)
	if err != nil {
		return Result{}, err
	}

	// Fund existence.
	for _, leg := range legs {
		if infos[leg.FundCode] == nil {
			res.add(Failure{
				Code:     CodeUnknownFund,
				Message:  fmt.Sprintf("fund %s does not exist", leg.FundCode),
				FundCode: leg.FundCode,
				Sequence: leg.Sequence,
			})
		}
	}

	// Fund eligibility.
	for _, leg := range legs {
		if info := infos[leg.FundCode]; info != nil && !info.Eligible {
			res.add(Failure{
				Code:     CodeIneligibleFund,
				Message:  fmt.Sprintf("fund %s is closed for new allocations", leg.FundCode),
				FundCode: leg.FundCode,
				Sequence: leg.Sequence,
			})
		}
	}

	// Duplicate funds within one leg type.
	seen := make(map[appointment.LegType]map[string]bool)
	for _, leg := range legs {
		byFund := seen[leg.Type]
		if byFund == nil {
			byFund = make(map[string]bool)
			seen[leg.Type] = byFund
		}
		if byFund[leg.FundCode] {
			res.add(Failure{
				Code:     CodeDuplicateAllocation,
				Message:  fmt.Sprintf("fund %s is allocated more than once in %s legs", leg.FundCode, leg.Type),
				FundCode: leg.FundCode,
				Sequence: leg.Sequence,
			})
			continue
		}
		byFund[leg.FundCode] = true
	}

	// Percentage range and precision.
	for _, leg := range legs {
		pct := leg.Percentage
		if pct.LessThanOrEqual(decimal.Zero) || pct.GreaterThan(hundred) || !pct.Equal(pct.Round(2)) {
			res.add(Failure{
				Code: CodeInvalidPercentage,
				Message: fmt.Sprintf(
					"percentage %s for fund %s must be above zero, at most 100.00, with two decimals",
					pct, leg.FundCode),
				FundCode: leg.FundCode,
				Sequence: leg.Sequence,
			})
		}
	}

	// Completeness per leg type, finalized appointments only.
	if apt.Finalized() {
		for _, lt := range requiredLegTypes(apt.Type) {
			sum := appointment.SumPercentages(legs, lt)
			if sum.Sub(hundred).Abs().GreaterThan(tolerance) {
				res.add(Failure{
					Code:    CodeIncompleteAllocation,
					Message: fmt.Sprintf("%s percentages sum to %s, expected 100.00", lt, sum.StringFixed(2)),
				})
			}
		}
	}

	// Minimum amounts, per fund and for the remittance currency.
	for _, leg := range legs {
		info := infos[leg.FundCode]
		if info == nil {
			continue
		}
		if leg.Amount.LessThan(info.MinAmount) {
			res.add(Failure{
				Code: CodeBelowMinimumAmount,
				Message: fmt.Sprintf(
					"fund %s amount %s is below the minimum %s by %s",
					leg.FundCode, leg.Amount.StringFixed(2),
					info.MinAmount.StringFixed(2), info.MinAmount.Sub(leg.Amount).StringFixed(2)),
				FundCode: leg.FundCode,
				Sequence: leg.Sequence,
			})
		}
	}
	var cur *refdata.CurrencyInfo
	if r := apt.Remittance; r != nil {
		cur, err = v.currencies.Currency(ctx, r.Currency)
		if err != nil {
			return Result{}, fmt.Errorf("resolve currency %s: %w", r.Currency, err)
		}
		if r.Amount.LessThan(cur.MinRemit) {
			res.add(Failure{
				Code: CodeBelowMinimumAmount,
				Message: fmt.Sprintf(
					"remittance amount %s is below the %s minimum %s",
					r.Amount.StringFixed(2), cur.Code, cur.MinRemit.StringFixed(2)),
			})
		}
	}

	// Legs and remittance are exclusive, and leg types must match the
	// appointment type.
	switch {
	case len(legs) > 0 && apt.Remittance != nil:
		res.add(Failure{
			Code:    CodeConflictingAllocationType,
			Message: "appointment carries both allocation legs and a remittance detail",
		})
	case apt.Type == appointment.TypeRemittance && len(legs) > 0:
		res.add(Failure{
			Code:    CodeConflictingAllocationType,
			Message: "a Remittance appointment cannot carry allocation legs",
		})
	case apt.Type != appointment.TypeRemittance && apt.Remittance != nil:
		res.add(Failure{
			Code:    CodeConflictingAllocationType,
			Message: fmt.Sprintf("a %s appointment cannot carry a remittance detail", apt.Type),
		})
	}
	for _, leg := range legs {
		if !legTypeAllowed(apt.Type, leg.Type) {
			res.add(Failure{
				Code:     CodeConflictingAllocationType,
				Message:  fmt.Sprintf("%s legs are not allowed on a %s appointment", leg.Type, apt.Type),
				FundCode: leg.FundCode,
				Sequence: leg.Sequence,
			})
		}
	}

	// Bank detail for bank transfer remittances.
	if r := apt.Remittance; r != nil {
		if !r.Disbursement.Valid() {
			return Result{}, fmt.Errorf("disbursement %q: %w", r.Disbursement, ErrMalformedInput)
		}
		if r.Disbursement == appointment.DisbursementBankTransfer {
			if r.BankCode == "" {
				res.add(Failure{
					Code:    CodeMissingBankDetail,
					Message: "bank code is required for a bank transfer",
				})
			} else if _, err := v.banks.Bank(ctx, r.BankCode); err != nil {
				if !errors.Is(err, refdata.ErrNotFound) {
					return Result{}, fmt.Errorf("resolve bank %s: %w", r.BankCode, err)
				}
				res.add(Failure{
					Code:    CodeUnknownBank,
					Message: fmt.Sprintf("bank %s does not exist", r.BankCode),
				})
			}
			if r.AccountNo == "" {
				res.add(Failure{
					Code:    CodeMissingBankDetail,
					Message: "account number is required for a bank transfer",
				})
			}
			if r.Payee == "" {
				res.add(Failure{
					Code:    CodeMissingBankDetail,
					Message: "payee name is required for a bank transfer",
				})
			}
			if r.Currency != homeCurrency && r.Swift == "" {
				res.add(Failure{
					Code:    CodeMissingBankDetail,
					Message: fmt.Sprintf("swift code is required for a %s bank transfer", r.Currency),
				})
			}
		}
	}

	// Amount precision against the currency's decimal places.
	if r := apt.Remittance; r != nil && cur != nil {
		if !r.Amount.Equal(r.Amount.Truncate(int32(cur.Decimals))) {
			res.add(Failure{
				Code: CodeInvalidAmountPrecision,
				Message: fmt.Sprintf(
					"amount %s exceeds the %d decimal places allowed for %s",
					r.Amount, cur.Decimals, cur.Code),
			})
		}
	}

	return res, nil
}

func (v *AllocationValidator) resolveFunds(
	ctx context.Context,
	legs []appointment.AllocationLeg,
) (map[string]*refdata.FundInfo, error) {
	infos := make(map[string]*refdata.FundInfo, len(legs))
	for _, leg := range legs {
		if _, done := infos[leg.FundCode]; done {
			continue
		}
		info, err := v.funds.Fund(ctx, leg.FundCode)
		if errors.Is(err, refdata.ErrNotFound) {
			infos[leg.FundCode] = nil
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("resolve fund %s: %w", leg.FundCode, err)
		}
		infos[leg.FundCode] = info
	}
	return infos, nil
}

func requiredLegTypes(t appointment.Type) []appointment.LegType {
	switch t {
	case appointment.TypeSell:
		return []appointment.LegType{appointment.LegSell}
	case appointment.TypeBuy:
		return []appointment.LegType{appointment.LegBuy}
	case appointment.TypeMixed:
		return []appointment.LegType{appointment.LegSell, appointment.LegBuy}
	default:
		return nil
	}
}

func legTypeAllowed(t appointment.Type, lt appointment.LegType) bool {
	switch t {
	case appointment.TypeSell:
		return lt == appointment.LegSell
	case appointment.TypeBuy:
		return lt == appointment.LegBuy
	default:
		// Mixed allows both; a Remittance appointment's legs are already
		// rejected as a whole.
		return true
	}
}
