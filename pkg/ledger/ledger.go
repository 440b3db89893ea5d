// Package ledger renders lifecycle transitions into immutable audit
// messages. Rendering is deterministic: the same appointment state always
// yields the same line text, so a stored message can be compared against a
// re-render for audit and reprinted as-is.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/amirasaad/appointments/pkg/domain/appointment"
	"github.com/amirasaad/appointments/pkg/refdata"
	"github.com/shopspring/decimal"
)

// Writer builds the message for one completed transition. It never mutates
// prior messages; persistence is the caller's transaction.
type Writer struct {
	funds      refdata.FundResolver
	currencies refdata.CurrencyResolver
}

// NewWriter wires the writer to the lookups used for line rendering.
func NewWriter(funds refdata.FundResolver, currencies refdata.CurrencyResolver) *Writer {
	return &Writer{funds: funds, currencies: currencies}
}

// Render produces the message header and detail lines for a transition that
// already happened on apt. The at timestamp is the process date printed on
// the message and stamped on the header.
func (w *Writer) Render(
	ctx context.Context,
	apt *appointment.Appointment,
	transition appointment.Transition,
	actor string,
	at time.Time,
) (*appointment.Message, error) {
	if apt == nil {
		return nil, errors.New("render: appointment is nil")
	}

	process := at.Format(refdata.DateLayout)
	lines := []appointment.MessageLine{
		{Code: appointment.LineTitle, Text: fmt.Sprintf(
			"Policy %s Appointment %s Date %s", apt.PolicyNo, apt.ID, process)},
		{Code: appointment.LineProcessDate, Text: "Process Date " + process},
		{Code: appointment.LineBody, Text: summary(apt, transition)},
	}

	legs := make([]appointment.AllocationLeg, len(apt.Legs))
	copy(legs, apt.Legs)
	sort.SliceStable(legs, func(i, j int) bool { return legs[i].Sequence < legs[j].Sequence })

	sell := appointment.LegsOfType(legs, appointment.LegSell)
	if len(sell) > 0 {
		lines = append(lines, appointment.MessageLine{
			Code: appointment.LineBody, Text: "Appointed Sell Investments"})
		for _, leg := range sell {
			line, err := w.legLine(ctx, leg, "Sell", apt.Currency)
			if err != nil {
				return nil, err
			}
			lines = append(lines, line)
		}
	}

	buy := appointment.LegsOfType(legs, appointment.LegBuy)
	if len(buy) > 0 {
		lines = append(lines, appointment.MessageLine{
			Code: appointment.LineBody, Text: "Appointed Buy Investments"})
		for _, leg := range buy {
			line, err := w.legLine(ctx, leg, "Buy", apt.Currency)
			if err != nil {
				return nil, err
			}
			lines = append(lines, line)
		}
	}

	if r := apt.Remittance; r != nil {
		lines = append(lines, appointment.MessageLine{
			Code: appointment.LineBody, Text: "Appointed Remittance"})
		line, err := w.remittanceLine(ctx, r)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	total, err := w.amountText(ctx, apt.Amount, apt.Currency)
	if err != nil {
		return nil, err
	}
	lines = append(lines,
		appointment.MessageLine{
			Code: appointment.LineBody,
			Text: fmt.Sprintf("Total Amount %s %s", total, apt.Currency)},
		appointment.MessageLine{
			Code: appointment.LineFooterThanks,
			Text: "Thank you for your business"},
		appointment.MessageLine{
			Code: appointment.LineFooterContact,
			Text: "Please contact customer service for any questions"},
	)

	return appointment.NewMessage(apt.ID, apt.Version, transition, actor, at, lines)
}

func summary(apt *appointment.Appointment, transition appointment.Transition) string {
	verb := "Appoint"
	switch transition {
	case appointment.TransitionModify:
		verb = "Modify"
	case appointment.TransitionCancel:
		verb = "Cancel"
	}

	text := fmt.Sprintf("%s Investment %s: effective %s",
		verb, apt.Type, apt.EffectiveDate.Format(refdata.DateLayout))
	switch apt.Frequency {
	case appointment.FrequencyMonthly:
		text += ", repeats monthly"
	case appointment.FrequencyQuarterly:
		text += ", repeats quarterly"
	case appointment.FrequencyAnnual:
		text += ", repeats annually"
	case appointment.FrequencyCustom:
		if apt.Recurrence != nil {
			text += fmt.Sprintf(", repeats every %d months", apt.Recurrence.IntervalMonths)
		}
	}
	if !apt.Finalized() {
		text += " (Draft)"
	}
	if transition == appointment.TransitionCancel {
		text += fmt.Sprintf(" (Original Appointment %s)", apt.ID)
	}
	return text
}

func (w *Writer) legLine(
	ctx context.Context,
	leg appointment.AllocationLeg,
	verb string,
	currency string,
) (appointment.MessageLine, error) {
	label := leg.FundCode
	info, err := w.funds.Fund(ctx, leg.FundCode)
	switch {
	case errors.Is(err, refdata.ErrNotFound):
		// keep the bare code
	case err != nil:
		return appointment.MessageLine{}, fmt.Errorf("resolve fund %s: %w", leg.FundCode, err)
	default:
		label += " " + info.Name
	}

	amount, err := w.amountText(ctx, leg.Amount, currency)
	if err != nil {
		return appointment.MessageLine{}, err
	}
	return appointment.MessageLine{
		Code: appointment.LineBody,
		Text: fmt.Sprintf("%s  %s Percentage %s%% Amount %s",
			label, verb, leg.Percentage.StringFixed(2), amount),
	}, nil
}

func (w *Writer) remittanceLine(
	ctx context.Context,
	r *appointment.RemittanceDetail,
) (appointment.MessageLine, error) {
	text := string(r.Disbursement)
	if r.Disbursement == appointment.DisbursementBankTransfer {
		text += fmt.Sprintf(" Bank %s Account %s Payee %s", r.BankCode, r.AccountNo, r.Payee)
		if r.Swift != "" {
			text += " Swift " + r.Swift
		}
	}
	amount, err := w.amountText(ctx, r.Amount, r.Currency)
	if err != nil {
		return appointment.MessageLine{}, err
	}
	text += fmt.Sprintf(" Amount %s %s Date %s",
		amount, r.Currency, r.RemitDate.Format(refdata.DateLayout))
	return appointment.MessageLine{Code: appointment.LineBody, Text: text}, nil
}

// amountText renders an amount with the currency's decimal places, falling
// back to two decimals when the currency is not registered.
func (w *Writer) amountText(
	ctx context.Context,
	amount decimal.Decimal,
	code string,
) (string, error) {
	cur, err := w.currencies.Currency(ctx, code)
	if errors.Is(err, refdata.ErrNotFound) {
		return amount.StringFixed(2), nil
	}
	if err != nil {
		return "", fmt.Errorf("resolve currency %s: %w", code, err)
	}
	return amount.StringFixed(int32(cur.Decimals)), nil
}
