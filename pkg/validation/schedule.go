package validation

import (
	"context"
	"fmt"
	"time"

	"github.com/amirasaad/appointments/pkg/domain/appointment"
	"github.com/amirasaad/appointments/pkg/refdata"
)

// ScheduleValidator checks an appointment's effective date, frequency, and
// recurrence rule against the policy term window.
type ScheduleValidator struct {
	policies refdata.PolicyResolver
}

// NewScheduleValidator wires the validator to the policy lookup.
func NewScheduleValidator(policies refdata.PolicyResolver) *ScheduleValidator {
	return &ScheduleValidator{policies: policies}
}

// Validate runs every schedule rule against apt. The processing date is the
// date the transition runs; original carries the prior effective date on a
// Modify so an already-past date can be preserved without tripping the
// past-date rule. Dates are compared at day granularity.
func (v *ScheduleValidator) Validate(
	ctx context.Context,
	apt *appointment.Appointment,
	processing time.Time,
	original *time.Time,
) (Result, error) {
	var res Result
	if apt == nil {
		return res, fmt.Errorf("appointment is nil: %w", ErrMalformedInput)
	}

	pol, err := v.policies.Policy(ctx, apt.PolicyNo)
	if err != nil {
		return Result{}, fmt.Errorf("resolve policy %s: %w", apt.PolicyNo, err)
	}

	eff := dateOnly(apt.EffectiveDate)
	termStart := dateOnly(pol.TermStart)
	termEnd := dateOnly(pol.TermEnd)

	if eff.Before(termStart) || eff.After(termEnd) {
		res.add(Failure{
			Code: CodeOutOfPolicyTerm,
			Message: fmt.Sprintf(
				"effective date %s is outside the policy term %s to %s",
				eff.Format(refdata.DateLayout),
				termStart.Format(refdata.DateLayout), termEnd.Format(refdata.DateLayout)),
		})
	}

	if apt.Frequency != appointment.FrequencyOneTime {
		interval := apt.Frequency.IntervalMonths()
		if apt.Frequency == appointment.FrequencyCustom && apt.Recurrence != nil {
			interval = apt.Recurrence.IntervalMonths
		}
		if interval > 0 && !alignedToAnchor(eff, termStart, interval) {
			res.add(Failure{
				Code: CodeInvalidRecurrenceAlignment,
				Message: fmt.Sprintf(
					"effective date %s does not align to the %s cadence anchored at %s",
					eff.Format(refdata.DateLayout), apt.Frequency, termStart.Format(refdata.DateLayout)),
			})
		}
	}

	if apt.Frequency == appointment.FrequencyCustom &&
		(apt.Recurrence == nil || apt.Recurrence.IntervalMonths < 1) {
		res.add(Failure{
			Code:    CodeMissingRecurrenceRule,
			Message: "a Custom frequency requires a recurrence rule with an interval of at least one month",
		})
	}

	if eff.Before(dateOnly(processing)) {
		preserved := original != nil && eff.Equal(dateOnly(*original))
		if !preserved {
			res.add(Failure{
				Code: CodePastEffectiveDate,
				Message: fmt.Sprintf(
					"effective date %s is before the processing date %s",
					eff.Format(refdata.DateLayout), dateOnly(processing).Format(refdata.DateLayout)),
			})
		}
	}

	return res, nil
}

// alignedToAnchor reports whether effective falls on an occurrence of the
// cadence that starts at anchor and repeats every intervalMonths, with the
// day of month clamped to month end.
func alignedToAnchor(effective, anchor time.Time, intervalMonths int) bool {
	months := (effective.Year()-anchor.Year())*12 + int(effective.Month()) - int(anchor.Month())
	if months < 0 || months%intervalMonths != 0 {
		return false
	}
	return appointment.AddMonths(anchor, months).Equal(effective)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
