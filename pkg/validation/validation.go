// Package validation implements the allocation and schedule rule sets the
// lifecycle manager runs before committing an appointment transition.
// Rule violations are returned as data, never as Go errors: a single
// validation pass reports every violation together so the caller can render
// them all at once. Errors are reserved for internal faults such as malformed
// input or an unavailable reference lookup.
package validation

import "errors"

// ErrMalformedInput signals input that violates basic shape invariants,
// such as a negative leg sequence. It aborts the transition instead of
// producing a rule failure.
var ErrMalformedInput = errors.New("malformed validation input")

// Code identifies one business rule.
type Code string

const (
	CodeUnknownFund                Code = "UnknownFund"
	CodeIneligibleFund             Code = "IneligibleFund"
	CodeDuplicateAllocation        Code = "DuplicateAllocation"
	CodeInvalidPercentage          Code = "InvalidPercentage"
	CodeIncompleteAllocation       Code = "IncompleteAllocation"
	CodeBelowMinimumAmount         Code = "BelowMinimumAmount"
	CodeConflictingAllocationType  Code = "ConflictingAllocationType"
	CodeUnknownBank                Code = "UnknownBank"
	CodeMissingBankDetail          Code = "MissingBankDetail"
	CodeInvalidAmountPrecision     Code = "InvalidAmountPrecision"
	CodeOutOfPolicyTerm            Code = "OutOfPolicyTerm"
	CodeInvalidRecurrenceAlignment Code = "InvalidRecurrenceAlignment"
	CodeMissingRecurrenceRule      Code = "MissingRecurrenceRule"
	CodePastEffectiveDate          Code = "PastEffectiveDate"
	CodeConflictingAppointment     Code = "ConflictingAppointment"
)

// Failure is one rule violation, carrying a machine-readable code and a
// human-readable message. FundCode and Sequence are set when the violation
// points at a specific allocation leg.
type Failure struct {
	Code     Code   `json:"code"`
	Message  string `json:"message"`
	FundCode string `json:"fund_code,omitempty"`
	Sequence int    `json:"sequence,omitempty"`
}

// Result collects the failures of one validation pass, ordered by rule and
// then by leg sequence. The zero value is a valid (empty) result.
type Result struct {
	Failures []Failure `json:"failures"`
}

// Valid reports whether the pass found no violations.
func (r Result) Valid() bool { return len(r.Failures) == 0 }

// Merge appends the failures of other after r's own, preserving both orders.
func (r *Result) Merge(other Result) {
	r.Failures = append(r.Failures, other.Failures...)
}

func (r *Result) add(f Failure) {
	r.Failures = append(r.Failures, f)
}

// Codes returns the failure codes in report order.
func (r Result) Codes() []Code {
	codes := make([]Code, len(r.Failures))
	for i, f := range r.Failures {
		codes[i] = f.Code
	}
	return codes
}
