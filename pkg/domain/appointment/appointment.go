// Package appointment contains the appointment aggregate: a scheduled
// sell/buy transaction against investment funds, or a remittance-based cash
// movement, tied to an insurance policy. The aggregate enforces the lifecycle
// state machine and the structural invariants of its allocation legs and
// remittance detail; rule-level validation lives in pkg/validation.
package appointment

import (
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrAppointmentNotFound is returned when an appointment cannot be found.
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrAppointmentNotModifiable is returned when a transition targets a
	// cancelled appointment.
	ErrAppointmentNotModifiable = errors.New("appointment not modifiable")

	// ErrAlreadyExists is returned when Add supplies an identifier that is
	// already in use. Identifiers are never reused, cancelled included.
	ErrAlreadyExists = errors.New("appointment already exists")

	// ErrAlreadyCancelled is returned when cancelling an appointment twice.
	ErrAlreadyCancelled = errors.New("appointment already cancelled")

	// ErrConcurrentModification is returned when an optimistic version check
	// fails because another writer committed first. Callers should reload and
	// retry.
	ErrConcurrentModification = errors.New("appointment modified concurrently")

	// ErrPolicyRequired is returned when an appointment is built without a
	// policy reference.
	ErrPolicyRequired = errors.New("policy reference is required")

	// ErrActorRequired is returned when a mutation carries no actor identity.
	ErrActorRequired = errors.New("actor identity is required")

	// ErrAmountNotPositive is returned when the transaction amount is zero or
	// negative.
	ErrAmountNotPositive = errors.New("transaction amount must be positive")

	// ErrInvalidCurrencyCode is returned for malformed currency codes.
	ErrInvalidCurrencyCode = errors.New("invalid currency code")

	// ErrUnknownType is returned for an unrecognized appointment type.
	ErrUnknownType = errors.New("unknown appointment type")

	// ErrUnknownFrequency is returned for an unrecognized frequency.
	ErrUnknownFrequency = errors.New("unknown frequency")

	// ErrInvalidSequence is returned when a leg carries a negative sequence
	// number. This is malformed input, not a business validation failure.
	ErrInvalidSequence = errors.New("leg sequence must not be negative")
)

// Type classifies what an appointment does.
type Type string

const (
	// TypeSell redeems fund units via sell legs only.
	TypeSell Type = "Sell"
	// TypeBuy allocates into funds via buy legs only.
	TypeBuy Type = "Buy"
	// TypeRemittance pays cash out through a remittance detail instead of legs.
	TypeRemittance Type = "Remittance"
	// TypeMixed converts between funds with both sell and buy legs.
	TypeMixed Type = "Mixed"
)

// Valid reports whether t is one of the known appointment types.
func (t Type) Valid() bool {
	switch t {
	case TypeSell, TypeBuy, TypeRemittance, TypeMixed:
		return true
	}
	return false
}

// Status is the lifecycle state of an appointment.
type Status string

const (
	// StatusDraft is the optional staging state; completeness rules are
	// relaxed until the draft is finalized.
	StatusDraft Status = "Draft"
	// StatusActive is the state of a finalized Add.
	StatusActive Status = "Active"
	// StatusModified marks an active appointment that has been changed.
	StatusModified Status = "Modified"
	// StatusCancelled is terminal; the record is retained but immutable.
	StatusCancelled Status = "Cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusModified, StatusCancelled:
		return true
	}
	return false
}

// Frequency is the recurrence cadence of an appointment.
type Frequency string

const (
	FrequencyOneTime   Frequency = "OneTime"
	FrequencyMonthly   Frequency = "Monthly"
	FrequencyQuarterly Frequency = "Quarterly"
	FrequencyAnnual    Frequency = "Annual"
	// FrequencyCustom requires an explicit recurrence rule.
	FrequencyCustom Frequency = "Custom"
)

// Valid reports whether f is one of the known frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyOneTime, FrequencyMonthly, FrequencyQuarterly, FrequencyAnnual, FrequencyCustom:
		return true
	}
	return false
}

// IntervalMonths returns the cadence interval for the fixed frequencies and
// 0 for OneTime and Custom (Custom carries its interval in a RecurrenceRule).
func (f Frequency) IntervalMonths() int {
	switch f {
	case FrequencyMonthly:
		return 1
	case FrequencyQuarterly:
		return 3
	case FrequencyAnnual:
		return 12
	}
	return 0
}

// RecurrenceRule is the explicit cadence payload required by FrequencyCustom.
type RecurrenceRule struct {
	IntervalMonths int `json:"interval_months"`
}

// Transition names a lifecycle change recorded in the message ledger.
type Transition string

const (
	TransitionAdd    Transition = "Add"
	TransitionModify Transition = "Modify"
	TransitionCancel Transition = "Cancel"
)

var currencyFormat = regexp.MustCompile(`^[A-Z]{3}$`)

// Appointment is the aggregate root. Legs and the remittance detail are owned
// exclusively by the appointment and are replaced as a set on every Modify.
//
// Invariants:
//   - Status follows Draft/Active/Modified -> Cancelled, Cancelled terminal.
//   - Version increases by exactly 1 on every successful mutation.
//   - Legs and Remittance are mutually exclusive, fixed by Type.
type Appointment struct {
	ID            uuid.UUID
	PolicyNo      string
	Type          Type
	Status        Status
	Amount        decimal.Decimal
	Currency      string
	EffectiveDate time.Time
	Frequency     Frequency
	Recurrence    *RecurrenceRule
	Legs          []AllocationLeg
	Remittance    *RemittanceDetail
	Version       uint
	CreatedBy     string
	ModifiedBy    string
	CreatedAt     time.Time
	ModifiedAt    time.Time
}

// Builder provides a fluent API for constructing Appointment instances and is
// the only way to obtain one with its invariants checked.
type Builder struct {
	id            uuid.UUID
	policyNo      string
	typ           Type
	draft         bool
	amount        decimal.Decimal
	currency      string
	effectiveDate time.Time
	frequency     Frequency
	recurrence    *RecurrenceRule
	legs          []AllocationLeg
	remittance    *RemittanceDetail
	createdBy     string
	createdAt     time.Time
}

// New creates a Builder with a fresh identifier, OneTime frequency, and the
// current time as creation timestamp.
func New() *Builder {
	return &Builder{
		id:        uuid.New(),
		frequency: FrequencyOneTime,
		createdAt: time.Now().UTC(),
	}
}

// WithID sets the identifier; used when hydrating from a data store.
func (b *Builder) WithID(id uuid.UUID) *Builder {
	b.id = id
	return b
}

// WithPolicy sets the owning policy reference. Mandatory.
func (b *Builder) WithPolicy(no string) *Builder {
	b.policyNo = no
	return b
}

// WithType sets the appointment type. Mandatory.
func (b *Builder) WithType(t Type) *Builder {
	b.typ = t
	return b
}

// AsDraft stages the appointment instead of activating it; completeness
// validation is deferred until the draft is finalized.
func (b *Builder) AsDraft() *Builder {
	b.draft = true
	return b
}

// WithAmount sets the total transaction amount and its currency. Leg amounts
// are computed from this total.
func (b *Builder) WithAmount(amount decimal.Decimal, currency string) *Builder {
	b.amount = amount
	b.currency = currency
	return b
}

// WithSchedule sets the effective date and frequency.
func (b *Builder) WithSchedule(effective time.Time, freq Frequency) *Builder {
	b.effectiveDate = effective
	b.frequency = freq
	return b
}

// WithRecurrence attaches the explicit recurrence rule used by FrequencyCustom.
func (b *Builder) WithRecurrence(rule *RecurrenceRule) *Builder {
	b.recurrence = rule
	return b
}

// WithLegs sets the allocation leg set.
func (b *Builder) WithLegs(legs []AllocationLeg) *Builder {
	b.legs = legs
	return b
}

// WithRemittance sets the remittance detail for TypeRemittance appointments.
func (b *Builder) WithRemittance(r *RemittanceDetail) *Builder {
	b.remittance = r
	return b
}

// WithActor sets the creating actor identity. Mandatory.
func (b *Builder) WithActor(actor string) *Builder {
	b.createdBy = actor
	return b
}

// WithCreatedAt overrides the creation timestamp; used when hydrating.
func (b *Builder) WithCreatedAt(t time.Time) *Builder {
	b.createdAt = t
	return b
}

// Build validates the structural invariants and returns the appointment with
// version 1, computed leg amounts, and status Active (or Draft when staged).
func (b *Builder) Build() (*Appointment, error) {
	if b.policyNo == "" {
		return nil, ErrPolicyRequired
	}
	if b.createdBy == "" {
		return nil, ErrActorRequired
	}
	if !b.typ.Valid() {
		return nil, ErrUnknownType
	}
	if !b.frequency.Valid() {
		return nil, ErrUnknownFrequency
	}
	if !b.amount.IsPositive() {
		return nil, ErrAmountNotPositive
	}
	if !currencyFormat.MatchString(b.currency) {
		return nil, ErrInvalidCurrencyCode
	}

	status := StatusActive
	if b.draft {
		status = StatusDraft
	}
	a := &Appointment{
		ID:            b.id,
		PolicyNo:      b.policyNo,
		Type:          b.typ,
		Status:        status,
		Amount:        b.amount,
		Currency:      b.currency,
		EffectiveDate: b.effectiveDate,
		Frequency:     b.frequency,
		Recurrence:    b.recurrence,
		Remittance:    b.remittance,
		Version:       1,
		CreatedBy:     b.createdBy,
		ModifiedBy:    b.createdBy,
		CreatedAt:     b.createdAt,
		ModifiedAt:    b.createdAt,
	}
	if err := a.ReplaceLegs(b.legs); err != nil {
		return nil, err
	}
	return a, nil
}

// Finalized reports whether the appointment left the Draft stage; finalized
// appointments are subject to full completeness validation.
func (a *Appointment) Finalized() bool {
	return a.Status != StatusDraft
}

// ReplaceLegs swaps the full leg set atomically and recomputes every leg
// amount from the appointment total. A negative sequence number is malformed
// input and rejects the whole set.
func (a *Appointment) ReplaceLegs(legs []AllocationLeg) error {
	for i := range legs {
		if legs[i].Sequence < 0 {
			return ErrInvalidSequence
		}
	}
	replaced := make([]AllocationLeg, len(legs))
	copy(replaced, legs)
	for i := range replaced {
		replaced[i].AppointmentID = a.ID
		replaced[i].Amount = legAmount(a.Amount, replaced[i].Percentage)
	}
	a.Legs = replaced
	if a.Remittance != nil {
		a.Remittance.AppointmentID = a.ID
	}
	return nil
}

// SetTerms replaces the financial and schedule terms, applying the same
// structural checks Build applies. Leg amounts are not recomputed here;
// callers replace the leg set afterwards.
func (a *Appointment) SetTerms(
	amount decimal.Decimal,
	currency string,
	effective time.Time,
	freq Frequency,
	rule *RecurrenceRule,
) error {
	if !freq.Valid() {
		return ErrUnknownFrequency
	}
	if !amount.IsPositive() {
		return ErrAmountNotPositive
	}
	if !currencyFormat.MatchString(currency) {
		return ErrInvalidCurrencyCode
	}
	a.Amount = amount
	a.Currency = currency
	a.EffectiveDate = effective
	a.Frequency = freq
	a.Recurrence = rule
	return nil
}

// Modify applies the Modify transition: Active and Modified appointments
// become Modified; a Draft stays Draft or becomes Active when finalize is
// set. Cancelled appointments reject the transition.
func (a *Appointment) Modify(actor string, at time.Time, finalize bool) error {
	if actor == "" {
		return ErrActorRequired
	}
	switch a.Status {
	case StatusCancelled:
		return ErrAppointmentNotModifiable
	case StatusDraft:
		if finalize {
			a.Status = StatusActive
		}
	case StatusActive, StatusModified:
		a.Status = StatusModified
	default:
		return ErrAppointmentNotModifiable
	}
	a.Version++
	a.ModifiedBy = actor
	a.ModifiedAt = at
	return nil
}

// Cancel applies the terminal transition, clearing the leg set and the
// remittance detail. The record itself is retained.
func (a *Appointment) Cancel(actor string, at time.Time) error {
	if actor == "" {
		return ErrActorRequired
	}
	if a.Status == StatusCancelled {
		return ErrAlreadyCancelled
	}
	a.Status = StatusCancelled
	a.Legs = nil
	a.Remittance = nil
	a.Version++
	a.ModifiedBy = actor
	a.ModifiedAt = at
	return nil
}
