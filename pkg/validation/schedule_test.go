package validation_test

import (
	"context"
	"testing"
	"time"

	"github.com/amirasaad/appointments/pkg/domain/appointment"
	"github.com/amirasaad/appointments/pkg/refdata"
	"github.com/amirasaad/appointments/pkg/validation"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildScheduled(
	t *testing.T,
	effective time.Time,
	freq appointment.Frequency,
	rule *appointment.RecurrenceRule,
) *appointment.Appointment {
	t.Helper()
	apt, err := appointment.New().
		WithPolicy("VL00000001").
		WithType(appointment.TypeBuy).
		WithAmount(decimal.NewFromInt(100000), "TWD").
		WithSchedule(effective, freq).
		WithRecurrence(rule).
		WithActor("agent-007").
		Build()
	require.NoError(t, err)
	return apt
}

func TestScheduleValidator(t *testing.T) {
	t.Parallel()
	ref := refdata.NewRegistryWithDefaults()
	v := validation.NewScheduleValidator(ref)
	ctx := context.Background()
	// The seeded policy term runs 2024-01-01 to 2030-01-01.
	processing := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("one time inside the term", func(t *testing.T) {
		apt := buildScheduled(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), appointment.FrequencyOneTime, nil)
		res, err := v.Validate(ctx, apt, processing, nil)
		require.NoError(t, err)
		assert.True(t, res.Valid(), "failures: %v", res.Failures)
	})

	t.Run("out of policy term", func(t *testing.T) {
		apt := buildScheduled(t, time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC), appointment.FrequencyOneTime, nil)
		res, err := v.Validate(ctx, apt, processing, nil)
		require.NoError(t, err)
		require.Len(t, res.Failures, 1)
		assert.Equal(t, validation.CodeOutOfPolicyTerm, res.Failures[0].Code)
	})

	t.Run("monthly aligned to the term anchor", func(t *testing.T) {
		apt := buildScheduled(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), appointment.FrequencyMonthly, nil)
		res, err := v.Validate(ctx, apt, processing, nil)
		require.NoError(t, err)
		assert.True(t, res.Valid(), "failures: %v", res.Failures)
	})

	t.Run("monthly off the anchor day", func(t *testing.T) {
		apt := buildScheduled(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), appointment.FrequencyMonthly, nil)
		res, err := v.Validate(ctx, apt, processing, nil)
		require.NoError(t, err)
		require.Len(t, res.Failures, 1)
		assert.Equal(t, validation.CodeInvalidRecurrenceAlignment, res.Failures[0].Code)
	})

	t.Run("quarterly alignment", func(t *testing.T) {
		aligned := buildScheduled(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), appointment.FrequencyQuarterly, nil)
		res, err := v.Validate(ctx, aligned, processing, nil)
		require.NoError(t, err)
		assert.True(t, res.Valid(), "failures: %v", res.Failures)

		offQuarter := buildScheduled(t, time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC), appointment.FrequencyQuarterly, nil)
		res, err = v.Validate(ctx, offQuarter, processing, nil)
		require.NoError(t, err)
		require.Len(t, res.Failures, 1)
		assert.Equal(t, validation.CodeInvalidRecurrenceAlignment, res.Failures[0].Code)
	})

	t.Run("annual alignment", func(t *testing.T) {
		aligned := buildScheduled(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), appointment.FrequencyAnnual, nil)
		res, err := v.Validate(ctx, aligned, processing, nil)
		require.NoError(t, err)
		assert.True(t, res.Valid(), "failures: %v", res.Failures)

		offYear := buildScheduled(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), appointment.FrequencyAnnual, nil)
		res, err = v.Validate(ctx, offYear, processing, nil)
		require.NoError(t, err)
		require.Len(t, res.Failures, 1)
		assert.Equal(t, validation.CodeInvalidRecurrenceAlignment, res.Failures[0].Code)
	})

	t.Run("custom requires a rule", func(t *testing.T) {
		apt := buildScheduled(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), appointment.FrequencyCustom, nil)
		res, err := v.Validate(ctx, apt, processing, nil)
		require.NoError(t, err)
		require.Len(t, res.Failures, 1)
		assert.Equal(t, validation.CodeMissingRecurrenceRule, res.Failures[0].Code)
	})

	t.Run("custom interval alignment", func(t *testing.T) {
		rule := &appointment.RecurrenceRule{IntervalMonths: 2}
		aligned := buildScheduled(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), appointment.FrequencyCustom, rule)
		res, err := v.Validate(ctx, aligned, processing, nil)
		require.NoError(t, err)
		assert.True(t, res.Valid(), "failures: %v", res.Failures)

		offInterval := buildScheduled(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), appointment.FrequencyCustom, rule)
		res, err = v.Validate(ctx, offInterval, processing, nil)
		require.NoError(t, err)
		require.Len(t, res.Failures, 1)
		assert.Equal(t, validation.CodeInvalidRecurrenceAlignment, res.Failures[0].Code)
	})

	t.Run("past effective date", func(t *testing.T) {
		apt := buildScheduled(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), appointment.FrequencyMonthly, nil)
		res, err := v.Validate(ctx, apt, processing, nil)
		require.NoError(t, err)
		require.Len(t, res.Failures, 1)
		assert.Equal(t, validation.CodePastEffectiveDate, res.Failures[0].Code)
	})

	t.Run("modify may preserve a past date", func(t *testing.T) {
		original := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
		apt := buildScheduled(t, original, appointment.FrequencyMonthly, nil)
		res, err := v.Validate(ctx, apt, processing, &original)
		require.NoError(t, err)
		assert.True(t, res.Valid(), "failures: %v", res.Failures)
	})

	t.Run("unknown policy is a fault", func(t *testing.T) {
		apt := buildScheduled(t, processing, appointment.FrequencyOneTime, nil)
		apt.PolicyNo = "VL99999999"
		_, err := v.Validate(ctx, apt, processing, nil)
		assert.ErrorIs(t, err, refdata.ErrNotFound)
	})
}

func TestScheduleValidator_MonthEndAnchor(t *testing.T) {
	t.Parallel()
	ref := refdata.NewRegistryWithDefaults()
	ref.RegisterPolicy(refdata.PolicyInfo{
		No:        "VL00000031",
		TermStart: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		TermEnd:   time.Date(2030, 1, 31, 0, 0, 0, 0, time.UTC),
	})
	v := validation.NewScheduleValidator(ref)
	ctx := context.Background()
	processing := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	build := func(effective time.Time) *appointment.Appointment {
		apt, err := appointment.New().
			WithPolicy("VL00000031").
			WithType(appointment.TypeBuy).
			WithAmount(decimal.NewFromInt(100000), "TWD").
			WithSchedule(effective, appointment.FrequencyMonthly).
			WithActor("agent-007").
			Build()
		require.NoError(t, err)
		return apt
	}

	// Anchor day 31 clamps to the short months.
	res, err := v.Validate(ctx, build(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)), processing, nil)
	require.NoError(t, err)
	assert.True(t, res.Valid(), "failures: %v", res.Failures)

	res, err = v.Validate(ctx, build(time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC)), processing, nil)
	require.NoError(t, err)
	assert.True(t, res.Valid(), "failures: %v", res.Failures)

	res, err = v.Validate(ctx, build(time.Date(2024, 3, 30, 0, 0, 0, 0, time.UTC)), processing, nil)
	require.NoError(t, err)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, validation.CodeInvalidRecurrenceAlignment, res.Failures[0].Code)
}
