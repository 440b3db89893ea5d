package appointment

import "time"

// AddMonths advances t by the given number of months keeping the day of
// month, clamped to the last day of the target month. Jan 31 plus one month
// lands on Feb 29 in a leap year and Feb 28 otherwise.
func AddMonths(t time.Time, months int) time.Time {
	y, m, _ := t.Date()
	target := time.Date(y, time.Month(int(m)+months), 1, 0, 0, 0, 0, t.Location())
	day := t.Day()
	if last := daysIn(target.Year(), target.Month()); day > last {
		day = last
	}
	return time.Date(
		target.Year(), target.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location(),
	)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// NextRunAt returns the first cadence occurrence of the effective date on or
// after the processing date. OneTime appointments run exactly once on their
// effective date. Occurrences advance from the effective date itself, so a
// month-end anchor survives short months in between.
func NextRunAt(effective time.Time, freq Frequency, rule *RecurrenceRule, processing time.Time) time.Time {
	interval := freq.IntervalMonths()
	if freq == FrequencyCustom && rule != nil {
		interval = rule.IntervalMonths
	}
	if interval < 1 || !effective.Before(processing) {
		return effective
	}
	next := effective
	for k := interval; next.Before(processing); k += interval {
		next = AddMonths(effective, k)
	}
	return next
}
