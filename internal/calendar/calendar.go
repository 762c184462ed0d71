// Package calendar provides date stepping for recurring entries and
// installment competencies.
package calendar

import "time"

// Frequency is the recurrence step unit.
type Frequency string

const (
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// Valid reports whether the frequency is one of the supported units.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

// ParseFrequency returns the frequency for a raw value.
func ParseFrequency(value string) (Frequency, bool) {
	f := Frequency(value)
	return f, f.Valid()
}

// Advance steps a date forward by one frequency unit. Monthly and yearly
// steps preserve the day of month, clamping to the last valid day when the
// target month is shorter (Jan 31 -> Feb 28). The frequency must already be
// validated by the caller.
func Advance(t time.Time, f Frequency) time.Time {
	switch f {
	case FrequencyWeekly:
		return t.AddDate(0, 0, 7)
	case FrequencyMonthly:
		return AddMonths(t, 1)
	case FrequencyYearly:
		return addYearsClamped(t, 1)
	}
	return t
}

// AddMonths adds n calendar months, clamping the day of month to the last
// valid day of the target month. time.AddDate is not used because it
// normalizes overflow into the following month (Jan 31 + 1 month = Mar 3).
func AddMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month, 1, 0, 0, 0, 0, t.Location()).AddDate(0, n, 0)
	if last := daysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	hour, minute, sec := t.Clock()
	return time.Date(first.Year(), first.Month(), day, hour, minute, sec, t.Nanosecond(), t.Location())
}

func addYearsClamped(t time.Time, n int) time.Time {
	return AddMonths(t, n*12)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1).Day()
}
