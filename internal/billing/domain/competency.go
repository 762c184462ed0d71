package billing

import "time"

// Competency is the year-month billing bucket a charge or invoice belongs
// to. It is always normalized to the first day of the month, UTC.
type Competency struct {
	month time.Time
}

// CompetencyOf returns the competency containing the given date.
func CompetencyOf(t time.Time) Competency {
	return Competency{month: time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)}
}

// ParseCompetency parses a "YYYY-MM" value.
func ParseCompetency(value string) (Competency, error) {
	t, err := time.Parse("2006-01", value)
	if err != nil {
		return Competency{}, ErrInvalidCompetency
	}
	return CompetencyOf(t), nil
}

// ResolveCompetency assigns a purchase date to its billing competency. A
// purchase on or before the card's closing day belongs to its own month; a
// later purchase rolls into the following month, December rolling into
// January of the next year.
func ResolveCompetency(purchaseDate time.Time, closingDay int) (Competency, error) {
	if closingDay < 1 || closingDay > 31 {
		return Competency{}, ErrInvalidClosingDay
	}
	c := CompetencyOf(purchaseDate)
	if purchaseDate.Day() > closingDay {
		c = c.Next()
	}
	return c, nil
}

// String renders the persisted "YYYY-MM" form.
func (c Competency) String() string { return c.month.Format("2006-01") }

// Time returns the first day of the competency month, UTC.
func (c Competency) Time() time.Time { return c.month }

// IsZero reports whether the competency is unset.
func (c Competency) IsZero() bool { return c.month.IsZero() }

// AddMonths steps the competency by n calendar months.
func (c Competency) AddMonths(n int) Competency {
	return Competency{month: c.month.AddDate(0, n, 0)}
}

// Next returns the following month's competency.
func (c Competency) Next() Competency { return c.AddMonths(1) }

// Before reports whether c precedes other.
func (c Competency) Before(other Competency) bool { return c.month.Before(other.month) }

// Equal reports whether both competencies name the same month.
func (c Competency) Equal(other Competency) bool { return c.month.Equal(other.month) }

// DueDate places a card due day inside the competency month, clamping
// day 29..31 to the last day of short months.
func (c Competency) DueDate(dueDay int) (time.Time, error) {
	if dueDay < 1 || dueDay > 31 {
		return time.Time{}, ErrInvalidDueDay
	}
	last := c.month.AddDate(0, 1, -1).Day()
	day := dueDay
	if day > last {
		day = last
	}
	return time.Date(c.month.Year(), c.month.Month(), day, 0, 0, 0, 0, time.UTC), nil
}
