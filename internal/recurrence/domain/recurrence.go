// Package recurrence defines templates for repeating ledger entries.
package recurrence

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/VitorRandrade/monetary-mind-71177-sub000/internal/calendar"
	ledger "github.com/VitorRandrade/monetary-mind-71177-sub000/internal/ledger/domain"
)

// Recurrence is a template for repeating ledger entries. It is never
// physically removed; pausing or soft-deleting it stops projection.
type Recurrence struct {
	ID             string
	Direction      ledger.Direction
	Amount         decimal.Decimal
	Description    string
	AccountID      string
	CategoryID     string
	Frequency      calendar.Frequency
	StartDate      time.Time
	EndDate        *time.Time
	NextOccurrence *time.Time
	Paused         bool
	Deleted        bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Active reports whether the recurrence may be projected.
func (r *Recurrence) Active() bool {
	return r != nil && !r.Paused && !r.Deleted
}

// Cursor returns the projection start: the last known next occurrence, or
// the start date for a recurrence that was never swept.
func (r *Recurrence) Cursor() time.Time {
	if r.NextOccurrence != nil && !r.NextOccurrence.IsZero() {
		return *r.NextOccurrence
	}
	return r.StartDate
}

// Ended reports whether the given date falls past the optional end date.
func (r *Recurrence) Ended(at time.Time) bool {
	return r.EndDate != nil && !r.EndDate.IsZero() && at.After(*r.EndDate)
}

// OriginTag is the stable marker written on every entry this recurrence
// generates; together with the due date it is the de-duplication key.
func (r *Recurrence) OriginTag() string {
	return OriginTag(r.ID)
}

// OriginTag builds the origin tag for a recurrence id.
func OriginTag(id string) string {
	return "recurrence:" + id
}
