// Package ledger holds the dated financial movements the projection engine
// reads and writes.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction marks a movement as money in or money out.
type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

// Valid reports whether the direction is known.
func (d Direction) Valid() bool {
	return d == DirectionCredit || d == DirectionDebit
}

const (
	// StatusForecast marks a projected entry not yet confirmed.
	StatusForecast = "forecast"
	// StatusSettled marks a confirmed entry.
	StatusSettled = "settled"
)

// Entry is a single dated financial movement. Entries generated by a
// recurrence carry its origin tag; at most one entry may exist per
// (origin tag, due date) pair.
type Entry struct {
	ID          string
	Direction   Direction
	Amount      decimal.Decimal
	Description string
	AccountID   string
	CategoryID  string
	Date        time.Time
	DueDate     time.Time
	Status      string
	OriginTag   string
	CreatedAt   time.Time
}

// EffectiveDueDate returns the due date, defaulting to the entry date.
func (e *Entry) EffectiveDueDate() time.Time {
	if e.DueDate.IsZero() {
		return e.Date
	}
	return e.DueDate
}
