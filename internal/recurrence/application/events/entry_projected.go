package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryProjected is emitted after a sweep writes a forecast ledger entry.
type EntryProjected struct {
	RecurrenceID string          `json:"recurrence_id"`
	EntryID      string          `json:"entry_id"`
	DueDate      time.Time       `json:"due_date"`
	Amount       decimal.Decimal `json:"amount"`
	Direction    string          `json:"direction"`
	OccurredAt   time.Time       `json:"occurred_at"`
}
