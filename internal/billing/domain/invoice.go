package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	InvoiceStatusOpen   = "open"
	InvoiceStatusClosed = "closed"
	InvoiceStatusPaid   = "paid"
)

// Invoice is the materialized billing cycle for one card and one
// competency. It is created implicitly on the first purchase assigned to
// the (card, competency) pair and kept forever. Status moves strictly
// forward: open -> closed -> paid.
type Invoice struct {
	ID           string
	CardID       string
	Competency   Competency
	Status       string
	DueDate      time.Time
	ClosedAmount decimal.Decimal
	PaidAmount   decimal.Decimal
	PaidDate     time.Time
	PaidFromID   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewInvoice opens an invoice for a card's competency, deriving the due
// date from the card's due day.
func NewInvoice(id string, card *CreditCard, competency Competency, now time.Time) (*Invoice, error) {
	if err := card.Validate(); err != nil {
		return nil, err
	}
	due, err := competency.DueDate(card.DueDay)
	if err != nil {
		return nil, err
	}
	return &Invoice{
		ID:         id,
		CardID:     card.ID,
		Competency: competency,
		Status:     InvoiceStatusOpen,
		DueDate:    due,
		CreatedAt:  now.UTC(),
		UpdatedAt:  now.UTC(),
	}, nil
}

// Close snapshots the current live purchase sum and moves the invoice to
// closed. Closing does not lock writes for the competency; it only fixes
// the amount.
func (inv *Invoice) Close(liveSum decimal.Decimal, now time.Time) error {
	if inv.Status != InvoiceStatusOpen {
		return ErrInvoiceNotOpen
	}
	inv.Status = InvoiceStatusClosed
	inv.ClosedAmount = liveSum
	inv.UpdatedAt = now.UTC()
	return nil
}

// Pay settles a closed invoice. The paid amount must be positive but is
// otherwise independent of the closed amount; partial and over payments
// are representable.
func (inv *Invoice) Pay(payingAccountID string, amount decimal.Decimal, paidDate time.Time, now time.Time) error {
	if inv.Status != InvoiceStatusClosed {
		return ErrInvoiceNotClosed
	}
	if payingAccountID == "" {
		return ErrMissingPayingAccount
	}
	if !amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	if paidDate.IsZero() {
		return ErrMissingPaidDate
	}
	inv.Status = InvoiceStatusPaid
	inv.PaidAmount = amount
	inv.PaidDate = paidDate.UTC()
	inv.PaidFromID = payingAccountID
	inv.UpdatedAt = now.UTC()
	return nil
}

// Clone returns a detached copy.
func (inv *Invoice) Clone() *Invoice {
	if inv == nil {
		return nil
	}
	copy := *inv
	return &copy
}
