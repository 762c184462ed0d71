package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseRecorded is emitted for every purchase line written to an invoice.
type PurchaseRecorded struct {
	PurchaseID       string          `json:"purchase_id"`
	CardID           string          `json:"card_id"`
	InvoiceID        string          `json:"invoice_id"`
	Competency       string          `json:"competency"`
	Amount           decimal.Decimal `json:"amount"`
	InstallmentSeq   int             `json:"installment_seq"`
	InstallmentTotal int             `json:"installment_total"`
	OccurredAt       time.Time       `json:"occurred_at"`
}

// InvoiceClosed is emitted when an invoice snapshot is taken.
type InvoiceClosed struct {
	InvoiceID    string          `json:"invoice_id"`
	CardID       string          `json:"card_id"`
	Competency   string          `json:"competency"`
	ClosedAmount decimal.Decimal `json:"closed_amount"`
	OccurredAt   time.Time       `json:"occurred_at"`
}

// InvoicePaid is emitted when a closed invoice is settled.
type InvoicePaid struct {
	InvoiceID  string          `json:"invoice_id"`
	CardID     string          `json:"card_id"`
	Competency string          `json:"competency"`
	PaidAmount decimal.Decimal `json:"paid_amount"`
	PaidFromID string          `json:"paid_from_id"`
	PaidDate   time.Time       `json:"paid_date"`
	OccurredAt time.Time       `json:"occurred_at"`
}
