package billing

import "errors"

var (
	// ErrInvalidClosingDay is returned when a card closing day is outside [1,31].
	ErrInvalidClosingDay = errors.New("billing: closing day must be within 1..31")
	// ErrInvalidDueDay is returned when a card due day is outside [1,31].
	ErrInvalidDueDay = errors.New("billing: due day must be within 1..31")
	// ErrInvalidCompetency is returned for a malformed competency value.
	ErrInvalidCompetency = errors.New("billing: competency must be YYYY-MM")
	// ErrInvalidInstallmentCount is returned when the installment count is below 1.
	ErrInvalidInstallmentCount = errors.New("billing: installment count must be at least 1")
	// ErrSimplePurchaseSplit is returned when a simple purchase carries more than one installment.
	ErrSimplePurchaseSplit = errors.New("billing: simple purchase must resolve to exactly one installment")
	// ErrNonPositiveAmount is returned when a purchase amount is zero or negative.
	ErrNonPositiveAmount = errors.New("billing: amount must be positive")
	// ErrNilCard is returned when an operation requires a card and none was given.
	ErrNilCard = errors.New("billing: nil credit card")
	// ErrCardNotFound is returned when a card lookup misses.
	ErrCardNotFound = errors.New("billing: card not found")
	// ErrInvoiceNotFound is returned when an invoice lookup misses.
	ErrInvoiceNotFound = errors.New("billing: invoice not found")
	// ErrInvoiceNotOpen is returned when closing an invoice that is not open.
	ErrInvoiceNotOpen = errors.New("billing: invoice is not open")
	// ErrInvoiceNotClosed is returned when paying an invoice that is not closed.
	ErrInvoiceNotClosed = errors.New("billing: invoice is not closed")
	// ErrMissingPayingAccount is returned when a payment lacks the paying account.
	ErrMissingPayingAccount = errors.New("billing: paying account required")
	// ErrMissingPaidDate is returned when a payment lacks the paid date.
	ErrMissingPaidDate = errors.New("billing: paid date required")
)
