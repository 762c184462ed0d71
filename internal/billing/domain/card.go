package billing

import "github.com/shopspring/decimal"

// CreditCard describes one credit card and its billing cycle parameters.
type CreditCard struct {
	ID              string
	Nickname        string
	Brand           string
	Limit           decimal.Decimal
	ClosingDay      int
	DueDay          int
	PayingAccountID string
}

// Validate checks the cycle day invariants.
func (c *CreditCard) Validate() error {
	if c == nil {
		return ErrNilCard
	}
	if c.ClosingDay < 1 || c.ClosingDay > 31 {
		return ErrInvalidClosingDay
	}
	if c.DueDay < 1 || c.DueDay > 31 {
		return ErrInvalidDueDay
	}
	return nil
}
