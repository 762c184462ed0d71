package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseKind distinguishes a one-shot purchase from an installment split.
type PurchaseKind string

const (
	PurchaseKindSimple      PurchaseKind = "simple"
	PurchaseKindInstallment PurchaseKind = "installment"
)

// Purchase is one line of spend attributed to a card invoice. An installment
// purchase of N parts produces N independent Purchase records, each on its
// own competency.
type Purchase struct {
	ID               string
	CardID           string
	Competency       Competency
	Description      string
	Amount           decimal.Decimal
	PurchaseDate     time.Time
	CategoryID       string
	InstallmentSeq   int
	InstallmentTotal int
}
