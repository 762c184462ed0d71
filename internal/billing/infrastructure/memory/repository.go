package memory

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	billing "github.com/VitorRandrade/monetary-mind-71177-sub000/internal/billing/domain"
)

// CardRepository is an in-memory card store.
type CardRepository struct {
	mu    sync.RWMutex
	cards map[string]*billing.CreditCard
}

// NewCardRepository constructs a repository.
func NewCardRepository() *CardRepository {
	return &CardRepository{cards: make(map[string]*billing.CreditCard)}
}

// Save stores a card.
func (r *CardRepository) Save(ctx context.Context, card *billing.CreditCard) error {
	_ = ctx
	if err := card.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	copy := *card
	r.cards[card.ID] = &copy
	return nil
}

// GetByID returns a card, or nil when absent.
func (r *CardRepository) GetByID(ctx context.Context, id string) (*billing.CreditCard, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	card, ok := r.cards[id]
	if !ok {
		return nil, nil
	}
	copy := *card
	return &copy, nil
}

// List returns all cards.
func (r *CardRepository) List(ctx context.Context) ([]*billing.CreditCard, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*billing.CreditCard, 0, len(r.cards))
	for _, card := range r.cards {
		copy := *card
		result = append(result, &copy)
	}
	return result, nil
}

// InvoiceRepository is an in-memory invoice store keyed by id, with a
// secondary index on (card, competency) matching the Postgres unique
// constraint.
type InvoiceRepository struct {
	mu       sync.RWMutex
	invoices map[string]*billing.Invoice
	byCycle  map[string]string
}

// NewInvoiceRepository constructs a repository.
func NewInvoiceRepository() *InvoiceRepository {
	return &InvoiceRepository{
		invoices: make(map[string]*billing.Invoice),
		byCycle:  make(map[string]string),
	}
}

func cycleKey(cardID string, competency billing.Competency) string {
	return cardID + "|" + competency.String()
}

// Save upserts an invoice.
func (r *InvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	_ = ctx
	if invoice == nil {
		return billing.ErrInvoiceNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invoices[invoice.ID] = invoice.Clone()
	r.byCycle[cycleKey(invoice.CardID, invoice.Competency)] = invoice.ID
	return nil
}

// GetByID returns an invoice, or nil when absent.
func (r *InvoiceRepository) GetByID(ctx context.Context, id string) (*billing.Invoice, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.invoices[id].Clone(), nil
}

// FindByCardAndCompetency returns the invoice of a billing cycle, or nil.
func (r *InvoiceRepository) FindByCardAndCompetency(ctx context.Context, cardID string, competency billing.Competency) (*billing.Invoice, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byCycle[cycleKey(cardID, competency)]
	if !ok {
		return nil, nil
	}
	return r.invoices[id].Clone(), nil
}

// ListByCard returns all invoices of a card.
func (r *InvoiceRepository) ListByCard(ctx context.Context, cardID string) ([]*billing.Invoice, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []*billing.Invoice
	for _, invoice := range r.invoices {
		if invoice.CardID == cardID {
			result = append(result, invoice.Clone())
		}
	}
	return result, nil
}

// PurchaseRepository is an in-memory purchase store.
type PurchaseRepository struct {
	mu        sync.RWMutex
	purchases map[string]*billing.Purchase
}

// NewPurchaseRepository constructs a repository.
func NewPurchaseRepository() *PurchaseRepository {
	return &PurchaseRepository{purchases: make(map[string]*billing.Purchase)}
}

// Insert stores a purchase line.
func (r *PurchaseRepository) Insert(ctx context.Context, purchase *billing.Purchase) error {
	_ = ctx
	if purchase == nil {
		return billing.ErrNonPositiveAmount
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	copy := *purchase
	r.purchases[purchase.ID] = &copy
	return nil
}

// ListByCardAndCompetency returns the purchase lines of a billing cycle.
func (r *PurchaseRepository) ListByCardAndCompetency(ctx context.Context, cardID string, competency billing.Competency) ([]*billing.Purchase, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []*billing.Purchase
	for _, purchase := range r.purchases {
		if purchase.CardID == cardID && purchase.Competency.Equal(competency) {
			copy := *purchase
			result = append(result, &copy)
		}
	}
	return result, nil
}

// SumByCardAndCompetency totals the purchase lines of a billing cycle.
func (r *PurchaseRepository) SumByCardAndCompetency(ctx context.Context, cardID string, competency billing.Competency) (decimal.Decimal, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	sum := decimal.Zero
	for _, purchase := range r.purchases {
		if purchase.CardID == cardID && purchase.Competency.Equal(competency) {
			sum = sum.Add(purchase.Amount)
		}
	}
	return sum, nil
}

// Len returns the number of stored purchases.
func (r *PurchaseRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.purchases)
}
