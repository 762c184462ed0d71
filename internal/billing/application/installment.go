package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/VitorRandrade/monetary-mind-71177-sub000/internal/billing/application/events"
	billing "github.com/VitorRandrade/monetary-mind-71177-sub000/internal/billing/domain"
	"github.com/VitorRandrade/monetary-mind-71177-sub000/internal/eventing"
	"github.com/VitorRandrade/monetary-mind-71177-sub000/internal/observability/metrics"
)

// PurchaseRequest describes one user-initiated purchase, simple or split
// into installments.
type PurchaseRequest struct {
	CardID       string
	Description  string
	TotalAmount  decimal.Decimal
	PurchaseDate time.Time
	CategoryID   string
	Kind         billing.PurchaseKind
	Installments int
}

// Distribute expands a purchase into its installment lines. Installment i
// lands on the base competency advanced i calendar months and carries an
// equal share of the total; division is naive, with no remainder
// correction across installments.
func Distribute(req PurchaseRequest, card *billing.CreditCard) ([]billing.Purchase, error) {
	if err := card.Validate(); err != nil {
		return nil, err
	}
	if req.Installments < 1 {
		return nil, billing.ErrInvalidInstallmentCount
	}
	if req.Kind == billing.PurchaseKindSimple && req.Installments > 1 {
		return nil, billing.ErrSimplePurchaseSplit
	}
	if !req.TotalAmount.IsPositive() {
		return nil, billing.ErrNonPositiveAmount
	}

	base, err := billing.ResolveCompetency(req.PurchaseDate, card.ClosingDay)
	if err != nil {
		return nil, err
	}

	count := req.Installments
	share := req.TotalAmount.DivRound(decimal.NewFromInt(int64(count)), 2)

	purchases := make([]billing.Purchase, 0, count)
	for i := 0; i < count; i++ {
		description := req.Description
		if count > 1 {
			description = fmt.Sprintf("%s (%d/%d)", req.Description, i+1, count)
		}
		purchases = append(purchases, billing.Purchase{
			ID:               uuid.NewString(),
			CardID:           card.ID,
			Competency:       base.AddMonths(i),
			Description:      description,
			Amount:           share,
			PurchaseDate:     req.PurchaseDate,
			CategoryID:       req.CategoryID,
			InstallmentSeq:   i + 1,
			InstallmentTotal: count,
		})
	}
	return purchases, nil
}

// CardRepository provides card lookups.
type CardRepository interface {
	GetByID(ctx context.Context, id string) (*billing.CreditCard, error)
}

// InvoiceRepository stores invoices.
type InvoiceRepository interface {
	GetByID(ctx context.Context, id string) (*billing.Invoice, error)
	FindByCardAndCompetency(ctx context.Context, cardID string, competency billing.Competency) (*billing.Invoice, error)
	ListByCard(ctx context.Context, cardID string) ([]*billing.Invoice, error)
	Save(ctx context.Context, invoice *billing.Invoice) error
}

// PurchaseRepository stores purchase lines.
type PurchaseRepository interface {
	Insert(ctx context.Context, purchase *billing.Purchase) error
	ListByCardAndCompetency(ctx context.Context, cardID string, competency billing.Competency) ([]*billing.Purchase, error)
	SumByCardAndCompetency(ctx context.Context, cardID string, competency billing.Competency) (decimal.Decimal, error)
}

// EventPublisher publishes domain events.
type EventPublisher interface {
	Publish(ctx context.Context, event any) error
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// PurchaseService records purchases against card invoices.
type PurchaseService struct {
	cards     CardRepository
	invoices  InvoiceRepository
	purchases PurchaseRepository
	bus       EventPublisher
	retrier   *eventing.Retrier
	clock     Clock
}

// PurchaseServiceOption configures the service.
type PurchaseServiceOption func(*PurchaseService)

// WithPurchaseRetrier routes writes through a retrying channel.
func WithPurchaseRetrier(retrier *eventing.Retrier) PurchaseServiceOption {
	return func(s *PurchaseService) { s.retrier = retrier }
}

// NewPurchaseService constructs a service.
func NewPurchaseService(cards CardRepository, invoices InvoiceRepository, purchases PurchaseRepository, bus EventPublisher, clock Clock, opts ...PurchaseServiceOption) (*PurchaseService, error) {
	if cards == nil {
		return nil, errors.New("purchase service: nil card repository")
	}
	if invoices == nil {
		return nil, errors.New("purchase service: nil invoice repository")
	}
	if purchases == nil {
		return nil, errors.New("purchase service: nil purchase repository")
	}
	if clock == nil {
		return nil, errors.New("purchase service: nil clock")
	}
	s := &PurchaseService{
		cards:     cards,
		invoices:  invoices,
		purchases: purchases,
		bus:       bus,
		clock:     clock,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Record validates and distributes a purchase, writing every installment
// line against the invoice for its competency. Invoices are opened
// implicitly for (card, competency) pairs that have none. The first write
// failure aborts the call; nothing is retried here beyond the channel's
// transient retries.
func (s *PurchaseService) Record(ctx context.Context, req PurchaseRequest) ([]billing.Purchase, error) {
	start := s.clock.Now()
	observed := metrics.ResultSuccess
	defer func() {
		metrics.ObserveDistribute(observed, s.clock.Now().Sub(start))
	}()

	card, err := s.cards.GetByID(ctx, req.CardID)
	if err != nil {
		observed = metrics.ResultError
		return nil, fmt.Errorf("card %s: %w", req.CardID, err)
	}
	if card == nil {
		observed = metrics.ResultError
		return nil, fmt.Errorf("card %s: %w", req.CardID, billing.ErrCardNotFound)
	}

	purchases, err := Distribute(req, card)
	if err != nil {
		observed = metrics.ResultError
		return nil, err
	}

	now := s.clock.Now().UTC()
	for i := range purchases {
		purchase := &purchases[i]
		invoice, err := s.ensureInvoice(ctx, card, purchase.Competency, now)
		if err != nil {
			observed = metrics.ResultError
			return nil, fmt.Errorf("card %s competency %s: %w", card.ID, purchase.Competency, err)
		}
		if err := s.write(ctx, func(ctx context.Context) error {
			return s.purchases.Insert(ctx, purchase)
		}); err != nil {
			observed = metrics.ResultError
			return nil, fmt.Errorf("card %s competency %s: record purchase: %w", card.ID, purchase.Competency, err)
		}
		if s.bus != nil {
			if err := s.bus.Publish(ctx, events.PurchaseRecorded{
				PurchaseID:       purchase.ID,
				CardID:           card.ID,
				InvoiceID:        invoice.ID,
				Competency:       purchase.Competency.String(),
				Amount:           purchase.Amount,
				InstallmentSeq:   purchase.InstallmentSeq,
				InstallmentTotal: purchase.InstallmentTotal,
				OccurredAt:       now,
			}); err != nil {
				observed = metrics.ResultError
				return nil, fmt.Errorf("card %s competency %s: publish: %w", card.ID, purchase.Competency, err)
			}
		}
	}
	return purchases, nil
}

func (s *PurchaseService) ensureInvoice(ctx context.Context, card *billing.CreditCard, competency billing.Competency, now time.Time) (*billing.Invoice, error) {
	invoice, err := s.invoices.FindByCardAndCompetency(ctx, card.ID, competency)
	if err != nil {
		return nil, err
	}
	if invoice != nil {
		return invoice, nil
	}
	invoice, err = billing.NewInvoice(uuid.NewString(), card, competency, now)
	if err != nil {
		return nil, err
	}
	if err := s.write(ctx, func(ctx context.Context) error {
		return s.invoices.Save(ctx, invoice)
	}); err != nil {
		return nil, err
	}
	return invoice, nil
}

func (s *PurchaseService) write(ctx context.Context, op func(context.Context) error) error {
	if s.retrier == nil {
		return op(ctx)
	}
	return s.retrier.Do(ctx, op)
}
