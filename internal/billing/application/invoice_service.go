package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/VitorRandrade/monetary-mind-71177-sub000/internal/billing/application/events"
	billing "github.com/VitorRandrade/monetary-mind-71177-sub000/internal/billing/domain"
	"github.com/VitorRandrade/monetary-mind-71177-sub000/internal/eventing"
	"github.com/VitorRandrade/monetary-mind-71177-sub000/internal/observability/metrics"
)

// InvoiceService drives the invoice lifecycle: open invoices accumulate
// purchases, closing snapshots the live sum, paying settles the closed
// amount against an account.
type InvoiceService struct {
	invoices  InvoiceRepository
	purchases PurchaseRepository
	bus       EventPublisher
	retrier   *eventing.Retrier
	clock     Clock
}

// InvoiceServiceOption configures the service.
type InvoiceServiceOption func(*InvoiceService)

// WithInvoiceRetrier routes writes through a retrying channel.
func WithInvoiceRetrier(retrier *eventing.Retrier) InvoiceServiceOption {
	return func(s *InvoiceService) { s.retrier = retrier }
}

// NewInvoiceService constructs a service.
func NewInvoiceService(invoices InvoiceRepository, purchases PurchaseRepository, bus EventPublisher, clock Clock, opts ...InvoiceServiceOption) (*InvoiceService, error) {
	if invoices == nil {
		return nil, errors.New("invoice service: nil invoice repository")
	}
	if purchases == nil {
		return nil, errors.New("invoice service: nil purchase repository")
	}
	if clock == nil {
		return nil, errors.New("invoice service: nil clock")
	}
	s := &InvoiceService{invoices: invoices, purchases: purchases, bus: bus, clock: clock}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Get returns an invoice with its purchase lines.
func (s *InvoiceService) Get(ctx context.Context, id string) (*billing.Invoice, []*billing.Purchase, error) {
	invoice, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if invoice == nil {
		return nil, nil, fmt.Errorf("invoice %s: %w", id, billing.ErrInvoiceNotFound)
	}
	items, err := s.purchases.ListByCardAndCompetency(ctx, invoice.CardID, invoice.Competency)
	if err != nil {
		return nil, nil, err
	}
	return invoice, items, nil
}

// ListByCard returns all invoices of a card.
func (s *InvoiceService) ListByCard(ctx context.Context, cardID string) ([]*billing.Invoice, error) {
	return s.invoices.ListByCard(ctx, cardID)
}

// Usage returns the live amount of an invoice: for an open invoice it is
// always recomputed as the sum of its purchases, never cached; for a
// closed or paid invoice it is the snapshot taken at close.
func (s *InvoiceService) Usage(ctx context.Context, id string) (decimal.Decimal, error) {
	invoice, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	if invoice == nil {
		return decimal.Zero, fmt.Errorf("invoice %s: %w", id, billing.ErrInvoiceNotFound)
	}
	if invoice.Status != billing.InvoiceStatusOpen {
		return invoice.ClosedAmount, nil
	}
	return s.purchases.SumByCardAndCompetency(ctx, invoice.CardID, invoice.Competency)
}

// Close snapshots the live purchase sum and moves the invoice to closed.
func (s *InvoiceService) Close(ctx context.Context, id string) (*billing.Invoice, error) {
	result := metrics.ResultSuccess
	defer func() {
		metrics.IncInvoiceTransition("close", result)
	}()

	invoice, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	if invoice == nil {
		result = metrics.ResultError
		return nil, fmt.Errorf("invoice %s: %w", id, billing.ErrInvoiceNotFound)
	}

	sum, err := s.purchases.SumByCardAndCompetency(ctx, invoice.CardID, invoice.Competency)
	if err != nil {
		result = metrics.ResultError
		return nil, fmt.Errorf("invoice %s: sum purchases: %w", id, err)
	}

	now := s.clock.Now()
	if err := invoice.Close(sum, now); err != nil {
		result = metrics.ResultError
		return nil, fmt.Errorf("invoice %s competency %s: %w", id, invoice.Competency, err)
	}
	if err := s.write(ctx, func(ctx context.Context) error {
		return s.invoices.Save(ctx, invoice)
	}); err != nil {
		result = metrics.ResultError
		return nil, fmt.Errorf("invoice %s: save: %w", id, err)
	}
	if s.bus != nil {
		if err := s.bus.Publish(ctx, events.InvoiceClosed{
			InvoiceID:    invoice.ID,
			CardID:       invoice.CardID,
			Competency:   invoice.Competency.String(),
			ClosedAmount: invoice.ClosedAmount,
			OccurredAt:   now.UTC(),
		}); err != nil {
			result = metrics.ResultError
			return nil, fmt.Errorf("invoice %s: publish: %w", id, err)
		}
	}
	return invoice, nil
}

// Pay settles a closed invoice. The paid amount is independent of the
// closed amount; reconciliation of any difference happens elsewhere.
func (s *InvoiceService) Pay(ctx context.Context, id, payingAccountID string, amount decimal.Decimal, paidDate time.Time) (*billing.Invoice, error) {
	result := metrics.ResultSuccess
	defer func() {
		metrics.IncInvoiceTransition("pay", result)
	}()

	invoice, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	if invoice == nil {
		result = metrics.ResultError
		return nil, fmt.Errorf("invoice %s: %w", id, billing.ErrInvoiceNotFound)
	}

	now := s.clock.Now()
	if err := invoice.Pay(payingAccountID, amount, paidDate, now); err != nil {
		result = metrics.ResultError
		return nil, fmt.Errorf("invoice %s competency %s: %w", id, invoice.Competency, err)
	}
	if err := s.write(ctx, func(ctx context.Context) error {
		return s.invoices.Save(ctx, invoice)
	}); err != nil {
		result = metrics.ResultError
		return nil, fmt.Errorf("invoice %s: save: %w", id, err)
	}
	if s.bus != nil {
		if err := s.bus.Publish(ctx, events.InvoicePaid{
			InvoiceID:  invoice.ID,
			CardID:     invoice.CardID,
			Competency: invoice.Competency.String(),
			PaidAmount: invoice.PaidAmount,
			PaidFromID: invoice.PaidFromID,
			PaidDate:   invoice.PaidDate,
			OccurredAt: now.UTC(),
		}); err != nil {
			result = metrics.ResultError
			return nil, fmt.Errorf("invoice %s: publish: %w", id, err)
		}
	}
	return invoice, nil
}

func (s *InvoiceService) write(ctx context.Context, op func(context.Context) error) error {
	if s.retrier == nil {
		return op(ctx)
	}
	return s.retrier.Do(ctx, op)
}
