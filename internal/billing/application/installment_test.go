package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/VitorRandrade/monetary-mind-71177-sub000/internal/billing/application"
	appevents "github.com/VitorRandrade/monetary-mind-71177-sub000/internal/billing/application/events"
	billing "github.com/VitorRandrade/monetary-mind-71177-sub000/internal/billing/domain"
	billingmemory "github.com/VitorRandrade/monetary-mind-71177-sub000/internal/billing/infrastructure/memory"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

type eventRecorder struct {
	events []any
}

func (r *eventRecorder) Publish(_ context.Context, event any) error {
	r.events = append(r.events, event)
	return nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testCard() *billing.CreditCard {
	return &billing.CreditCard{
		ID:              "card-1",
		Nickname:        "everyday",
		Brand:           "visa",
		Limit:           decimal.RequireFromString("5000.00"),
		ClosingDay:      20,
		DueDay:          5,
		PayingAccountID: "acct-1",
	}
}

func TestDistributeSplitsEvenlyAcrossConsecutiveCompetencies(t *testing.T) {
	card := testCard()
	req := application.PurchaseRequest{
		CardID:       card.ID,
		Description:  "office chair",
		TotalAmount:  decimal.RequireFromString("300.00"),
		PurchaseDate: date(2025, time.August, 25),
		Kind:         billing.PurchaseKindInstallment,
		Installments: 3,
	}

	purchases, err := application.Distribute(req, card)
	if err != nil {
		t.Fatalf("distribute: %v", err)
	}
	if len(purchases) != 3 {
		t.Fatalf("expected 3 purchases, got %d", len(purchases))
	}
	// Aug 25 is past closing day 20, so the base competency is September.
	wantCompetencies := []string{"2025-09", "2025-10", "2025-11"}
	for i, purchase := range purchases {
		if got := purchase.Competency.String(); got != wantCompetencies[i] {
			t.Errorf("installment %d: expected competency %s, got %s", i+1, wantCompetencies[i], got)
		}
		if !purchase.Amount.Equal(decimal.RequireFromString("100.00")) {
			t.Errorf("installment %d: expected amount 100.00, got %s", i+1, purchase.Amount)
		}
		if purchase.InstallmentSeq != i+1 || purchase.InstallmentTotal != 3 {
			t.Errorf("installment %d: unexpected sequence %d/%d", i+1, purchase.InstallmentSeq, purchase.InstallmentTotal)
		}
	}
	if got := purchases[1].Description; got != "office chair (2/3)" {
		t.Errorf("expected numbered description, got %q", got)
	}
}

func TestDistributeNaiveDivisionLeavesRemainderUncorrected(t *testing.T) {
	card := testCard()
	req := application.PurchaseRequest{
		CardID:       card.ID,
		Description:  "split",
		TotalAmount:  decimal.RequireFromString("100.00"),
		PurchaseDate: date(2025, time.August, 10),
		Kind:         billing.PurchaseKindInstallment,
		Installments: 3,
	}

	purchases, err := application.Distribute(req, card)
	if err != nil {
		t.Fatalf("distribute: %v", err)
	}
	sum := decimal.Zero
	for _, purchase := range purchases {
		if !purchase.Amount.Equal(decimal.RequireFromString("33.33")) {
			t.Fatalf("expected each share 33.33, got %s", purchase.Amount)
		}
		sum = sum.Add(purchase.Amount)
	}
	// 3 x 33.33 = 99.99; the missing cent stays missing.
	if !sum.Equal(decimal.RequireFromString("99.99")) {
		t.Fatalf("expected uncorrected sum 99.99, got %s", sum)
	}
}

func TestDistributeSinglePurchaseKeepsDescription(t *testing.T) {
	card := testCard()
	req := application.PurchaseRequest{
		CardID:       card.ID,
		Description:  "groceries",
		TotalAmount:  decimal.RequireFromString("87.40"),
		PurchaseDate: date(2025, time.August, 20),
		Kind:         billing.PurchaseKindSimple,
		Installments: 1,
	}

	purchases, err := application.Distribute(req, card)
	if err != nil {
		t.Fatalf("distribute: %v", err)
	}
	if len(purchases) != 1 {
		t.Fatalf("expected 1 purchase, got %d", len(purchases))
	}
	// Aug 20 is on the closing day, so it stays in August.
	if got := purchases[0].Competency.String(); got != "2025-08" {
		t.Errorf("expected competency 2025-08, got %s", got)
	}
	if purchases[0].Description != "groceries" {
		t.Errorf("expected plain description, got %q", purchases[0].Description)
	}
}

func TestDistributeValidation(t *testing.T) {
	card := testCard()
	cases := []struct {
		name string
		req  application.PurchaseRequest
		want error
	}{
		{
			name: "zero installments",
			req: application.PurchaseRequest{
				TotalAmount:  decimal.RequireFromString("10.00"),
				PurchaseDate: date(2025, time.August, 1),
				Kind:         billing.PurchaseKindInstallment,
				Installments: 0,
			},
			want: billing.ErrInvalidInstallmentCount,
		},
		{
			name: "simple split",
			req: application.PurchaseRequest{
				TotalAmount:  decimal.RequireFromString("10.00"),
				PurchaseDate: date(2025, time.August, 1),
				Kind:         billing.PurchaseKindSimple,
				Installments: 2,
			},
			want: billing.ErrSimplePurchaseSplit,
		},
		{
			name: "non-positive amount",
			req: application.PurchaseRequest{
				TotalAmount:  decimal.Zero,
				PurchaseDate: date(2025, time.August, 1),
				Kind:         billing.PurchaseKindSimple,
				Installments: 1,
			},
			want: billing.ErrNonPositiveAmount,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := application.Distribute(tc.req, card); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestRecordOpensInvoicesImplicitly(t *testing.T) {
	ctx := context.Background()
	cards := billingmemory.NewCardRepository()
	invoices := billingmemory.NewInvoiceRepository()
	purchases := billingmemory.NewPurchaseRepository()
	recorder := &eventRecorder{}
	card := testCard()
	if err := cards.Save(ctx, card); err != nil {
		t.Fatalf("save card: %v", err)
	}

	svc, err := application.NewPurchaseService(cards, invoices, purchases, recorder, fixedClock{now: date(2025, time.August, 25)})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	got, err := svc.Record(ctx, application.PurchaseRequest{
		CardID:       card.ID,
		Description:  "office chair",
		TotalAmount:  decimal.RequireFromString("300.00"),
		PurchaseDate: date(2025, time.August, 25),
		Kind:         billing.PurchaseKindInstallment,
		Installments: 3,
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 purchases, got %d", len(got))
	}

	// One invoice per competency must now exist, all open.
	for _, competency := range []string{"2025-09", "2025-10", "2025-11"} {
		parsed, err := billing.ParseCompetency(competency)
		if err != nil {
			t.Fatalf("parse competency: %v", err)
		}
		invoice, err := invoices.FindByCardAndCompetency(ctx, card.ID, parsed)
		if err != nil {
			t.Fatalf("find invoice: %v", err)
		}
		if invoice == nil {
			t.Fatalf("expected invoice for %s", competency)
		}
		if invoice.Status != billing.InvoiceStatusOpen {
			t.Errorf("competency %s: expected open invoice, got %s", competency, invoice.Status)
		}
	}

	if len(recorder.events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(recorder.events))
	}
	first, ok := recorder.events[0].(appevents.PurchaseRecorded)
	if !ok {
		t.Fatalf("expected PurchaseRecorded, got %T", recorder.events[0])
	}
	if first.Competency != "2025-09" || first.InstallmentSeq != 1 {
		t.Errorf("unexpected first event: %+v", first)
	}
}

func TestRecordReusesExistingInvoice(t *testing.T) {
	ctx := context.Background()
	cards := billingmemory.NewCardRepository()
	invoices := billingmemory.NewInvoiceRepository()
	purchases := billingmemory.NewPurchaseRepository()
	card := testCard()
	if err := cards.Save(ctx, card); err != nil {
		t.Fatalf("save card: %v", err)
	}

	svc, err := application.NewPurchaseService(cards, invoices, purchases, nil, fixedClock{now: date(2025, time.August, 10)})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	req := application.PurchaseRequest{
		CardID:       card.ID,
		Description:  "coffee",
		TotalAmount:  decimal.RequireFromString("12.00"),
		PurchaseDate: date(2025, time.August, 10),
		Kind:         billing.PurchaseKindSimple,
		Installments: 1,
	}
	if _, err := svc.Record(ctx, req); err != nil {
		t.Fatalf("first record: %v", err)
	}
	if _, err := svc.Record(ctx, req); err != nil {
		t.Fatalf("second record: %v", err)
	}

	competency, _ := billing.ParseCompetency("2025-08")
	all, err := invoices.ListByCard(ctx, card.ID)
	if err != nil {
		t.Fatalf("list invoices: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected a single invoice, got %d", len(all))
	}
	sum, err := purchases.SumByCardAndCompetency(ctx, card.ID, competency)
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if !sum.Equal(decimal.RequireFromString("24.00")) {
		t.Fatalf("expected sum 24.00, got %s", sum)
	}
}

func TestRecordUnknownCard(t *testing.T) {
	ctx := context.Background()
	svc, err := application.NewPurchaseService(
		billingmemory.NewCardRepository(),
		billingmemory.NewInvoiceRepository(),
		billingmemory.NewPurchaseRepository(),
		nil,
		fixedClock{now: date(2025, time.August, 10)},
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	_, err = svc.Record(ctx, application.PurchaseRequest{
		CardID:       "missing",
		TotalAmount:  decimal.RequireFromString("10.00"),
		PurchaseDate: date(2025, time.August, 10),
		Kind:         billing.PurchaseKindSimple,
		Installments: 1,
	})
	if !errors.Is(err, billing.ErrCardNotFound) {
		t.Fatalf("expected ErrCardNotFound, got %v", err)
	}
}
