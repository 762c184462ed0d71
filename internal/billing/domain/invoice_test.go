package billing

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func testCard() *CreditCard {
	return &CreditCard{
		ID:              "card-1",
		Nickname:        "everyday",
		Brand:           "visa",
		Limit:           decimal.NewFromInt(5000),
		ClosingDay:      15,
		DueDay:          25,
		PayingAccountID: "acct-1",
	}
}

func TestNewInvoiceDerivesDueDate(t *testing.T) {
	comp, _ := ParseCompetency("2025-09")
	now := date(2025, time.August, 20)
	inv, err := NewInvoice("inv-1", testCard(), comp, now)
	if err != nil {
		t.Fatalf("new invoice: %v", err)
	}
	if inv.Status != InvoiceStatusOpen {
		t.Fatalf("expected open, got %s", inv.Status)
	}
	if !inv.DueDate.Equal(date(2025, time.September, 25)) {
		t.Fatalf("expected due 2025-09-25, got %s", inv.DueDate)
	}
}

func TestInvoiceCloseSnapshotsAmount(t *testing.T) {
	comp, _ := ParseCompetency("2025-09")
	inv, _ := NewInvoice("inv-1", testCard(), comp, date(2025, time.August, 20))
	sum := decimal.RequireFromString("321.90")
	if err := inv.Close(sum, date(2025, time.September, 16)); err != nil {
		t.Fatalf("close: %v", err)
	}
	if inv.Status != InvoiceStatusClosed {
		t.Fatalf("expected closed, got %s", inv.Status)
	}
	if !inv.ClosedAmount.Equal(sum) {
		t.Fatalf("expected closed amount %s, got %s", sum, inv.ClosedAmount)
	}
}

func TestInvoiceCloseTwiceRejected(t *testing.T) {
	comp, _ := ParseCompetency("2025-09")
	inv, _ := NewInvoice("inv-1", testCard(), comp, date(2025, time.August, 20))
	_ = inv.Close(decimal.NewFromInt(100), date(2025, time.September, 16))
	err := inv.Close(decimal.NewFromInt(200), date(2025, time.September, 17))
	if !errors.Is(err, ErrInvoiceNotOpen) {
		t.Fatalf("expected ErrInvoiceNotOpen, got %v", err)
	}
	if !inv.ClosedAmount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("closed amount must be unchanged, got %s", inv.ClosedAmount)
	}
}

func TestInvoicePayRequiresClosed(t *testing.T) {
	comp, _ := ParseCompetency("2025-09")
	inv, _ := NewInvoice("inv-1", testCard(), comp, date(2025, time.August, 20))
	err := inv.Pay("acct-1", decimal.NewFromInt(100), date(2025, time.September, 25), date(2025, time.September, 25))
	if !errors.Is(err, ErrInvoiceNotClosed) {
		t.Fatalf("expected ErrInvoiceNotClosed, got %v", err)
	}
	if inv.Status != InvoiceStatusOpen {
		t.Fatalf("state must be unchanged, got %s", inv.Status)
	}
}

func TestInvoicePayValidation(t *testing.T) {
	comp, _ := ParseCompetency("2025-09")
	inv, _ := NewInvoice("inv-1", testCard(), comp, date(2025, time.August, 20))
	_ = inv.Close(decimal.NewFromInt(100), date(2025, time.September, 16))

	if err := inv.Pay("", decimal.NewFromInt(100), date(2025, time.September, 25), time.Now()); !errors.Is(err, ErrMissingPayingAccount) {
		t.Fatalf("expected ErrMissingPayingAccount, got %v", err)
	}
	if err := inv.Pay("acct-1", decimal.NewFromInt(100), time.Time{}, time.Now()); !errors.Is(err, ErrMissingPaidDate) {
		t.Fatalf("expected ErrMissingPaidDate, got %v", err)
	}
	if err := inv.Pay("acct-1", decimal.Zero, date(2025, time.September, 25), time.Now()); !errors.Is(err, ErrNonPositiveAmount) {
		t.Fatalf("expected ErrNonPositiveAmount for zero amount, got %v", err)
	}
	if err := inv.Pay("acct-1", decimal.NewFromInt(-10), date(2025, time.September, 25), time.Now()); !errors.Is(err, ErrNonPositiveAmount) {
		t.Fatalf("expected ErrNonPositiveAmount for negative amount, got %v", err)
	}
	if inv.Status != InvoiceStatusClosed {
		t.Fatalf("state must be unchanged after rejected pay, got %s", inv.Status)
	}
}

func TestInvoicePaidIsTerminal(t *testing.T) {
	comp, _ := ParseCompetency("2025-09")
	inv, _ := NewInvoice("inv-1", testCard(), comp, date(2025, time.August, 20))
	_ = inv.Close(decimal.NewFromInt(150), date(2025, time.September, 16))
	if err := inv.Pay("acct-1", decimal.RequireFromString("150.00"), date(2025, time.September, 25), time.Now()); err != nil {
		t.Fatalf("pay: %v", err)
	}

	if err := inv.Close(decimal.NewFromInt(1), time.Now()); !errors.Is(err, ErrInvoiceNotOpen) {
		t.Fatalf("paid invoice must reject close, got %v", err)
	}
	if err := inv.Pay("acct-1", decimal.NewFromInt(1), time.Now(), time.Now()); !errors.Is(err, ErrInvoiceNotClosed) {
		t.Fatalf("paid invoice must reject re-pay, got %v", err)
	}
}

func TestInvoicePartialPaymentRepresentable(t *testing.T) {
	comp, _ := ParseCompetency("2025-09")
	inv, _ := NewInvoice("inv-1", testCard(), comp, date(2025, time.August, 20))
	_ = inv.Close(decimal.RequireFromString("300.00"), date(2025, time.September, 16))
	if err := inv.Pay("acct-1", decimal.RequireFromString("120.50"), date(2025, time.September, 25), time.Now()); err != nil {
		t.Fatalf("partial pay: %v", err)
	}
	if !inv.PaidAmount.Equal(decimal.RequireFromString("120.50")) {
		t.Fatalf("expected paid 120.50, got %s", inv.PaidAmount)
	}
	if !inv.ClosedAmount.Equal(decimal.RequireFromString("300.00")) {
		t.Fatalf("closed amount must stay 300.00, got %s", inv.ClosedAmount)
	}
}
