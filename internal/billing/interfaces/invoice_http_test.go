package interfaces_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/VitorRandrade/monetary-mind-71177-sub000/internal/billing/application"
	billing "github.com/VitorRandrade/monetary-mind-71177-sub000/internal/billing/domain"
	billingmemory "github.com/VitorRandrade/monetary-mind-71177-sub000/internal/billing/infrastructure/memory"
	"github.com/VitorRandrade/monetary-mind-71177-sub000/internal/billing/interfaces"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func setupHandler(t *testing.T) (*interfaces.InvoiceHandler, *billing.Invoice) {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2025, time.August, 10, 0, 0, 0, 0, time.UTC)

	cards := billingmemory.NewCardRepository()
	invoices := billingmemory.NewInvoiceRepository()
	purchases := billingmemory.NewPurchaseRepository()
	card := &billing.CreditCard{
		ID:              "card-1",
		Nickname:        "everyday",
		Limit:           decimal.RequireFromString("5000.00"),
		ClosingDay:      20,
		DueDay:          5,
		PayingAccountID: "acct-1",
	}
	if err := cards.Save(ctx, card); err != nil {
		t.Fatalf("save card: %v", err)
	}

	purchaseSvc, err := application.NewPurchaseService(cards, invoices, purchases, nil, fixedClock{now: now})
	if err != nil {
		t.Fatalf("purchase service: %v", err)
	}
	recorded, err := purchaseSvc.Record(ctx, application.PurchaseRequest{
		CardID:       card.ID,
		Description:  "groceries",
		TotalAmount:  decimal.RequireFromString("150.00"),
		PurchaseDate: now,
		Kind:         billing.PurchaseKindSimple,
		Installments: 1,
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	invoice, err := invoices.FindByCardAndCompetency(ctx, card.ID, recorded[0].Competency)
	if err != nil || invoice == nil {
		t.Fatalf("find invoice: %v", err)
	}

	invoiceSvc, err := application.NewInvoiceService(invoices, purchases, nil, fixedClock{now: now})
	if err != nil {
		t.Fatalf("invoice service: %v", err)
	}
	handler, err := interfaces.NewInvoiceHandler(invoiceSvc, nil)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	return handler, invoice
}

func TestInvoiceHandlerGet(t *testing.T) {
	handler, invoice := setupHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/invoices/"+invoice.ID, nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var body struct {
		Invoice struct {
			Status     string `json:"status"`
			Competency string `json:"competency"`
		} `json:"invoice"`
		Usage string `json:"usage"`
		Items []struct {
			Description string `json:"description"`
		} `json:"items"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Invoice.Status != billing.InvoiceStatusOpen {
		t.Errorf("expected open invoice, got %s", body.Invoice.Status)
	}
	if body.Usage != "150.00" {
		t.Errorf("expected usage 150.00, got %s", body.Usage)
	}
	if len(body.Items) != 1 || body.Items[0].Description != "groceries" {
		t.Errorf("unexpected items: %+v", body.Items)
	}
}

func TestInvoiceHandlerCloseThenPay(t *testing.T) {
	handler, invoice := setupHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/"+invoice.ID+"/close", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("close: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	payBody := `{"paying_account_id":"acct-1","amount":"150.00","paid_date":"2025-09-05"}`
	req = httptest.NewRequest(http.MethodPost, "/api/v1/invoices/"+invoice.ID+"/pay", strings.NewReader(payBody))
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("pay: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var paid struct {
		Status     string `json:"status"`
		PaidAmount string `json:"paid_amount"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &paid); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if paid.Status != billing.InvoiceStatusPaid || paid.PaidAmount != "150.00" {
		t.Errorf("unexpected payment response: %+v", paid)
	}
}

func TestInvoiceHandlerPayOpenInvoiceConflicts(t *testing.T) {
	handler, invoice := setupHandler(t)

	payBody := `{"paying_account_id":"acct-1","amount":"150.00","paid_date":"2025-09-05"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/"+invoice.ID+"/pay", strings.NewReader(payBody))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}
}

func TestInvoiceHandlerUnknownInvoice(t *testing.T) {
	handler, _ := setupHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/invoices/missing", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
