package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/VitorRandrade/monetary-mind-71177-sub000/internal/audit"
	"github.com/VitorRandrade/monetary-mind-71177-sub000/internal/auth"
	"github.com/VitorRandrade/monetary-mind-71177-sub000/internal/billing/application"
	billing "github.com/VitorRandrade/monetary-mind-71177-sub000/internal/billing/domain"
	"github.com/VitorRandrade/monetary-mind-71177-sub000/internal/observability/metrics"
)

const dateLayout = "2006-01-02"

// InvoiceHandler handles invoice APIs.
type InvoiceHandler struct {
	service     *application.InvoiceService
	auditLogger audit.Logger
}

// NewInvoiceHandler constructs a handler.
func NewInvoiceHandler(service *application.InvoiceService, auditLogger audit.Logger) (*InvoiceHandler, error) {
	if service == nil {
		return nil, errors.New("invoice handler: nil service")
	}
	return &InvoiceHandler{service: service, auditLogger: auditLogger}, nil
}

// ServeHTTP handles invoice routes under /api/v1/invoices.
func (h *InvoiceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == "/api/v1/invoices" && r.Method == http.MethodGet {
		h.handleList(w, r)
		return
	}
	if strings.HasPrefix(path, "/api/v1/invoices/") {
		rest := strings.TrimPrefix(path, "/api/v1/invoices/")
		h.handleByID(w, r, rest)
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *InvoiceHandler) handleList(w http.ResponseWriter, r *http.Request) {
	cardID := r.URL.Query().Get("card_id")
	if cardID == "" {
		http.Error(w, "card_id is required", http.StatusBadRequest)
		return
	}
	list, err := h.service.ListByCard(r.Context(), cardID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	resp := make([]invoiceView, 0, len(list))
	for _, invoice := range list {
		resp = append(resp, newInvoiceView(invoice))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *InvoiceHandler) handleByID(w http.ResponseWriter, r *http.Request, rest string) {
	if rest == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	parts := strings.Split(rest, "/")
	id := parts[0]
	if len(parts) == 1 && r.Method == http.MethodGet {
		h.handleGet(w, r, id)
		return
	}
	if len(parts) == 2 {
		switch parts[1] {
		case "close":
			if r.Method == http.MethodPost {
				h.handleClose(w, r, id)
				return
			}
		case "pay":
			if r.Method == http.MethodPost {
				h.handlePay(w, r, id)
				return
			}
		case "export.pdf":
			if r.Method == http.MethodGet {
				h.handleExportPDF(w, r, id)
				return
			}
		case "export.xlsx":
			if r.Method == http.MethodGet {
				h.handleExportXLSX(w, r, id)
				return
			}
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *InvoiceHandler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	invoice, items, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	usage, err := h.service.Usage(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	resp := struct {
		Invoice invoiceView    `json:"invoice"`
		Usage   string         `json:"usage"`
		Items   []purchaseView `json:"items"`
	}{Invoice: newInvoiceView(invoice), Usage: usage.StringFixed(2)}
	for _, item := range items {
		resp.Items = append(resp.Items, newPurchaseView(item))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *InvoiceHandler) handleClose(w http.ResponseWriter, r *http.Request, id string) {
	invoice, err := h.service.Close(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	resp := map[string]any{
		"invoice_id":    invoice.ID,
		"status":        invoice.Status,
		"closed_amount": invoice.ClosedAmount.StringFixed(2),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
	h.logAudit(r, invoice, "invoice.close", map[string]any{
		"closed_amount": invoice.ClosedAmount.StringFixed(2),
	})
}

func (h *InvoiceHandler) handlePay(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		PayingAccountID string `json:"paying_account_id"`
		Amount          string `json:"amount"`
		PaidDate        string `json:"paid_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		http.Error(w, "amount must be a decimal string", http.StatusBadRequest)
		return
	}
	paidDate, err := time.Parse(dateLayout, req.PaidDate)
	if err != nil {
		http.Error(w, "paid_date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	invoice, err := h.service.Pay(r.Context(), id, req.PayingAccountID, amount, paidDate)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	resp := map[string]any{
		"invoice_id":  invoice.ID,
		"status":      invoice.Status,
		"paid_amount": invoice.PaidAmount.StringFixed(2),
		"paid_date":   invoice.PaidDate.Format(dateLayout),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
	h.logAudit(r, invoice, "invoice.pay", map[string]any{
		"paid_amount":       invoice.PaidAmount.StringFixed(2),
		"paying_account_id": invoice.PaidFromID,
	})
}

func (h *InvoiceHandler) handleExportPDF(w http.ResponseWriter, r *http.Request, id string) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveInvoiceExport("pdf", result, time.Since(start))
	}()

	invoice, items, err := h.service.Get(r.Context(), id)
	if err != nil {
		result = metrics.ResultError
		respondServiceError(w, err)
		return
	}
	data, err := BuildInvoicePDF(invoice, items)
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "export pdf error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	h.logAudit(r, invoice, "invoice.export", map[string]any{"format": "pdf"})
}

func (h *InvoiceHandler) handleExportXLSX(w http.ResponseWriter, r *http.Request, id string) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveInvoiceExport("xlsx", result, time.Since(start))
	}()

	invoice, items, err := h.service.Get(r.Context(), id)
	if err != nil {
		result = metrics.ResultError
		respondServiceError(w, err)
		return
	}
	data, err := BuildInvoiceXLSX(invoice, items)
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "export xlsx error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	h.logAudit(r, invoice, "invoice.export", map[string]any{"format": "xlsx"})
}

func (h *InvoiceHandler) logAudit(r *http.Request, invoice *billing.Invoice, action string, meta map[string]any) {
	if h.auditLogger == nil {
		return
	}
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		return
	}
	payload, _ := json.Marshal(meta)
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		UserID:       userID,
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "invoice",
		ResourceID:   invoice.ID,
		CardID:       invoice.CardID,
		Metadata:     payload,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

type invoiceView struct {
	ID           string `json:"id"`
	CardID       string `json:"card_id"`
	Competency   string `json:"competency"`
	Status       string `json:"status"`
	DueDate      string `json:"due_date"`
	ClosedAmount string `json:"closed_amount"`
	PaidAmount   string `json:"paid_amount"`
	PaidDate     string `json:"paid_date,omitempty"`
	PaidFromID   string `json:"paid_from_id,omitempty"`
}

func newInvoiceView(invoice *billing.Invoice) invoiceView {
	view := invoiceView{
		ID:           invoice.ID,
		CardID:       invoice.CardID,
		Competency:   invoice.Competency.String(),
		Status:       invoice.Status,
		DueDate:      invoice.DueDate.Format(dateLayout),
		ClosedAmount: invoice.ClosedAmount.StringFixed(2),
		PaidAmount:   invoice.PaidAmount.StringFixed(2),
		PaidFromID:   invoice.PaidFromID,
	}
	if !invoice.PaidDate.IsZero() {
		view.PaidDate = invoice.PaidDate.Format(dateLayout)
	}
	return view
}

type purchaseView struct {
	ID               string `json:"id"`
	Description      string `json:"description"`
	Amount           string `json:"amount"`
	PurchaseDate     string `json:"purchase_date"`
	CategoryID       string `json:"category_id,omitempty"`
	InstallmentSeq   int    `json:"installment_seq"`
	InstallmentTotal int    `json:"installment_total"`
	Competency       string `json:"competency"`
}

func newPurchaseView(purchase *billing.Purchase) purchaseView {
	return purchaseView{
		ID:               purchase.ID,
		Description:      purchase.Description,
		Amount:           purchase.Amount.StringFixed(2),
		PurchaseDate:     purchase.PurchaseDate.Format(dateLayout),
		CategoryID:       purchase.CategoryID,
		InstallmentSeq:   purchase.InstallmentSeq,
		InstallmentTotal: purchase.InstallmentTotal,
		Competency:       purchase.Competency.String(),
	}
}
