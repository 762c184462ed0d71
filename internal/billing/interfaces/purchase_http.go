package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/VitorRandrade/monetary-mind-71177-sub000/internal/audit"
	"github.com/VitorRandrade/monetary-mind-71177-sub000/internal/auth"
	"github.com/VitorRandrade/monetary-mind-71177-sub000/internal/billing/application"
	billing "github.com/VitorRandrade/monetary-mind-71177-sub000/internal/billing/domain"
)

// PurchaseHandler handles purchase recording.
type PurchaseHandler struct {
	service     *application.PurchaseService
	auditLogger audit.Logger
}

// NewPurchaseHandler constructs a handler.
func NewPurchaseHandler(service *application.PurchaseService, auditLogger audit.Logger) (*PurchaseHandler, error) {
	if service == nil {
		return nil, errors.New("purchase handler: nil service")
	}
	return &PurchaseHandler{service: service, auditLogger: auditLogger}, nil
}

// ServeHTTP handles POST /api/v1/purchases.
func (h *PurchaseHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		CardID       string `json:"card_id"`
		Description  string `json:"description"`
		TotalAmount  string `json:"total_amount"`
		PurchaseDate string `json:"purchase_date"`
		CategoryID   string `json:"category_id"`
		Kind         string `json:"kind"`
		Installments int    `json:"installments"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	amount, err := decimal.NewFromString(req.TotalAmount)
	if err != nil {
		http.Error(w, "total_amount must be a decimal string", http.StatusBadRequest)
		return
	}
	purchaseDate, err := time.Parse(dateLayout, req.PurchaseDate)
	if err != nil {
		http.Error(w, "purchase_date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	kind := billing.PurchaseKind(req.Kind)
	if kind == "" {
		kind = billing.PurchaseKindSimple
	}
	if kind != billing.PurchaseKindSimple && kind != billing.PurchaseKindInstallment {
		http.Error(w, "kind must be simple or installment", http.StatusBadRequest)
		return
	}
	installments := req.Installments
	if installments == 0 {
		installments = 1
	}

	purchases, err := h.service.Record(r.Context(), application.PurchaseRequest{
		CardID:       req.CardID,
		Description:  req.Description,
		TotalAmount:  amount,
		PurchaseDate: purchaseDate,
		CategoryID:   req.CategoryID,
		Kind:         kind,
		Installments: installments,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	resp := make([]purchaseView, 0, len(purchases))
	for i := range purchases {
		resp = append(resp, newPurchaseView(&purchases[i]))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(resp)
	h.logAudit(r, req.CardID, map[string]any{
		"total_amount": amount.StringFixed(2),
		"installments": installments,
		"kind":         string(kind),
	})
}

func (h *PurchaseHandler) logAudit(r *http.Request, cardID string, meta map[string]any) {
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
		Action:       "purchase.record",
		ResourceType: "purchase",
		CardID:       cardID,
		Metadata:     payload,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

// CardStore is the card persistence surface the handler needs.
type CardStore interface {
	Save(ctx context.Context, card *billing.CreditCard) error
	GetByID(ctx context.Context, id string) (*billing.CreditCard, error)
	List(ctx context.Context) ([]*billing.CreditCard, error)
}

// CardHandler handles card registration and listing.
type CardHandler struct {
	cards CardStore
}

// NewCardHandler constructs a handler.
func NewCardHandler(cards CardStore) (*CardHandler, error) {
	if cards == nil {
		return nil, errors.New("card handler: nil store")
	}
	return &CardHandler{cards: cards}, nil
}

// ServeHTTP handles /api/v1/cards.
func (h *CardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleList(w, r)
	case http.MethodPost:
		h.handleCreate(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *CardHandler) handleList(w http.ResponseWriter, r *http.Request) {
	cards, err := h.cards.List(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	resp := make([]cardView, 0, len(cards))
	for _, card := range cards {
		resp = append(resp, newCardView(card))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *CardHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Nickname        string `json:"nickname"`
		Brand           string `json:"brand"`
		Limit           string `json:"limit"`
		ClosingDay      int    `json:"closing_day"`
		DueDay          int    `json:"due_day"`
		PayingAccountID string `json:"paying_account_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	limit, err := decimal.NewFromString(req.Limit)
	if err != nil {
		http.Error(w, "limit must be a decimal string", http.StatusBadRequest)
		return
	}
	card := &billing.CreditCard{
		ID:              uuid.NewString(),
		Nickname:        req.Nickname,
		Brand:           req.Brand,
		Limit:           limit,
		ClosingDay:      req.ClosingDay,
		DueDay:          req.DueDay,
		PayingAccountID: req.PayingAccountID,
	}
	if err := h.cards.Save(r.Context(), card); err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(newCardView(card))
}

type cardView struct {
	ID              string `json:"id"`
	Nickname        string `json:"nickname"`
	Brand           string `json:"brand"`
	Limit           string `json:"limit"`
	ClosingDay      int    `json:"closing_day"`
	DueDay          int    `json:"due_day"`
	PayingAccountID string `json:"paying_account_id"`
}

func newCardView(card *billing.CreditCard) cardView {
	return cardView{
		ID:              card.ID,
		Nickname:        card.Nickname,
		Brand:           card.Brand,
		Limit:           card.Limit.StringFixed(2),
		ClosingDay:      card.ClosingDay,
		DueDay:          card.DueDay,
		PayingAccountID: card.PayingAccountID,
	}
}
