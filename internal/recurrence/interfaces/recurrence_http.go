package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/VitorRandrade/monetary-mind-71177-sub000/internal/audit"
	"github.com/VitorRandrade/monetary-mind-71177-sub000/internal/auth"
	"github.com/VitorRandrade/monetary-mind-71177-sub000/internal/calendar"
	ledger "github.com/VitorRandrade/monetary-mind-71177-sub000/internal/ledger/domain"
	"github.com/VitorRandrade/monetary-mind-71177-sub000/internal/recurrence/application"
	recurrence "github.com/VitorRandrade/monetary-mind-71177-sub000/internal/recurrence/domain"
)

const dateLayout = "2006-01-02"

// RecurrenceStore is the persistence surface the handler needs.
type RecurrenceStore interface {
	Save(ctx context.Context, rec *recurrence.Recurrence) error
	GetByID(ctx context.Context, id string) (*recurrence.Recurrence, error)
	ListActive(ctx context.Context) ([]*recurrence.Recurrence, error)
}

// RecurrenceHandler handles recurrence APIs.
type RecurrenceHandler struct {
	store       RecurrenceStore
	projector   *application.Projector
	auditLogger audit.Logger
	clock       application.Clock
}

// NewRecurrenceHandler constructs a handler.
func NewRecurrenceHandler(store RecurrenceStore, projector *application.Projector, auditLogger audit.Logger, clock application.Clock) (*RecurrenceHandler, error) {
	if store == nil {
		return nil, errors.New("recurrence handler: nil store")
	}
	if projector == nil {
		return nil, errors.New("recurrence handler: nil projector")
	}
	if clock == nil {
		return nil, errors.New("recurrence handler: nil clock")
	}
	return &RecurrenceHandler{store: store, projector: projector, auditLogger: auditLogger, clock: clock}, nil
}

// ServeHTTP handles recurrence routes under /api/v1/recurrences.
func (h *RecurrenceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == "/api/v1/recurrences" {
		switch r.Method {
		case http.MethodGet:
			h.handleList(w, r)
		case http.MethodPost:
			h.handleCreate(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}
	if path == "/api/v1/recurrences/expand" && r.Method == http.MethodPost {
		h.handleExpandAll(w, r)
		return
	}
	if strings.HasPrefix(path, "/api/v1/recurrences/") {
		rest := strings.TrimPrefix(path, "/api/v1/recurrences/")
		h.handleByID(w, r, rest)
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *RecurrenceHandler) handleByID(w http.ResponseWriter, r *http.Request, rest string) {
	if rest == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	parts := strings.Split(rest, "/")
	id := parts[0]
	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.handleGet(w, r, id)
			return
		case http.MethodDelete:
			h.handleDelete(w, r, id)
			return
		}
	}
	if len(parts) == 2 && r.Method == http.MethodPost {
		switch parts[1] {
		case "expand":
			h.handleExpand(w, r, id)
			return
		case "pause":
			h.handleSetPaused(w, r, id, true)
			return
		case "resume":
			h.handleSetPaused(w, r, id, false)
			return
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *RecurrenceHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Direction   string `json:"direction"`
		Amount      string `json:"amount"`
		Description string `json:"description"`
		AccountID   string `json:"account_id"`
		CategoryID  string `json:"category_id"`
		Frequency   string `json:"frequency"`
		StartDate   string `json:"start_date"`
		EndDate     string `json:"end_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	direction := ledger.Direction(req.Direction)
	if !direction.Valid() {
		http.Error(w, "direction must be credit or debit", http.StatusBadRequest)
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		http.Error(w, "amount must be a positive decimal string", http.StatusBadRequest)
		return
	}
	frequency, ok := calendar.ParseFrequency(req.Frequency)
	if !ok {
		http.Error(w, "frequency must be weekly, monthly or yearly", http.StatusBadRequest)
		return
	}
	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		http.Error(w, "start_date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	var endDate *time.Time
	if req.EndDate != "" {
		parsed, err := time.Parse(dateLayout, req.EndDate)
		if err != nil {
			http.Error(w, "end_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		if parsed.Before(startDate) {
			http.Error(w, "end_date must not precede start_date", http.StatusBadRequest)
			return
		}
		endDate = &parsed
	}

	now := h.clock.Now().UTC()
	rec := &recurrence.Recurrence{
		ID:          uuid.NewString(),
		Direction:   direction,
		Amount:      amount,
		Description: req.Description,
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		Frequency:   frequency,
		StartDate:   startDate,
		EndDate:     endDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.store.Save(r.Context(), rec); err != nil {
		http.Error(w, "save recurrence error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(newRecurrenceView(rec))
	h.logAudit(r, rec.ID, "recurrence.create", map[string]any{
		"frequency": string(frequency),
		"amount":    amount.StringFixed(2),
	})
}

func (h *RecurrenceHandler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.ListActive(r.Context())
	if err != nil {
		http.Error(w, "list recurrences error", http.StatusInternalServerError)
		return
	}
	resp := make([]recurrenceView, 0, len(list))
	for _, rec := range list {
		resp = append(resp, newRecurrenceView(rec))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *RecurrenceHandler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	rec, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		http.Error(w, "get recurrence error", http.StatusInternalServerError)
		return
	}
	if rec == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(newRecurrenceView(rec))
}

func (h *RecurrenceHandler) handleSetPaused(w http.ResponseWriter, r *http.Request, id string, paused bool) {
	rec, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		http.Error(w, "get recurrence error", http.StatusInternalServerError)
		return
	}
	if rec == nil || rec.Deleted {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	rec.Paused = paused
	rec.UpdatedAt = h.clock.Now().UTC()
	if err := h.store.Save(r.Context(), rec); err != nil {
		http.Error(w, "save recurrence error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(newRecurrenceView(rec))
	action := "recurrence.pause"
	if !paused {
		action = "recurrence.resume"
	}
	h.logAudit(r, rec.ID, action, nil)
}

// handleDelete soft-deletes: the definition stays so already-projected
// forecast entries keep their origin tag lineage.
func (h *RecurrenceHandler) handleDelete(w http.ResponseWriter, r *http.Request, id string) {
	rec, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		http.Error(w, "get recurrence error", http.StatusInternalServerError)
		return
	}
	if rec == nil || rec.Deleted {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	rec.Deleted = true
	rec.UpdatedAt = h.clock.Now().UTC()
	if err := h.store.Save(r.Context(), rec); err != nil {
		http.Error(w, "save recurrence error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
	h.logAudit(r, rec.ID, "recurrence.delete", nil)
}

func (h *RecurrenceHandler) handleExpand(w http.ResponseWriter, r *http.Request, id string) {
	result, err := h.projector.ExpandByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, recurrence.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, "expand error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(newSweepView(result))
	h.logAudit(r, id, "recurrence.expand", map[string]any{
		"emitted": result.Emitted,
		"skipped": result.Skipped,
	})
}

func (h *RecurrenceHandler) handleExpandAll(w http.ResponseWriter, r *http.Request) {
	results, err := h.projector.ExpandAll(r.Context())
	views := make([]sweepView, 0, len(results))
	for _, result := range results {
		views = append(views, newSweepView(result))
	}
	status := http.StatusOK
	if err != nil {
		// Partial failure still reports the sweeps that ran.
		status = http.StatusMultiStatus
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"results": views,
		"error":   errString(err),
	})
	h.logAudit(r, "", "recurrence.expand_all", map[string]any{
		"count": len(results),
	})
}

func (h *RecurrenceHandler) logAudit(r *http.Request, recurrenceID, action string, meta map[string]any) {
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
		ResourceType: "recurrence",
		ResourceID:   recurrenceID,
		Metadata:     payload,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

type recurrenceView struct {
	ID             string `json:"id"`
	Direction      string `json:"direction"`
	Amount         string `json:"amount"`
	Description    string `json:"description"`
	AccountID      string `json:"account_id"`
	CategoryID     string `json:"category_id,omitempty"`
	Frequency      string `json:"frequency"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date,omitempty"`
	NextOccurrence string `json:"next_occurrence,omitempty"`
	Paused         bool   `json:"paused"`
}

func newRecurrenceView(rec *recurrence.Recurrence) recurrenceView {
	view := recurrenceView{
		ID:          rec.ID,
		Direction:   string(rec.Direction),
		Amount:      rec.Amount.StringFixed(2),
		Description: rec.Description,
		AccountID:   rec.AccountID,
		CategoryID:  rec.CategoryID,
		Frequency:   string(rec.Frequency),
		StartDate:   rec.StartDate.Format(dateLayout),
		Paused:      rec.Paused,
	}
	if rec.EndDate != nil && !rec.EndDate.IsZero() {
		view.EndDate = rec.EndDate.Format(dateLayout)
	}
	if rec.NextOccurrence != nil && !rec.NextOccurrence.IsZero() {
		view.NextOccurrence = rec.NextOccurrence.Format(dateLayout)
	}
	return view
}

type sweepView struct {
	RecurrenceID string `json:"recurrence_id"`
	Emitted      int    `json:"emitted"`
	Skipped      int    `json:"skipped"`
	Cursor       string `json:"cursor,omitempty"`
}

func newSweepView(result application.SweepResult) sweepView {
	view := sweepView{
		RecurrenceID: result.RecurrenceID,
		Emitted:      result.Emitted,
		Skipped:      result.Skipped,
	}
	if !result.Cursor.IsZero() {
		view.Cursor = result.Cursor.Format(dateLayout)
	}
	return view
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
