package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	billing "github.com/VitorRandrade/monetary-mind-71177-sub000/internal/billing/domain"
)

const defaultInvoiceTable = "card_invoices"

// InvoiceRepository is a Postgres invoice store. The table carries a
// unique index on (card_id, competency), so implicit invoice creation
// cannot duplicate a billing cycle under concurrent writers.
type InvoiceRepository struct {
	db    *sql.DB
	table string
}

// NewInvoiceRepository constructs a repository.
func NewInvoiceRepository(db *sql.DB, opts ...InvoiceOption) *InvoiceRepository {
	repo := &InvoiceRepository{db: db, table: defaultInvoiceTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// InvoiceOption configures the repository.
type InvoiceOption func(*InvoiceRepository)

// WithInvoiceTable overrides the table name.
func WithInvoiceTable(table string) InvoiceOption {
	return func(repo *InvoiceRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Save upserts an invoice.
func (r *InvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	if r == nil || r.db == nil {
		return errors.New("invoice repo: nil db")
	}
	if invoice == nil {
		return billing.ErrInvoiceNotFound
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	id, card_id, competency, status, due_date,
	closed_amount, paid_amount, paid_date, paid_from_id,
	created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id) DO UPDATE SET
	status = EXCLUDED.status,
	closed_amount = EXCLUDED.closed_amount,
	paid_amount = EXCLUDED.paid_amount,
	paid_date = EXCLUDED.paid_date,
	paid_from_id = EXCLUDED.paid_from_id,
	updated_at = EXCLUDED.updated_at`, r.table)

	var paidDate any
	if !invoice.PaidDate.IsZero() {
		paidDate = invoice.PaidDate.UTC()
	}
	_, err := r.db.ExecContext(ctx, query,
		invoice.ID,
		invoice.CardID,
		invoice.Competency.String(),
		invoice.Status,
		invoice.DueDate.UTC(),
		invoice.ClosedAmount.String(),
		invoice.PaidAmount.String(),
		paidDate,
		invoice.PaidFromID,
		invoice.CreatedAt.UTC(),
		invoice.UpdatedAt.UTC(),
	)
	return err
}

// GetByID returns an invoice, or nil when absent.
func (r *InvoiceRepository) GetByID(ctx context.Context, id string) (*billing.Invoice, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("invoice repo: nil db")
	}
	query := fmt.Sprintf(`%s WHERE id = $1`, selectInvoice(r.table))
	invoice, err := scanInvoice(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return invoice, nil
}

// FindByCardAndCompetency returns the invoice of a billing cycle, or nil.
func (r *InvoiceRepository) FindByCardAndCompetency(ctx context.Context, cardID string, competency billing.Competency) (*billing.Invoice, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("invoice repo: nil db")
	}
	query := fmt.Sprintf(`%s WHERE card_id = $1 AND competency = $2`, selectInvoice(r.table))
	invoice, err := scanInvoice(r.db.QueryRowContext(ctx, query, cardID, competency.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return invoice, nil
}

// ListByCard returns all invoices of a card, newest competency first.
func (r *InvoiceRepository) ListByCard(ctx context.Context, cardID string) ([]*billing.Invoice, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("invoice repo: nil db")
	}
	query := fmt.Sprintf(`%s WHERE card_id = $1 ORDER BY competency DESC`, selectInvoice(r.table))
	rows, err := r.db.QueryContext(ctx, query, cardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*billing.Invoice
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, invoice)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// CountOpen returns the number of open invoices, for gauges.
func (r *InvoiceRepository) CountOpen(ctx context.Context) (int, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("invoice repo: nil db")
	}
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE status = $1`, r.table)
	var count int
	if err := r.db.QueryRowContext(ctx, query, billing.InvoiceStatusOpen).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func selectInvoice(table string) string {
	return fmt.Sprintf(`
SELECT id, card_id, competency, status, due_date,
	closed_amount, paid_amount, paid_date, paid_from_id,
	created_at, updated_at
FROM %s`, table)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (*billing.Invoice, error) {
	var invoice billing.Invoice
	var competency string
	var closedAmount, paidAmount string
	var paidDate sql.NullTime
	if err := row.Scan(
		&invoice.ID,
		&invoice.CardID,
		&competency,
		&invoice.Status,
		&invoice.DueDate,
		&closedAmount,
		&paidAmount,
		&paidDate,
		&invoice.PaidFromID,
		&invoice.CreatedAt,
		&invoice.UpdatedAt,
	); err != nil {
		return nil, err
	}
	parsed, err := billing.ParseCompetency(competency)
	if err != nil {
		return nil, fmt.Errorf("invoice repo: parse competency: %w", err)
	}
	invoice.Competency = parsed
	if invoice.ClosedAmount, err = decimal.NewFromString(closedAmount); err != nil {
		return nil, fmt.Errorf("invoice repo: parse closed amount: %w", err)
	}
	if invoice.PaidAmount, err = decimal.NewFromString(paidAmount); err != nil {
		return nil, fmt.Errorf("invoice repo: parse paid amount: %w", err)
	}
	if paidDate.Valid {
		invoice.PaidDate = paidDate.Time.UTC()
	} else {
		invoice.PaidDate = time.Time{}
	}
	return &invoice, nil
}
