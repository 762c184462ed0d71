package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	billing "github.com/VitorRandrade/monetary-mind-71177-sub000/internal/billing/domain"
)

const defaultPurchaseTable = "card_purchases"

// PurchaseRepository is a Postgres purchase line store.
type PurchaseRepository struct {
	db    *sql.DB
	table string
}

// NewPurchaseRepository constructs a repository.
func NewPurchaseRepository(db *sql.DB, opts ...PurchaseOption) *PurchaseRepository {
	repo := &PurchaseRepository{db: db, table: defaultPurchaseTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// PurchaseOption configures the repository.
type PurchaseOption func(*PurchaseRepository)

// WithPurchaseTable overrides the table name.
func WithPurchaseTable(table string) PurchaseOption {
	return func(repo *PurchaseRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Insert stores a purchase line.
func (r *PurchaseRepository) Insert(ctx context.Context, purchase *billing.Purchase) error {
	if r == nil || r.db == nil {
		return errors.New("purchase repo: nil db")
	}
	if purchase == nil {
		return billing.ErrNonPositiveAmount
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	id, card_id, competency, description, amount,
	purchase_date, category_id, installment_seq, installment_total
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`, r.table)

	_, err := r.db.ExecContext(ctx, query,
		purchase.ID,
		purchase.CardID,
		purchase.Competency.String(),
		purchase.Description,
		purchase.Amount.String(),
		purchase.PurchaseDate.UTC(),
		purchase.CategoryID,
		purchase.InstallmentSeq,
		purchase.InstallmentTotal,
	)
	return err
}

// ListByCardAndCompetency returns the purchase lines of a billing cycle,
// ordered by purchase date.
func (r *PurchaseRepository) ListByCardAndCompetency(ctx context.Context, cardID string, competency billing.Competency) ([]*billing.Purchase, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("purchase repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT id, card_id, competency, description, amount,
	purchase_date, category_id, installment_seq, installment_total
FROM %s
WHERE card_id = $1 AND competency = $2
ORDER BY purchase_date ASC, installment_seq ASC`, r.table)

	rows, err := r.db.QueryContext(ctx, query, cardID, competency.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*billing.Purchase
	for rows.Next() {
		purchase, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, purchase)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// SumByCardAndCompetency totals the purchase lines of a billing cycle.
// The sum is computed in SQL so closing an invoice reads one row.
func (r *PurchaseRepository) SumByCardAndCompetency(ctx context.Context, cardID string, competency billing.Competency) (decimal.Decimal, error) {
	if r == nil || r.db == nil {
		return decimal.Zero, errors.New("purchase repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT COALESCE(SUM(amount), 0)
FROM %s
WHERE card_id = $1 AND competency = $2`, r.table)

	var sum string
	if err := r.db.QueryRowContext(ctx, query, cardID, competency.String()).Scan(&sum); err != nil {
		return decimal.Zero, err
	}
	parsed, err := decimal.NewFromString(sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("purchase repo: parse sum: %w", err)
	}
	return parsed, nil
}

func scanPurchase(row rowScanner) (*billing.Purchase, error) {
	var purchase billing.Purchase
	var competency string
	var amount string
	if err := row.Scan(
		&purchase.ID,
		&purchase.CardID,
		&competency,
		&purchase.Description,
		&amount,
		&purchase.PurchaseDate,
		&purchase.CategoryID,
		&purchase.InstallmentSeq,
		&purchase.InstallmentTotal,
	); err != nil {
		return nil, err
	}
	parsed, err := billing.ParseCompetency(competency)
	if err != nil {
		return nil, fmt.Errorf("purchase repo: parse competency: %w", err)
	}
	purchase.Competency = parsed
	if purchase.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("purchase repo: parse amount: %w", err)
	}
	return &purchase, nil
}
