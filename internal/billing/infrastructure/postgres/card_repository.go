package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	billing "github.com/VitorRandrade/monetary-mind-71177-sub000/internal/billing/domain"
)

const defaultCardTable = "credit_cards"

// CardRepository is a Postgres credit card store.
type CardRepository struct {
	db    *sql.DB
	table string
}

// NewCardRepository constructs a repository.
func NewCardRepository(db *sql.DB, opts ...CardOption) *CardRepository {
	repo := &CardRepository{db: db, table: defaultCardTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// CardOption configures the repository.
type CardOption func(*CardRepository)

// WithCardTable overrides the table name.
func WithCardTable(table string) CardOption {
	return func(repo *CardRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Save upserts a card.
func (r *CardRepository) Save(ctx context.Context, card *billing.CreditCard) error {
	if r == nil || r.db == nil {
		return errors.New("card repo: nil db")
	}
	if err := card.Validate(); err != nil {
		return err
	}
	query := fmt.Sprintf(`
INSERT INTO %s (id, nickname, brand, credit_limit, closing_day, due_day, paying_account_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
	nickname = EXCLUDED.nickname,
	brand = EXCLUDED.brand,
	credit_limit = EXCLUDED.credit_limit,
	closing_day = EXCLUDED.closing_day,
	due_day = EXCLUDED.due_day,
	paying_account_id = EXCLUDED.paying_account_id`, r.table)

	_, err := r.db.ExecContext(ctx, query,
		card.ID,
		card.Nickname,
		card.Brand,
		card.Limit.String(),
		card.ClosingDay,
		card.DueDay,
		card.PayingAccountID,
	)
	return err
}

// GetByID returns a card, or nil when absent.
func (r *CardRepository) GetByID(ctx context.Context, id string) (*billing.CreditCard, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("card repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT id, nickname, brand, credit_limit, closing_day, due_day, paying_account_id
FROM %s
WHERE id = $1`, r.table)

	card, err := scanCard(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return card, nil
}

// List returns all cards.
func (r *CardRepository) List(ctx context.Context) ([]*billing.CreditCard, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("card repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT id, nickname, brand, credit_limit, closing_day, due_day, paying_account_id
FROM %s
ORDER BY nickname ASC`, r.table)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*billing.CreditCard
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, card)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanCard(row rowScanner) (*billing.CreditCard, error) {
	var card billing.CreditCard
	var limit string
	if err := row.Scan(
		&card.ID,
		&card.Nickname,
		&card.Brand,
		&limit,
		&card.ClosingDay,
		&card.DueDay,
		&card.PayingAccountID,
	); err != nil {
		return nil, err
	}
	parsed, err := decimal.NewFromString(limit)
	if err != nil {
		return nil, fmt.Errorf("card repo: parse limit: %w", err)
	}
	card.Limit = parsed
	return &card, nil
}
