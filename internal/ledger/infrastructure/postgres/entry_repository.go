package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	ledger "github.com/VitorRandrade/monetary-mind-71177-sub000/internal/ledger/domain"
)

const defaultEntryTable = "ledger_entries"

// EntryRepository is a Postgres implementation of the ledger store. The
// table carries a unique index on (origin_tag, due_date), so the
// de-duplication invariant holds even under concurrent sweeps.
type EntryRepository struct {
	db    *sql.DB
	table string
}

// NewEntryRepository constructs a repository.
func NewEntryRepository(db *sql.DB, opts ...EntryOption) *EntryRepository {
	repo := &EntryRepository{db: db, table: defaultEntryTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// EntryOption configures the repository.
type EntryOption func(*EntryRepository)

// WithEntryTable overrides the table name.
func WithEntryTable(table string) EntryOption {
	return func(repo *EntryRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Write inserts a ledger entry. A unique-constraint conflict on the
// de-duplication key maps to ledger.ErrDuplicateEntry.
func (r *EntryRepository) Write(ctx context.Context, entry *ledger.Entry) (*ledger.Entry, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("entry repo: nil db")
	}
	if entry == nil {
		return nil, ledger.ErrNilEntry
	}
	if !entry.Direction.Valid() {
		return nil, ledger.ErrInvalidDirection
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	direction,
	amount,
	description,
	account_id,
	category_id,
	entry_date,
	due_date,
	status,
	origin_tag,
	created_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
)`, r.table)

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		string(entry.Direction),
		entry.Amount.String(),
		entry.Description,
		entry.AccountID,
		entry.CategoryID,
		entry.Date.UTC(),
		entry.EffectiveDueDate().UTC(),
		entry.Status,
		entry.OriginTag,
		entry.CreatedAt.UTC(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ledger.ErrDuplicateEntry
		}
		return nil, err
	}
	stored := *entry
	stored.DueDate = entry.EffectiveDueDate()
	return &stored, nil
}

// FindByOriginAndDueDate returns the entry for a de-duplication key, or nil.
func (r *EntryRepository) FindByOriginAndDueDate(ctx context.Context, originTag string, dueDate time.Time) (*ledger.Entry, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("entry repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT id, direction, amount, description, account_id, category_id, entry_date, due_date, status, origin_tag, created_at
FROM %s
WHERE origin_tag = $1 AND due_date = $2
LIMIT 1`, r.table)

	row := r.db.QueryRowContext(ctx, query, originTag, dueDate.UTC())
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return entry, nil
}

// ListByOrigin returns all entries generated by one origin tag.
func (r *EntryRepository) ListByOrigin(ctx context.Context, originTag string) ([]*ledger.Entry, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("entry repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT id, direction, amount, description, account_id, category_id, entry_date, due_date, status, origin_tag, created_at
FROM %s
WHERE origin_tag = $1
ORDER BY due_date ASC`, r.table)

	rows, err := r.db.QueryContext(ctx, query, originTag)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*ledger.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*ledger.Entry, error) {
	var entry ledger.Entry
	var direction string
	var amount string
	if err := row.Scan(
		&entry.ID,
		&direction,
		&amount,
		&entry.Description,
		&entry.AccountID,
		&entry.CategoryID,
		&entry.Date,
		&entry.DueDate,
		&entry.Status,
		&entry.OriginTag,
		&entry.CreatedAt,
	); err != nil {
		return nil, err
	}
	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("entry repo: parse amount: %w", err)
	}
	entry.Direction = ledger.Direction(direction)
	entry.Amount = parsed
	return &entry, nil
}
