package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/VitorRandrade/monetary-mind-71177-sub000/internal/calendar"
	ledger "github.com/VitorRandrade/monetary-mind-71177-sub000/internal/ledger/domain"
	recurrence "github.com/VitorRandrade/monetary-mind-71177-sub000/internal/recurrence/domain"
)

const defaultRecurrenceTable = "recurrences"

// Repository is a Postgres implementation of the recurrence store.
type Repository struct {
	db    *sql.DB
	table string
}

// NewRepository constructs a repository.
func NewRepository(db *sql.DB, opts ...Option) *Repository {
	repo := &Repository{db: db, table: defaultRecurrenceTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// Option configures the repository.
type Option func(*Repository)

// WithTable overrides the table name.
func WithTable(table string) Option {
	return func(repo *Repository) {
		if table != "" {
			repo.table = table
		}
	}
}

const recurrenceColumns = `id, direction, amount, description, account_id, category_id, frequency, start_date, end_date, next_occurrence, paused, deleted, created_at, updated_at`

// Save upserts a recurrence definition.
func (r *Repository) Save(ctx context.Context, rec *recurrence.Recurrence) error {
	if r == nil || r.db == nil {
		return errors.New("recurrence repo: nil db")
	}
	if rec == nil {
		return recurrence.ErrNilRecurrence
	}

	query := fmt.Sprintf(`
INSERT INTO %s (%s)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
ON CONFLICT (id)
DO UPDATE SET
	direction = EXCLUDED.direction,
	amount = EXCLUDED.amount,
	description = EXCLUDED.description,
	account_id = EXCLUDED.account_id,
	category_id = EXCLUDED.category_id,
	frequency = EXCLUDED.frequency,
	start_date = EXCLUDED.start_date,
	end_date = EXCLUDED.end_date,
	next_occurrence = EXCLUDED.next_occurrence,
	paused = EXCLUDED.paused,
	deleted = EXCLUDED.deleted,
	updated_at = EXCLUDED.updated_at`, r.table, recurrenceColumns)

	var endDate, nextOccurrence any
	if rec.EndDate != nil {
		endDate = rec.EndDate.UTC()
	}
	if rec.NextOccurrence != nil {
		nextOccurrence = rec.NextOccurrence.UTC()
	}

	_, err := r.db.ExecContext(ctx, query,
		rec.ID,
		string(rec.Direction),
		rec.Amount.String(),
		rec.Description,
		rec.AccountID,
		rec.CategoryID,
		string(rec.Frequency),
		rec.StartDate.UTC(),
		endDate,
		nextOccurrence,
		rec.Paused,
		rec.Deleted,
		rec.CreatedAt.UTC(),
		rec.UpdatedAt.UTC(),
	)
	return err
}

// GetByID loads a recurrence, nil when absent.
func (r *Repository) GetByID(ctx context.Context, id string) (*recurrence.Recurrence, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("recurrence repo: nil db")
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1 LIMIT 1`, recurrenceColumns, r.table)
	rec, err := scanRecurrence(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

// ListActive returns recurrences that are neither paused nor soft-deleted.
func (r *Repository) ListActive(ctx context.Context) ([]*recurrence.Recurrence, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("recurrence repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT %s FROM %s
WHERE paused = FALSE AND deleted = FALSE
ORDER BY created_at ASC`, recurrenceColumns, r.table)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*recurrence.Recurrence
	for rows.Next() {
		rec, err := scanRecurrence(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// SaveNextOccurrence advances the stored projection cursor.
func (r *Repository) SaveNextOccurrence(ctx context.Context, id string, next time.Time) error {
	if r == nil || r.db == nil {
		return errors.New("recurrence repo: nil db")
	}
	query := fmt.Sprintf(`
UPDATE %s
SET next_occurrence = $1, updated_at = $2
WHERE id = $3`, r.table)
	result, err := r.db.ExecContext(ctx, query, next.UTC(), time.Now().UTC(), id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return recurrence.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecurrence(row rowScanner) (*recurrence.Recurrence, error) {
	var rec recurrence.Recurrence
	var direction, amount, frequency string
	var endDate, nextOccurrence sql.NullTime
	if err := row.Scan(
		&rec.ID,
		&direction,
		&amount,
		&rec.Description,
		&rec.AccountID,
		&rec.CategoryID,
		&frequency,
		&rec.StartDate,
		&endDate,
		&nextOccurrence,
		&rec.Paused,
		&rec.Deleted,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		return nil, err
	}
	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("recurrence repo: parse amount: %w", err)
	}
	rec.Direction = ledger.Direction(direction)
	rec.Amount = parsed
	rec.Frequency = calendar.Frequency(frequency)
	if endDate.Valid {
		t := endDate.Time
		rec.EndDate = &t
	}
	if nextOccurrence.Valid {
		t := nextOccurrence.Time
		rec.NextOccurrence = &t
	}
	return &rec, nil
}
