package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/VitorRandrade/monetary-mind-71177-sub000/internal/eventing"
)

// EventStore persists the event outbox and its dead letter queue.
// Quarantining a record fails the outbox row and parks the envelope in
// the dead letter table in one transaction, so a record is never lost
// between the two.
type EventStore struct {
	db *sql.DB
}

// NewEventStore constructs an event store.
func NewEventStore(db *sql.DB) (*EventStore, error) {
	if db == nil {
		return nil, errors.New("event store: nil db")
	}
	return &EventStore{db: db}, nil
}

// Insert appends an envelope to the outbox as pending.
func (s *EventStore) Insert(ctx context.Context, env eventing.Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO event_outbox (id, event_id, event_type, payload, status, attempts)
VALUES ($1, $2, $3, $4, 'pending', 0)
ON CONFLICT (id) DO NOTHING`,
		uuid.NewString(), env.EventID, env.EventType, payload)
	return err
}

// ListPending returns up to limit pending records, oldest first.
func (s *EventStore) ListPending(ctx context.Context, limit int) ([]eventing.OutboxRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, payload
FROM event_outbox
WHERE status = 'pending'
ORDER BY created_at ASC
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []eventing.OutboxRecord
	for rows.Next() {
		var (
			id      string
			payload []byte
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, err
		}
		var env eventing.Envelope
		if err := json.Unmarshal(payload, &env); err != nil {
			return nil, err
		}
		records = append(records, eventing.OutboxRecord{ID: id, Envelope: env})
	}
	return records, rows.Err()
}

// MarkSent retires a delivered outbox record.
func (s *EventStore) MarkSent(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
UPDATE event_outbox
SET status = 'sent', sent_at = $1
WHERE id = $2`, time.Now().UTC(), id)
	return err
}

// Quarantine fails an outbox record and records the envelope in the dead
// letter queue. Repeat failures of the same event bump the attempt count
// and keep the latest cause.
func (s *EventStore) Quarantine(ctx context.Context, id string, env eventing.Envelope, cause error) error {
	if env.EventID == "" {
		return errors.New("event store: quarantine without event id")
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}
	message := ""
	if cause != nil {
		message = cause.Error()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
UPDATE event_outbox
SET status = 'failed', attempts = attempts + 1
WHERE id = $1`, id); err != nil {
		return err
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `
INSERT INTO dead_letter_events (event_id, event_type, payload, error, first_seen_at, last_seen_at, attempts)
VALUES ($1, $2, $3, $4, $5, $5, 1)
ON CONFLICT (event_id) DO UPDATE SET
	payload = EXCLUDED.payload,
	error = EXCLUDED.error,
	last_seen_at = EXCLUDED.last_seen_at,
	attempts = dead_letter_events.attempts + 1`,
		env.EventID, env.EventType, payload, message, now); err != nil {
		return err
	}

	return tx.Commit()
}
