package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ProcessedStore remembers delivered events per consumer so redelivered
// outbox records do not run a consumer twice.
type ProcessedStore struct {
	db *sql.DB
}

// NewProcessedStore constructs a processed-events store.
func NewProcessedStore(db *sql.DB) (*ProcessedStore, error) {
	if db == nil {
		return nil, errors.New("processed store: nil db")
	}
	return &ProcessedStore{db: db}, nil
}

// HasProcessed reports whether the consumer already handled the event.
func (s *ProcessedStore) HasProcessed(ctx context.Context, eventID, consumerName string) (bool, error) {
	if eventID == "" || consumerName == "" {
		return false, errors.New("processed store: event id and consumer name required")
	}
	var exists bool
	err := s.db.QueryRowContext(ctx, `
SELECT EXISTS (
	SELECT 1 FROM processed_events WHERE event_id = $1 AND consumer_name = $2
)`, eventID, consumerName).Scan(&exists)
	return exists, err
}

// MarkProcessed records that the consumer handled the event.
func (s *ProcessedStore) MarkProcessed(ctx context.Context, eventID, consumerName string) error {
	if eventID == "" || consumerName == "" {
		return errors.New("processed store: event id and consumer name required")
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO processed_events (event_id, consumer_name, processed_at)
VALUES ($1, $2, $3)
ON CONFLICT (event_id, consumer_name) DO NOTHING`,
		eventID, consumerName, time.Now().UTC())
	return err
}
