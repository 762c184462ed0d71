package eventing

import (
	"context"
	"errors"
)

// EventStore is the outbox surface the dispatcher drains. Quarantine
// retires a record that cannot be delivered and parks its envelope in the
// dead letter queue in the same transaction.
type EventStore interface {
	ListPending(ctx context.Context, limit int) ([]OutboxRecord, error)
	MarkSent(ctx context.Context, id string) error
	Quarantine(ctx context.Context, id string, env Envelope, cause error) error
}

// EventBus is the minimal publish surface the dispatcher delivers to.
type EventBus interface {
	Publish(ctx context.Context, event any) error
}

// OutboxRecord is one pending outbox row.
type OutboxRecord struct {
	ID       string
	Envelope Envelope
}

// Dispatcher drains pending outbox records onto the in-process bus,
// oldest first. A record that fails to decode or to deliver is
// quarantined rather than retried forever.
type Dispatcher struct {
	bus      EventBus
	store    EventStore
	registry *Registry
}

// NewDispatcher constructs a dispatcher.
func NewDispatcher(bus EventBus, store EventStore, registry *Registry) (*Dispatcher, error) {
	if bus == nil {
		return nil, errors.New("eventing: dispatcher needs a bus")
	}
	if store == nil {
		return nil, errors.New("eventing: dispatcher needs an event store")
	}
	if registry == nil {
		return nil, errors.New("eventing: dispatcher needs a registry")
	}
	return &Dispatcher{bus: bus, store: store, registry: registry}, nil
}

// Dispatch delivers up to limit pending records and reports how many went
// out. Quarantined records do not count as delivered and do not stop the
// batch.
func (d *Dispatcher) Dispatch(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = 50
	}
	records, err := d.store.ListPending(ctx, limit)
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, record := range records {
		event, err := d.registry.Decode(record.Envelope)
		if err != nil {
			_ = d.store.Quarantine(ctx, record.ID, record.Envelope, err)
			continue
		}
		if err := d.bus.Publish(WithEnvelope(ctx, record.Envelope), event); err != nil {
			_ = d.store.Quarantine(ctx, record.ID, record.Envelope, err)
			continue
		}
		if err := d.store.MarkSent(ctx, record.ID); err != nil {
			return delivered, err
		}
		delivered++
	}
	return delivered, nil
}
