package eventing

import (
	"context"
	"fmt"

	"github.com/VitorRandrade/monetary-mind-71177-sub000/internal/eventing/eventbus"
)

// ProcessedStore remembers which events each consumer already handled.
type ProcessedStore interface {
	HasProcessed(ctx context.Context, eventID, consumerName string) (bool, error)
	MarkProcessed(ctx context.Context, eventID, consumerName string) error
}

// Subscribe registers a typed handler for events of type T. When a store
// is given the handler becomes idempotent per consumer: redelivered
// outbox events are acknowledged without running it again. Events
// published straight onto the bus carry no envelope and skip the check.
func Subscribe[T any](bus eventbus.EventBus, consumerName string, handler func(ctx context.Context, event T) error, store ProcessedStore) {
	bus.Subscribe(eventbus.EventTypeOf[T](), func(ctx context.Context, event any) error {
		typed, ok := event.(T)
		if !ok {
			return fmt.Errorf("eventing: consumer %s: unexpected event %T", consumerName, event)
		}

		env, delivered := EnvelopeFromContext(ctx)
		if store == nil || !delivered || env.EventID == "" {
			return handler(ctx, typed)
		}

		done, err := store.HasProcessed(ctx, env.EventID, consumerName)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if err := handler(ctx, typed); err != nil {
			return err
		}
		return store.MarkProcessed(ctx, env.EventID, consumerName)
	})
}
