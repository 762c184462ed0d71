package eventing

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/VitorRandrade/monetary-mind-71177-sub000/internal/eventing/eventbus"
)

// Registry decodes outbox payloads back into the concrete event types the
// application registered at startup. An envelope whose type was never
// registered cannot be delivered and belongs in the dead letter queue.
type Registry struct {
	mu       sync.RWMutex
	decoders map[string]func(json.RawMessage) (any, error)
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{decoders: make(map[string]func(json.RawMessage) (any, error))}
}

// RegisterType makes envelopes of type T decodable.
func RegisterType[T any](r *Registry) {
	name := eventbus.EventTypeOf[T]()
	r.mu.Lock()
	r.decoders[name] = func(raw json.RawMessage) (any, error) {
		var event T
		if err := json.Unmarshal(raw, &event); err != nil {
			return nil, fmt.Errorf("eventing: decode %s: %w", name, err)
		}
		return event, nil
	}
	r.mu.Unlock()
}

// Decode turns an envelope payload back into its registered event value.
func (r *Registry) Decode(env Envelope) (any, error) {
	r.mu.RLock()
	decode := r.decoders[env.EventType]
	r.mu.RUnlock()
	if decode == nil {
		return nil, fmt.Errorf("eventing: no decoder registered for %q", env.EventType)
	}
	return decode(env.Payload)
}
