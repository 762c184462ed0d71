package eventing

import (
	"context"
	"errors"
)

// OutboxWriter appends envelopes to the outbox.
type OutboxWriter interface {
	Insert(ctx context.Context, env Envelope) error
}

// Publisher seals events into envelopes and appends them to the outbox.
// The outbox write is the durable step; delivery happens via Dispatch.
type Publisher struct {
	outbox   OutboxWriter
	dispatch *Dispatcher
}

// NewPublisher constructs a publisher. The dispatcher is optional; without
// it, delivery waits for the background dispatch loop.
func NewPublisher(outbox OutboxWriter, dispatch *Dispatcher) (*Publisher, error) {
	if outbox == nil {
		return nil, errors.New("eventing: publisher needs an outbox")
	}
	return &Publisher{outbox: outbox, dispatch: dispatch}, nil
}

// Publish seals the event and appends it to the outbox. The trailing
// dispatch is a best-effort nudge that drains the oldest pending record,
// which is not necessarily this one; an error here is not a publish
// failure, the record stays pending and the dispatch loop retries it.
func (p *Publisher) Publish(ctx context.Context, event any) error {
	env, err := Seal(event)
	if err != nil {
		return err
	}
	if err := p.outbox.Insert(ctx, env); err != nil {
		return err
	}
	if p.dispatch != nil {
		_, _ = p.dispatch.Dispatch(ctx, 1)
	}
	return nil
}
