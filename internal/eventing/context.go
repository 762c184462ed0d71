package eventing

import "context"

type contextKey string

const contextKeyEnvelope contextKey = "eventing.envelope"

// WithEnvelope attaches delivery metadata for the handler chain. The
// dispatcher sets it so consumers can key idempotency on the event id.
func WithEnvelope(ctx context.Context, env Envelope) context.Context {
	return context.WithValue(ctx, contextKeyEnvelope, env)
}

// EnvelopeFromContext returns the envelope set by the dispatcher, if any.
func EnvelopeFromContext(ctx context.Context) (Envelope, bool) {
	env, ok := ctx.Value(contextKeyEnvelope).(Envelope)
	return env, ok
}
