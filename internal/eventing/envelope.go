package eventing

import (
	"encoding/json"
	"errors"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// Envelope carries a serialized ledger event through the outbox. The
// subject id names the entry, invoice, recurrence, or card the event
// concerns so consumers and the dead letter queue can trace it back.
type Envelope struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	SubjectID  string          `json:"subject_id"`
	Payload    json.RawMessage `json:"payload"`
}

// Seal wraps an event payload into an envelope. The event type name comes
// from the concrete Go type; the subject id and timestamp are read off the
// event itself.
func Seal(event any) (Envelope, error) {
	if event == nil {
		return Envelope{}, errors.New("eventing: nil event")
	}

	value := reflect.ValueOf(event)
	for value.Kind() == reflect.Ptr {
		if value.IsNil() {
			return Envelope{}, errors.New("eventing: nil event")
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return Envelope{}, errors.New("eventing: event must be a struct")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return Envelope{}, err
	}

	occurredAt := timeField(value, "OccurredAt")
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	return Envelope{
		EventID:    uuid.NewString(),
		EventType:  value.Type().String(),
		OccurredAt: occurredAt.UTC(),
		SubjectID:  subjectField(value),
		Payload:    payload,
	}, nil
}

// subjectField probes the id fields ledger events carry, most specific
// first. Projection events name the entry, billing events the invoice or
// the card.
func subjectField(value reflect.Value) string {
	for _, name := range []string{"EntryID", "InvoiceID", "RecurrenceID", "CardID"} {
		field := value.FieldByName(name)
		if field.IsValid() && field.Kind() == reflect.String && field.String() != "" {
			return field.String()
		}
	}
	return ""
}

func timeField(value reflect.Value, name string) time.Time {
	field := value.FieldByName(name)
	if !field.IsValid() {
		return time.Time{}
	}
	if t, ok := field.Interface().(time.Time); ok {
		return t
	}
	return time.Time{}
}
