package eventing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/VitorRandrade/monetary-mind-71177-sub000/internal/eventing/eventbus"
)

type entryForecast struct {
	EntryID    string    `json:"entry_id"`
	Amount     string    `json:"amount"`
	OccurredAt time.Time `json:"occurred_at"`
}

type fakeEventStore struct {
	pending     []OutboxRecord
	sent        []string
	quarantined []string
	causes      []error
}

func (s *fakeEventStore) ListPending(_ context.Context, limit int) ([]OutboxRecord, error) {
	if limit < len(s.pending) {
		return s.pending[:limit], nil
	}
	return s.pending, nil
}

func (s *fakeEventStore) MarkSent(_ context.Context, id string) error {
	s.sent = append(s.sent, id)
	return nil
}

func (s *fakeEventStore) Quarantine(_ context.Context, id string, _ Envelope, cause error) error {
	s.quarantined = append(s.quarantined, id)
	s.causes = append(s.causes, cause)
	return nil
}

type memProcessed struct {
	seen map[string]bool
}

func (m *memProcessed) HasProcessed(_ context.Context, eventID, consumer string) (bool, error) {
	return m.seen[eventID+"/"+consumer], nil
}

func (m *memProcessed) MarkProcessed(_ context.Context, eventID, consumer string) error {
	if m.seen == nil {
		m.seen = make(map[string]bool)
	}
	m.seen[eventID+"/"+consumer] = true
	return nil
}

func mustSeal(t *testing.T, event any) Envelope {
	t.Helper()
	env, err := Seal(event)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	return env
}

func TestSealReadsEventFields(t *testing.T) {
	occurred := time.Date(2025, time.September, 1, 12, 0, 0, 0, time.UTC)
	env := mustSeal(t, entryForecast{EntryID: "entry-1", Amount: "10.00", OccurredAt: occurred})

	if env.EventType != "eventing.entryForecast" {
		t.Errorf("event type = %q", env.EventType)
	}
	if env.SubjectID != "entry-1" {
		t.Errorf("subject id = %q, want entry-1", env.SubjectID)
	}
	if !env.OccurredAt.Equal(occurred) {
		t.Errorf("occurred at = %v, want %v", env.OccurredAt, occurred)
	}
	if env.EventID == "" {
		t.Error("expected generated event id")
	}

	if _, err := Seal(nil); err == nil {
		t.Error("expected error for nil event")
	}
}

func TestDispatchDeliversRegisteredEvents(t *testing.T) {
	registry := NewRegistry()
	RegisterType[entryForecast](registry)

	env := mustSeal(t, entryForecast{EntryID: "entry-1", Amount: "10.00"})
	store := &fakeEventStore{pending: []OutboxRecord{{ID: "out-1", Envelope: env}}}
	bus := eventbus.NewInMemoryBus()

	var got []entryForecast
	Subscribe(bus, "forecast-log", func(_ context.Context, event entryForecast) error {
		got = append(got, event)
		return nil
	}, nil)

	dispatcher, err := NewDispatcher(bus, store, registry)
	if err != nil {
		t.Fatalf("dispatcher: %v", err)
	}
	delivered, err := dispatcher.Dispatch(context.Background(), 10)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if delivered != 1 {
		t.Fatalf("delivered = %d, want 1", delivered)
	}
	if len(got) != 1 || got[0].EntryID != "entry-1" {
		t.Fatalf("handler saw %+v", got)
	}
	if len(store.sent) != 1 || store.sent[0] != "out-1" {
		t.Fatalf("sent = %v", store.sent)
	}
}

func TestDispatchQuarantinesUndeliverableRecords(t *testing.T) {
	registry := NewRegistry()
	RegisterType[entryForecast](registry)

	unknown := mustSeal(t, entryForecast{EntryID: "entry-1"})
	unknown.EventType = "eventing.retired"
	failing := mustSeal(t, entryForecast{EntryID: "entry-2"})

	store := &fakeEventStore{pending: []OutboxRecord{
		{ID: "out-1", Envelope: unknown},
		{ID: "out-2", Envelope: failing},
	}}
	bus := eventbus.NewInMemoryBus()
	handlerErr := errors.New("consumer down")
	Subscribe(bus, "forecast-log", func(context.Context, entryForecast) error {
		return handlerErr
	}, nil)

	dispatcher, err := NewDispatcher(bus, store, registry)
	if err != nil {
		t.Fatalf("dispatcher: %v", err)
	}
	delivered, err := dispatcher.Dispatch(context.Background(), 10)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if delivered != 0 {
		t.Fatalf("delivered = %d, want 0", delivered)
	}
	if len(store.quarantined) != 2 {
		t.Fatalf("quarantined = %v", store.quarantined)
	}
	if !errors.Is(store.causes[1], handlerErr) {
		t.Fatalf("cause = %v, want handler failure", store.causes[1])
	}
	if len(store.sent) != 0 {
		t.Fatalf("sent = %v, want none", store.sent)
	}
}

func TestSubscribeSkipsProcessedEvents(t *testing.T) {
	registry := NewRegistry()
	RegisterType[entryForecast](registry)

	env := mustSeal(t, entryForecast{EntryID: "entry-1"})
	bus := eventbus.NewInMemoryBus()
	processed := &memProcessed{}

	runs := 0
	Subscribe(bus, "forecast-log", func(context.Context, entryForecast) error {
		runs++
		return nil
	}, processed)

	for i := 0; i < 2; i++ {
		store := &fakeEventStore{pending: []OutboxRecord{{ID: "out-1", Envelope: env}}}
		dispatcher, err := NewDispatcher(bus, store, registry)
		if err != nil {
			t.Fatalf("dispatcher: %v", err)
		}
		if _, err := dispatcher.Dispatch(context.Background(), 10); err != nil {
			t.Fatalf("dispatch %d: %v", i, err)
		}
	}
	if runs != 1 {
		t.Fatalf("handler ran %d times, want 1", runs)
	}
}
