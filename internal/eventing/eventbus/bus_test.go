package eventbus

import (
	"context"
	"errors"
	"testing"
)

type invoiceSettled struct {
	InvoiceID string
}

func TestPublishFansOutByType(t *testing.T) {
	bus := NewInMemoryBus()
	first, second := 0, 0
	bus.Subscribe(EventTypeOf[invoiceSettled](), func(context.Context, any) error {
		first++
		return nil
	})
	bus.Subscribe(EventTypeOf[invoiceSettled](), func(context.Context, any) error {
		second++
		return nil
	})
	bus.Subscribe("eventbus.other", func(context.Context, any) error {
		t.Error("handler for another type must not run")
		return nil
	})

	if err := bus.Publish(context.Background(), invoiceSettled{InvoiceID: "inv-1"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if first != 1 || second != 1 {
		t.Fatalf("handlers ran %d/%d times, want 1/1", first, second)
	}
}

func TestPublishRunsAllHandlersAndJoinsErrors(t *testing.T) {
	bus := NewInMemoryBus()
	failure := errors.New("handler failure")
	ran := 0
	bus.Subscribe(EventTypeOf[invoiceSettled](), func(context.Context, any) error {
		return failure
	})
	bus.Subscribe(EventTypeOf[invoiceSettled](), func(context.Context, any) error {
		ran++
		return nil
	})

	err := bus.Publish(context.Background(), invoiceSettled{InvoiceID: "inv-1"})
	if !errors.Is(err, failure) {
		t.Fatalf("expected joined handler failure, got %v", err)
	}
	if ran != 1 {
		t.Fatal("later handler must still run after an earlier failure")
	}
}

func TestPublishNilEvent(t *testing.T) {
	bus := NewInMemoryBus()
	if err := bus.Publish(context.Background(), nil); !errors.Is(err, ErrNilEvent) {
		t.Fatalf("expected ErrNilEvent, got %v", err)
	}
}

func TestPublishWithoutSubscribersIsNoop(t *testing.T) {
	bus := NewInMemoryBus()
	if err := bus.Publish(context.Background(), invoiceSettled{InvoiceID: "inv-1"}); err != nil {
		t.Fatalf("publish without subscribers: %v", err)
	}
}
