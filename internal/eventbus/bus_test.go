package eventbus

import (
	"context"
	"errors"
	"testing"
)

func TestBusPublishBroadcast(t *testing.T) {
	bus := NewContractEventBus()
	calledA := false
	calledB := false

	bus.Subscribe(ContractEventSigned, func(ctx context.Context, event ContractEvent) error {
		calledA = true
		return nil
	})
	bus.Subscribe(ContractEventSigned, func(ctx context.Context, event ContractEvent) error {
		calledB = event.ContractID == "CN-2024-1"
		return nil
	})

	if err := bus.Publish(context.Background(), ContractEventSigned, ContractEvent{Type: ContractEventSigned, ContractID: "CN-2024-1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !calledA || !calledB {
		t.Fatalf("expected handlers to be called")
	}
}

func TestBusOnlyMatchingType(t *testing.T) {
	bus := NewContractEventBus()
	called := false
	bus.Subscribe(ContractEventDeleted, func(ctx context.Context, event ContractEvent) error {
		called = true
		return nil
	})

	if err := bus.Publish(context.Background(), ContractEventCreated, ContractEvent{Type: ContractEventCreated}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Fatalf("handler for another type should not run")
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewContractEventBus()
	called := false
	unsubscribe := bus.Subscribe(ContractEventCreated, func(ctx context.Context, event ContractEvent) error {
		called = true
		return nil
	})
	unsubscribe()

	if err := bus.Publish(context.Background(), ContractEventCreated, ContractEvent{Type: ContractEventCreated}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Fatalf("expected handler to be unsubscribed")
	}
}

func TestBusPublishJoinErrors(t *testing.T) {
	bus := NewContractEventBus()
	bus.Subscribe(ContractEventCreated, func(ctx context.Context, event ContractEvent) error {
		return errors.New("err-a")
	})
	bus.Subscribe(ContractEventCreated, func(ctx context.Context, event ContractEvent) error {
		return errors.New("err-b")
	})

	if err := bus.Publish(context.Background(), ContractEventCreated, ContractEvent{Type: ContractEventCreated}); err == nil {
		t.Fatalf("expected error")
	}
}
