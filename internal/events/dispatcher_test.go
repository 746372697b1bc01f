package events

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestPublishRunsEveryHandler(t *testing.T) {
	d := NewInMemoryDispatcher()
	var calls []string
	boom := errors.New("boom")

	d.Subscribe(EventClaimCreated, func(context.Context, Event) error {
		calls = append(calls, "first")
		return boom
	})
	d.Subscribe(EventClaimCreated, func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.Subscribe(EventCommentAdded, func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventClaimCreated})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined handler error, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), string(EventClaimCreated)+":") {
		t.Fatalf("error not tagged with event type: %v", err)
	}
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Fatalf("unexpected calls: %v", calls)
	}
}

func TestPublishRecoversPanickingHandler(t *testing.T) {
	d := NewInMemoryDispatcher()
	reached := false
	d.Subscribe(EventClaimDeleted, func(context.Context, Event) error {
		panic("nil map")
	})
	d.Subscribe(EventClaimDeleted, func(context.Context, Event) error {
		reached = true
		return nil
	})
	d.Subscribe(EventClaimDeleted, nil)

	err := d.Publish(context.Background(), Event{Type: EventClaimDeleted, SubjectID: "7"})
	if err == nil || !strings.Contains(err.Error(), "handler panicked: nil map") {
		t.Fatalf("expected recovered panic, got %v", err)
	}
	if !reached {
		t.Fatal("handler after the panicking one did not run")
	}
}

func TestPublishWithoutSubscribers(t *testing.T) {
	if err := NewInMemoryDispatcher().Publish(context.Background(), Event{Type: EventUserRegistered}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
}
