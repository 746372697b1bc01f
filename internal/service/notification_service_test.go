package service

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/reclamos-service/internal/config"
	"github.com/spec-kit/reclamos-service/internal/events"
)

func TestNotifyRoutesByEventType(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	n := NewNotificationService(zap.New(core), config.NotificationConfig{
		EmailFrom:  "noreply@example.com",
		WebhookURL: "http://hooks.example.com",
	})
	ctx := context.Background()

	if err := n.Notify(ctx, events.Event{Type: events.EventClaimAssigned, SubjectID: "9"}); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	for _, msg := range []string{"notification", "sendEmailNotificationStub", "sendWebhookNotificationStub"} {
		if logs.FilterMessage(msg).Len() != 1 {
			t.Fatalf("assignment did not reach %s: %v", msg, logs.All())
		}
	}

	logs.TakeAll()
	if err := n.Notify(ctx, events.Event{Type: events.EventActivityAdded, SubjectID: "9"}); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if logs.Len() != 1 || logs.All()[0].Message != "notification" {
		t.Fatalf("activity should only be logged: %v", logs.All())
	}

	logs.TakeAll()
	if err := n.Notify(ctx, events.Event{Type: events.EventClaimUpdated}); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if logs.Len() != 0 {
		t.Fatalf("unrouted event produced logs: %v", logs.All())
	}
	if got := len(n.EventTypes()); got != 8 {
		t.Fatalf("EventTypes() has %d entries, want 8", got)
	}
}
