package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/reclamos-service/internal/config"
	"github.com/spec-kit/reclamos-service/internal/events"
)

// channel is a notification sink.
type channel uint8

const (
	channelLog channel = 1 << iota
	channelEmail
	channelWebhook
)

// notifyRoutes maps each notified event to the sinks it reaches. Residents
// hear about their claims through the webhook; staff and applicants by email.
var notifyRoutes = map[events.EventType]channel{
	events.EventClaimCreated:       channelLog | channelWebhook,
	events.EventClaimStatusChanged: channelLog | channelWebhook,
	events.EventClaimAssigned:      channelLog | channelEmail | channelWebhook,
	events.EventCommentAdded:       channelLog | channelWebhook,
	events.EventActivityAdded:      channelLog,
	events.EventClaimDeleted:       channelLog,
	events.EventUserRegistered:     channelLog | channelEmail,
	events.EventUserStatusChanged:  channelLog | channelEmail,
}

// NotificationService turns claim and account events into notifications.
type NotificationService struct {
	logger *zap.Logger
	cfg    config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		logger: logger,
		cfg:    cfg,
	}
}

// EventTypes lists the events Notify acts on.
func (n *NotificationService) EventTypes() []events.EventType {
	types := make([]events.EventType, 0, len(notifyRoutes))
	for eventType := range notifyRoutes {
		types = append(types, eventType)
	}
	return types
}

// Notify delivers event to the sinks routed for its type. Unrouted events are
// ignored.
func (n *NotificationService) Notify(ctx context.Context, event events.Event) error {
	route, ok := notifyRoutes[event.Type]
	if !ok {
		return nil
	}
	if route&channelLog != 0 {
		n.logger.Info("notification",
			zap.String("event_type", string(event.Type)),
			zap.String("subject_id", event.SubjectID),
			zap.String("actor_id", event.Actor.UserID),
			zap.Any("payload", event.Payload))
	}
	if route&channelEmail != 0 {
		n.sendEmailNotificationStub(ctx, event)
	}
	if route&channelWebhook != 0 {
		n.sendWebhookNotificationStub(ctx, event)
	}
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("subject_id", event.SubjectID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("subject_id", event.SubjectID),
		zap.String("event_type", string(event.Type)))
}
