package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/reclamos-service/internal/domain"
	"github.com/spec-kit/reclamos-service/internal/events"
	"github.com/spec-kit/reclamos-service/internal/repository"
	apperrors "github.com/spec-kit/reclamos-service/pkg/util/errorutil"
)

// publisher fans domain events out to the dispatcher. Handler failures are
// logged and never fail the triggering operation.
type publisher struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

func (p publisher) publish(ctx context.Context, event events.Event) {
	if p.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := p.dispatcher.Publish(ctx, event); err != nil && p.logger != nil {
		p.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

// requireRole rejects guests with Unauthorized and other roles with Forbidden.
func requireRole(actor *domain.User, allowed ...domain.UserRole) error {
	if actor == nil || actor.IsGuest() {
		return apperrors.NewUnauthorized("authentication required")
	}
	for _, role := range allowed {
		if actor.Role == role {
			return nil
		}
	}
	return apperrors.NewForbidden("insufficient role")
}

// lookupError turns repository.ErrNotFound into a NotFound for resource.
func lookupError(err error, resource string, details map[string]any) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(resource, details)
	}
	return apperrors.MapError(err)
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	runes := []rune(body)
	if len(runes) <= max {
		return body
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

func nopLogger(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
