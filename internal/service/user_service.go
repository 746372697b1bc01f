package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/reclamos-service/internal/domain"
	"github.com/spec-kit/reclamos-service/internal/events"
	"github.com/spec-kit/reclamos-service/internal/repository"
	apperrors "github.com/spec-kit/reclamos-service/pkg/util/errorutil"
)

// UserService covers moderator account administration.
type UserService struct {
	users repository.UserRepository
	clock domain.Clock
	publisher
}

// UserDependencies bundles collaborators for the user service.
type UserDependencies struct {
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      domain.Clock
}

// NewUserService constructs the service.
func NewUserService(deps UserDependencies) *UserService {
	return &UserService{
		users:     deps.UserRepo,
		clock:     deps.Clock,
		publisher: publisher{dispatcher: deps.Dispatcher, logger: nopLogger(deps.Logger)},
	}
}

// List returns every profile.
func (s *UserService) List(ctx context.Context, actor *domain.User) ([]domain.User, error) {
	if err := requireRole(actor, domain.RoleModerador); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// Get returns one profile.
func (s *UserService) Get(ctx context.Context, actor *domain.User, id string) (*domain.User, error) {
	if err := requireRole(actor, domain.RoleModerador); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "user", map[string]any{"user_id": id})
	}
	return user, nil
}

// SetAccountStatus approves or rejects a pending account. Approval also
// confirms the identity so the user can log in.
func (s *UserService) SetAccountStatus(ctx context.Context, actor *domain.User, id string, status domain.AccountStatus) (*domain.User, error) {
	if err := requireRole(actor, domain.RoleModerador); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, apperrors.NewValidationError("invalid account status", map[string]any{"accountStatus": status})
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "user", map[string]any{"user_id": id})
	}
	if !user.AccountStatus.CanTransitionTo(status) {
		return nil, apperrors.NewConflict(
			fmt.Sprintf("account cannot move from %s to %s", user.AccountStatus, status),
			map[string]any{"accountStatus": user.AccountStatus},
		)
	}

	old := user.AccountStatus
	user.AccountStatus = status
	if status == domain.AccountActive && user.EmailConfirmedAt == nil {
		confirmed := s.clock.Now().UTC()
		user.EmailConfirmedAt = &confirmed
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, lookupError(err, "user", map[string]any{"user_id": id})
	}

	s.publish(ctx, events.Event{
		Type:      events.EventUserStatusChanged,
		SubjectID: user.ID,
		Actor:     events.ActorOf(actor),
		Payload:   events.UserStatusChangedPayload{Email: user.Email, OldStatus: old, NewStatus: status},
	})
	return user, nil
}

// Approve is SetAccountStatus(active).
func (s *UserService) Approve(ctx context.Context, actor *domain.User, id string) (*domain.User, error) {
	return s.SetAccountStatus(ctx, actor, id, domain.AccountActive)
}

// Reject is SetAccountStatus(rejected).
func (s *UserService) Reject(ctx context.Context, actor *domain.User, id string) (*domain.User, error) {
	return s.SetAccountStatus(ctx, actor, id, domain.AccountRejected)
}
