package service

import (
	"bytes"
	"context"

	"github.com/spec-kit/reclamos-service/internal/domain"
	"github.com/spec-kit/reclamos-service/internal/repository"
	"github.com/spec-kit/reclamos-service/internal/stats"
	apperrors "github.com/spec-kit/reclamos-service/pkg/util/errorutil"
)

// StatsService serves reports over the stored claims.
type StatsService struct {
	claims repository.ClaimRepository
	users  repository.UserRepository
	clock  domain.Clock
}

// NewStatsService constructs the service.
func NewStatsService(claims repository.ClaimRepository, users repository.UserRepository, clock domain.Clock) *StatsService {
	return &StatsService{claims: claims, users: users, clock: clock}
}

// Report aggregates the claims of window, optionally of one category.
// Moderadores and externos both have the statistics view.
func (s *StatsService) Report(ctx context.Context, actor *domain.User, window stats.Window, category *domain.ClaimCategory) (*stats.Report, error) {
	if err := requireRole(actor, domain.RoleModerador, domain.RoleExterno); err != nil {
		return nil, err
	}
	if err := window.Validate(); err != nil {
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}
	if category != nil && !category.Valid() {
		return nil, apperrors.NewValidationError("invalid categoria", map[string]any{"categoria": *category})
	}
	claims, err := s.claims.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	report := stats.Aggregate(claims, window, category)
	return &report, nil
}

// Export renders the report of window as an xlsx workbook.
func (s *StatsService) Export(ctx context.Context, actor *domain.User, window stats.Window, category *domain.ClaimCategory) (*bytes.Buffer, string, error) {
	report, err := s.Report(ctx, actor, window, category)
	if err != nil {
		return nil, "", err
	}
	buf, filename, err := stats.Export(*report, s.clock.Now())
	if err != nil {
		return nil, "", apperrors.NewInternalError(err)
	}
	return buf, filename, nil
}

// Dashboard returns the moderator landing counters.
func (s *StatsService) Dashboard(ctx context.Context, actor *domain.User) (*stats.Dashboard, error) {
	if err := requireRole(actor, domain.RoleModerador); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	claims, err := s.claims.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	dashboard := stats.BuildDashboard(users, claims)
	return &dashboard, nil
}

// ForUser returns assignment statistics of one user.
func (s *StatsService) ForUser(ctx context.Context, actor *domain.User, userID string) (*stats.UserClaimStats, error) {
	if err := requireRole(actor, domain.RoleModerador); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, lookupError(err, "user", map[string]any{"user_id": userID})
	}
	claims, err := s.claims.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	result := stats.ForUser(userID, claims)
	return &result, nil
}
