package portal

import (
	"bytes"
	"context"
	"errors"

	"github.com/spec-kit/reclamos-service/internal/domain"
	"github.com/spec-kit/reclamos-service/internal/stats"
)

// Summary holds the counters of the home view.
type Summary struct {
	Total      int
	Pendientes int
	EnProceso  int
	Resueltos  int
}

// Home counts the claims shown on the home view. Externos count only the
// claims assigned to them.
func (c *Controller) Home() (Summary, error) {
	user, err := c.requireRole(domain.RoleModerador, domain.RoleExterno)
	if err != nil {
		return Summary{}, err
	}
	var s Summary
	for _, claim := range c.Claims() {
		if user.Role == domain.RoleExterno && !claim.IsAssignedTo(user.ID) {
			continue
		}
		s.Total++
		switch claim.Estado {
		case domain.StatusPendiente:
			s.Pendientes++
		case domain.StatusEnProceso:
			s.EnProceso++
		case domain.StatusResuelto:
			s.Resueltos++
		}
	}
	return s, nil
}

// Report aggregates the cached claims over window.
func (c *Controller) Report(window stats.Window, categoria *domain.ClaimCategory) (stats.Report, error) {
	if _, err := c.requireRole(domain.RoleModerador, domain.RoleExterno); err != nil {
		return stats.Report{}, err
	}
	if err := window.Validate(); err != nil {
		return stats.Report{}, &ValidationError{Field: "window", Message: err.Error()}
	}
	return stats.Aggregate(c.Claims(), window, categoria), nil
}

// Export renders Report as a workbook and returns it with its filename.
func (c *Controller) Export(window stats.Window, categoria *domain.ClaimCategory) (*bytes.Buffer, string, error) {
	report, err := c.Report(window, categoria)
	if err != nil {
		return nil, "", err
	}
	return stats.Export(report, domain.DateOf(c.now(), c.location))
}

// UserStats summarises the claims assigned to a user.
func (c *Controller) UserStats(userID string) (stats.UserClaimStats, error) {
	if _, err := c.requireRole(domain.RoleModerador); err != nil {
		return stats.UserClaimStats{}, err
	}
	return stats.ForUser(userID, c.Claims()), nil
}

// Dashboard computes the moderator landing counters.
func (c *Controller) Dashboard() (stats.Dashboard, error) {
	if _, err := c.requireRole(domain.RoleModerador); err != nil {
		return stats.Dashboard{}, err
	}
	return stats.BuildDashboard(c.Users(), c.Claims()), nil
}

// PendingUsers lists accounts awaiting a decision.
func (c *Controller) PendingUsers() []domain.User {
	out := []domain.User{}
	for _, u := range c.Users() {
		if u.AccountStatus == domain.AccountPending {
			out = append(out, u)
		}
	}
	return out
}

// ApproveUser activates a pending account.
func (c *Controller) ApproveUser(ctx context.Context, userID string) error {
	return c.decide(ctx, userID, domain.AccountActive)
}

// RejectUser rejects a pending account.
func (c *Controller) RejectUser(ctx context.Context, userID string) error {
	return c.decide(ctx, userID, domain.AccountRejected)
}

// ErrNotPending is returned when deciding an account that was already decided.
var ErrNotPending = errors.New("portal: account is not pending")

func (c *Controller) decide(ctx context.Context, userID string, status domain.AccountStatus) error {
	if _, err := c.requireRole(domain.RoleModerador); err != nil {
		return err
	}
	if u, ok := c.findUser(userID); ok && !u.AccountStatus.CanTransitionTo(status) {
		return ErrNotPending
	}
	return c.mutate(ctx, "set_account_status", func() error {
		_, err := c.backend.SetAccountStatus(ctx, userID, status)
		return err
	})
}
