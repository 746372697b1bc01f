package stats

import (
	"sort"
	"time"

	"github.com/spec-kit/reclamos-service/internal/domain"
)

// UserClaimStats summarises the claims assigned to one user.
type UserClaimStats struct {
	Total        int                        `json:"total"`
	ByStatus     map[domain.ClaimStatus]int `json:"porEstado"`
	LastActivity *time.Time                 `json:"ultimaActividad,omitempty"`
}

// ForUser computes assignment statistics for userID.
func ForUser(userID string, claims []domain.Claim) UserClaimStats {
	out := UserClaimStats{ByStatus: make(map[domain.ClaimStatus]int, len(domain.ClaimStatuses))}
	for _, status := range domain.ClaimStatuses {
		out.ByStatus[status] = 0
	}
	for i := range claims {
		claim := &claims[i]
		if !claim.IsAssignedTo(userID) {
			continue
		}
		out.Total++
		out.ByStatus[claim.Estado]++
		if out.LastActivity == nil || claim.FechaActualizacion.After(*out.LastActivity) {
			last := claim.FechaActualizacion
			out.LastActivity = &last
		}
	}
	return out
}

// Dashboard holds the moderator landing counters.
type Dashboard struct {
	PendingUsers     int            `json:"usuariosPendientes"`
	ActiveModerators int            `json:"moderadoresActivos"`
	ActiveExternos   int            `json:"externosActivos"`
	ClaimsByStatus   []Count        `json:"reclamosPorEstado"`
	RecentActivity   []domain.Claim `json:"-"`
}

// RecentActivityLimit bounds the dashboard activity feed.
const RecentActivityLimit = 5

// BuildDashboard computes the landing counters from users and claims.
func BuildDashboard(users []domain.User, claims []domain.Claim) Dashboard {
	var d Dashboard
	for _, user := range users {
		switch {
		case user.AccountStatus == domain.AccountPending:
			d.PendingUsers++
		case user.AccountStatus == domain.AccountActive && user.Role == domain.RoleModerador:
			d.ActiveModerators++
		case user.AccountStatus == domain.AccountActive && user.Role == domain.RoleExterno:
			d.ActiveExternos++
		}
	}

	counts := make(map[domain.ClaimStatus]int)
	for _, claim := range claims {
		counts[claim.Estado]++
	}
	for _, status := range domain.ClaimStatuses {
		d.ClaimsByStatus = append(d.ClaimsByStatus, Count{Key: string(status), Label: status.Label(), Count: counts[status]})
	}

	d.RecentActivity = RecentActivity(claims, RecentActivityLimit)
	return d
}

// RecentActivity returns up to limit claims that have activities, most
// recently updated first.
func RecentActivity(claims []domain.Claim, limit int) []domain.Claim {
	out := make([]domain.Claim, 0, len(claims))
	for _, claim := range claims {
		if len(claim.Actividades) > 0 {
			out = append(out, claim)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FechaActualizacion.After(out[j].FechaActualizacion)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
