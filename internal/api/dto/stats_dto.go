package dto

import (
	"time"

	"github.com/spec-kit/reclamos-service/internal/stats"
)

// StatsQuery selects the report window. Month is required for mensual.
type StatsQuery struct {
	Mode      string `query:"modo" validate:"omitempty,oneof=mensual anual"`
	Year      int    `query:"anio" validate:"omitempty,min=2000,max=2100"`
	Month     int    `query:"mes" validate:"omitempty,min=1,max=12"`
	Categoria string `query:"categoria" validate:"omitempty,categoria"`
}

// Window resolves the query against now, defaulting to the current month.
func (q StatsQuery) Window(now time.Time) stats.Window {
	year := q.Year
	if year == 0 {
		year = now.Year()
	}
	if stats.Mode(q.Mode) == stats.ModeAnnual {
		return stats.Annual(year)
	}
	month := time.Month(q.Month)
	if month == 0 {
		month = now.Month()
	}
	return stats.Monthly(year, month)
}

// StatsEnvelope wraps a report.
type StatsEnvelope struct {
	Modo   string        `json:"modo"`
	Anio   int           `json:"anio"`
	Mes    int           `json:"mes,omitempty"`
	Report *stats.Report `json:"stats"`
}

// DashboardResponse is the moderator landing payload.
type DashboardResponse struct {
	stats.Dashboard
	RecentActivity []ClaimResponse `json:"actividadReciente"`
}

// UserStatsEnvelope wraps per-user assignment statistics.
type UserStatsEnvelope struct {
	UserID string                `json:"userId"`
	Stats  *stats.UserClaimStats `json:"stats"`
}
