package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/reclamos-service/internal/api/dto"
	"github.com/spec-kit/reclamos-service/internal/domain"
	"github.com/spec-kit/reclamos-service/internal/service"
	"github.com/spec-kit/reclamos-service/internal/stats"
	apperrors "github.com/spec-kit/reclamos-service/pkg/util/errorutil"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// StatsHandler serves moderator reports.
type StatsHandler struct {
	stats    *service.StatsService
	clock    domain.Clock
	location *time.Location
}

// NewStatsHandler constructs handler.
func NewStatsHandler(statsService *service.StatsService, clock domain.Clock, loc *time.Location) *StatsHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &StatsHandler{stats: statsService, clock: clock, location: loc}
}

// Report handles GET /stats?modo=&anio=&mes=&categoria=.
func (h *StatsHandler) Report(c *fiber.Ctx) error {
	window, category, err := h.query(c)
	if err != nil {
		return err
	}
	report, err := h.stats.Report(c.UserContext(), actor(c), window, category)
	if err != nil {
		return err
	}
	out := dto.StatsEnvelope{Modo: string(window.Mode), Anio: window.Year, Report: report}
	if window.Mode == stats.ModeMonthly {
		out.Mes = int(window.Month)
	}
	return c.JSON(out)
}

// Export handles GET /stats/export and streams the xlsx workbook.
func (h *StatsHandler) Export(c *fiber.Ctx) error {
	window, category, err := h.query(c)
	if err != nil {
		return err
	}
	buf, filename, err := h.stats.Export(c.UserContext(), actor(c), window, category)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(buf.Bytes())
}

// Dashboard handles GET /stats/dashboard.
func (h *StatsHandler) Dashboard(c *fiber.Ctx) error {
	dashboard, err := h.stats.Dashboard(c.UserContext(), actor(c))
	if err != nil {
		return err
	}
	return c.JSON(dto.DashboardResponse{
		Dashboard:      *dashboard,
		RecentActivity: dto.NewClaimList(dashboard.RecentActivity, h.location),
	})
}

func (h *StatsHandler) query(c *fiber.Ctx) (stats.Window, *domain.ClaimCategory, error) {
	var q dto.StatsQuery
	if err := c.QueryParser(&q); err != nil {
		return stats.Window{}, nil, apperrors.NewValidationError("invalid query", nil)
	}
	if err := check(&q); err != nil {
		return stats.Window{}, nil, err
	}
	window := q.Window(domain.DateOf(h.clock.Now(), h.location))
	var category *domain.ClaimCategory
	if q.Categoria != "" {
		cat := domain.ClaimCategory(q.Categoria)
		category = &cat
	}
	return window, category, nil
}
