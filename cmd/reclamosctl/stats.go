package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/spec-kit/reclamos-service/internal/api/dto"
	"github.com/spec-kit/reclamos-service/internal/domain"
	"github.com/spec-kit/reclamos-service/internal/portal"
	"github.com/spec-kit/reclamos-service/internal/stats"
	"github.com/spec-kit/reclamos-service/pkg/util/validate"
)

func (c *cli) statsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "stats",
		Aliases: []string{"estadisticas"},
		Short:   "Aggregate claims by window",
	}
	var q dto.StatsQuery
	bind := func(cmd *cobra.Command) {
		f := cmd.Flags()
		f.StringVar(&q.Mode, "modo", string(stats.ModeMonthly), "mensual or anual")
		f.IntVar(&q.Year, "anio", 0, "year, defaults to the current one")
		f.IntVar(&q.Month, "mes", 0, "month 1-12 for mensual, defaults to the current one")
		f.StringVar(&q.Categoria, "categoria", "", "restrict to a categoria")
	}

	report := &cobra.Command{
		Use:   "report",
		Short: "Print counts by estado, barrio, categoria and period",
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := c.report(cmd, q)
			if err != nil {
				return err
			}
			if c.asJSON {
				return c.printJSON(dto.StatsEnvelope{Modo: string(r.Window.Mode), Anio: r.Window.Year, Mes: int(r.Window.Month), Report: &r})
			}
			c.printf("Total: %d\n", r.Total)
			for _, section := range []struct {
				title string
				rows  []stats.Count
			}{
				{"Por estado", r.ByStatus},
				{"Barrios", r.TopBarrios},
				{"Por categoría", r.ByCategory},
				{"Serie", r.Series},
			} {
				_ = c.table(section.title+"\t", func(w io.Writer) {
					for _, row := range section.rows {
						fmt.Fprintf(w, "  %s\t%d\n", row.Label, row.Count)
					}
				})
			}
			return nil
		},
	}
	bind(report)

	var outDir string
	export := &cobra.Command{
		Use:   "export",
		Short: "Write the report as an xlsx workbook",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.enter(cmd.Context()); err != nil {
				return err
			}
			window, categoria, err := c.window(q)
			if err != nil {
				return err
			}
			buf, filename, err := c.portal.Export(window, categoria)
			if err != nil {
				return err
			}
			path := filepath.Join(outDir, filename)
			if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			c.printf("Reporte guardado en %s\n", path)
			return nil
		},
	}
	bind(export)
	export.Flags().StringVarP(&outDir, "out", "o", ".", "directory to write the workbook to")

	dashboard := &cobra.Command{
		Use:   "dashboard",
		Short: "Show the moderator landing counters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.enter(cmd.Context()); err != nil {
				return err
			}
			if err := c.portal.Navigate(portal.ViewInicio); err != nil {
				return err
			}
			d, err := c.portal.Dashboard()
			if err != nil {
				return err
			}
			if c.asJSON {
				return c.printJSON(dto.DashboardResponse{Dashboard: d, RecentActivity: dto.NewClaimList(d.RecentActivity, c.portal.Location())})
			}
			c.printf("Usuarios pendientes: %d\nModeradores activos: %d\nExternos activos: %d\n", d.PendingUsers, d.ActiveModerators, d.ActiveExternos)
			for _, row := range d.ClaimsByStatus {
				c.printf("  %-12s %d\n", row.Label, row.Count)
			}
			if len(d.RecentActivity) > 0 {
				c.printf("Actividad reciente:\n")
				return c.printClaims(d.RecentActivity)
			}
			return nil
		},
	}

	cmd.AddCommand(report, export, dashboard)
	return cmd
}

func (c *cli) report(cmd *cobra.Command, q dto.StatsQuery) (stats.Report, error) {
	if err := c.enter(cmd.Context()); err != nil {
		return stats.Report{}, err
	}
	if err := c.portal.Navigate(portal.ViewEstadisticas); err != nil {
		return stats.Report{}, err
	}
	window, categoria, err := c.window(q)
	if err != nil {
		return stats.Report{}, err
	}
	return c.portal.Report(window, categoria)
}

func (c *cli) window(q dto.StatsQuery) (stats.Window, *domain.ClaimCategory, error) {
	if err := validate.Struct(q); err != nil {
		return stats.Window{}, nil, err
	}
	window := q.Window(domain.DateOf(time.Now(), c.portal.Location()))
	if q.Categoria == "" {
		return window, nil, nil
	}
	categoria := domain.ClaimCategory(q.Categoria)
	return window, &categoria, nil
}
