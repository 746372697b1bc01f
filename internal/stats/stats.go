// Package stats aggregates claim lists into the municipal statistics report.
// Every function here is pure; callers pass the claims they already hold.
package stats

import (
	"fmt"
	"sort"
	"time"

	"github.com/spec-kit/reclamos-service/internal/domain"
)

// TopBarriosLimit bounds the "most affected neighbourhoods" ranking.
const TopBarriosLimit = 6

// Mode selects the time window granularity.
type Mode string

const (
	ModeMonthly Mode = "mensual"
	ModeAnnual  Mode = "anual"
)

// Valid reports whether the mode is known.
func (m Mode) Valid() bool {
	return m == ModeMonthly || m == ModeAnnual
}

// Window is the period a report covers. Month is ignored for annual windows.
type Window struct {
	Mode  Mode
	Year  int
	Month time.Month
}

// Monthly builds a monthly window.
func Monthly(year int, month time.Month) Window {
	return Window{Mode: ModeMonthly, Year: year, Month: month}
}

// Annual builds an annual window.
func Annual(year int) Window {
	return Window{Mode: ModeAnnual, Year: year}
}

// Validate checks the window is well formed.
func (w Window) Validate() error {
	if !w.Mode.Valid() {
		return fmt.Errorf("unknown window mode %q", w.Mode)
	}
	if w.Year < 1 {
		return fmt.Errorf("invalid year %d", w.Year)
	}
	if w.Mode == ModeMonthly && (w.Month < time.January || w.Month > time.December) {
		return fmt.Errorf("invalid month %d", w.Month)
	}
	return nil
}

// Contains reports whether a calendar date falls inside the window.
func (w Window) Contains(date time.Time) bool {
	if date.Year() != w.Year {
		return false
	}
	return w.Mode == ModeAnnual || date.Month() == w.Month
}

// Count is one labelled bucket.
type Count struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Report is the aggregated view of a window.
type Report struct {
	Window     Window                `json:"-"`
	Categoria  *domain.ClaimCategory `json:"categoria,omitempty"`
	Total      int                   `json:"total"`
	ByStatus   []Count               `json:"porEstado"`
	TopBarrios []Count               `json:"barrios"`
	ByCategory []Count               `json:"porCategoria"`
	Series     []Count               `json:"serie"`
}

var monthLabels = [12]string{"Ene", "Feb", "Mar", "Abr", "May", "Jun", "Jul", "Ago", "Sep", "Oct", "Nov", "Dic"}

// MonthLabel returns the short Spanish label of m.
func MonthLabel(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthLabels[m-1]
}

// Filter returns the claims created inside the window, optionally of one
// category, preserving order.
func Filter(claims []domain.Claim, window Window, category *domain.ClaimCategory) []domain.Claim {
	out := make([]domain.Claim, 0, len(claims))
	for _, claim := range claims {
		if category != nil && claim.Categoria != *category {
			continue
		}
		if !window.Contains(claim.FechaCreacion) {
			continue
		}
		out = append(out, claim)
	}
	return out
}

// Aggregate computes the report for window over claims.
func Aggregate(claims []domain.Claim, window Window, category *domain.ClaimCategory) Report {
	selected := Filter(claims, window, category)
	report := Report{
		Window:    window,
		Categoria: category,
		Total:     len(selected),
	}

	statusCounts := make(map[domain.ClaimStatus]int, len(domain.ClaimStatuses))
	categoryCounts := make(map[domain.ClaimCategory]int, len(domain.ClaimCategories))
	barrioCounts := make(map[string]int)
	for _, claim := range selected {
		statusCounts[claim.Estado]++
		categoryCounts[claim.Categoria]++
		barrioCounts[claim.Barrio]++
	}

	report.ByStatus = make([]Count, 0, len(domain.ClaimStatuses))
	for _, status := range domain.ClaimStatuses {
		report.ByStatus = append(report.ByStatus, Count{Key: string(status), Label: status.Label(), Count: statusCounts[status]})
	}

	report.ByCategory = []Count{}
	for _, cat := range domain.ClaimCategories {
		if n := categoryCounts[cat]; n > 0 {
			report.ByCategory = append(report.ByCategory, Count{Key: string(cat), Label: cat.Label(), Count: n})
		}
	}

	report.TopBarrios = topBarrios(barrioCounts, TopBarriosLimit)
	report.Series = series(selected, window)
	return report
}

func topBarrios(counts map[string]int, limit int) []Count {
	ranked := make([]Count, 0, len(counts))
	for name, n := range counts {
		ranked = append(ranked, Count{Key: name, Label: name, Count: n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Key < ranked[j].Key
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func series(claims []domain.Claim, window Window) []Count {
	if window.Mode == ModeAnnual {
		buckets := make([]Count, 12)
		for i := range buckets {
			buckets[i] = Count{Key: fmt.Sprintf("%02d", i+1), Label: monthLabels[i]}
		}
		for _, claim := range claims {
			buckets[claim.FechaCreacion.Month()-1].Count++
		}
		return buckets
	}

	days := daysIn(window.Year, window.Month)
	buckets := make([]Count, days)
	for i := range buckets {
		buckets[i] = Count{Key: fmt.Sprintf("%02d", i+1), Label: fmt.Sprintf("Día %d", i+1)}
	}
	for _, claim := range claims {
		buckets[claim.FechaCreacion.Day()-1].Count++
	}
	return buckets
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
