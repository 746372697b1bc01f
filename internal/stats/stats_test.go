package stats

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"

	"github.com/spec-kit/reclamos-service/internal/domain"
)

func claim(id string, created time.Time, cat domain.ClaimCategory, status domain.ClaimStatus, barrio string) domain.Claim {
	return domain.Claim{ID: id, FechaCreacion: created, FechaActualizacion: created, Categoria: cat, Estado: status, Barrio: barrio}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fixture() []domain.Claim {
	return []domain.Claim{
		claim("1", date(2025, 2, 3), domain.CategoryBache, domain.StatusPendiente, "Centro"),
		claim("2", date(2025, 2, 3), domain.CategoryBache, domain.StatusResuelto, "Norte"),
		claim("3", date(2025, 2, 28), domain.CategoryLuminaria, domain.StatusPendiente, "Centro"),
		claim("4", date(2025, 3, 1), domain.CategoryBasura, domain.StatusCerrado, "Sur"),
		claim("5", date(2024, 2, 3), domain.CategoryBache, domain.StatusPendiente, "Centro"),
	}
}

func counts(cs []Count) map[string]int {
	out := make(map[string]int, len(cs))
	for _, c := range cs {
		out[c.Key] = c.Count
	}
	return out
}

func TestAggregateMonthly(t *testing.T) {
	report := Aggregate(fixture(), Monthly(2025, time.February), nil)

	if report.Total != 3 {
		t.Fatalf("total = %d, want 3", report.Total)
	}
	wantStatus := map[string]int{"pendiente": 2, "asignado": 0, "en_proceso": 0, "resuelto": 1, "cerrado": 0}
	if diff := cmp.Diff(wantStatus, counts(report.ByStatus)); diff != "" {
		t.Fatalf("status (-want +got):\n%s", diff)
	}
	if len(report.ByStatus) != len(domain.ClaimStatuses) {
		t.Fatalf("every status must be present, got %d", len(report.ByStatus))
	}

	wantCategories := []Count{
		{Key: "luminaria", Label: "Luminarias", Count: 1},
		{Key: "bache", Label: "Baches", Count: 2},
	}
	if diff := cmp.Diff(wantCategories, report.ByCategory); diff != "" {
		t.Fatalf("categories (-want +got):\n%s", diff)
	}

	if len(report.Series) != 28 {
		t.Fatalf("february 2025 has 28 days, got %d buckets", len(report.Series))
	}
	if report.Series[2].Label != "Día 3" || report.Series[2].Count != 2 {
		t.Fatalf("day 3 bucket = %+v", report.Series[2])
	}
	if report.Series[27].Count != 1 {
		t.Fatalf("day 28 bucket = %+v", report.Series[27])
	}
}

func TestAggregateAnnualWithCategory(t *testing.T) {
	cat := domain.CategoryBache
	report := Aggregate(fixture(), Annual(2025), &cat)

	if report.Total != 2 {
		t.Fatalf("total = %d, want 2", report.Total)
	}
	if len(report.Series) != 12 || report.Series[0].Label != "Ene" || report.Series[11].Label != "Dic" {
		t.Fatalf("unexpected series labels: %+v", report.Series)
	}
	if report.Series[1].Count != 2 {
		t.Fatalf("feb bucket = %+v", report.Series[1])
	}
}

func TestTopBarriosLimitAndTies(t *testing.T) {
	var claims []domain.Claim
	for i, barrio := range []string{"H", "G", "F", "E", "D", "C", "B", "A", "A"} {
		claims = append(claims, claim(string(rune('a'+i)), date(2025, 1, 1), domain.CategoryOtros, domain.StatusPendiente, barrio))
	}
	report := Aggregate(claims, Annual(2025), nil)

	var got []string
	for _, c := range report.TopBarrios {
		got = append(got, c.Key)
	}
	if diff := cmp.Diff([]string{"A", "B", "C", "D", "E", "F"}, got); diff != "" {
		t.Fatalf("barrios (-want +got):\n%s", diff)
	}
}

func TestForUser(t *testing.T) {
	owner := "w-1"
	claims := fixture()
	claims[0].AsignadoA = &owner
	claims[3].AsignadoA = &owner

	got := ForUser(owner, claims)
	if got.Total != 2 || got.ByStatus[domain.StatusPendiente] != 1 || got.ByStatus[domain.StatusCerrado] != 1 {
		t.Fatalf("unexpected stats: %+v", got)
	}
	if got.LastActivity == nil || !got.LastActivity.Equal(date(2025, 3, 1)) {
		t.Fatalf("last activity = %v", got.LastActivity)
	}
	if empty := ForUser("nobody", claims); empty.Total != 0 || empty.LastActivity != nil {
		t.Fatalf("expected empty stats, got %+v", empty)
	}
}

func TestFilename(t *testing.T) {
	if got := Filename(Monthly(2025, time.March)); got != "estadisticas-reclamos-mensual-2025-3.xlsx" {
		t.Fatalf("monthly filename = %s", got)
	}
	if got := Filename(Annual(2024)); got != "estadisticas-reclamos-anual-2024.xlsx" {
		t.Fatalf("annual filename = %s", got)
	}
}

func TestExportWritesWorkbook(t *testing.T) {
	report := Aggregate(fixture(), Monthly(2025, time.February), nil)
	buf, name, err := Export(report, date(2025, 3, 2))
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if name != "estadisticas-reclamos-mensual-2025-2.xlsx" {
		t.Fatalf("filename = %s", name)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	title, err := f.GetCellValue(SheetName, "A1")
	if err != nil {
		t.Fatalf("read A1: %v", err)
	}
	if title != "Reporte Estadístico de Reclamos" {
		t.Fatalf("A1 = %q", title)
	}

	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	found := false
	for _, row := range rows {
		if len(row) == 2 && row[0] == "Total de reclamos en el período" {
			found = row[1] == "3"
		}
	}
	if !found {
		t.Fatalf("total row missing or wrong: %v", rows)
	}
}

func TestExportRejectsMalformedWindow(t *testing.T) {
	now := time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)
	for _, w := range []Window{
		{Mode: ModeMonthly, Year: 2025},
		{Mode: ModeMonthly, Year: 2025, Month: 13},
		{Mode: "semanal", Year: 2025},
	} {
		buf, name, err := Export(Aggregate(nil, w, nil), now)
		if err == nil || buf != nil || name != "" {
			t.Fatalf("window %+v: got %v %q %v", w, buf, name, err)
		}
	}
}
