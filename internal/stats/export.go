package stats

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

// SheetName is the single worksheet of an exported report.
const SheetName = "Estadísticas"

var monthNames = [12]string{"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio", "Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre"}

// Filename follows estadisticas-reclamos-<mensual|anual>-<year>[-<month>].xlsx.
func Filename(w Window) string {
	if w.Mode == ModeMonthly {
		return fmt.Sprintf("estadisticas-reclamos-%s-%d-%d.xlsx", w.Mode, w.Year, int(w.Month))
	}
	return fmt.Sprintf("estadisticas-reclamos-%s-%d.xlsx", w.Mode, w.Year)
}

// Export renders report as an xlsx workbook. generatedOn is printed in the
// header block.
func Export(report Report, generatedOn time.Time) (*bytes.Buffer, string, error) {
	if err := report.Window.Validate(); err != nil {
		return nil, "", err
	}
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(SheetName)
	if err != nil {
		return nil, "", fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, "", fmt.Errorf("drop default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 12},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DCE6F1"}, Pattern: 1},
	})
	if err != nil {
		return nil, "", fmt.Errorf("header style: %w", err)
	}
	_ = f.SetColWidth(SheetName, "A", "A", 34)
	_ = f.SetColWidth(SheetName, "B", "B", 14)

	w := &sheetWriter{f: f, row: 1}
	w.put(headerStyle, "Reporte Estadístico de Reclamos", "")
	w.put(0, "Municipalidad de Villa Mercedes - San Luis, Argentina", "")
	w.put(0, "Fecha del reporte", generatedOn.Format("02/01/2006"))
	w.skip()

	w.put(headerStyle, "Filtros Aplicados", "")
	if report.Window.Mode == ModeMonthly {
		w.put(0, "Vista", "Mensual")
		w.put(0, "Período", fmt.Sprintf("%s %d", monthNames[report.Window.Month-1], report.Window.Year))
	} else {
		w.put(0, "Vista", "Anual")
		w.put(0, "Año", report.Window.Year)
	}
	if report.Categoria != nil {
		w.put(0, "Categoría", report.Categoria.Label())
	}
	w.skip()

	w.put(headerStyle, "Resumen", "")
	w.put(0, "Total de reclamos en el período", report.Total)
	for _, c := range report.ByStatus {
		w.put(0, c.Label, c.Count)
	}
	w.skip()

	w.section(headerStyle, "Reclamos por Categoría", report.ByCategory)
	w.section(headerStyle, "Barrios más Afectados", report.TopBarrios)
	w.section(headerStyle, "Evolución", report.Series)

	if w.err != nil {
		return nil, "", fmt.Errorf("write cells: %w", w.err)
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, "", fmt.Errorf("write workbook: %w", err)
	}
	return buf, Filename(report.Window), nil
}

type sheetWriter struct {
	f   *excelize.File
	row int
	err error
}

func (w *sheetWriter) put(style int, label string, value any) {
	if w.err != nil {
		return
	}
	a, _ := excelize.CoordinatesToCellName(1, w.row)
	b, _ := excelize.CoordinatesToCellName(2, w.row)
	if err := w.f.SetCellValue(SheetName, a, label); err != nil {
		w.err = err
		return
	}
	if value != "" {
		if err := w.f.SetCellValue(SheetName, b, value); err != nil {
			w.err = err
			return
		}
	}
	if style != 0 {
		w.err = w.f.SetCellStyle(SheetName, a, b, style)
	}
	w.row++
}

func (w *sheetWriter) section(style int, title string, rows []Count) {
	if len(rows) == 0 {
		return
	}
	w.put(style, title, "Cantidad")
	for _, c := range rows {
		w.put(0, c.Label, c.Count)
	}
	w.skip()
}

func (w *sheetWriter) skip() {
	w.row++
}
