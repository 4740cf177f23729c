package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// WeeklyGrid is a day-by-period timetable laid out for printing.
type WeeklyGrid struct {
	Title   string
	Days    []string
	Periods int
	// Cells maps a day to its per-period labels; index 0 is period 1.
	// Empty strings render as blank cells.
	Cells map[string][]string
}

// PDFExporter renders weekly timetable grids into PDF documents.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// RenderGrid creates a landscape PDF with one row per day and one column per period.
func (e *PDFExporter) RenderGrid(grid WeeklyGrid) ([]byte, error) {
	if len(grid.Days) == 0 || grid.Periods <= 0 {
		return nil, fmt.Errorf("pdf grid requires days and periods")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if grid.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(grid.Title), "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	const dayColWidth = 28.0
	colWidth := (277.0 - dayColWidth) / float64(grid.Periods)

	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(dayColWidth, 8, "Day", "1", 0, "C", false, 0, "")
	for p := 1; p <= grid.Periods; p++ {
		pdf.CellFormat(colWidth, 8, fmt.Sprintf("P%d", p), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	for _, day := range grid.Days {
		pdf.SetFont("Arial", "B", 8)
		pdf.CellFormat(dayColWidth, 10, day, "1", 0, "C", false, 0, "")
		pdf.SetFont("Arial", "", 7)
		labels := grid.Cells[day]
		for p := 0; p < grid.Periods; p++ {
			label := ""
			if p < len(labels) {
				label = labels[p]
			}
			pdf.CellFormat(colWidth, 10, label, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
