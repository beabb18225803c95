package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// RenderPDF lays the table out as a single bordered grid on A4 pages,
// with the title centered above when present.
func RenderPDF(table Table) ([]byte, error) {
	if len(table.Columns) == 0 {
		return nil, fmt.Errorf("export table has no columns")
	}

	doc := gofpdf.New("L", "mm", "A4", "")
	doc.SetMargins(10, 12, 10)
	doc.AddPage()

	if table.Title != "" {
		doc.SetFont("Arial", "B", 14)
		doc.CellFormat(0, 10, table.Title, "", 1, "C", false, 0, "")
		doc.Ln(4)
	}

	pageWidth, _ := doc.GetPageSize()
	colWidth := (pageWidth - 20) / float64(len(table.Columns))

	doc.SetFont("Arial", "B", 10)
	for _, col := range table.Columns {
		doc.CellFormat(colWidth, 8, col, "1", 0, "C", false, 0, "")
	}
	doc.Ln(-1)

	doc.SetFont("Arial", "", 9)
	for _, row := range table.Rows {
		for _, cell := range row {
			doc.CellFormat(colWidth, 7, cell, "1", 0, "", false, 0, "")
		}
		doc.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := doc.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}

	return buf.Bytes(), nil
}

// Render dispatches to the encoder for the given format.
func Render(format Format, table Table) ([]byte, error) {
	if format == FormatPDF {
		return RenderPDF(table)
	}
	return RenderCSV(table)
}
