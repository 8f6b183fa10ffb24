package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// SlipLine is one labelled value on a confirmation slip.
type SlipLine struct {
	Label string
	Value string
}

// Slip is a single-page document with a heading, labelled lines and a footer note.
type Slip struct {
	Title    string
	Subtitle string
	Lines    []SlipLine
	Footer   string
}

// PDFExporter renders slips with gofpdf.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// RenderSlip lays out the slip on one A4 page.
func (e *PDFExporter) RenderSlip(slip Slip) ([]byte, error) {
	if slip.Title == "" {
		return nil, fmt.Errorf("pdf slip requires a title")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetTitle(slip.Title, true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, tr(slip.Title), "", 1, "L", false, 0, "")
	if slip.Subtitle != "" {
		pdf.SetFont("Arial", "", 11)
		pdf.SetTextColor(90, 90, 90)
		pdf.CellFormat(0, 7, tr(slip.Subtitle), "", 1, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}
	pdf.Ln(4)

	for _, line := range slip.Lines {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(50, 8, tr(line.Label), "B", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 8, tr(line.Value), "B", "L", false)
	}

	if slip.Footer != "" {
		pdf.Ln(8)
		pdf.SetFont("Arial", "I", 9)
		pdf.MultiCell(0, 5, tr(slip.Footer), "", "L", false)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
