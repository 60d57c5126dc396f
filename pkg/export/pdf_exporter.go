package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// MarginNote is one numbered callout in the PDF margin column. Number matches
// the badge printed next to the content line it refers to.
type MarginNote struct {
	Number  int
	Kind    string
	Label   string
	Details []string
}

// TemplateDocument is the print model of one annotated template: the flattened
// content lines and the margin notes keyed by badge number.
type TemplateDocument struct {
	Title string
	Lines []string
	Notes []MarginNote
}

// PDFExporter renders annotated templates into landscape PDFs with a content
// column and a margin-note column.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

const (
	contentColWidth = 170.0
	noteColWidth    = 97.0
	colGap          = 5.0
)

// Render creates a single-template PDF document.
func (e *PDFExporter) Render(doc TemplateDocument) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	if doc.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, doc.Title, "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	topY := pdf.GetY()

	pdf.SetFont("Arial", "", 9)
	for _, line := range doc.Lines {
		pdf.SetX(10)
		pdf.MultiCell(contentColWidth, 5, line, "", "L", false)
	}
	contentBottom := pdf.GetY()

	pdf.SetY(topY)
	noteX := 10 + contentColWidth + colGap
	for _, note := range doc.Notes {
		pdf.SetX(noteX)
		pdf.SetFont("Arial", "B", 9)
		pdf.MultiCell(noteColWidth, 5, fmt.Sprintf("[%d] %s: %s", note.Number, note.Kind, note.Label), "", "L", false)
		pdf.SetFont("Arial", "", 8)
		for _, detail := range note.Details {
			pdf.SetX(noteX + 4)
			pdf.MultiCell(noteColWidth-4, 4, detail, "", "L", false)
		}
		pdf.Ln(2)
	}
	if pdf.GetY() < contentBottom {
		pdf.SetY(contentBottom)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
