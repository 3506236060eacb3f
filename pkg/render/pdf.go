package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// PDFRenderer lays documents out on A4 pages.
type PDFRenderer struct{}

// NewPDFRenderer constructs a PDF renderer.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

// Render produces the PDF bytes for src.
func (r *PDFRenderer) Render(src Source) ([]byte, error) {
	if strings.TrimSpace(src.Title) == "" {
		return nil, fmt.Errorf("pdf requires a title")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 10, tr(fmt.Sprintf("%s - page %d", numberLabel(src), pdf.PageNo())), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	if src.SchoolName != "" {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 7, tr(strings.ToUpper(src.SchoolName)), "", 1, "C", false, 0, "")
	}
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 6, tr(numberLabel(src)), "", 1, "R", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 14)
	pdf.MultiCell(0, 8, tr(src.Title), "", "C", false)
	pdf.Ln(4)

	for _, block := range Blocks(src.Content) {
		if block.Heading {
			pdf.SetFont("Arial", "B", 11)
		} else {
			pdf.SetFont("Arial", "", 11)
		}
		pdf.MultiCell(0, 6, tr(block.Text), "", "J", false)
		pdf.Ln(2)
	}

	if src.Author != "" || !src.GeneratedAt.IsZero() {
		pdf.Ln(8)
		pdf.SetFont("Arial", "", 9)
		pdf.CellFormat(0, 5, tr(src.Author), "", 1, "L", false, 0, "")
		if !src.GeneratedAt.IsZero() {
			pdf.CellFormat(0, 5, src.GeneratedAt.Format("02/01/2006 15:04"), "", 1, "L", false, 0, "")
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
