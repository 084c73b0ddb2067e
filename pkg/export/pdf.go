package export

import (
	"fmt"
	"io"
	"regexp"

	"github.com/go-pdf/fpdf"
)

const (
	pdfFont        = "Arial"
	pdfFontSize    = 12
	pdfLineHeight  = 10
	pdfBreakMargin = 15
)

var nonASCII = regexp.MustCompile(`[^\x00-\x7F]+`)

// CleanText strips every non-ASCII run. The core PDF fonts cannot encode them.
func CleanText(s string) string {
	return nonASCII.ReplaceAllString(s, "")
}

// WritePDF renders t as a page-oriented document.
func WritePDF(t Transcript, w io.Writer) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, pdfBreakMargin)
	pdf.AddPage()
	pdf.SetFont(pdfFont, "", pdfFontSize)

	for i, turn := range t.Turns {
		pdf.MultiCell(0, pdfLineHeight, CleanText(fmt.Sprintf("Q%d: %s", i+1, turn.Question)), "", "L", false)
		pdf.MultiCell(0, pdfLineHeight, CleanText(fmt.Sprintf("A%d: %s", i+1, turn.Answer)), "", "L", false)
		pdf.Ln(-1)
	}

	if len(t.Summary) > 0 {
		pdf.SetFont(pdfFont, "B", pdfFontSize)
		pdf.CellFormat(0, pdfLineHeight, "Summary:", "", 1, "", false, 0, "")
		pdf.SetFont(pdfFont, "", pdfFontSize)
		for _, line := range t.Summary {
			pdf.MultiCell(0, pdfLineHeight, CleanText("- "+line), "", "L", false)
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("rendering pdf: %w", err)
	}
	return nil
}
