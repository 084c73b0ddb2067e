package export

import (
	"fmt"
	"io"

	"github.com/fumiama/go-docx"
)

// Run sizes in half-points.
const (
	titleSize   = "44"
	headingSize = "32"
)

// WriteDOCX renders t as a heading-oriented Word document: a "Chat Log"
// title, questions, plain answers and a "Summary" heading.
func WriteDOCX(t Transcript, w io.Writer) error {
	doc := docx.New().WithDefaultTheme()

	doc.AddParagraph().AddText("Chat Log").Bold().Size(titleSize)
	for i, turn := range t.Turns {
		doc.AddParagraph().AddText(fmt.Sprintf("Q%d: %s", i+1, turn.Question)).Bold()
		doc.AddParagraph().AddText(fmt.Sprintf("A%d: %s", i+1, turn.Answer))
	}
	if len(t.Summary) > 0 {
		doc.AddParagraph().AddText("Summary").Bold().Size(headingSize)
		for _, line := range t.Summary {
			doc.AddParagraph().AddText("- " + line)
		}
	}

	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("writing docx: %w", err)
	}
	return nil
}
