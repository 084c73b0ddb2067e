// Package export renders question and answer transcripts as plain text, PDF
// or Word documents.
package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Format is an export file format.
type Format string

const (
	FormatText Format = "txt"
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// ErrUnknownFormat is returned for unsupported format names.
var ErrUnknownFormat = errors.New("unknown export format")

// Turn is one question with its answer.
type Turn struct {
	Question string
	Answer   string
}

// Transcript is an ordered conversation with an optional summary.
type Transcript struct {
	Turns   []Turn
	Summary []string
}

// ParseFormat accepts txt, text, pdf, docx and word.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "txt", "text", "":
		return FormatText, nil
	case "pdf":
		return FormatPDF, nil
	case "docx", "word":
		return FormatDOCX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ContentType returns the MIME type of f.
func ContentType(f Format) string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Extension returns the file extension of f, with the leading dot.
func Extension(f Format) string {
	return "." + string(f)
}

// Export writes t to w in format f.
func Export(f Format, t Transcript, w io.Writer) error {
	switch f {
	case FormatText:
		return WriteText(t, w)
	case FormatPDF:
		return WritePDF(t, w)
	case FormatDOCX:
		return WriteDOCX(t, w)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// WriteFile exports t to a new file at path.
func WriteFile(path string, f Format, t Transcript) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return Export(f, t, file)
}
