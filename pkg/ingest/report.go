package ingest

import "errors"

// FileReport describes one successfully ingested file.
type FileReport struct {
	Path   string `json:"path"`
	Source string `json:"source"`
	Chunks int    `json:"chunks"`
}

// SkippedFile describes a file left out of the batch and why.
type SkippedFile struct {
	Path string `json:"path"`
	Err  error  `json:"-"`
}

// Reason is the skip error as text, for display and JSON.
func (s SkippedFile) Reason() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}

// Extraction returns the extraction fault behind the skip, if that was the cause.
func (s SkippedFile) Extraction() (*ExtractionError, bool) {
	var ee *ExtractionError
	ok := errors.As(s.Err, &ee)
	return ee, ok
}

// Report is the outcome of a batch. Ingestion is not atomic across files.
type Report struct {
	Ingested []FileReport  `json:"ingested"`
	Skipped  []SkippedFile `json:"skipped"`
}

// Chunks is the total number of chunks written.
func (r *Report) Chunks() int {
	total := 0
	for _, f := range r.Ingested {
		total += f.Chunks
	}
	return total
}

// AllFailed reports whether the batch had files and none of them made it in.
func (r *Report) AllFailed() bool {
	return len(r.Ingested) == 0 && len(r.Skipped) > 0
}

func (r *Report) skip(path string, err error) {
	r.Skipped = append(r.Skipped, SkippedFile{Path: path, Err: err})
}
