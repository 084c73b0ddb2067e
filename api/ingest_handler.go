package api

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/docent/pkg/ingest"
	"github.com/papercomputeco/docent/pkg/session"
)

const uploadField = "files"

// IngestResponse is the body of a synchronous POST /v1/ingest.
type IngestResponse struct {
	Ingested []ingest.FileReport `json:"ingested"`
	Skipped  []SkippedFile       `json:"skipped"`
	Chunks   int                 `json:"chunks"`
}

// SkippedFile is an upload that was not ingested.
type SkippedFile struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// IngestJobResponse is the body of an accepted async=true upload.
type IngestJobResponse struct {
	JobID string   `json:"job_id"`
	Files []string `json:"files"`
}

// handleIngest stores multipart uploads in the upload directory and ingests
// them. With async=true the batch is queued on the worker pool and the
// request returns 202 immediately.
func (s *Server) handleIngest(c *fiber.Ctx) error {
	if s.config.Ingestor == nil || s.config.UploadDir == "" {
		return unavailable(c, "ingestion is not configured")
	}

	async := c.QueryBool("async", false)
	if async && s.config.Pool == nil {
		return unavailable(c, "async ingestion is not configured")
	}

	form, err := c.MultipartForm()
	if err != nil {
		return badRequest(c, "multipart form with one or more files is required")
	}
	headers := form.File[uploadField]
	if len(headers) == 0 {
		return badRequest(c, fmt.Sprintf("no files in form field %q", uploadField))
	}

	if err := os.MkdirAll(s.config.UploadDir, 0o755); err != nil {
		return s.fail(c, fmt.Errorf("creating upload directory: %w", err))
	}

	paths := make([]string, 0, len(headers))
	for _, fh := range headers {
		name := filepath.Base(fh.Filename)
		if name == "." || name == string(filepath.Separator) || strings.HasPrefix(name, "..") {
			return badRequest(c, fmt.Sprintf("invalid file name %q", fh.Filename))
		}

		dest := filepath.Join(s.config.UploadDir, name)
		if err := c.SaveFile(fh, dest); err != nil {
			return s.fail(c, fmt.Errorf("saving %s: %w", name, err))
		}
		paths = append(paths, dest)
	}

	if async {
		jobID := session.NewID()
		if !s.config.Pool.Enqueue(ingest.Job{ID: jobID, Paths: paths}) {
			return unavailable(c, "ingestion queue is full")
		}
		return c.Status(fiber.StatusAccepted).JSON(IngestJobResponse{JobID: jobID, Files: baseNames(paths)})
	}

	report, err := s.config.Ingestor.Ingest(c.Context(), paths)
	if err != nil {
		return s.fail(c, err)
	}

	skipped := make([]SkippedFile, 0, len(report.Skipped))
	for _, sk := range report.Skipped {
		skipped = append(skipped, SkippedFile{Path: filepath.Base(sk.Path), Reason: sk.Reason()})
	}

	status := fiber.StatusOK
	if report.AllFailed() {
		status = fiber.StatusUnprocessableEntity
	}
	return c.Status(status).JSON(IngestResponse{
		Ingested: report.Ingested,
		Skipped:  skipped,
		Chunks:   report.Chunks(),
	})
}

func baseNames(paths []string) []string {
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	return names
}
