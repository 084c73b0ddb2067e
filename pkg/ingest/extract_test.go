package ingest_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/docent/pkg/ingest"
)

var _ = Describe("Extract", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("reads plain text and markdown", func() {
		text, err := ingest.Extract(writeFile(dir, "notes.txt", "Refunds are processed within 14 days."))
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("Refunds are processed within 14 days."))

		text, err = ingest.Extract(writeFile(dir, "README.MD", "# Title\n\nBody"))
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(ContainSubstring("Body"))
	})

	It("extracts PDF text", func() {
		text, err := ingest.Extract(writePDF(dir, "policy.pdf", "Hello from a PDF"))
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(ContainSubstring("Hello"))
	})

	It("extracts DOCX paragraphs on separate lines", func() {
		text, err := ingest.Extract(writeDOCX(dir, "memo.docx", "First paragraph.", "Second & last."))
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("First paragraph.\nSecond & last.\n"))
	})

	It("extracts DOCX tables one row per line", func() {
		text, err := ingest.Extract(writeDOCXTable(dir, "prices.docx",
			[]string{"Plan", "Price"},
			[]string{"Basic", "$5"},
		))
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("Prices\nPlan\tPrice\nBasic\t$5\n"))
	})

	It("rejects unsupported formats with an ExtractionError", func() {
		path := writeFile(dir, "image.png", "\x89PNG")
		_, err := ingest.Extract(path)

		var ee *ingest.ExtractionError
		Expect(errors.As(err, &ee)).To(BeTrue())
		Expect(ee.Path).To(Equal(path))
		Expect(err).To(MatchError(ingest.ErrUnsupportedFormat))
	})

	It("treats whitespace-only documents as empty", func() {
		_, err := ingest.Extract(writeFile(dir, "blank.txt", "  \n\t "))
		Expect(err).To(MatchError(ingest.ErrEmptyDocument))
	})

	It("rejects text files that are not UTF-8", func() {
		_, err := ingest.Extract(writeFile(dir, "latin1.txt", "caf\xe9"))
		var ee *ingest.ExtractionError
		Expect(errors.As(err, &ee)).To(BeTrue())
	})

	It("reports corrupt PDFs and DOCX files as extraction errors", func() {
		_, err := ingest.Extract(writeFile(dir, "broken.pdf", "not a pdf"))
		var ee *ingest.ExtractionError
		Expect(errors.As(err, &ee)).To(BeTrue())

		_, err = ingest.Extract(writeFile(dir, "broken.docx", "not a zip"))
		Expect(errors.As(err, &ee)).To(BeTrue())
	})

	It("reports supported extensions case-insensitively", func() {
		Expect(ingest.IsSupported("a.PDF")).To(BeTrue())
		Expect(ingest.IsSupported("a.docx")).To(BeTrue())
		Expect(ingest.IsSupported("a.doc")).To(BeFalse())
		Expect(ingest.SupportedExtensions()).To(ConsistOf(".docx", ".md", ".pdf", ".txt"))
	})
})
