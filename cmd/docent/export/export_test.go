package exportcmder

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/docent/cmd/docent/bootstrap/bootstraptest"
	"github.com/papercomputeco/docent/pkg/session"
)

var _ = Describe("export command", func() {
	var (
		h   *bootstraptest.Harness
		dir string
	)

	BeforeEach(func() {
		h = bootstraptest.New(GinkgoT().TempDir())
		dir = GinkgoT().TempDir()

		ctx := context.Background()
		Expect(h.Sessions.Append(ctx, &session.Turn{
			SessionID: "s1",
			Mode:      session.ModeDocuments,
			Question:  "What is the refund policy?",
			Answer:    "Refunds are processed within 14 days.",
			Summary:   []string{"Refunds take 14 days"},
		})).To(Succeed())
		Expect(h.Sessions.Append(ctx, &session.Turn{
			SessionID: "s1",
			Mode:      session.ModeWeb,
			Question:  "Latest news?",
			Answer:    "From the web",
		})).To(Succeed())
	})

	It("writes a text transcript", func() {
		path := filepath.Join(dir, "chat.txt")
		out, err := h.Execute(newExportCmd(h.Factory()), "s1", "--out", path)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Exported 2 turn(s)"))

		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring("Q2: Latest news?"))
		Expect(string(data)).To(ContainSubstring("Summary:\n- Refunds take 14 days"))
	})

	It("writes a PDF", func() {
		path := filepath.Join(dir, "chat.pdf")
		_, err := h.Execute(newExportCmd(h.Factory()), "s1", "--format", "pdf", "--out", path)
		Expect(err).NotTo(HaveOccurred())

		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(HavePrefix("%PDF"))
	})

	It("lists sessions", func() {
		out, err := h.Execute(newExportCmd(h.Factory()), "--list")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("s1\n"))
	})

	It("reports unknown sessions", func() {
		_, err := h.Execute(newExportCmd(h.Factory()), "missing", "--out", filepath.Join(dir, "x.txt"))
		var notFound session.NotFoundError
		Expect(err).To(BeAssignableToTypeOf(notFound))
	})

	It("requires a session unless listing", func() {
		_, err := h.Execute(newExportCmd(h.Factory()))
		Expect(err).To(MatchError(ContainSubstring("session ID argument required")))
	})

	It("rejects unknown formats", func() {
		_, err := h.Execute(newExportCmd(h.Factory()), "s1", "--format", "rtf")
		Expect(err).To(HaveOccurred())
	})
})
