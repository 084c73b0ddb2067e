package askcmder

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gopkg.in/yaml.v3"

	"github.com/papercomputeco/docent/api"
	"github.com/papercomputeco/docent/cmd/docent/bootstrap/bootstraptest"
	"github.com/papercomputeco/docent/pkg/vector"
	"github.com/papercomputeco/docent/pkg/websearch"
)

var _ = Describe("ask command", func() {
	var h *bootstraptest.Harness

	BeforeEach(func() {
		GinkgoT().Setenv(websearch.SerperKeyEnv, "")
		h = bootstraptest.New(GinkgoT().TempDir(),
			"Refunds are processed within 14 days.\nSOURCES: refunds.txt",
			"- Refunds take 14 days",
		)
		Expect(h.Vector.Add(context.Background(), []vector.Document{{
			ID:        "refunds.txt#0",
			Text:      "Refunds are processed within 14 days of purchase.",
			Source:    "refunds.txt",
			Embedding: []float32{0.1, 0.2, 0.3},
		}})).To(Succeed())
	})

	It("prints the answer, sources and summary", func() {
		out, err := h.Execute(newAskCmd(h.Factory()), "What", "is", "the", "refund", "policy?")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Refunds are processed within 14 days."))
		Expect(out).To(ContainSubstring("- refunds.txt"))
		Expect(out).To(ContainSubstring("Refunds take 14 days"))
		Expect(out).To(ContainSubstring("session:"))
	})

	It("encodes JSON and records the session", func() {
		out, err := h.Execute(newAskCmd(h.Factory()), "--output", "json", "--session", "s1", "What is the refund policy?")
		Expect(err).NotTo(HaveOccurred())

		var resp api.AskResponse
		Expect(json.Unmarshal([]byte(out), &resp)).To(Succeed())
		Expect(resp.SessionID).To(Equal("s1"))
		Expect(resp.Question).To(Equal("What is the refund policy?"))
		Expect(resp.Sources).To(Equal([]string{"refunds.txt"}))
		Expect(resp.Summary).To(Equal([]string{"Refunds take 14 days"}))
		Expect(resp.Retrieved).To(Equal(1))

		turns, err := h.Sessions.Turns(context.Background(), "s1")
		Expect(err).NotTo(HaveOccurred())
		Expect(turns).To(HaveLen(1))
	})

	It("encodes YAML without a summary on request", func() {
		out, err := h.Execute(newAskCmd(h.Factory()), "-o", "yaml", "--no-summary", "What is the refund policy?")
		Expect(err).NotTo(HaveOccurred())

		var resp api.AskResponse
		Expect(yaml.Unmarshal([]byte(out), &resp)).To(Succeed())
		Expect(resp.Answer).To(Equal("Refunds are processed within 14 days."))
		Expect(resp.Summary).To(BeEmpty())
		Expect(h.Completer.Calls()).To(Equal(1))
	})

	It("exports the session transcript", func() {
		path := filepath.Join(GinkgoT().TempDir(), "chat.txt")
		_, err := h.Execute(newAskCmd(h.Factory()), "--session", "s1", "--export", "txt", "--out", path, "What is the refund policy?")
		Expect(err).NotTo(HaveOccurred())

		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring("Q1: What is the refund policy?"))
		Expect(string(data)).To(ContainSubstring("- Refunds take 14 days"))
	})

	It("fails web questions without a search key before calling the model", func() {
		_, err := h.Execute(newAskCmd(h.Factory()), "--mode", "web", "latest news")
		Expect(err).To(MatchError(websearch.ErrConfiguration))
		Expect(h.Completer.Calls()).To(BeZero())
	})

	It("validates mode, output and export format before building the app", func() {
		_, err := h.Execute(newAskCmd(h.Factory()), "--mode", "voice", "q")
		Expect(err).To(HaveOccurred())

		_, err = h.Execute(newAskCmd(h.Factory()), "--export", "rtf", "q")
		Expect(err).To(HaveOccurred())

		_, err = h.Execute(newAskCmd(h.Factory()), "--output", "xml", "q")
		Expect(err).To(HaveOccurred())
		Expect(h.Completer.Calls()).To(BeZero())
	})
})
