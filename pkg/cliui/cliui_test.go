package cliui

import (
	"bytes"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Step", func() {
	It("prints a single result line on a plain writer", func() {
		var buf bytes.Buffer
		err := Step(&buf, "Embedding chunks", func() error { return nil })
		Expect(err).NotTo(HaveOccurred())
		Expect(buf.String()).To(HavePrefix("  ✓ Embedding chunks ("))
		Expect(buf.String()).NotTo(ContainSubstring("\r"))
	})

	It("returns the step error", func() {
		var buf bytes.Buffer
		fault := errors.New("boom")
		Expect(Step(&buf, "Loading", func() error { return fault })).To(MatchError(fault))
		Expect(buf.String()).To(ContainSubstring("✗ Loading"))
	})
})

var _ = Describe("FormatDuration", func() {
	It("uses milliseconds under a second", func() {
		Expect(FormatDuration(12 * time.Millisecond)).To(Equal("12ms"))
	})

	It("uses seconds with one decimal otherwise", func() {
		Expect(FormatDuration(3200 * time.Millisecond)).To(Equal("3.2s"))
	})
})

var _ = Describe("Preview", func() {
	It("flattens whitespace", func() {
		Expect(Preview("Refunds\n\tare   processed", 80)).To(Equal("Refunds are processed"))
	})

	It("truncates to the width with an ellipsis", func() {
		Expect(Preview("Refunds are processed within 14 days", 10)).To(Equal("Refunds a…"))
	})
})
