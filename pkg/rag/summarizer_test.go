package rag_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/docent/pkg/logger"
	"github.com/papercomputeco/docent/pkg/rag"
	testutils "github.com/papercomputeco/docent/pkg/utils/test"
)

var _ = Describe("Summarizer", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("extracts dash bullets in order", func() {
		completer := testutils.NewMockCompleter("Refunds take 14 days\n- Refunds go to the card\n-   Support handles disputes  \nThanks")
		s := rag.NewSummarizer(completer, 0, logger.Nop())

		Expect(s.Summarize(ctx, "answer")).To(Equal([]string{"Refunds go to the card", "Support handles disputes"}))
		Expect(completer.Prompts()[0]).To(ContainSubstring("Answer:\nanswer\n\nBullet Point Summary:\n- "))
	})

	It("returns exactly the no-summary sentinel when no line is dash-prefixed", func() {
		s := rag.NewSummarizer(testutils.NewMockCompleter("Refunds take fourteen days."), 0, logger.Nop())
		Expect(s.Summarize(ctx, "answer")).To(Equal([]string{"No summary available."}))
	})

	It("returns exactly the failure sentinel on a model fault", func() {
		s := rag.NewSummarizer(&testutils.MockCompleter{Err: errors.New("timeout")}, 0, logger.Nop())
		Expect(s.Summarize(ctx, "answer")).To(Equal([]string{"Summary failed."}))
	})

	It("keeps percent signs in the answer verbatim", func() {
		Expect(rag.SummaryPrompt("100% refunds")).To(ContainSubstring("Answer:\n100% refunds\n"))
	})

	DescribeTable("ParseBullets",
		func(reply string, want []string) {
			Expect(rag.ParseBullets(reply)).To(Equal(want))
		},
		Entry("dash bullets", "- a\n- b", []string{"a", "b"}),
		Entry("inline dash", "x - y", []string{"y"}),
		Entry("no bullets", "plain text", nil),
		Entry("dash without space", "-a", nil),
	)
})
