package rag_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/docent/pkg/eventstream"
	"github.com/papercomputeco/docent/pkg/logger"
	"github.com/papercomputeco/docent/pkg/rag"
	"github.com/papercomputeco/docent/pkg/session"
	"github.com/papercomputeco/docent/pkg/session/inmemory"
	testutils "github.com/papercomputeco/docent/pkg/utils/test"
	"github.com/papercomputeco/docent/pkg/vector"
	"github.com/papercomputeco/docent/pkg/websearch"
)

type stubWeb struct {
	result string
	err    error
	calls  int
}

func (s *stubWeb) Ask(context.Context, string) (string, error) {
	s.calls++
	return s.result, s.err
}

type recordingPublisher struct {
	events []*eventstream.AnswerEvent
	err    error
}

func (p *recordingPublisher) PublishAnswer(_ context.Context, e *eventstream.AnswerEvent) error {
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

var _ = Describe("ParseMode", func() {
	DescribeTable("accepts mode names",
		func(in string, want rag.Mode) {
			Expect(rag.ParseMode(in)).To(Equal(want))
		},
		Entry("docs", "docs", rag.ModeDocuments),
		Entry("documents", "Documents", rag.ModeDocuments),
		Entry("default", "", rag.ModeDocuments),
		Entry("web", "web", rag.ModeWeb),
	)

	It("rejects unknown modes", func() {
		_, err := rag.ParseMode("voice")
		Expect(err).To(MatchError(rag.ErrUnknownMode))
	})
})

var _ = Describe("Pipeline", func() {
	var (
		ctx       context.Context
		driver    *testutils.MockVectorDriver
		completer *testutils.MockCompleter
		web       *stubWeb
		sessions  *inmemory.Driver
		publisher *recordingPublisher
		pipeline  *rag.Pipeline
	)

	BeforeEach(func() {
		ctx = context.Background()
		driver = testutils.NewMockVectorDriver()
		driver.Results = []vector.QueryResult{result("c1", "refunds.txt", "Refunds are processed within 14 days", 0.81)}
		completer = testutils.NewMockCompleter(
			"Refunds are processed within 14 days.\nSOURCES: refunds.txt",
			"- Refunds take 14 days",
		)
		web = &stubWeb{result: "From the web"}
		sessions = inmemory.NewDriver()
		publisher = &recordingPublisher{}

		pipeline = rag.NewPipeline(rag.PipelineConfig{
			Retriever:  rag.NewRetriever(testutils.NewMockEmbedder(), driver),
			Composer:   rag.NewComposer(completer, 0, logger.Nop()),
			Summarizer: rag.NewSummarizer(completer, 0, logger.Nop()),
			Web:        web,
			Sessions:   sessions,
			Publisher:  publisher,
			Logger:     logger.Nop(),
		})
	})

	It("retrieves, composes and summarizes in documents mode", func() {
		resp, err := pipeline.Ask(ctx, rag.ModeDocuments, "What is the refund policy?", rag.WithSession("s1"))
		Expect(err).NotTo(HaveOccurred())

		Expect(resp.Answer.Text).To(Equal("Refunds are processed within 14 days."))
		Expect(resp.Answer.Sources).To(Equal([]string{"refunds.txt"}))
		Expect(resp.Summary).To(Equal([]string{"Refunds take 14 days"}))
		Expect(resp.Retrieved()).To(Equal(1))
		Expect(web.calls).To(BeZero())

		turns, err := sessions.Turns(ctx, "s1")
		Expect(err).NotTo(HaveOccurred())
		Expect(turns).To(HaveLen(1))
		Expect(turns[0].Mode).To(Equal(session.ModeDocuments))
		Expect(turns[0].Summary).To(Equal([]string{"Refunds take 14 days"}))

		Expect(publisher.events).To(HaveLen(1))
		Expect(publisher.events[0].RetrievedChunks).To(Equal(1))
		Expect(publisher.events[0].Sources).To(Equal([]string{"refunds.txt"}))
	})

	It("skips the summary on request", func() {
		resp, err := pipeline.Ask(ctx, rag.ModeDocuments, "q", rag.WithoutSummary())
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Summary).To(BeNil())
		Expect(completer.Calls()).To(Equal(1))
	})

	It("bypasses retrieval in web mode", func() {
		resp, err := pipeline.Ask(ctx, rag.ModeWeb, "latest news", rag.WithSession("s2"))
		Expect(err).NotTo(HaveOccurred())

		Expect(resp.Answer.Text).To(Equal("From the web"))
		Expect(resp.Answer.Sources).To(BeEmpty())
		Expect(resp.Retrieval).To(BeNil())
		_, threshold := driver.LastQuery()
		Expect(threshold).To(BeZero())
		Expect(completer.Calls()).To(BeZero())
	})

	It("surfaces configuration errors from the web agent", func() {
		web.err = &websearch.ConfigurationError{Capability: websearch.KindWebSearch, Variable: websearch.SerperKeyEnv}
		_, err := pipeline.Ask(ctx, rag.ModeWeb, "q")
		Expect(errors.Is(err, websearch.ErrConfiguration)).To(BeTrue())
		Expect(publisher.events).To(BeEmpty())
	})

	It("folds model faults into the response", func() {
		completer.Err = errors.New("model down")
		resp, err := pipeline.Ask(ctx, rag.ModeDocuments, "q")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Answer.Text).To(Equal(rag.NoAnswerText))
		Expect(resp.Summary).To(Equal([]string{rag.SummaryFailedText}))
	})

	It("returns retrieval faults", func() {
		driver.FailQuery = true
		_, err := pipeline.Ask(ctx, rag.ModeDocuments, "q")
		Expect(err).To(MatchError(testutils.ErrMockVector))
	})

	It("only logs publishing failures", func() {
		publisher.err = errors.New("broker down")
		_, err := pipeline.Ask(ctx, rag.ModeDocuments, "q")
		Expect(err).NotTo(HaveOccurred())
	})

	It("does not record turns without a session", func() {
		_, err := pipeline.Ask(ctx, rag.ModeDocuments, "q")
		Expect(err).NotTo(HaveOccurred())
		Expect(sessions.Sessions(ctx)).To(BeEmpty())
	})

	It("rejects blank questions and unknown modes", func() {
		_, err := pipeline.Ask(ctx, rag.ModeDocuments, "   ")
		Expect(err).To(MatchError(rag.ErrEmptyQuestion))

		_, err = pipeline.Ask(ctx, rag.Mode("voice"), "q")
		Expect(err).To(MatchError(rag.ErrUnknownMode))
	})

	It("formats documents answers with their summary", func() {
		resp, err := pipeline.Ask(ctx, rag.ModeDocuments, "What is the refund policy?")
		Expect(err).NotTo(HaveOccurred())

		formatted := resp.Format()
		Expect(formatted).To(HavePrefix("📘 **Answer**\nRefunds are processed within 14 days."))
		Expect(formatted).To(ContainSubstring("- refunds.txt"))
		Expect(formatted).To(HaveSuffix("### 🔍 TL;DR Summary\n- Refunds take 14 days"))
	})

	It("formats web answers without sources", func() {
		resp, err := pipeline.Ask(ctx, rag.ModeWeb, "latest news")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Format()).To(Equal("### 🌐 Web Response\nFrom the web"))
	})
})
