package mcp_test

import (
	"context"
	"errors"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/docent/api/mcp"
	"github.com/papercomputeco/docent/pkg/logger"
	"github.com/papercomputeco/docent/pkg/rag"
	"github.com/papercomputeco/docent/pkg/session/inmemory"
	testutils "github.com/papercomputeco/docent/pkg/utils/test"
	"github.com/papercomputeco/docent/pkg/vector"
)

type stubWeb struct {
	result string
	err    error
}

func (s *stubWeb) Ask(context.Context, string) (string, error) {
	return s.result, s.err
}

var _ = Describe("MCP Server", func() {
	var (
		ctx       context.Context
		config    mcp.Config
		driver    *testutils.MockVectorDriver
		completer *testutils.MockCompleter
		web       *stubWeb
		sessions  *inmemory.Driver
	)

	BeforeEach(func() {
		ctx = context.Background()
		driver = testutils.NewMockVectorDriver()
		driver.Results = []vector.QueryResult{{
			Document: vector.Document{ID: "c1", Source: "refunds.txt", Text: "Refunds are processed within 14 days"},
			Score:    0.81,
		}}
		completer = testutils.NewMockCompleter(
			"Refunds are processed within 14 days.\nSOURCES: refunds.txt",
			"- Refunds take 14 days",
		)
		web = &stubWeb{result: "Go 1.25 is the latest release"}
		sessions = inmemory.NewDriver()

		retriever := rag.NewRetriever(testutils.NewMockEmbedder(), driver)
		summarizer := rag.NewSummarizer(completer, 0, logger.Nop())
		config = mcp.Config{
			Pipeline: rag.NewPipeline(rag.PipelineConfig{
				Retriever:  retriever,
				Composer:   rag.NewComposer(completer, 0, logger.Nop()),
				Summarizer: summarizer,
				Web:        web,
				Sessions:   sessions,
				Logger:     logger.Nop(),
			}),
			Retriever:  retriever,
			Summarizer: summarizer,
			Logger:     logger.Nop(),
		}
	})

	Describe("NewServer", func() {
		It("returns an error when the pipeline is nil", func() {
			config.Pipeline = nil
			_, err := mcp.NewServer(config)
			Expect(err).To(MatchError(ContainSubstring("pipeline is required")))
		})

		It("returns an error when the retriever is nil", func() {
			config.Retriever = nil
			_, err := mcp.NewServer(config)
			Expect(err).To(MatchError(ContainSubstring("retriever is required")))
		})

		It("returns an error when the logger is nil", func() {
			config.Logger = nil
			_, err := mcp.NewServer(config)
			Expect(err).To(MatchError(ContainSubstring("logger is required")))
		})

		It("creates an empty server in noop mode", func() {
			server, err := mcp.NewServer(mcp.Config{Noop: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(server.Handler()).NotTo(BeNil())
		})
	})

	Describe("tools", func() {
		var session *sdk.ClientSession

		BeforeEach(func() {
			server, err := mcp.NewServer(config)
			Expect(err).NotTo(HaveOccurred())

			serverTransport, clientTransport := sdk.NewInMemoryTransports()
			serverSession, err := server.MCPServer().Connect(ctx, serverTransport, nil)
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(serverSession.Close)

			client := sdk.NewClient(&sdk.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
			session, err = client.Connect(ctx, clientTransport, nil)
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(session.Close)
		})

		call := func(name string, args map[string]any) *sdk.CallToolResult {
			res, err := session.CallTool(ctx, &sdk.CallToolParams{Name: name, Arguments: args})
			Expect(err).NotTo(HaveOccurred())
			return res
		}

		text := func(res *sdk.CallToolResult) string {
			Expect(res.Content).NotTo(BeEmpty())
			tc, ok := res.Content[0].(*sdk.TextContent)
			Expect(ok).To(BeTrue())
			return tc.Text
		}

		It("lists every tool", func() {
			res, err := session.ListTools(ctx, nil)
			Expect(err).NotTo(HaveOccurred())

			names := make([]string, 0, len(res.Tools))
			for _, t := range res.Tools {
				names = append(names, t.Name)
			}
			Expect(names).To(ConsistOf("ask_documents", "web_search", "search_documents", "summarize"))
		})

		It("answers from documents and records the session turn", func() {
			res := call("ask_documents", map[string]any{"question": "What is the refund policy?", "session_id": "m1"})
			Expect(res.IsError).To(BeFalse())

			out := text(res)
			Expect(out).To(ContainSubstring(`"answer":"Refunds are processed within 14 days."`))
			Expect(out).To(ContainSubstring(`"sources":["refunds.txt"]`))
			Expect(out).To(ContainSubstring(`"summary":["Refunds take 14 days"]`))

			turns, err := sessions.Turns(ctx, "m1")
			Expect(err).NotTo(HaveOccurred())
			Expect(turns).To(HaveLen(1))
		})

		It("rejects an empty question", func() {
			res := call("ask_documents", map[string]any{"question": "  "})
			Expect(res.IsError).To(BeTrue())
			Expect(text(res)).To(Equal("question is required"))
		})

		It("returns the raw web result", func() {
			res := call("web_search", map[string]any{"query": "latest Go release"})
			Expect(res.IsError).To(BeFalse())
			Expect(text(res)).To(ContainSubstring("Go 1.25 is the latest release"))
		})

		It("reports web failures as tool errors", func() {
			web.err = errors.New("upstream down")
			res := call("web_search", map[string]any{"query": "anything"})
			Expect(res.IsError).To(BeTrue())
			Expect(text(res)).To(ContainSubstring("upstream down"))
		})

		It("searches document chunks", func() {
			res := call("search_documents", map[string]any{"query": "refunds", "top_k": 3})
			Expect(res.IsError).To(BeFalse())

			out := text(res)
			Expect(out).To(ContainSubstring(`"source":"refunds.txt"`))
			Expect(out).To(ContainSubstring(`"count":1`))

			topK, _ := driver.LastQuery()
			Expect(topK).To(Equal(3))
		})

		It("summarizes text", func() {
			completer.Replies = []string{"- First point\n- Second point"}
			res := call("summarize", map[string]any{"text": "A long answer."})
			Expect(res.IsError).To(BeFalse())
			Expect(text(res)).To(ContainSubstring(`"summary":["First point","Second point"]`))
		})
	})
})
