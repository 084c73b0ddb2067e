package app_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/docent/pkg/app"
	"github.com/papercomputeco/docent/pkg/config"
	"github.com/papercomputeco/docent/pkg/logger"
	"github.com/papercomputeco/docent/pkg/rag"
	testutils "github.com/papercomputeco/docent/pkg/utils/test"
	"github.com/papercomputeco/docent/pkg/websearch"
)

type staticKeys map[string]string

func (k staticKeys) Resolve(provider string) (string, error) {
	return k[provider], nil
}

var _ = Describe("App", func() {
	var (
		ctx       context.Context
		cfg       *config.Config
		completer *testutils.MockCompleter
	)

	BeforeEach(func() {
		ctx = context.Background()
		cfg = config.NewDefaultConfig()
		cfg.VectorStore.Provider = "memory"
		completer = testutils.NewMockCompleter(
			"Refunds are processed within 14 days.\nSOURCES: refunds.txt",
			"- Refunds take 14 days",
		)
	})

	newApp := func(keys app.KeyResolver) *app.App {
		a, err := app.New(ctx, cfg, app.Options{
			ConfigDir: GinkgoT().TempDir(),
			Keys:      keys,
			Logger:    logger.Nop(),
			Embedder:  testutils.NewMockEmbedder(),
			Completer: completer,
		})
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(a.Close)
		return a
	}

	It("answers from ingested documents", func() {
		a := newApp(nil)

		path := filepath.Join(GinkgoT().TempDir(), "refunds.txt")
		Expect(os.WriteFile(path, []byte("Refunds are processed within 14 days of purchase."), 0o600)).To(Succeed())

		report, err := a.Ingestor.WithRoot(filepath.Dir(path)).Ingest(ctx, []string{path})
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Chunks()).To(Equal(1))

		resp, err := a.Pipeline.Ask(ctx, rag.ModeDocuments, "What is the refund policy?", rag.WithSession("s1"))
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Answer.Sources).To(Equal([]string{"refunds.txt"}))
		Expect(resp.Summary).To(Equal([]string{"Refunds take 14 days"}))

		turns, err := a.Sessions.Turns(ctx, "s1")
		Expect(err).NotTo(HaveOccurred())
		Expect(turns).To(HaveLen(1))
	})

	It("applies the configured retrieval settings", func() {
		threshold := 0.5
		cfg.Retrieval.TopK = 2
		cfg.Retrieval.ScoreThreshold = &threshold

		a := newApp(nil)
		Expect(a.Retriever.TopK()).To(Equal(2))
		Expect(a.Retriever.Threshold()).To(BeNumerically("~", 0.5, 1e-6))
	})

	It("answers web questions with a configuration error when the search key is missing", func() {
		a := newApp(nil)
		Expect(a.Web).To(BeNil())
		Expect(a.WebErr).To(MatchError(websearch.ErrConfiguration))

		_, err := a.Pipeline.Ask(ctx, rag.ModeWeb, "latest Go release")
		Expect(err).To(MatchError(websearch.ErrConfiguration))
		Expect(completer.Calls()).To(BeZero())
	})

	It("builds the web agent when the search key resolves", func() {
		a := newApp(staticKeys{"serper": "secret"})
		Expect(a.WebErr).NotTo(HaveOccurred())
		Expect(a.Web).NotTo(BeNil())
		Expect(a.Web.Capabilities()).To(ContainElement(websearch.KindWebSearch))
	})

	It("adds the news capability when a Mediastack key resolves", func() {
		a := newApp(staticKeys{"serper": "secret", "mediastack": "news-key"})
		Expect(a.WebErr).NotTo(HaveOccurred())
		Expect(a.Web.Capabilities()).To(ContainElements(websearch.KindWebSearch, websearch.KindNews))
	})

	It("stores transcripts in sqlite when a path is configured", func() {
		cfg.Storage.SQLitePath = filepath.Join(GinkgoT().TempDir(), "sessions.db")
		a := newApp(nil)

		_, err := a.Pipeline.Ask(ctx, rag.ModeDocuments, "q", rag.WithSession("s2"), rag.WithoutSummary())
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Storage.SQLitePath).To(BeAnExistingFile())
	})

	It("rejects an unknown events provider", func() {
		cfg.Events.Provider = "carrier-pigeon"

		_, err := app.New(ctx, cfg, app.Options{
			Logger:    logger.Nop(),
			Embedder:  testutils.NewMockEmbedder(),
			Completer: completer,
		})
		Expect(err).To(MatchError(ContainSubstring("unsupported events provider")))
	})

	It("rejects an unknown vector store provider", func() {
		cfg.VectorStore.Provider = "filing-cabinet"

		_, err := app.New(ctx, cfg, app.Options{
			Logger:    logger.Nop(),
			Embedder:  testutils.NewMockEmbedder(),
			Completer: completer,
		})
		Expect(err).To(MatchError(ContainSubstring("unsupported vector store provider")))
	})
})
