package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/docent/pkg/logger"
)

func jsonLines(buf *bytes.Buffer) []map[string]any {
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		Expect(json.Unmarshal([]byte(line), &rec)).To(Succeed())
		out = append(out, rec)
	}
	return out
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Enabled(context.Context, slog.Level) bool { return true }
func (failingHandler) Handle(context.Context, slog.Record) error {
	return errors.New("disk full")
}

var _ = Describe("New", func() {
	var buf *bytes.Buffer

	BeforeEach(func() {
		buf = &bytes.Buffer{}
	})

	It("writes key=value text at info by default", func() {
		log := logger.New(logger.WithWriter(buf))
		log.Debug("embedding chunk", "position", 3)
		log.Info("ingested file", "source", "refunds.txt", "chunks", 2)

		out := buf.String()
		Expect(out).NotTo(ContainSubstring("embedding chunk"))
		Expect(out).To(ContainSubstring(`msg="ingested file"`))
		Expect(out).To(ContainSubstring("source=refunds.txt"))
		Expect(out).To(ContainSubstring("chunks=2"))
	})

	It("drops records below WithLevel", func() {
		log := logger.New(logger.WithWriter(buf), logger.WithLevel(slog.LevelWarn))
		log.Info("retrieved chunks", "count", 4)
		log.Warn("skipping file", "path", "photo.png")

		Expect(buf.String()).NotTo(ContainSubstring("retrieved chunks"))
		Expect(buf.String()).To(ContainSubstring("skipping file"))
	})

	It("renders JSON records with grouped attributes", func() {
		log := logger.New(logger.WithWriter(buf), logger.WithFormat(logger.FormatJSON))
		log.With("mode", "documents").WithGroup("query").Info("answered", "top_k", 5)

		recs := jsonLines(buf)
		Expect(recs).To(HaveLen(1))
		Expect(recs[0]).To(HaveKeyWithValue("msg", "answered"))
		Expect(recs[0]).To(HaveKeyWithValue("mode", "documents"))
		Expect(recs[0]["query"]).To(HaveKeyWithValue("top_k", BeNumerically("==", 5)))
	})

	It("reports the caller when asked", func() {
		log := logger.New(logger.WithWriter(buf), logger.WithFormat(logger.FormatJSON), logger.WithCaller(true))
		log.Info("vector store opened")

		Expect(jsonLines(buf)[0]).To(HaveKey(slog.SourceKey))
	})

	It("renders the pretty console format", func() {
		log := logger.New(logger.WithWriter(buf), logger.WithFormat(logger.FormatPretty), logger.WithLevel(slog.LevelDebug))
		log.Debug("web search dispatch", "capability", "news")

		Expect(buf.String()).To(ContainSubstring("web search dispatch"))
		Expect(buf.String()).To(ContainSubstring("capability"))
		Expect(buf.String()).NotTo(HavePrefix("{"))
	})
})

var _ = Describe("Nop", func() {
	It("is disabled at every level", func() {
		h := logger.Nop().Handler()
		for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
			Expect(h.Enabled(context.Background(), level)).To(BeFalse())
		}
	})
})

var _ = Describe("Tee", func() {
	var console, file *bytes.Buffer

	BeforeEach(func() {
		console, file = &bytes.Buffer{}, &bytes.Buffer{}
	})

	It("applies each sink's own level", func() {
		log := logger.Tee(
			logger.New(logger.WithWriter(console), logger.WithLevel(slog.LevelWarn)),
			logger.New(logger.WithWriter(file), logger.WithFormat(logger.FormatJSON), logger.WithLevel(slog.LevelDebug)),
		)

		log.Debug("embedded chunks", "source", "faq.md")
		log.Warn("ingestion queue full")

		Expect(console.String()).NotTo(ContainSubstring("embedded chunks"))
		Expect(console.String()).To(ContainSubstring("ingestion queue full"))

		recs := jsonLines(file)
		Expect(recs).To(HaveLen(2))
		Expect(recs[0]).To(HaveKeyWithValue("source", "faq.md"))
	})

	It("carries With and WithGroup into every sink", func() {
		log := logger.Tee(
			logger.New(logger.WithWriter(console), logger.WithFormat(logger.FormatJSON)),
			logger.New(logger.WithWriter(file), logger.WithFormat(logger.FormatJSON)),
		)

		log.With("session", "s1").WithGroup("answer").Info("composed", "sources", 2)

		for _, buf := range []*bytes.Buffer{console, file} {
			rec := jsonLines(buf)[0]
			Expect(rec).To(HaveKeyWithValue("session", "s1"))
			Expect(rec["answer"]).To(HaveKeyWithValue("sources", BeNumerically("==", 2)))
		}
	})

	It("still reaches later sinks when one fails", func() {
		broken := slog.New(failingHandler{})
		log := logger.Tee(broken, logger.New(logger.WithWriter(file)))

		err := log.Handler().Handle(context.Background(), slog.NewRecord(time.Time{}, slog.LevelInfo, "summary failed", 0))
		Expect(err).To(MatchError(ContainSubstring("disk full")))
		Expect(file.String()).To(ContainSubstring("summary failed"))
	})

	It("returns a lone logger unchanged", func() {
		only := logger.Nop()
		Expect(logger.Tee(only)).To(BeIdenticalTo(only))
	})
})
