package websearch_test

import (
	"context"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/docent/pkg/websearch"
)

var _ = Describe("Wikipedia", func() {
	It("renders page summaries for the top hits", func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			switch {
			case q.Get("list") == "search":
				_, _ = w.Write([]byte(`{"query":{"search":[{"title":"Go (programming language)"},{"title":"Gopher"}]}}`))
			case q.Get("titles") == "Go (programming language)":
				_, _ = w.Write([]byte(`{"query":{"pages":{"1":{"title":"Go (programming language)","extract":"Go is a language."}}}}`))
			default:
				_, _ = w.Write([]byte(`{"query":{"pages":{"2":{"title":"Gopher","extract":"A rodent."}}}}`))
			}
		}))
		defer srv.Close()

		w := websearch.NewWikipedia(websearch.WikipediaConfig{URL: srv.URL})
		out, err := w.Search(context.Background(), "golang")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("Page: Go (programming language)\nSummary: Go is a language.\n\nPage: Gopher\nSummary: A rodent."))
	})

	It("reports when nothing is found", func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"query":{"search":[]}}`))
		}))
		defer srv.Close()

		w := websearch.NewWikipedia(websearch.WikipediaConfig{URL: srv.URL})
		Expect(w.Search(context.Background(), "zzzz")).To(Equal("No good Wikipedia Search Result was found"))
	})

	It("caps the result length", func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("list") == "search" {
				_, _ = w.Write([]byte(`{"query":{"search":[{"title":"T"}]}}`))
				return
			}
			_, _ = w.Write([]byte(`{"query":{"pages":{"1":{"title":"T","extract":"abcdefghijklmnopqrstuvwxyz"}}}}`))
		}))
		defer srv.Close()

		w := websearch.NewWikipedia(websearch.WikipediaConfig{URL: srv.URL, MaxChars: 10})
		Expect(w.Search(context.Background(), "t")).To(Equal("Page: T\nSu..."))
	})
})
