package anthropic_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/docent/pkg/llm"
	"github.com/papercomputeco/docent/pkg/llm/provider/anthropic"
)

var _ = Describe("Client", func() {
	It("requires an API key", func() {
		_, err := anthropic.New(anthropic.Config{})
		Expect(err).To(HaveOccurred())
	})

	It("posts a messages request with auth headers", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.URL.Path).To(Equal("/v1/messages"))
			Expect(r.Header.Get("x-api-key")).To(Equal("sk-ant"))
			Expect(r.Header.Get("anthropic-version")).To(Equal("2023-06-01"))

			var body map[string]any
			Expect(json.NewDecoder(r.Body).Decode(&body)).To(Succeed())
			Expect(body).To(HaveKeyWithValue("max_tokens", BeNumerically("==", 512)))

			_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"Hello "},{"type":"text","text":"there"}],"stop_reason":"end_turn"}`))
		}))
		defer server.Close()

		c, err := anthropic.New(anthropic.Config{APIKey: "sk-ant", BaseURL: server.URL})
		Expect(err).NotTo(HaveOccurred())

		out, err := c.Complete(context.Background(), "hi", llm.Options{MaxTokens: 512})
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("Hello there"))
	})

	It("defaults max_tokens since the API requires it", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			var body map[string]any
			Expect(json.NewDecoder(r.Body).Decode(&body)).To(Succeed())
			Expect(body).To(HaveKeyWithValue("max_tokens", BeNumerically("==", 1024)))
			_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"ok"}]}`))
		}))
		defer server.Close()

		c, _ := anthropic.New(anthropic.Config{APIKey: "k", BaseURL: server.URL})
		_, err := c.Complete(context.Background(), "hi", llm.Options{})
		Expect(err).NotTo(HaveOccurred())
	})

	It("wraps API errors", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
		}))
		defer server.Close()

		c, _ := anthropic.New(anthropic.Config{APIKey: "k", BaseURL: server.URL})
		_, err := c.Complete(context.Background(), "hi", llm.Options{})
		Expect(err).To(MatchError(llm.ErrModelCall))
		Expect(err.Error()).To(ContainSubstring("429"))
	})

	It("treats an empty reply as a model call error", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"content":[]}`))
		}))
		defer server.Close()

		c, _ := anthropic.New(anthropic.Config{APIKey: "k", BaseURL: server.URL})
		_, err := c.Complete(context.Background(), "hi", llm.Options{})
		Expect(err).To(MatchError(llm.ErrModelCall))
	})
})
