package chroma_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	docentlogger "github.com/papercomputeco/docent/pkg/logger"
	"github.com/papercomputeco/docent/pkg/vector"
	"github.com/papercomputeco/docent/pkg/vector/chroma"
)

const collectionPrefix = "/api/v2/tenants/default_tenant/databases/default_database/collections"

var _ = Describe("Driver", func() {
	var logger *slog.Logger

	BeforeEach(func() {
		logger = docentlogger.Nop()
	})

	Describe("NewDriver", func() {
		It("should return an error when URL is empty", func() {
			_, err := chroma.NewDriver(chroma.Config{URL: ""}, logger)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("chroma URL is required"))
		})

		It("creates the collection with cosine space when it is missing", func() {
			var created map[string]any
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				defer GinkgoRecover()
				if r.Method == http.MethodGet {
					http.Error(w, "not found", http.StatusNotFound)
					return
				}
				Expect(json.NewDecoder(r.Body).Decode(&created)).To(Succeed())
				json.NewEncoder(w).Encode(map[string]string{"id": "new-id", "name": "my_rag_docs"})
			}))
			defer server.Close()

			_, err := chroma.NewDriver(chroma.Config{URL: server.URL, MaxRetries: 1}, logger)
			Expect(err).NotTo(HaveOccurred())
			Expect(created["name"]).To(Equal(chroma.DefaultCollectionName))
			Expect(created["metadata"]).To(HaveKeyWithValue("hnsw:space", "cosine"))
		})

		It("should succeed after retrying when Chroma becomes available", func() {
			var attempts atomic.Int32

			// Each attempt issues a GET for the collection then a POST to
			// create it; fail the first two attempts entirely.
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				attempt := attempts.Add(1)
				if attempt <= 4 {
					http.Error(w, "service unavailable", http.StatusServiceUnavailable)
					return
				}

				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]string{
					"id":   "test-collection-id",
					"name": "my_rag_docs",
				})
			}))
			defer server.Close()

			driver, err := chroma.NewDriver(chroma.Config{
				URL:           server.URL,
				MaxRetries:    5,
				RetryDelay:    10 * time.Millisecond,
				MaxRetryDelay: 50 * time.Millisecond,
			}, logger)
			Expect(err).NotTo(HaveOccurred())
			Expect(driver).NotTo(BeNil())
			Expect(attempts.Load()).To(BeNumerically(">=", int32(5)))
		})

		It("should return an error after exhausting all retries", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "service unavailable", http.StatusServiceUnavailable)
			}))
			defer server.Close()

			_, err := chroma.NewDriver(chroma.Config{
				URL:           server.URL,
				MaxRetries:    3,
				RetryDelay:    10 * time.Millisecond,
				MaxRetryDelay: 50 * time.Millisecond,
			}, logger)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("after 3 attempts"))
			Expect(errors.Is(err, vector.ErrConnection)).To(BeTrue())
		})
	})

	Describe("against a fake server", func() {
		var (
			server   *httptest.Server
			driver   *chroma.Driver
			upserted map[string]any
			deleted  map[string]any
			listed   map[string]any
		)

		BeforeEach(func() {
			upserted, deleted, listed = nil, nil, nil
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				defer GinkgoRecover()
				w.Header().Set("Content-Type", "application/json")
				switch {
				case r.Method == http.MethodGet:
					json.NewEncoder(w).Encode(map[string]string{"id": "cid", "name": "my_rag_docs"})
				case strings.HasSuffix(r.URL.Path, "/cid/upsert"):
					Expect(json.NewDecoder(r.Body).Decode(&upserted)).To(Succeed())
					w.Write([]byte(`{}`))
				case strings.HasSuffix(r.URL.Path, "/cid/delete"):
					Expect(json.NewDecoder(r.Body).Decode(&deleted)).To(Succeed())
					w.Write([]byte(`[]`))
				case strings.HasSuffix(r.URL.Path, "/cid/get"):
					Expect(json.NewDecoder(r.Body).Decode(&listed)).To(Succeed())
					w.Write([]byte(`{"ids": ["c1", "c2", "c3"], "metadatas": [{}, {}, {}]}`))
				case strings.HasSuffix(r.URL.Path, "/cid/query"):
					w.Write([]byte(`{
						"ids": [["c1", "c2", "c3"]],
						"distances": [[0.19, 0.5, 0.9]],
						"documents": [["Refunds are processed within 14 days", "Shipping", "Hours"]],
						"metadatas": [[
							{"source": "policy.txt", "position": 0},
							{"source": "policy.txt", "position": 1, "lang": "en"},
							{"source": "hours.txt", "position": 0}
						]]
					}`))
				default:
					http.NotFound(w, r)
				}
			}))

			var err error
			driver, err = chroma.NewDriver(chroma.Config{URL: server.URL, MaxRetries: 1}, logger)
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			server.Close()
		})

		It("should implement vector.Driver interface", func() {
			var _ vector.Driver = driver
		})

		It("upserts text, source and position", func() {
			err := driver.Add(context.Background(), []vector.Document{{
				ID: "c1", Text: "hello", Source: "a.txt", Position: 3,
				Metadata: map[string]string{"lang": "en"}, Embedding: []float32{1, 0},
			}})
			Expect(err).NotTo(HaveOccurred())
			Expect(upserted["ids"]).To(Equal([]any{"c1"}))
			Expect(upserted["documents"]).To(Equal([]any{"hello"}))

			metas := upserted["metadatas"].([]any)
			Expect(metas[0]).To(HaveKeyWithValue("source", "a.txt"))
			Expect(metas[0]).To(HaveKeyWithValue("position", BeNumerically("==", 3)))
			Expect(metas[0]).To(HaveKeyWithValue("lang", "en"))
		})

		It("converts cosine distance to similarity and applies the threshold", func() {
			results, err := driver.Query(context.Background(), []float32{1, 0}, 5, 0.3)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))
			Expect(results[0].ID).To(Equal("c1"))
			Expect(results[0].Score).To(BeNumerically("~", 0.81, 1e-6))
			Expect(results[0].Source).To(Equal("policy.txt"))
			Expect(results[0].Text).To(Equal("Refunds are processed within 14 days"))
			Expect(results[1].Position).To(Equal(1))
			Expect(results[1].Metadata).To(HaveKeyWithValue("lang", "en"))
		})

		It("deletes by source with a where filter", func() {
			Expect(driver.DeleteSource(context.Background(), "policy.txt")).To(Succeed())
			Expect(deleted["where"]).To(HaveKeyWithValue("source", "policy.txt"))
		})

		It("deletes only the unkept IDs of a source", func() {
			Expect(driver.DeleteSource(context.Background(), "policy.txt", "c2")).To(Succeed())
			Expect(listed["where"]).To(HaveKeyWithValue("source", "policy.txt"))
			Expect(deleted["ids"]).To(Equal([]any{"c1", "c3"}))
			Expect(deleted).NotTo(HaveKey("where"))
		})
	})
})
