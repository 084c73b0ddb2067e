package qdrant

import (
	"context"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/qdrant/go-client/qdrant"

	"github.com/papercomputeco/docent/pkg/logger"
	"github.com/papercomputeco/docent/pkg/vector"
)

var _ = Describe("Qdrant driver", func() {
	It("implements vector.Driver", func() {
		var _ vector.Driver = (*Driver)(nil)
	})

	Describe("NewDriver", func() {
		It("rejects zero dimensions", func() {
			_, err := NewDriver(context.Background(), Config{Collection: "docs"}, logger.Nop())
			Expect(err).To(MatchError(ContainSubstring("dimensions")))
		})

		It("rejects invalid collection names before connecting", func() {
			_, err := NewDriver(context.Background(), Config{Collection: "1-bad", Dimensions: 4}, logger.Nop())
			Expect(err).To(MatchError(vector.ErrInvalidCollection))
		})
	})

	Describe("splitTarget", func() {
		It("defaults to localhost on the gRPC port", func() {
			host, port, err := splitTarget("")
			Expect(err).NotTo(HaveOccurred())
			Expect(host).To(Equal("localhost"))
			Expect(port).To(Equal(6334))
		})

		It("keeps a bare host and applies the default port", func() {
			host, port, err := splitTarget("qdrant.internal")
			Expect(err).NotTo(HaveOccurred())
			Expect(host).To(Equal("qdrant.internal"))
			Expect(port).To(Equal(6334))
		})

		It("parses host and port", func() {
			host, port, err := splitTarget("10.0.0.5:7000")
			Expect(err).NotTo(HaveOccurred())
			Expect(host).To(Equal("10.0.0.5"))
			Expect(port).To(Equal(7000))
		})

		It("errors on a non-numeric port", func() {
			_, _, err := splitTarget("host:abc")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("PointID", func() {
		It("is a deterministic UUID per chunk ID", func() {
			a := PointID("chunk-1")
			Expect(uuid.Validate(a)).To(Succeed())
			Expect(PointID("chunk-1")).To(Equal(a))
			Expect(PointID("chunk-2")).NotTo(Equal(a))
		})
	})

	Describe("payload conversion", func() {
		It("round trips document attributes", func() {
			doc := vector.Document{
				ID:       "c1",
				Text:     "hello",
				Source:   "a.pdf",
				Position: 3,
				Metadata: map[string]string{"page": "1"},
			}

			back := fromPayload(qdrant.NewValueMap(toPayload(doc)))
			Expect(back.ID).To(Equal("c1"))
			Expect(back.Text).To(Equal("hello"))
			Expect(back.Source).To(Equal("a.pdf"))
			Expect(back.Position).To(Equal(3))
			Expect(back.Metadata).To(Equal(map[string]string{"page": "1"}))
		})

		It("omits empty metadata", func() {
			payload := toPayload(vector.Document{ID: "c1", Source: "s"})
			Expect(payload).NotTo(HaveKey("metadata"))
			Expect(fromPayload(qdrant.NewValueMap(payload)).Metadata).To(BeNil())
		})
	})
})
