package provider_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/docent/pkg/llm"
	"github.com/papercomputeco/docent/pkg/llm/provider"
	"github.com/papercomputeco/docent/pkg/llm/provider/anthropic"
	"github.com/papercomputeco/docent/pkg/llm/provider/ollama"
	"github.com/papercomputeco/docent/pkg/llm/provider/openai"
)

var _ = Describe("New", func() {
	It("defaults to ollama", func() {
		c, err := provider.New(provider.Config{})
		Expect(err).NotTo(HaveOccurred())
		Expect(c).To(BeAssignableToTypeOf(&ollama.Client{}))
	})

	It("builds hosted providers with a key", func() {
		c, err := provider.New(provider.Config{Provider: "OpenAI", APIKey: "sk"})
		Expect(err).NotTo(HaveOccurred())
		Expect(c).To(BeAssignableToTypeOf(&openai.Client{}))

		c, err = provider.New(provider.Config{Provider: "anthropic", APIKey: "sk"})
		Expect(err).NotTo(HaveOccurred())
		Expect(c).To(BeAssignableToTypeOf(&anthropic.Client{}))
	})

	It("requires a key for hosted providers", func() {
		Expect(provider.NeedsAPIKey("openai")).To(BeTrue())
		Expect(provider.NeedsAPIKey("ollama")).To(BeFalse())

		_, err := provider.New(provider.Config{Provider: "anthropic"})
		Expect(err).To(HaveOccurred())
	})

	It("rejects unknown providers", func() {
		_, err := provider.New(provider.Config{Provider: "bedrock"})
		Expect(err).To(MatchError(ContainSubstring("unknown provider type")))
	})

	It("plugs into an llm.Handle", func() {
		h := llm.NewHandle(provider.Factory(provider.Config{Provider: "ollama"}))
		c, release, err := h.Acquire(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(c).To(BeAssignableToTypeOf(&ollama.Client{}))
		release()
		Expect(h.Close()).To(Succeed())
	})
})
