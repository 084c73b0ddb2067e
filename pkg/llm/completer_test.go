package llm_test

import (
	"context"
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/docent/pkg/llm"
)

var _ = Describe("ModelCallError", func() {
	It("matches ErrModelCall and unwraps the cause", func() {
		cause := errors.New("connection refused")
		err := fmt.Errorf("composing: %w", llm.NewModelCallError("ollama", "llama3:8b", cause))

		Expect(errors.Is(err, llm.ErrModelCall)).To(BeTrue())
		Expect(errors.Is(err, cause)).To(BeTrue())

		var mce *llm.ModelCallError
		Expect(errors.As(err, &mce)).To(BeTrue())
		Expect(mce.Provider).To(Equal("ollama"))
		Expect(err.Error()).To(ContainSubstring("ollama/llama3:8b: connection refused"))
	})

	It("omits the model when unknown", func() {
		err := llm.NewModelCallError("openai", "", errors.New("boom"))
		Expect(err.Error()).To(Equal("model call failed: openai: boom"))
	})
})

var _ = Describe("CompleterFunc", func() {
	It("adapts a function", func() {
		var c llm.Completer = llm.CompleterFunc(func(_ context.Context, prompt string, opts llm.Options) (string, error) {
			return fmt.Sprintf("%s/%d", prompt, opts.MaxTokens), nil
		})
		out, err := c.Complete(context.Background(), "hi", llm.Options{MaxTokens: 7})
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("hi/7"))
	})
})
