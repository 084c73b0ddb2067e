package cliui

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Output", func() {
	type payload struct {
		Answer  string   `json:"answer" yaml:"answer"`
		Sources []string `json:"sources" yaml:"sources"`
	}

	It("parses output names", func() {
		Expect(ParseOutput("")).To(Equal(OutputPretty))
		Expect(ParseOutput("JSON")).To(Equal(OutputJSON))
		Expect(ParseOutput("yml")).To(Equal(OutputYAML))

		_, err := ParseOutput("xml")
		Expect(err).To(MatchError(ErrUnknownOutput))
	})

	It("encodes JSON", func() {
		var buf bytes.Buffer
		Expect(Encode(&buf, OutputJSON, payload{Answer: "14 days", Sources: []string{"refunds.txt"}})).To(Succeed())
		Expect(buf.String()).To(MatchJSON(`{"answer":"14 days","sources":["refunds.txt"]}`))
	})

	It("encodes YAML", func() {
		var buf bytes.Buffer
		Expect(Encode(&buf, OutputYAML, payload{Answer: "14 days", Sources: []string{"refunds.txt"}})).To(Succeed())
		Expect(buf.String()).To(MatchYAML("answer: 14 days\nsources:\n  - refunds.txt\n"))
	})
})
