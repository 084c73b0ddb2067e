package versioncmder_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	versioncmder "github.com/papercomputeco/docent/cmd/version"
)

func run(args ...string) (string, error) {
	cmd := versioncmder.NewVersionCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

var _ = Describe("version command", func() {
	It("prints the build metadata", func() {
		out, err := run()
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("Version: dev\nSha: HEAD\nBuilt at: dev\n"))
	})

	It("encodes JSON", func() {
		out, err := run("-o", "json")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(MatchJSON(`{"version":"dev","sha":"HEAD","built_at":"dev"}`))
	})

	It("rejects unknown formats", func() {
		_, err := run("-o", "xml")
		Expect(err).To(HaveOccurred())
	})
})
