// Package bootstraptest runs docent commands against in-process fakes.
package bootstraptest

import (
	"bytes"
	"context"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/docent/cmd/docent/bootstrap"
	"github.com/papercomputeco/docent/pkg/app"
	"github.com/papercomputeco/docent/pkg/session"
	sessioninmemory "github.com/papercomputeco/docent/pkg/session/inmemory"
	testutils "github.com/papercomputeco/docent/pkg/utils/test"
	"github.com/papercomputeco/docent/pkg/vector"
	vectorinmemory "github.com/papercomputeco/docent/pkg/vector/inmemory"
)

// Harness shares one vector store and transcript store across command runs
// so a test can ingest with one command and ask with the next.
type Harness struct {
	ConfigDir string
	Embedder  *testutils.MockEmbedder
	Completer *testutils.MockCompleter
	Vector    vector.Driver
	Sessions  session.Driver

	// With adjusts the app options after the fakes are injected.
	With func(*app.Options)
}

// New returns a harness rooted at configDir whose completer replies in order.
func New(configDir string, replies ...string) *Harness {
	return &Harness{
		ConfigDir: configDir,
		Embedder:  testutils.NewMockEmbedder(),
		Completer: testutils.NewMockCompleter(replies...),
		Vector:    vectorinmemory.NewDriver(),
		Sessions:  sessioninmemory.NewDriver(),
	}
}

// Factory builds apps around the harness fakes.
func (h *Harness) Factory() bootstrap.Factory {
	return func(ctx context.Context, env *bootstrap.Env) (*app.App, error) {
		return env.App(ctx, func(o *app.Options) {
			o.Embedder = h.Embedder
			o.Completer = h.Completer
			o.Vector = h.Vector
			o.Sessions = h.Sessions
			if h.With != nil {
				h.With(o)
			}
		})
	}
}

// Execute runs cmd under a root carrying the persistent flags and returns
// what it wrote to stdout.
func (h *Harness) Execute(cmd *cobra.Command, args ...string) (string, error) {
	return h.ExecuteContext(context.Background(), cmd, args...)
}

// ExecuteContext is Execute with a context that long running commands such
// as watch stop on.
func (h *Harness) ExecuteContext(ctx context.Context, cmd *cobra.Command, args ...string) (string, error) {
	root := &cobra.Command{Use: "docent", SilenceUsage: true, SilenceErrors: true}
	bootstrap.AddPersistentFlags(root)
	root.AddCommand(cmd)

	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{cmd.Name(), "--config-dir", h.ConfigDir}, args...))

	err := root.ExecuteContext(ctx)
	return stdout.String(), err
}
