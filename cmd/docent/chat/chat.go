// Package chatcmder provides the chat command, an interactive terminal
// session over the question answering pipeline.
package chatcmder

import (
	"fmt"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/docent/cmd/docent/bootstrap"
	"github.com/papercomputeco/docent/pkg/config"
	"github.com/papercomputeco/docent/pkg/dotdir"
	"github.com/papercomputeco/docent/pkg/rag"
	"github.com/papercomputeco/docent/pkg/session"
)

type chatCommander struct {
	factory   bootstrap.Factory
	mode      string
	sessionID string
}

const chatLongDesc string = `Start an interactive chat session.

Questions are answered from the ingested documents, or from the web after
pressing tab. Every turn is recorded in the session store, and ctrl+e exports
the transcript as text into the .docent/ directory.

Resume an earlier session with --session.`

const chatShortDesc string = "Interactive question answering session"

func NewChatCmd() *cobra.Command {
	return newChatCmd(bootstrap.DefaultFactory)
}

func newChatCmd(factory bootstrap.Factory) *cobra.Command {
	cmder := &chatCommander{factory: factory}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	config.AddCommonFlags(cmd)
	cmd.Flags().StringVar(&cmder.mode, "mode", "docs", "Initial mode (docs, web)")
	cmd.Flags().StringVar(&cmder.sessionID, "session", "", "Session ID to continue (default: new session)")

	return cmd
}

func (c *chatCommander) run(cmd *cobra.Command) error {
	mode, err := rag.ParseMode(c.mode)
	if err != nil {
		return err
	}

	env, err := bootstrap.Load(cmd, config.CommonFlags)
	if err != nil {
		return err
	}

	exportDir, err := dotdir.NewManager().Target(env.ConfigDir)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := c.factory(ctx, env)
	if err != nil {
		return err
	}
	defer a.Close()

	sessionID := c.sessionID
	if sessionID == "" {
		sessionID = session.NewID()
	}

	model := newChatModel(ctx, chatConfig{
		Asker:     a.Pipeline,
		Sessions:  a.Sessions,
		SessionID: sessionID,
		Mode:      mode,
		ExportDir: exportDir,
	})

	program := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running chat: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "session: %s\n", sessionID)
	return nil
}
