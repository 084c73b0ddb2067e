// Package exportcmder provides the export command, which writes a stored
// session transcript as text, PDF or Word.
package exportcmder

import (
	"fmt"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/docent/cmd/docent/bootstrap"
	"github.com/papercomputeco/docent/pkg/cliui"
	"github.com/papercomputeco/docent/pkg/config"
	"github.com/papercomputeco/docent/pkg/export"
	"github.com/papercomputeco/docent/pkg/session"
)

type exportCommander struct {
	factory bootstrap.Factory
	format  string
	out     string
	list    bool
}

const exportLongDesc string = `Export a stored session transcript.

Writes every question and answer of the session, numbered, followed by the
summary of its last documents-mode answer. Sessions outlive the process only
with a persistent transcript store (--sqlite or --postgres).

Use --list to print the stored session IDs.

Examples:
  docent export 3f2a... --format pdf --out chat.pdf
  docent export 3f2a... --format docx --sqlite ~/.docent/docent.db
  docent export --list --sqlite ~/.docent/docent.db`

const exportShortDesc string = "Export a session transcript"

func NewExportCmd() *cobra.Command {
	return newExportCmd(bootstrap.DefaultFactory)
}

func newExportCmd(factory bootstrap.Factory) *cobra.Command {
	cmder := &exportCommander{factory: factory}

	cmd := &cobra.Command{
		Use:   "export <session-id>",
		Short: exportShortDesc,
		Long:  exportLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmder.list && len(args) == 0 {
				return fmt.Errorf("session ID argument required")
			}
			sessionID := ""
			if len(args) == 1 {
				sessionID = args[0]
			}
			return cmder.run(cmd, sessionID)
		},
	}

	config.AddCommonFlags(cmd)
	cmd.Flags().StringVarP(&cmder.format, "format", "f", string(export.FormatText), "Export format (txt, pdf, docx)")
	cmd.Flags().StringVar(&cmder.out, "out", "", "Output path (default: chat_<session><ext>)")
	cmd.Flags().BoolVar(&cmder.list, "list", false, "List stored session IDs")

	return cmd
}

func (c *exportCommander) run(cmd *cobra.Command, sessionID string) error {
	format, err := export.ParseFormat(c.format)
	if err != nil {
		return err
	}

	env, err := bootstrap.Load(cmd, config.CommonFlags)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := c.factory(ctx, env)
	if err != nil {
		return err
	}
	defer a.Close()

	w := cmd.OutOrStdout()

	if c.list {
		ids, err := a.Sessions.Sessions(ctx)
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Fprintln(w, id)
		}
		return nil
	}

	turns, err := a.Sessions.Turns(ctx, sessionID)
	if err != nil {
		return err
	}

	path := c.out
	if path == "" {
		path = "chat_" + sessionID + export.Extension(format)
	}
	if err := export.WriteFile(path, format, session.Transcript(turns)); err != nil {
		return err
	}

	lipgloss.Fprintf(w, "  %s Exported %d turn(s) to %s\n",
		cliui.SuccessMark, len(turns), cliui.ValueStyle.Render(path))
	return nil
}
