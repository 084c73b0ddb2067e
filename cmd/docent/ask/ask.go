// Package askcmder provides the ask command, which answers one question from
// the ingested documents or the web.
package askcmder

import (
	"fmt"
	"io"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/docent/api"
	"github.com/papercomputeco/docent/cmd/docent/bootstrap"
	"github.com/papercomputeco/docent/pkg/cliui"
	"github.com/papercomputeco/docent/pkg/config"
	"github.com/papercomputeco/docent/pkg/export"
	"github.com/papercomputeco/docent/pkg/rag"
	"github.com/papercomputeco/docent/pkg/session"
)

type askCommander struct {
	factory bootstrap.Factory

	mode      string
	sessionID string
	noSummary bool
	output    string

	exportFormat string
	exportPath   string
}

const askLongDesc string = `Answer a question from the ingested documents or the web.

In docs mode (the default) the question is embedded, the closest chunks are
retrieved and the language model composes an answer citing its sources,
followed by a short bullet summary. In web mode the question goes to the web
search agent (Serper when SERPER_API_KEY is set) and no retrieval happens.

Every answer is recorded under a session. Pass --session to continue one, and
--export with --out to write the session transcript after answering.

Examples:
  docent ask "What is the refund policy?"
  docent ask "Who won the 2022 world cup?" --mode web
  docent ask "Summarize the onboarding guide" --output json
  docent ask "What are the shipping times?" --session s1 --export pdf --out chat.pdf`

const askShortDesc string = "Answer a question"

func NewAskCmd() *cobra.Command {
	return newAskCmd(bootstrap.DefaultFactory)
}

func newAskCmd(factory bootstrap.Factory) *cobra.Command {
	cmder := &askCommander{factory: factory}

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: askShortDesc,
		Long:  askLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, strings.Join(args, " "))
		},
	}

	config.AddCommonFlags(cmd)
	cmd.Flags().StringVar(&cmder.mode, "mode", "docs", "Answer mode (docs, web)")
	cmd.Flags().StringVar(&cmder.sessionID, "session", "", "Session ID to record the answer under (default: a new session)")
	cmd.Flags().BoolVar(&cmder.noSummary, "no-summary", false, "Skip the bullet summary")
	cmd.Flags().StringVarP(&cmder.output, "output", "o", cliui.OutputPretty, "Output format (pretty, json, yaml)")
	cmd.Flags().StringVar(&cmder.exportFormat, "export", "", "Export the session transcript (txt, pdf, docx)")
	cmd.Flags().StringVar(&cmder.exportPath, "out", "", "Path of the exported transcript (default: chat_<session><ext>)")

	_ = cmd.RegisterFlagCompletionFunc("mode", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"docs", "web"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func (c *askCommander) run(cmd *cobra.Command, question string) error {
	mode, err := rag.ParseMode(c.mode)
	if err != nil {
		return err
	}
	output, err := cliui.ParseOutput(c.output)
	if err != nil {
		return err
	}

	var format export.Format
	if c.exportFormat != "" {
		if format, err = export.ParseFormat(c.exportFormat); err != nil {
			return err
		}
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

	sessionID := strings.TrimSpace(c.sessionID)
	if sessionID == "" {
		sessionID = session.NewID()
	}

	opts := []rag.AskOption{rag.WithSession(sessionID)}
	if c.noSummary {
		opts = append(opts, rag.WithoutSummary())
	}

	resp, err := a.Pipeline.Ask(ctx, mode, question, opts...)
	if err != nil {
		return err
	}
	if resp.Answer.Err != nil {
		env.Logger.Debug("answer fell back after a model fault", "error", resp.Answer.Err)
	}

	w := cmd.OutOrStdout()
	if output == cliui.OutputPretty {
		printResponse(w, resp)
	} else if err := cliui.Encode(w, output, api.NewAskResponse(resp)); err != nil {
		return err
	}

	if c.exportFormat == "" {
		return nil
	}

	turns, err := a.Sessions.Turns(ctx, sessionID)
	if err != nil {
		return err
	}

	path := c.exportPath
	if path == "" {
		path = "chat_" + sessionID + export.Extension(format)
	}
	if err := export.WriteFile(path, format, session.Transcript(turns)); err != nil {
		return err
	}

	if output == cliui.OutputPretty {
		lipgloss.Fprintf(w, "  %s Exported session to %s\n\n", cliui.SuccessMark, cliui.ValueStyle.Render(path))
	}
	return nil
}

func printResponse(w io.Writer, resp *rag.Response) {
	body := resp.Format()
	if cliui.Interactive(w) {
		if rendered, err := cliui.RenderMarkdown(body); err == nil {
			body = rendered
		}
	}

	fmt.Fprintln(w, body)
	lipgloss.Fprintf(w, "\n  %s %s\n\n",
		cliui.DimStyle.Render("session:"),
		cliui.DimStyle.Render(resp.SessionID),
	)
}
