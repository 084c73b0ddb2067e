// Package ingestcmder provides the ingest command, which loads documents into
// the vector store.
package ingestcmder

import (
	"errors"
	"fmt"
	"io"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/docent/cmd/docent/bootstrap"
	"github.com/papercomputeco/docent/pkg/cliui"
	"github.com/papercomputeco/docent/pkg/config"
	"github.com/papercomputeco/docent/pkg/ingest"
)

// ErrNothingIngested is returned when every file of the batch was skipped.
var ErrNothingIngested = errors.New("no files were ingested")

type ingestCommander struct {
	factory bootstrap.Factory
	output  string
}

// Result is the machine readable form of an ingestion report.
type Result struct {
	Ingested []ingest.FileReport `json:"ingested" yaml:"ingested"`
	Skipped  []Skipped           `json:"skipped" yaml:"skipped"`
	Chunks   int                 `json:"chunks" yaml:"chunks"`
}

// Skipped is a file left out of the batch.
type Skipped struct {
	Path   string `json:"path" yaml:"path"`
	Reason string `json:"reason" yaml:"reason"`
}

const ingestLongDesc string = `Ingest documents into the vector store.

Each argument is a file or a directory. Directories are walked for supported
files (.txt, .md, .pdf, .docx). Every file is extracted, split into
overlapping chunks, embedded and upserted, replacing chunks previously stored
for the same source. A file that fails is reported and skipped; the command
fails only when no file could be ingested.

Examples:
  docent ingest ./docs
  docent ingest handbook.pdf faq.md --chunk-size 800 --chunk-overlap 100
  docent ingest ./docs --output json`

const ingestShortDesc string = "Ingest documents into the vector store"

func NewIngestCmd() *cobra.Command {
	return newIngestCmd(bootstrap.DefaultFactory)
}

func newIngestCmd(factory bootstrap.Factory) *cobra.Command {
	cmder := &ingestCommander{factory: factory}

	cmd := &cobra.Command{
		Use:   "ingest <path>...",
		Short: ingestShortDesc,
		Long:  ingestLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, args)
		},
	}

	config.AddCommonFlags(cmd)
	cmd.Flags().StringVarP(&cmder.output, "output", "o", cliui.OutputPretty, "Output format (pretty, json, yaml)")

	return cmd
}

func (c *ingestCommander) run(cmd *cobra.Command, args []string) error {
	output, err := cliui.ParseOutput(c.output)
	if err != nil {
		return err
	}

	paths, err := ingest.CollectPaths(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return errors.New("no supported files found")
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

	var report *ingest.Report
	step := func() error {
		report, err = a.Ingestor.Ingest(ctx, paths)
		return err
	}
	if output == cliui.OutputPretty {
		err = cliui.Step(w, fmt.Sprintf("Ingesting %d file(s)", len(paths)), step)
	} else {
		err = step()
	}
	if err != nil {
		return err
	}

	if output == cliui.OutputPretty {
		printReport(w, report)
	} else if err := cliui.Encode(w, output, NewResult(report)); err != nil {
		return err
	}

	if report.AllFailed() {
		return ErrNothingIngested
	}
	return nil
}

// NewResult converts a report for encoding.
func NewResult(r *ingest.Report) Result {
	out := Result{
		Ingested: r.Ingested,
		Skipped:  make([]Skipped, 0, len(r.Skipped)),
		Chunks:   r.Chunks(),
	}
	for _, s := range r.Skipped {
		out.Skipped = append(out.Skipped, Skipped{Path: s.Path, Reason: s.Reason()})
	}
	return out
}

func printReport(w io.Writer, r *ingest.Report) {
	lipgloss.Fprintln(w)
	for _, f := range r.Ingested {
		lipgloss.Fprintf(w, "  %s %s  %s\n",
			cliui.SuccessMark,
			cliui.SourceStyle.Render(f.Source),
			cliui.DimStyle.Render(fmt.Sprintf("%d chunks", f.Chunks)),
		)
	}
	for _, s := range r.Skipped {
		lipgloss.Fprintf(w, "  %s %s  %s\n",
			cliui.FailMark,
			cliui.SourceStyle.Render(s.Path),
			cliui.WarnStyle.Render(s.Reason()),
		)
	}

	lipgloss.Fprintf(w, "\n  Ingested %s of %d file(s), %s chunks\n\n",
		cliui.ValueStyle.Render(fmt.Sprint(len(r.Ingested))),
		len(r.Ingested)+len(r.Skipped),
		cliui.ValueStyle.Render(fmt.Sprint(r.Chunks())),
	)
}
