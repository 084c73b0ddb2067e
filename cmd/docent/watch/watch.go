// Package watchcmder provides the watch command, which ingests documents as
// they appear in a directory.
package watchcmder

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/docent/cmd/docent/bootstrap"
	"github.com/papercomputeco/docent/pkg/cliui"
	"github.com/papercomputeco/docent/pkg/config"
	"github.com/papercomputeco/docent/pkg/ingest"
)

type watchCommander struct {
	factory  bootstrap.Factory
	workers  uint
	debounce time.Duration
	initial  bool
}

const watchLongDesc string = `Watch a directory and ingest documents as they change.

Created and rewritten .txt, .md, .pdf and .docx files are collected for a
short debounce window and then ingested in the background. A rewritten file
replaces its previous chunks. Use --initial to ingest the existing contents
first.

Stop with Ctrl+C; queued files are finished before exit.`

const watchShortDesc string = "Ingest documents as they change"

func NewWatchCmd() *cobra.Command {
	return newWatchCmd(bootstrap.DefaultFactory)
}

func newWatchCmd(factory bootstrap.Factory) *cobra.Command {
	cmder := &watchCommander{factory: factory}

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: watchShortDesc,
		Long:  watchLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return cmder.run(ctx, cmd, args[0])
		},
	}

	config.AddCommonFlags(cmd)
	cmd.Flags().UintVar(&cmder.workers, "workers", 2, "Number of ingestion workers")
	cmd.Flags().DurationVar(&cmder.debounce, "debounce", 500*time.Millisecond, "Quiet period before changed files are ingested")
	cmd.Flags().BoolVar(&cmder.initial, "initial", false, "Ingest the directory's existing documents first")

	return cmd
}

func (c *watchCommander) run(ctx context.Context, cmd *cobra.Command, dir string) error {
	env, err := bootstrap.Load(cmd, config.CommonFlags)
	if err != nil {
		return err
	}

	a, err := c.factory(ctx, env)
	if err != nil {
		return err
	}
	defer a.Close()

	pool, err := ingest.NewPool(&ingest.PoolConfig{
		Ingestor:   a.Ingestor.WithRoot(dir),
		NumWorkers: c.workers,
		Logger:     env.Logger,
	})
	if err != nil {
		return err
	}
	defer pool.Close()

	out := &syncWriter{w: cmd.OutOrStdout()}
	done := func(r *ingest.Report, err error) {
		printJob(out, r, err)
	}

	w, err := ingest.NewWatcher(ingest.WatcherConfig{
		Dir:      dir,
		Pool:     pool,
		Debounce: c.debounce,
		Done:     done,
		Logger:   env.Logger,
	})
	if err != nil {
		return err
	}

	if c.initial {
		paths, err := ingest.CollectPaths([]string{dir})
		if err != nil {
			return err
		}
		if len(paths) > 0 {
			pool.Enqueue(ingest.Job{ID: "initial", Paths: paths, Done: done})
		}
	}

	lipgloss.Fprintf(out, "  Watching %s (Ctrl+C to stop)\n", cliui.ValueStyle.Render(dir))
	return w.Run(ctx)
}

func printJob(w io.Writer, r *ingest.Report, err error) {
	if err != nil {
		lipgloss.Fprintf(w, "  %s ingestion stopped: %v\n", cliui.FailMark, err)
		return
	}
	for _, f := range r.Ingested {
		lipgloss.Fprintf(w, "  %s %s %s\n", cliui.SuccessMark, f.Path,
			cliui.DimStyle.Render(fmt.Sprintf("(%d chunks)", f.Chunks)))
	}
	for _, s := range r.Skipped {
		lipgloss.Fprintf(w, "  %s %s %s\n", cliui.FailMark, s.Path, cliui.DimStyle.Render(s.Reason()))
	}
}

// syncWriter serializes output from pool workers.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
