package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 500 * time.Millisecond

// WatcherConfig wires a Watcher.
type WatcherConfig struct {
	// Dir is watched along with every directory beneath it.
	Dir  string
	Pool *Pool

	// Debounce is how long the watcher waits after the last change before
	// enqueueing the changed files as one job (defaults to 500ms).
	Debounce time.Duration

	// Done, when set, is attached to every enqueued job.
	Done func(*Report, error)

	Logger *slog.Logger
}

// Watcher feeds created and rewritten documents under a directory into an
// ingestion pool.
type Watcher struct {
	dir      string
	pool     *Pool
	debounce time.Duration
	done     func(*Report, error)
	logger   *slog.Logger
	jobs     int
}

// NewWatcher validates the directory and returns a Watcher. Nothing is
// watched until Run.
func NewWatcher(c WatcherConfig) (*Watcher, error) {
	if c.Pool == nil {
		return nil, errors.New("watcher requires an ingestion pool")
	}

	info, err := os.Stat(c.Dir)
	if err != nil {
		return nil, fmt.Errorf("watching %s: %w", c.Dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watching %s: not a directory", c.Dir)
	}

	debounce := c.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{
		dir:      c.Dir,
		pool:     c.Pool,
		debounce: debounce,
		done:     c.Done,
		logger:   logger,
	}, nil
}

// Run watches until ctx is done. Changes still waiting on the debounce timer
// are enqueued before it returns.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer fw.Close()

	if err := w.addTree(fw, w.dir); err != nil {
		return err
	}
	w.logger.Info("watching for documents", "dir", w.dir)

	pending := map[string]struct{}{}
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.flush(pending)
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				w.flush(pending)
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(fw, event.Name); err != nil {
						w.logger.Warn("failed to watch new directory", "dir", event.Name, "error", err)
					}
					continue
				}
			}

			if !IsSupported(event.Name) {
				continue
			}
			w.logger.Debug("document changed", "path", event.Name, "op", event.Op.String())
			pending[event.Name] = struct{}{}
			timer.Reset(w.debounce)

		case <-timer.C:
			w.flush(pending)

		case err, ok := <-fw.Errors:
			if !ok {
				w.flush(pending)
				return nil
			}
			return fmt.Errorf("file watcher error: %w", err)
		}
	}
}

// flush enqueues the pending paths as one job and clears the set.
func (w *Watcher) flush(pending map[string]struct{}) {
	if len(pending) == 0 {
		return
	}

	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
		delete(pending, p)
	}
	slices.Sort(paths)

	w.jobs++
	job := Job{
		ID:    "watch-" + strconv.Itoa(w.jobs),
		Paths: paths,
		Done:  w.done,
	}
	if !w.pool.Enqueue(job) {
		w.logger.Warn("dropped changed documents", "job", job.ID, "files", len(paths))
	}
}

func (w *Watcher) addTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}
