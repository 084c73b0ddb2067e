package ingest_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/docent/pkg/ingest"
	"github.com/papercomputeco/docent/pkg/logger"
	testutils "github.com/papercomputeco/docent/pkg/utils/test"
	"github.com/papercomputeco/docent/pkg/vector/inmemory"
)

var _ = Describe("Watcher", func() {
	var (
		pool *ingest.Pool
		dir  string

		mu      sync.Mutex
		reports []*ingest.Report
	)

	ingested := func() []string {
		mu.Lock()
		defer mu.Unlock()
		var paths []string
		for _, r := range reports {
			for _, f := range r.Ingested {
				paths = append(paths, f.Path)
			}
		}
		return paths
	}

	start := func() context.CancelFunc {
		w, err := ingest.NewWatcher(ingest.WatcherConfig{
			Dir:      dir,
			Pool:     pool,
			Debounce: 20 * time.Millisecond,
			Logger:   logger.Nop(),
			Done: func(r *ingest.Report, _ error) {
				mu.Lock()
				reports = append(reports, r)
				mu.Unlock()
			},
		})
		Expect(err).NotTo(HaveOccurred())

		ctx, cancel := context.WithCancel(context.Background())
		stopped := make(chan struct{})
		go func() {
			defer GinkgoRecover()
			defer close(stopped)
			Expect(w.Run(ctx)).To(Succeed())
		}()
		// give the watcher time to register the tree
		time.Sleep(50 * time.Millisecond)

		return func() {
			cancel()
			Eventually(stopped).Should(BeClosed())
		}
	}

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		reports = nil

		ingestor, err := ingest.New(ingest.Config{
			Embedder: testutils.NewMockEmbedder(),
			Driver:   inmemory.NewDriver(),
			Logger:   logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())

		pool, err = ingest.NewPool(&ingest.PoolConfig{Ingestor: ingestor, Logger: logger.Nop()})
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(pool.Close)
	})

	It("requires a pool and a directory", func() {
		_, err := ingest.NewWatcher(ingest.WatcherConfig{Dir: dir})
		Expect(err).To(MatchError(ContainSubstring("requires an ingestion pool")))

		file := writeFile(dir, "a.txt", "text")
		_, err = ingest.NewWatcher(ingest.WatcherConfig{Dir: file, Pool: pool})
		Expect(err).To(MatchError(ContainSubstring("not a directory")))

		_, err = ingest.NewWatcher(ingest.WatcherConfig{Dir: filepath.Join(dir, "missing"), Pool: pool})
		Expect(err).To(HaveOccurred())
	})

	It("ingests new supported files", func() {
		stop := start()
		defer stop()

		path := writeFile(dir, "notes.md", "# Notes\nRefunds take 14 days.")
		Eventually(ingested).WithTimeout(2 * time.Second).Should(ContainElement(path))
	})

	It("ignores unsupported files", func() {
		stop := start()
		defer stop()

		writeFile(dir, "image.png", "not text")
		path := writeFile(dir, "faq.txt", "Shipping is free.")
		Eventually(ingested).WithTimeout(2 * time.Second).Should(ContainElement(path))
		Consistently(ingested).WithTimeout(100 * time.Millisecond).ShouldNot(ContainElement(HaveSuffix("image.png")))
	})

	It("watches directories created after start", func() {
		stop := start()
		defer stop()

		sub := filepath.Join(dir, "nested")
		Expect(os.Mkdir(sub, 0o755)).To(Succeed())
		time.Sleep(50 * time.Millisecond)

		path := writeFile(sub, "deep.txt", "nested content")
		Eventually(ingested).WithTimeout(2 * time.Second).Should(ContainElement(path))
	})
})
