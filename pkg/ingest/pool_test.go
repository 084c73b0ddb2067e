package ingest_test

import (
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/docent/pkg/ingest"
	"github.com/papercomputeco/docent/pkg/logger"
	testutils "github.com/papercomputeco/docent/pkg/utils/test"
	"github.com/papercomputeco/docent/pkg/vector/inmemory"
)

var _ = Describe("Pool", func() {
	var (
		driver *inmemory.Driver
		pool   *ingest.Pool
		dir    string
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		driver = inmemory.NewDriver()

		ingestor, err := ingest.New(ingest.Config{
			Embedder: testutils.NewMockEmbedder(),
			Driver:   driver,
			Logger:   logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())

		pool, err = ingest.NewPool(&ingest.PoolConfig{Ingestor: ingestor, Logger: logger.Nop()})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		pool.Close()
	})

	It("requires an ingestor", func() {
		_, err := ingest.NewPool(&ingest.PoolConfig{})
		Expect(err).To(HaveOccurred())
	})

	It("ingests queued jobs and drains on Close", func() {
		var (
			mu      sync.Mutex
			reports []*ingest.Report
		)
		done := func(r *ingest.Report, err error) {
			defer GinkgoRecover()
			Expect(err).NotTo(HaveOccurred())
			mu.Lock()
			reports = append(reports, r)
			mu.Unlock()
		}

		Expect(pool.Enqueue(ingest.Job{ID: "one", Paths: []string{writeFile(dir, "one.txt", "first")}, Done: done})).To(BeTrue())
		Expect(pool.Enqueue(ingest.Job{ID: "two", Paths: []string{writeFile(dir, "two.txt", "second")}, Done: done})).To(BeTrue())
		pool.Close()

		Expect(reports).To(HaveLen(2))
		Expect(driver.Len()).To(Equal(2))
	})

	It("rejects jobs after Close", func() {
		pool.Close()
		pool.Close()
		Expect(pool.Enqueue(ingest.Job{ID: "late"})).To(BeFalse())
	})

	It("drops jobs when the queue is full", func() {
		ingestor, err := ingest.New(ingest.Config{
			Embedder: testutils.NewMockEmbedder(),
			Driver:   driver,
			Logger:   logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())

		release := make(chan struct{})
		started := make(chan struct{})
		small, err := ingest.NewPool(&ingest.PoolConfig{
			Ingestor:   ingestor,
			NumWorkers: 1,
			QueueSize:  1,
			Logger:     logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())

		// Occupy the only worker.
		Expect(small.Enqueue(ingest.Job{ID: "blocker", Done: func(*ingest.Report, error) {
			close(started)
			<-release
		}})).To(BeTrue())
		Eventually(started).Should(BeClosed())

		Expect(small.Enqueue(ingest.Job{ID: "queued"})).To(BeTrue())
		Expect(small.Enqueue(ingest.Job{ID: "dropped"})).To(BeFalse())

		close(release)
		small.Close()
	})

	It("stops accepting jobs on Stop", func() {
		pool.Stop()
		Expect(pool.Enqueue(ingest.Job{ID: "after-stop"})).To(BeFalse())
	})
})
