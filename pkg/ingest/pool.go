package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
)

var (
	defaultNumWorkers   uint = 2
	defaultJobQueueSize uint = 64
)

// Job is a batch of paths for the pool to ingest.
type Job struct {
	// ID labels the job in logs and in Done callbacks.
	ID    string
	Paths []string

	// Done, when set, receives the outcome once the job finishes.
	Done func(*Report, error)
}

// PoolConfig is the configuration options for the ingestion pool.
type PoolConfig struct {
	Ingestor *Ingestor

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 64).
	QueueSize uint

	Logger *slog.Logger
}

// Pool ingests jobs asynchronously so callers such as the file watcher and
// the async ingest endpoint never block on embedding.
type Pool struct {
	ingestor *Ingestor
	queue    chan Job
	wg       sync.WaitGroup
	logger   *slog.Logger

	// ctx is cancelled by Stop to abandon in-flight work.
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *PoolConfig) (*Pool, error) {
	if c.Ingestor == nil {
		return nil, errors.New("ingestion pool requires an ingestor")
	}
	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}
	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}
	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		ingestor: c.Ingestor,
		queue:    make(chan Job, c.QueueSize),
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}

	p.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go p.worker(i)
	}

	return p, nil
}

// Enqueue submits a job for processing by the pool.
// Returns true if enqueued, false if the queue is full or the pool is closed,
// resulting in the job being dropped.
func (p *Pool) Enqueue(job Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.logger.Warn("job not queued, pool closed", "job", job.ID)
		return false
	}

	select {
	case p.queue <- job:
		p.logger.Debug("job queued", "job", job.ID, "files", len(job.Paths))
		return true
	default:
		p.logger.Warn("job not queued, queue full, job dropped", "job", job.ID, "files", len(job.Paths))
		return false
	}
}

// Close stops accepting jobs and waits for queued jobs to drain.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
	p.cancel()
}

// Stop abandons in-flight work and then drains like Close. Queued jobs
// finish immediately with a context error.
func (p *Pool) Stop() {
	p.cancel()
	p.Close()
}

func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("ingest worker started", "worker_id", id)

	for job := range p.queue {
		report, err := p.ingestor.Ingest(p.ctx, job.Paths)
		if err != nil {
			p.logger.Error("ingest job failed", "job", job.ID, "error", err)
		} else {
			p.logger.Info("ingest job finished",
				"job", job.ID,
				"ingested", len(report.Ingested),
				"skipped", len(report.Skipped),
			)
		}
		if job.Done != nil {
			job.Done(report, err)
		}
	}

	p.logger.Debug("ingest worker stopped", "worker_id", id)
}
