package worker

import (
	"context"
	"sync"

	"github.com/martinsuchenak/netgen/internal/log"
	"github.com/martinsuchenak/netgen/internal/planner"
)

// Pool validates manifests concurrently
type Pool struct {
	maxWorkers int
	jobs       chan Job
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
}

// Job is one manifest to validate
type Job struct {
	Path   string
	Raw    []byte
	Result chan Result
}

// Result is the outcome of one validation
type Result struct {
	Path    string
	Summary *planner.Summary
	Err     error
}

// NewPool creates a new validation pool
func NewPool(maxWorkers int) *Pool {
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		maxWorkers: maxWorkers,
		jobs:       make(chan Job, 100),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start starts the pool workers
func (p *Pool) Start() {
	for i := 0; i < p.maxWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	log.Debug("Validation pool started", "workers", p.maxWorkers)
}

// Stop stops the pool. Results already submitted must be drained before
// calling Stop or workers may abandon queued jobs.
func (p *Pool) Stop() {
	close(p.jobs)
	p.cancel()
	p.wg.Wait()
}

// Submit queues a manifest for validation
func (p *Pool) Submit(job Job) error {
	select {
	case p.jobs <- job:
		return nil
	case <-p.ctx.Done():
		return p.ctx.Err()
	}
}

// worker is the worker goroutine
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}

			log.Debug("Worker validating manifest", "worker_id", id, "path", job.Path)

			summary, err := planner.Validate(job.Raw)
			if job.Result != nil {
				job.Result <- Result{Path: job.Path, Summary: summary, Err: err}
			}
		}
	}
}
