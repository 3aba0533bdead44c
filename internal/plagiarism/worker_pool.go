package plagiarism

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrPoolClosed is returned by Submit after Close.
var ErrPoolClosed = errors.New("worker pool closed")

type Job interface {
	Execute(ctx context.Context) error
}

// Submitter accepts jobs for background execution.
type Submitter interface {
	Submit(ctx context.Context, job Job) error
}

type WorkerPool struct {
	workers  int
	jobQueue chan Job
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
}

// creates a new worker pool; size <= 0 falls back to CPU-based sizing
func NewWorkerPool(ctx context.Context, size int) *WorkerPool {
	if size <= 0 {
		totalCPU := runtime.NumCPU()
		systemReserve := max(1, totalCPU/4)
		size = max(1, totalCPU-systemReserve)
	}
	log.Info().
		Int("workers", size).
		Msg("Worker pool initialized")
	poolCtx, cancel := context.WithCancel(ctx)

	pool := &WorkerPool{
		workers:  size,
		jobQueue: make(chan Job, size*2), // Buffer 2x the worker count
		ctx:      poolCtx,
		cancel:   cancel,
	}

	pool.start()

	return pool
}

// starts all worker goroutines
func (p *WorkerPool) start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// worker goroutine that processes jobs
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job := <-p.jobQueue:
			if err := job.Execute(p.ctx); err != nil {
				log.Error().Err(err).Int("worker", id).Msg("Worker failed to execute job")
			}
		}
	}
}

// submits a job to the pool, blocking while the queue is full until ctx is done
func (p *WorkerPool) Submit(ctx context.Context, job Job) error {
	if p.ctx.Err() != nil {
		return ErrPoolClosed
	}

	select {
	case <-p.ctx.Done():
		return ErrPoolClosed
	case <-ctx.Done():
		return ctx.Err()
	case p.jobQueue <- job:
		return nil
	}
}

// cancels running jobs, waits for all workers to exit, then hands every
// job still queued the cancelled context so it can settle
func (p *WorkerPool) Close() {
	p.cancel()
	p.wg.Wait()

	drained := 0
	for {
		select {
		case job := <-p.jobQueue:
			drained++
			if err := job.Execute(p.ctx); err != nil {
				log.Error().Err(err).Msg("Queued job failed during shutdown")
			}
		default:
			if drained > 0 {
				log.Info().Int("jobs", drained).Msg("Drained queued jobs on shutdown")
			}
			return
		}
	}
}

// returns the number of workers
func (p *WorkerPool) Size() int {
	return p.workers
}
