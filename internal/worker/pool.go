package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"internet-banking/internal/utils"
)

var (
	ErrQueueFull       = errors.New("worker queue is full")
	ErrPoolClosed      = errors.New("worker pool is shut down")
	ErrShutdownTimeout = errors.New("worker pool shutdown timed out")
)

// Job is a unit of background work. Task receives the pool context, which is
// cancelled on forced shutdown.
type Job struct {
	ID      string
	Task    func(ctx context.Context) error
	RetryOn func(error) bool // nil retries every error
	OnDone  func(error)
}

type WorkerPool struct {
	workers    int
	jobQueue   chan Job
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	mu         sync.Mutex
	closed     bool
	stats      PoolStats
	maxRetries int
	retryDelay time.Duration
}

type PoolStats struct {
	SubmittedJobs int64
	CompletedJobs int64
	FailedJobs    int64
	RejectedJobs  int64
	ActiveWorkers int
	QueuedJobs    int
}

func NewWorkerPool(workers int, queueSize int, maxRetries int) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())

	pool := &WorkerPool{
		workers:    workers,
		jobQueue:   make(chan Job, queueSize),
		ctx:        ctx,
		cancel:     cancel,
		maxRetries: maxRetries,
		retryDelay: 100 * time.Millisecond,
		stats: PoolStats{
			ActiveWorkers: workers,
		},
	}

	utils.LogSuccess("WorkerPool", "worker pool created (workers: %d, queue: %d, retries: %d)", workers, queueSize, maxRetries)

	return pool
}

// SetRetryDelay sets the base delay; attempt n waits n times this value.
func (p *WorkerPool) SetRetryDelay(d time.Duration) {
	p.retryDelay = d
}

func (p *WorkerPool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	utils.LogSuccess("WorkerPool", "all workers started")
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			utils.LogDebug("WorkerPool", "worker #%d stopping", id)
			return

		case job, ok := <-p.jobQueue:
			if !ok {
				utils.LogDebug("WorkerPool", "worker #%d: queue closed", id)
				return
			}
			p.executeJob(id, job)
		}
	}
}

func (p *WorkerPool) executeJob(workerID int, job Job) {
	startTime := time.Now()
	var err error

retry:
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			utils.LogWarning("WorkerPool", "worker #%d: retry #%d for job %s", workerID, attempt, job.ID)
			select {
			case <-time.After(p.retryDelay * time.Duration(attempt)):
			case <-p.ctx.Done():
				err = p.ctx.Err()
				break retry
			}
		}

		err = p.run(job)
		if err == nil {
			p.mu.Lock()
			p.stats.CompletedJobs++
			p.mu.Unlock()

			utils.LogDebug("WorkerPool", "worker #%d: job %s done in %v", workerID, job.ID, time.Since(startTime))
			if job.OnDone != nil {
				job.OnDone(nil)
			}
			return
		}

		if job.RetryOn != nil && !job.RetryOn(err) {
			break
		}
	}

	p.mu.Lock()
	p.stats.FailedJobs++
	p.mu.Unlock()

	utils.LogError("WorkerPool", fmt.Sprintf("worker #%d: job %s failed after %v", workerID, job.ID, time.Since(startTime)), err)

	if job.OnDone != nil {
		job.OnDone(err)
	}
}

// run shields the worker from a panicking task.
func (p *WorkerPool) run(job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", job.ID, r)
		}
	}()
	return job.Task(p.ctx)
}

// Submit enqueues without blocking.
func (p *WorkerPool) Submit(job Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.jobQueue <- job:
		p.stats.SubmittedJobs++
		return nil
	default:
		p.stats.RejectedJobs++
		utils.LogWarning("WorkerPool", "queue full, job %s rejected", job.ID)
		return ErrQueueFull
	}
}

// Shutdown stops accepting jobs and drains the queue. After timeout the pool
// context is cancelled and ErrShutdownTimeout returned.
func (p *WorkerPool) Shutdown(timeout time.Duration) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.jobQueue)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		utils.LogSuccess("WorkerPool", "all workers finished")
		return nil

	case <-time.After(timeout):
		p.cancel()
		utils.LogWarning("WorkerPool", "shutdown timeout exceeded, cancelling workers")
		return ErrShutdownTimeout
	}
}

func (p *WorkerPool) GetStats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats := p.stats
	stats.QueuedJobs = len(p.jobQueue)
	return stats
}
