package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/sjperalta/sacco-api/pkg/logger"
)

// Job represents a background task
type Job func(ctx context.Context) error

// Worker manages background jobs and scheduled tasks
type Worker struct {
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	queue         chan namedJob
	asyncSem      chan struct{}
	maxConcurrent int
	stats         WorkerStats
	statsMu       sync.RWMutex
	closeOnce     sync.Once
}

type namedJob struct {
	name string
	run  Job
}

// WorkerStats holds statistics about the worker. CompletedJobs counts every
// finished job; FailedJobs is the subset that returned an error or panicked.
type WorkerStats struct {
	ActiveJobs    int   `json:"active_jobs"`
	CompletedJobs int64 `json:"completed_jobs"`
	FailedJobs    int64 `json:"failed_jobs"`
	QueueLength   int   `json:"queue_length"`
	MaxConcurrent int   `json:"max_concurrent"`
}

// NewWorker creates a worker with N concurrent processors
func NewWorker(numWorkers int) *Worker {
	if numWorkers < 1 {
		numWorkers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	// Allow 2x workers for async jobs
	asyncLimit := numWorkers * 2
	if asyncLimit < 10 {
		asyncLimit = 10
	}

	w := &Worker{
		ctx:           ctx,
		cancel:        cancel,
		queue:         make(chan namedJob, 100),
		asyncSem:      make(chan struct{}, asyncLimit),
		maxConcurrent: asyncLimit,
	}

	// Start worker goroutines
	for i := 0; i < numWorkers; i++ {
		w.wg.Add(1)
		go w.process(i)
	}

	return w
}

// Enqueue adds a job to the worker pool queue. When the queue is full the
// job runs on the caller's goroutine.
func (w *Worker) Enqueue(name string, job Job) {
	if w.ctx.Err() != nil {
		logger.Warn("Worker stopped, job dropped", "job", name)
		return
	}
	select {
	case w.queue <- namedJob{name: name, run: job}:
	default:
		logger.Warn("Worker queue full, running job synchronously", "job", name)
		w.run("queue", namedJob{name: name, run: job})
	}
}

// EnqueueAsync runs a job in a new goroutine (fire-and-forget), bounded by semaphore
func (w *Worker) EnqueueAsync(name string, job Job) {
	if w.ctx.Err() != nil {
		logger.Warn("Worker stopped, async job dropped", "job", name)
		return
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		// Acquire semaphore to limit concurrency
		select {
		case w.asyncSem <- struct{}{}:
		case <-w.ctx.Done():
			logger.Warn("Worker stopping, async job dropped", "job", name)
			return
		}
		defer func() { <-w.asyncSem }()

		w.run("async", namedJob{name: name, run: job})
	}()
}

// process handles jobs from the queue
func (w *Worker) process(workerID int) {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case job, ok := <-w.queue:
			if !ok {
				return
			}
			w.run("pool", job, "worker", workerID)
		}
	}
}

// ScheduleEvery runs a job at fixed intervals. The first run happens after the interval (not at startup).
func (w *Worker) ScheduleEvery(name string, interval time.Duration, job Job) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-w.ctx.Done():
				return
			case <-ticker.C:
				w.run("scheduler", namedJob{name: name, run: job})
			}
		}
	}()
}

// run executes one job with panic recovery and stats tracking
func (w *Worker) run(kind string, job namedJob, attrs ...any) {
	w.trackJobStart()
	start := time.Now()
	failed := false

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panic", append([]any{"kind", kind, "job", job.name, "panic", r}, attrs...)...)
			failed = true
		}
		w.trackJobEnd(failed)
	}()

	if err := job.run(w.ctx); err != nil {
		logger.Error("Job error", append([]any{"kind", kind, "job", job.name, "error", err}, attrs...)...)
		failed = true
		return
	}
	logger.Debug("Job completed", append([]any{"kind", kind, "job", job.name, "elapsed", time.Since(start)}, attrs...)...)
}

// Shutdown gracefully stops all workers
func (w *Worker) Shutdown() {
	w.closeOnce.Do(func() {
		w.cancel()
		close(w.queue)
		w.wg.Wait()
	})
}

// Context returns the worker's context for checking cancellation
func (w *Worker) Context() context.Context {
	return w.ctx
}

// GetStats returns the current worker statistics
func (w *Worker) GetStats() WorkerStats {
	w.statsMu.RLock()
	defer w.statsMu.RUnlock()
	stats := w.stats
	stats.QueueLength = len(w.queue)
	stats.MaxConcurrent = w.maxConcurrent
	return stats
}

func (w *Worker) trackJobStart() {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	w.stats.ActiveJobs++
}

func (w *Worker) trackJobEnd(failed bool) {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	w.stats.ActiveJobs--
	w.stats.CompletedJobs++
	if failed {
		w.stats.FailedJobs++
	}
}
