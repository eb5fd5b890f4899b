package runtime

import (
	"context"
	"log/slog"

	"github.com/aretw0/reflex/internal/logging"
)

// Job is a batch of work handed off the loop goroutine.
type Job func(ctx context.Context)

// Dispatcher runs jobs outside the loop goroutine. Dispatch must not block on the job.
type Dispatcher interface {
	Dispatch(ctx context.Context, job Job)
}

// DispatchFunc adapts a function to a Dispatcher.
type DispatchFunc func(ctx context.Context, job Job)

func (f DispatchFunc) Dispatch(ctx context.Context, job Job) { f(ctx, job) }

// Inline runs jobs on the caller's goroutine. Meant for tests and tools.
var Inline = DispatchFunc(func(ctx context.Context, job Job) { job(ctx) })

const defaultForegroundBuffer = 64

// Foreground is a single-goroutine executor draining jobs in FIFO order.
// It stands in for the UI thread of the robot: actions that touch the UI run here,
// one at a time, while the loop keeps ticking.
type Foreground struct {
	jobs   chan Job
	logger *slog.Logger
}

// NewForeground creates an executor with the given queue capacity.
func NewForeground(buffer int, logger *slog.Logger) *Foreground {
	if buffer <= 0 {
		buffer = defaultForegroundBuffer
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Foreground{
		jobs:   make(chan Job, buffer),
		logger: logger,
	}
}

// Dispatch enqueues job. When the queue is full the job is dropped.
func (f *Foreground) Dispatch(ctx context.Context, job Job) {
	if !f.Offer(job) {
		f.logger.Warn("Foreground queue full, dropping actions", "capacity", cap(f.jobs))
	}
}

// Offer enqueues job and reports whether there was room for it.
func (f *Foreground) Offer(job Job) bool {
	select {
	case f.jobs <- job:
		return true
	default:
		return false
	}
}

// Run executes jobs until ctx is done. Jobs still queued at that point are discarded.
func (f *Foreground) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			if n := f.discard(); n > 0 {
				f.logger.Debug("Foreground stopped with pending jobs", "discarded", n)
			}
			return
		case job := <-f.jobs:
			job(ctx)
		}
	}
}

func (f *Foreground) discard() int {
	n := 0
	for {
		select {
		case <-f.jobs:
			n++
		default:
			return n
		}
	}
}

// Pending reports how many jobs are queued.
func (f *Foreground) Pending() int {
	return len(f.jobs)
}
