package plugin

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ayusman/mudra/internal/log"
)

var (
	// ErrQueueFull is returned by Submit when every queue slot is taken.
	ErrQueueFull = errors.New("plugin queue is full")
	// ErrRunnerStopped is returned by Submit after Stop.
	ErrRunnerStopped = errors.New("plugin runner stopped")
)

// Job is one plugin invocation.
type Job struct {
	Plugin  string
	Request Request
}

// Result reports how a job ended.
type Result struct {
	Job      Job
	Response *Response
	Err      error
}

// Runner executes jobs on a fixed pool of workers so that a slow plugin
// never blocks the recognition loop.
type Runner struct {
	manager  *Manager
	executor *Executor
	logger   log.Logger
	workers  int

	jobs    chan Job
	results chan Result
	wg      sync.WaitGroup

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
}

// NewRunner creates a runner looking plugins up in manager. Results are
// delivered on Results when the caller reads them and dropped otherwise.
func NewRunner(manager *Manager, cfg Config, logger log.Logger) *Runner {
	def := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Runner{
		manager:  manager,
		executor: NewExecutor(cfg.Timeout),
		logger:   logger.WithField("component", "plugins"),
		workers:  cfg.Workers,
		jobs:     make(chan Job, cfg.QueueSize),
		results:  make(chan Result, cfg.QueueSize),
	}
}

// Start launches the workers. They stop when ctx is done or Stop is called.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started || r.stopped {
		return
	}
	r.started = true

	ctx, r.cancel = context.WithCancel(ctx)
	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.work(ctx)
	}
}

// Submit queues job without blocking.
func (r *Runner) Submit(job Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return ErrRunnerStopped
	}
	select {
	case r.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Results returns the channel of finished jobs.
func (r *Runner) Results() <-chan Result {
	return r.results
}

// Stop cancels running plugins, waits for the workers and closes Results.
// Queued jobs that have not started are discarded.
func (r *Runner) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	if r.cancel != nil {
		r.cancel()
	}
	close(r.jobs)
	r.mu.Unlock()

	r.wg.Wait()
	close(r.results)
}

func (r *Runner) work(ctx context.Context) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-r.jobs:
			if !ok {
				return
			}
			res := r.run(ctx, job)
			if res.Err != nil {
				r.logger.Warnf("plugin %s action %s for %s: %v", job.Plugin, job.Request.Action, job.Request.Command, res.Err)
			} else if !res.Response.Success {
				r.logger.Warnf("plugin %s action %s reported: %s", job.Plugin, job.Request.Action, res.Response.Error)
			} else {
				r.logger.Debugf("plugin %s action %s done", job.Plugin, job.Request.Action)
			}
			select {
			case r.results <- res:
			default:
			}
		}
	}
}

func (r *Runner) run(ctx context.Context, job Job) Result {
	p, err := r.manager.Get(job.Plugin)
	if err != nil {
		return Result{Job: job, Err: fmt.Errorf("%s: %w", job.Plugin, err)}
	}
	if !p.Supports(job.Request.Action) {
		return Result{Job: job, Err: fmt.Errorf("%s does not provide action %q", job.Plugin, job.Request.Action)}
	}
	if job.Request.Command != "" && !p.Handles(job.Request.Command) {
		return Result{Job: job, Err: fmt.Errorf("%s does not handle command %q", job.Plugin, job.Request.Command)}
	}
	resp, err := r.executor.ExecuteContext(ctx, p, &job.Request)
	return Result{Job: job, Response: resp, Err: err}
}
