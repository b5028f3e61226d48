// Package tasks runs periodic background jobs for the life of the server.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrStop, returned from Job.Run, ends the job's schedule.
	ErrStop = errors.New("tasks: stop job")
	// ErrUnknownJob is returned by RunOnce for a name nobody registered.
	ErrUnknownJob = errors.New("tasks: unknown job")
)

// Job is one periodic task.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error

	// SkipFirstRun waits one Interval before the first run instead of
	// running at Start.
	SkipFirstRun bool
}

// Runner schedules registered Jobs. Each job runs in its own goroutine, so
// a slow job never delays another.
type Runner struct {
	logger *zap.Logger
	wg     sync.WaitGroup

	mu       sync.Mutex
	jobs     []Job
	inFlight map[string]int
	cancel   context.CancelFunc
}

// New returns an idle Runner.
func New(logger *zap.Logger) *Runner {
	return &Runner{logger: logger, inFlight: map[string]int{}}
}

// Register adds job. Jobs registered after Start are not scheduled.
func (r *Runner) Register(job Job) {
	r.mu.Lock()
	r.jobs = append(r.jobs, job)
	r.mu.Unlock()
}

// Jobs lists registered job names in registration order.
func (r *Runner) Jobs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.jobs))
	for _, j := range r.jobs {
		names = append(names, j.Name)
	}
	return names
}

// Start schedules every registered job.
func (r *Runner) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.mu.Lock()
	r.cancel = cancel
	jobs := slices.Clone(r.jobs)
	r.mu.Unlock()

	r.wg.Add(len(jobs))
	for _, j := range jobs {
		go r.schedule(ctx, j)
	}
	r.logger.Info("task runner started", zap.Strings("jobs", r.Jobs()))
}

// Stop cancels every job and waits for them to return. When ctx ends
// first, the jobs still running are logged and ctx.Err() is returned.
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.mu.Unlock()

	done := make(chan struct{})
	go func() { r.wg.Wait(); close(done) }()

	select {
	case <-done:
		r.logger.Info("task runner stopped")
		return nil
	case <-ctx.Done():
		r.mu.Lock()
		busy := slices.Sorted(maps.Keys(r.inFlight))
		r.mu.Unlock()
		r.logger.Warn("task runner stop timed out", zap.Strings("still_running", busy))
		return ctx.Err()
	}
}

// RunOnce runs the named job now, outside its schedule. ErrStop counts as
// success.
func (r *Runner) RunOnce(ctx context.Context, name string) error {
	r.mu.Lock()
	i := slices.IndexFunc(r.jobs, func(j Job) bool { return j.Name == name })
	var job Job
	if i >= 0 {
		job = r.jobs[i]
	}
	r.mu.Unlock()
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	if err := job.Run(ctx); err != nil && !errors.Is(err, ErrStop) {
		return err
	}
	return nil
}

func (r *Runner) schedule(ctx context.Context, job Job) {
	defer r.wg.Done()
	log := r.logger.With(zap.String("job", job.Name))

	if !job.SkipFirstRun && r.run(ctx, job, log) {
		return
	}
	tick := time.NewTicker(job.Interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Debug("job unscheduled")
			return
		case <-tick.C:
			if r.run(ctx, job, log) {
				return
			}
		}
	}
}

// run executes job once and reports whether it is finished for good.
func (r *Runner) run(ctx context.Context, job Job, log *zap.Logger) bool {
	r.track(job.Name, 1)
	defer r.track(job.Name, -1)

	start := time.Now()
	err := job.Run(ctx)
	took := zap.Duration("took", time.Since(start))
	switch {
	case errors.Is(err, ErrStop):
		log.Info("job done", took)
		return true
	case err != nil && ctx.Err() != nil:
		log.Debug("job interrupted by shutdown", took)
	case err != nil:
		log.Error("job failed", took, zap.Error(err))
	default:
		log.Debug("job ran", took)
	}
	return false
}

func (r *Runner) track(name string, delta int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n := r.inFlight[name] + delta; n > 0 {
		r.inFlight[name] = n
	} else {
		delete(r.inFlight, name)
	}
}
