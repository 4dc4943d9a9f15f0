// Package batch fans a multi-file compile across goroutines. Each file
// still runs through exactly one single-threaded, uncancellable
// pkg/compiler.Compile call; this package only parallelises *which*
// files run concurrently and bounds overall wall-clock via a context,
// never any one compile in flight.
package batch

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Job is one file's compile unit of work, tagged with a UUID so log
// lines from concurrent workers can be correlated back to a file.
type Job struct {
	ID   uuid.UUID
	Path string
}

// Result is one job's outcome.
type Result struct {
	Job Job
	Err error
}

// Stats summarises one Run call: the handful of counters a bounded,
// one-shot CLI batch run needs. No worker-count or queue-depth history
// is tracked; a batch compile has a fixed file list and worker count
// and exits when done.
type Stats struct {
	Submitted int
	Completed int
	Failed    int
	Duration  time.Duration
}

// Pool runs a fixed number of worker goroutines over a file list,
// handling this package's one job kind: compile a file, report its
// result. No dynamic scaling; the worker count is fixed for the run.
type Pool struct {
	workers int
	log     *zap.Logger
}

// NewPool returns a Pool with the given worker count (clamped to at
// least 1) and logger (defaults to a no-op logger if nil).
func NewPool(workers int, log *zap.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Pool{workers: workers, log: log}
}

// Run compiles every path in files, at most p.workers at a time, via
// compileOne. ctx bounds whether not-yet-dispatched files are started at
// all; a file whose compile has already begun runs to completion or
// failure regardless of ctx; the context gates dispatch of new work,
// not cancellation of an in-flight single-file compile. Results are
// returned in the same order as files.
func (p *Pool) Run(ctx context.Context, files []string, compileOne func(path string) error) ([]Result, Stats) {
	start := time.Now()
	jobs := make([]Job, len(files))
	for i, f := range files {
		jobs[i] = Job{ID: uuid.New(), Path: f}
	}

	results := make([]Result, len(files))
	sem := make(chan struct{}, p.workers)
	var wg sync.WaitGroup
	var mu sync.Mutex
	stats := Stats{}

	for i, job := range jobs {
		select {
		case <-ctx.Done():
			results[i] = Result{Job: job, Err: ctx.Err()}
			continue
		default:
		}

		mu.Lock()
		stats.Submitted++
		mu.Unlock()

		sem <- struct{}{}
		wg.Add(1)
		go func(i int, job Job) {
			defer wg.Done()
			defer func() { <-sem }()

			p.log.Debug("compiling", zap.String("job", job.ID.String()), zap.String("path", job.Path))
			err := compileOne(job.Path)

			mu.Lock()
			if err != nil {
				stats.Failed++
				p.log.Warn("compile failed", zap.String("job", job.ID.String()), zap.String("path", job.Path), zap.Error(err))
			} else {
				stats.Completed++
			}
			mu.Unlock()

			results[i] = Result{Job: job, Err: err}
		}(i, job)
	}

	wg.Wait()
	stats.Duration = time.Since(start)
	return results, stats
}
