// Package runner executes batches of backtest sessions concurrently.
// Sessions share nothing: each job builds its own ledger, simulator, and
// risk evaluator, so the only coordination is the job queue itself.
package runner

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"outcome-trader/internal/backtest"
	"outcome-trader/internal/models"
	"outcome-trader/internal/strategy"
)

// Job is one replay to run: a session config, the strategy factory, and the
// tick series. Strategies may carry per-run state, so each job constructs
// its own instance.
type Job struct {
	Name     string
	Config   backtest.Config
	Strategy func() (strategy.Strategy, error)
	Ticks    []models.Tick
}

// JobResult pairs a job with its outcome. Exactly one of Result and Err is
// set.
type JobResult struct {
	Name   string
	Result *backtest.Result
	Err    error
}

// Pool runs jobs across a bounded set of workers.
type Pool struct {
	workers int
	log     zerolog.Logger

	jobsTotal atomic.Uint64
	jobsDone  atomic.Uint64
}

// NewPool creates a pool. Zero workers defaults to the CPU count.
func NewPool(workers int, log zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{workers: workers, log: log}
}

// Run executes every job and returns results in job order. A canceled
// context stops dispatching new jobs; in-flight replays run to completion.
func (p *Pool) Run(ctx context.Context, jobs []Job) []JobResult {
	results := make([]JobResult, len(jobs))
	queue := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range queue {
				results[idx] = p.runJob(jobs[idx])
				p.jobsDone.Add(1)
			}
		}()
	}

	p.jobsTotal.Add(uint64(len(jobs)))
dispatch:
	for i := range jobs {
		select {
		case <-ctx.Done():
			for j := i; j < len(jobs); j++ {
				results[j] = JobResult{Name: jobs[j].Name, Err: ctx.Err()}
			}
			break dispatch
		case queue <- i:
		}
	}
	close(queue)
	wg.Wait()

	return results
}

func (p *Pool) runJob(job Job) JobResult {
	strat, err := job.Strategy()
	if err != nil {
		return JobResult{Name: job.Name, Err: err}
	}
	session, err := backtest.NewSession(job.Config, strat, p.log.With().Str("job", job.Name).Logger())
	if err != nil {
		return JobResult{Name: job.Name, Err: err}
	}
	result, err := session.Run(job.Ticks)
	if err != nil {
		return JobResult{Name: job.Name, Err: err}
	}
	return JobResult{Name: job.Name, Result: result}
}

// Stats reports dispatch progress.
func (p *Pool) Stats() (total, done uint64) {
	return p.jobsTotal.Load(), p.jobsDone.Load()
}
