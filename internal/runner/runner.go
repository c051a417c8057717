package runner

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Result captures execution summary.
type Result struct {
	Total    int64
	Failures int64
	Duration time.Duration
}

// Runner coordinates concurrent execution with rate limiting.
type Runner struct {
	opt Options
}

func New(opt Options) *Runner {
	opt.normalize()
	return &Runner{opt: opt}
}

// Run dispatches exactly TotalRequests attempts across Concurrency workers.
// Request ids are assigned 1..N in dispatch order with no gaps. Run returns
// early with an error only when the result log fails; request-level failures
// are recorded and counted, never fatal.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	var completed int64
	var failures int64

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// First sink failure aborts the run; later ones are redundant.
	var sinkErr error
	var sinkOnce sync.Once
	abort := func(err error) {
		sinkOnce.Do(func() {
			sinkErr = err
			cancel()
		})
	}

	limiter := r.opt.LimiterFactory(r.opt.RatePerSecond)

	jobs := make(chan int)

	// Scheduler: serializes rate limiting to avoid burst overshoot across
	// workers, and owns id assignment so the sequence stays gap-free.
	go func() {
		defer close(jobs)
		for id := 1; id <= r.opt.TotalRequests; id++ {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			select {
			case jobs <- id:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	wg.Add(r.opt.Concurrency)
	for i := 0; i < r.opt.Concurrency; i++ {
		go func() {
			defer wg.Done()
			for id := range jobs {
				rec := r.opt.Executor.Execute(ctx, id)
				atomic.AddInt64(&completed, 1)
				if !rec.Success {
					atomic.AddInt64(&failures, 1)
				}
				if r.opt.Collector != nil {
					r.opt.Collector.Record(rec)
				}
				if err := r.opt.Sink.Append(rec); err != nil {
					abort(err)
					return
				}
				if r.opt.OnRecord != nil {
					r.opt.OnRecord(rec)
				}
			}
		}()
	}
	wg.Wait()

	result := Result{
		Total:    atomic.LoadInt64(&completed),
		Failures: atomic.LoadInt64(&failures),
		Duration: time.Since(start),
	}
	return result, sinkErr
}
