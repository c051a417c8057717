package runner

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/burstline/burstline/internal/record"
)

// Executor produces the outcome of a single request attempt. Implementations
// never fail outright; transport errors surface inside the returned record.
type Executor interface {
	Execute(ctx context.Context, requestID int) record.Record
}

// Sink persists one record per completed request. An error from Append is
// fatal for the run.
type Sink interface {
	Append(rec record.Record) error
}

// Collector receives every completed record for aggregation.
type Collector interface {
	Record(rec record.Record)
}

// Options configure the Runner.
type Options struct {
	Concurrency   int // number of worker goroutines
	TotalRequests int // total requests to execute (required, > 0)
	RatePerSecond int // requests per second pacing (0 means unlimited)

	Executor  Executor  // request executor (required)
	Sink      Sink      // result log (required)
	Collector Collector // optional aggregation

	// OnRecord, when set, observes each record after it is logged.
	OnRecord func(rec record.Record)

	// LimiterFactory is an injection point for tests.
	LimiterFactory func(rps int) *rate.Limiter
}

func (o *Options) normalize() {
	if o.Concurrency <= 0 {
		o.Concurrency = 1
	}
	if o.TotalRequests < 0 {
		o.TotalRequests = 0
	}
	if o.Concurrency > o.TotalRequests && o.TotalRequests > 0 {
		o.Concurrency = o.TotalRequests
	}
	if o.RatePerSecond < 0 {
		o.RatePerSecond = 0
	}
	if o.LimiterFactory == nil {
		o.LimiterFactory = func(rps int) *rate.Limiter {
			if rps <= 0 {
				return rate.NewLimiter(rate.Inf, 0)
			}
			// Burst equal to rps to smooth pacing under concurrency.
			return rate.NewLimiter(rate.Limit(rps), rps)
		}
	}
}
