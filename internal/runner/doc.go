// Package runner drives the request workload.
//
// A single scheduler goroutine assigns request ids in order and paces
// dispatch through a rate limiter; a fixed pool of workers drains the job
// channel, so at most Concurrency requests are ever in flight. Every attempt
// yields a record that is aggregated and appended to the log before the
// worker picks up its next job.
package runner
