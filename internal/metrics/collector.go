package metrics

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/burstline/burstline/internal/record"
)

// Collector aggregates per-request outcomes in a thread-safe manner.
type Collector struct {
	mu           sync.Mutex
	hist         *hdrhistogram.Histogram
	successes    int64
	failures     int64
	errorsByKind map[string]int64
	statusCounts map[int]int64
}

// Summary represents aggregated results for a completed (or in-flight) run.
type Summary struct {
	RunID       string        `json:"run_id,omitempty"`
	Total       int64         `json:"total"`
	Successes   int64         `json:"successes"`
	Failures    int64         `json:"failures"`
	SuccessRate float64       `json:"success_rate"`
	MinLatency  time.Duration `json:"-"`
	MaxLatency  time.Duration `json:"-"`
	MeanLatency time.Duration `json:"-"`
	Duration    time.Duration `json:"-"`

	RequestsPerSec float64 `json:"requests_per_sec"`

	// JSON-friendly millisecond fields.
	MinLatencyMs  float64 `json:"min_latency_ms"`
	MaxLatencyMs  float64 `json:"max_latency_ms"`
	MeanLatencyMs float64 `json:"mean_latency_ms"`
	DurationMs    float64 `json:"duration_ms"`

	StatusCounts map[int]int64  `json:"status_counts,omitempty"`
	Errors       map[string]int `json:"errors,omitempty"`
}

func NewCollector() *Collector {
	// Track latencies from 1µs up to 60s with 3 significant figures.
	h := hdrhistogram.New(1, 60_000_000, 3)
	return &Collector{
		hist:         h,
		errorsByKind: make(map[string]int64),
		statusCounts: make(map[int]int64),
	}
}

// Record folds one completed request into the aggregates.
func (c *Collector) Record(rec record.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()

	latency := rec.Latency
	if latency > 0 {
		us := latency.Microseconds()
		if us < c.hist.LowestTrackableValue() {
			us = c.hist.LowestTrackableValue()
		}
		if us > c.hist.HighestTrackableValue() {
			us = c.hist.HighestTrackableValue()
		}
		_ = c.hist.RecordValue(us)
	}

	if code, ok := rec.Status(); ok {
		c.statusCounts[code]++
	}

	if rec.Success {
		c.successes++
		return
	}
	c.failures++
	kind := rec.ErrorKind
	if kind == "" {
		kind = "unknown"
	}
	c.errorsByKind[kind]++
}

// Summary computes aggregated statistics for the elapsed wall time.
func (c *Collector) Summary(elapsed time.Duration) Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.successes + c.failures
	s := Summary{
		Total:     total,
		Successes: c.successes,
		Failures:  c.failures,
	}

	if c.hist.TotalCount() > 0 {
		s.MinLatency = time.Duration(c.hist.Min()) * time.Microsecond
		s.MaxLatency = time.Duration(c.hist.Max()) * time.Microsecond
		s.MeanLatency = time.Duration(c.hist.Mean()) * time.Microsecond
	}
	if total > 0 {
		s.SuccessRate = float64(c.successes) / float64(total)
	}

	s.MinLatencyMs = float64(s.MinLatency) / float64(time.Millisecond)
	s.MaxLatencyMs = float64(s.MaxLatency) / float64(time.Millisecond)
	s.MeanLatencyMs = float64(s.MeanLatency) / float64(time.Millisecond)

	s.Duration = elapsed
	s.DurationMs = float64(elapsed) / float64(time.Millisecond)
	if elapsed > 0 && total > 0 {
		s.RequestsPerSec = float64(total) / elapsed.Seconds()
	}

	if len(c.statusCounts) > 0 {
		s.StatusCounts = make(map[int]int64, len(c.statusCounts))
		for code, n := range c.statusCounts {
			s.StatusCounts[code] = n
		}
	}
	if len(c.errorsByKind) > 0 {
		s.Errors = make(map[string]int, len(c.errorsByKind))
		for k, v := range c.errorsByKind {
			s.Errors[k] = int(v)
		}
	}

	return s
}

// ErrorBreakdown returns a copy of the error-kind counts.
func (c *Collector) ErrorBreakdown() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make(map[string]int, len(c.errorsByKind))
	for k, v := range c.errorsByKind {
		result[k] = int(v)
	}
	return result
}
