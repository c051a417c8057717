// Package metrics aggregates request outcomes into run-level statistics.
//
// A single Collector is shared by all workers; every mutation happens under
// one mutex, which is cheap relative to the network round trips being
// measured. Latencies feed an HDR histogram so min, max and mean stay exact
// to three significant figures regardless of run length.
package metrics
