// Package record defines the per-request result model persisted to the JSONL log.
package record

import (
	"encoding/json"
	"time"
)

// Error kinds used to classify transport-level failures.
const (
	KindTimeout    = "timeout"
	KindDNS        = "dns"
	KindConnection = "connection"
	KindTLS        = "tls"
	KindTransport  = "transport"
)

// Record is the immutable outcome of one executed request. Each record is
// appended exactly once to the log as a single JSON object on its own line.
//
// StatusCode, ContentLength and ResponseBody are absent (omitted from JSON)
// when the attempt failed at the transport level; Error is present only in
// that case. ResponseBody carries the raw JSON bytes of the response so any
// JSON shape survives the round trip untyped.
type Record struct {
	RequestID       int               `json:"request_id"`
	Timestamp       time.Time         `json:"timestamp"`
	URL             string            `json:"url"`
	Method          string            `json:"method"`
	Headers         map[string]string `json:"headers"`
	Params          map[string]string `json:"params"`
	StatusCode      *int              `json:"status_code,omitempty"`
	ResponseTimeMs  float64           `json:"response_time_ms"`
	Success         bool              `json:"success"`
	ResponseHeaders map[string]string `json:"response_headers,omitempty"`
	ContentLength   *int64            `json:"content_length,omitempty"`
	ResponseBody    json.RawMessage   `json:"response_body,omitempty"`
	Error           string            `json:"error,omitempty"`

	// Bookkeeping for the metrics collector; never serialized.
	Latency   time.Duration `json:"-"`
	ErrorKind string        `json:"-"`
}

// Status returns the HTTP status code and whether one was observed.
func (r Record) Status() (int, bool) {
	if r.StatusCode == nil {
		return 0, false
	}
	return *r.StatusCode, true
}

// SuccessfulStatus reports whether code falls in the accepted range.
// The lower bound is inclusive at 200 and the upper bound exclusive at 400,
// so redirects count as successes under the literal rule.
func SuccessfulStatus(code int) bool {
	return code >= 200 && code < 400
}

// MarshalLine serializes the record as one log line without the trailing newline.
func (r Record) MarshalLine() ([]byte, error) {
	return json.Marshal(r)
}
