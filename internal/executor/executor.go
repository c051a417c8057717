// Package executor performs one HTTP attempt and converts the outcome into a
// result record. Failures never cross its boundary: transport errors, bad
// status codes and unparseable bodies all come back as record fields.
package executor

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"

	"github.com/burstline/burstline/internal/httpclient"
	"github.com/burstline/burstline/internal/record"
	"github.com/burstline/burstline/internal/tracing"
)

// Executor issues single HTTP attempts against the shared client and
// request template.
type Executor struct {
	client  *http.Client
	builder *httpclient.RequestBuilder
	tracer  *tracing.Provider
}

// New creates an Executor. tracer may be nil when tracing is disabled.
func New(client *http.Client, builder *httpclient.RequestBuilder, tracer *tracing.Provider) *Executor {
	return &Executor{client: client, builder: builder, tracer: tracer}
}

// Execute performs one request attempt identified by id and returns its
// record. It never returns an error; every failure mode is captured in the
// record itself.
func (e *Executor) Execute(ctx context.Context, id int) record.Record {
	if ctx == nil {
		ctx = context.Background()
	}

	rec := record.Record{
		RequestID: id,
		Timestamp: time.Now().UTC(),
		URL:       e.builder.Target(),
		Method:    e.builder.Method(),
		Headers:   e.builder.Headers(),
		Params:    e.builder.Params(),
	}

	ctx, span := tracing.StartRequestSpan(ctx, e.tracer, rec.Method, rec.URL)
	start := time.Now()

	req, err := e.builder.Build(ctx)
	if err != nil {
		finishFailure(&rec, time.Since(start), record.KindTransport, err)
		tracing.EndSpan(span, err)
		return rec
	}
	if e.tracer.ShouldPropagate() {
		tracing.InjectHTTPHeaders(ctx, req.Header)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		latency := time.Since(start)
		kind := classify(err)
		finishFailure(&rec, latency, kind, err)
		tracing.EndSpan(span, err)
		return rec
	}

	body, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	latency := time.Since(start)
	if readErr != nil {
		kind := classify(readErr)
		finishFailure(&rec, latency, kind, readErr)
		tracing.EndSpan(span, readErr)
		return rec
	}

	code := resp.StatusCode
	length := int64(len(body))
	rec.StatusCode = &code
	rec.ContentLength = &length
	rec.Latency = latency
	rec.ResponseTimeMs = toMillis(latency)
	rec.Success = record.SuccessfulStatus(code)
	rec.ResponseHeaders = flattenHeaders(resp.Header)
	if !rec.Success {
		rec.ErrorKind = fmt.Sprintf("http_%d", code)
	}

	// A declared-JSON body that fails to parse degrades to body-absent; it
	// never fails the record.
	if jsonMediaType(resp.Header.Get("Content-Type")) && len(body) > 0 && gjson.ValidBytes(body) {
		rec.ResponseBody = append([]byte(nil), body...)
	}

	tracing.EndSpan(span, nil,
		attribute.Int("http.response.status_code", code),
		attribute.Int64("http.response.body.size", length),
	)
	return rec
}

func finishFailure(rec *record.Record, latency time.Duration, kind string, err error) {
	rec.Latency = latency
	rec.ResponseTimeMs = toMillis(latency)
	rec.Success = false
	rec.ErrorKind = kind
	rec.Error = kind + ": " + err.Error()
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// flattenHeaders collapses multi-valued headers into one comma-joined value
// per key, matching the log format's string-to-string mapping.
func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for key, values := range h {
		out[key] = strings.Join(values, ", ")
	}
	return out
}

// jsonMediaType reports whether a Content-Type declares a JSON payload:
// application/json or any +json structured suffix.
func jsonMediaType(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// classify maps a transport-level error to its failure kind.
func classify(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return record.KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return record.KindTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return record.KindDNS
	}

	var recordHeaderErr tls.RecordHeaderError
	var unknownAuthority x509.UnknownAuthorityError
	var hostnameErr x509.HostnameError
	var certInvalid x509.CertificateInvalidError
	var certVerify *tls.CertificateVerificationError
	if errors.As(err, &recordHeaderErr) ||
		errors.As(err, &unknownAuthority) ||
		errors.As(err, &hostnameErr) ||
		errors.As(err, &certInvalid) ||
		errors.As(err, &certVerify) {
		return record.KindTLS
	}

	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return record.KindConnection
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return record.KindConnection
	}

	return record.KindTransport
}
