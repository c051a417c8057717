package executor

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"syscall"
	"testing"
	"time"

	"github.com/burstline/burstline/internal/config"
	"github.com/burstline/burstline/internal/httpclient"
	"github.com/burstline/burstline/internal/record"
)

func newExecutor(t *testing.T, target string, timeout time.Duration) *Executor {
	t.Helper()
	cfg := &config.Config{
		TargetURL: target,
		Method:    "GET",
		Headers:   map[string]string{"Accept": "application/json"},
		Params:    map[string]string{},
		Timeout:   timeout,
	}
	builder, err := httpclient.NewRequestBuilder(cfg)
	if err != nil {
		t.Fatalf("NewRequestBuilder: %v", err)
	}
	client := httpclient.NewClient(timeout, 2)
	return New(client, builder, nil)
}

func TestExecuteSuccessWithJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	rec := newExecutor(t, srv.URL, time.Second).Execute(context.Background(), 7)

	if rec.RequestID != 7 {
		t.Errorf("RequestID = %d, want 7", rec.RequestID)
	}
	code, ok := rec.Status()
	if !ok || code != 200 {
		t.Fatalf("Status() = %d,%v, want 200", code, ok)
	}
	if !rec.Success {
		t.Error("Success = false, want true")
	}
	if rec.Error != "" || rec.ErrorKind != "" {
		t.Errorf("error fields set on success: %q %q", rec.Error, rec.ErrorKind)
	}
	if rec.ContentLength == nil || *rec.ContentLength != int64(len(`{"ok":true}`)) {
		t.Errorf("ContentLength = %v", rec.ContentLength)
	}
	var body map[string]bool
	if err := json.Unmarshal(rec.ResponseBody, &body); err != nil || !body["ok"] {
		t.Errorf("ResponseBody = %s", rec.ResponseBody)
	}
	if rec.ResponseTimeMs <= 0 {
		t.Error("ResponseTimeMs not measured")
	}
	if rec.ResponseHeaders["Content-Type"] != "application/json" {
		t.Errorf("ResponseHeaders = %v", rec.ResponseHeaders)
	}
}

func TestExecuteNonJSONContentTypeOmitsBody(t *testing.T) {
	// Valid JSON text under text/plain must stay absent.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	rec := newExecutor(t, srv.URL, time.Second).Execute(context.Background(), 1)
	if rec.ResponseBody != nil {
		t.Errorf("ResponseBody = %s, want absent for text/plain", rec.ResponseBody)
	}
	if !rec.Success {
		t.Error("Success = false, want true")
	}
}

func TestExecuteMalformedDeclaredJSONDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"broken":`))
	}))
	defer srv.Close()

	rec := newExecutor(t, srv.URL, time.Second).Execute(context.Background(), 1)
	if rec.ResponseBody != nil {
		t.Errorf("ResponseBody = %s, want absent for unparseable body", rec.ResponseBody)
	}
	// Success is status-driven; the parse failure is not an error.
	if !rec.Success || rec.Error != "" {
		t.Errorf("Success=%v Error=%q, want true and empty", rec.Success, rec.Error)
	}
}

func TestExecuteStatusRules(t *testing.T) {
	tests := []struct {
		code     int
		success  bool
		wantKind string
	}{
		{201, true, ""},
		{302, true, ""},
		{404, false, "http_404"},
		{500, false, "http_500"},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.code)
		}))
		rec := newExecutor(t, srv.URL, time.Second).Execute(context.Background(), 1)
		srv.Close()

		code, ok := rec.Status()
		if !ok || code != tt.code {
			t.Errorf("code %d: Status() = %d,%v", tt.code, code, ok)
		}
		if rec.Success != tt.success {
			t.Errorf("code %d: Success = %v, want %v", tt.code, rec.Success, tt.success)
		}
		if rec.ErrorKind != tt.wantKind {
			t.Errorf("code %d: ErrorKind = %q, want %q", tt.code, rec.ErrorKind, tt.wantKind)
		}
		// HTTP-level failures are valid exchanges: no error field.
		if rec.Error != "" {
			t.Errorf("code %d: Error = %q, want empty", tt.code, rec.Error)
		}
	}
}

func TestExecuteConnectionRefused(t *testing.T) {
	// Grab a port nobody is listening on.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	target := "http://" + ln.Addr().String()
	ln.Close()

	rec := newExecutor(t, target, time.Second).Execute(context.Background(), 2)
	if rec.Success {
		t.Error("Success = true for refused connection")
	}
	if _, ok := rec.Status(); ok {
		t.Error("status code present on transport failure")
	}
	if rec.Error == "" {
		t.Error("error description missing")
	}
	if rec.ErrorKind != record.KindConnection {
		t.Errorf("ErrorKind = %q, want %q", rec.ErrorKind, record.KindConnection)
	}
	if rec.ResponseHeaders != nil || rec.ContentLength != nil || rec.ResponseBody != nil {
		t.Error("response fields present on transport failure")
	}
}

func TestExecuteTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer func() {
		close(block)
		srv.Close()
	}()

	rec := newExecutor(t, srv.URL, 50*time.Millisecond).Execute(context.Background(), 3)
	if rec.Success {
		t.Error("Success = true for timed-out request")
	}
	if rec.ErrorKind != record.KindTimeout {
		t.Errorf("ErrorKind = %q, want %q", rec.ErrorKind, record.KindTimeout)
	}
	if rec.ResponseTimeMs < 40 {
		t.Errorf("ResponseTimeMs = %.2f, want >= timeout elapsed", rec.ResponseTimeMs)
	}
}

func TestJSONMediaType(t *testing.T) {
	tests := []struct {
		contentType string
		want        bool
	}{
		{"application/json", true},
		{"application/json; charset=utf-8", true},
		{"application/problem+json", true},
		{"text/plain", false},
		{"text/html; charset=utf-8", false},
		{"", false},
		{"garbage;;;", false},
	}
	for _, tt := range tests {
		if got := jsonMediaType(tt.contentType); got != tt.want {
			t.Errorf("jsonMediaType(%q) = %v, want %v", tt.contentType, got, tt.want)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"deadline", context.DeadlineExceeded, record.KindTimeout},
		{"dns", &net.DNSError{Err: "no such host", Name: "nope.invalid"}, record.KindDNS},
		{"refused", syscall.ECONNREFUSED, record.KindConnection},
		{"reset", syscall.ECONNRESET, record.KindConnection},
		{"op error", &net.OpError{Op: "dial", Err: errors.New("unreachable")}, record.KindConnection},
		{"other", errors.New("mystery"), record.KindTransport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.err); got != tt.want {
				t.Errorf("classify() = %q, want %q", got, tt.want)
			}
		})
	}
}
