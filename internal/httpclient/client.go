package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/burstline/burstline/internal/config"
)

// RequestBuilder holds the immutable parameters of the request template:
// method, target URL (query params already merged), and headers.
type RequestBuilder struct {
	method  string
	target  string
	headers http.Header
	params  map[string]string
}

// NewRequestBuilder validates the configured template once and returns a
// builder shared read-only by all workers.
func NewRequestBuilder(cfg *config.Config) (*RequestBuilder, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	target := strings.TrimSpace(cfg.TargetURL)
	if target == "" {
		return nil, errors.New("target URL is required")
	}

	method := strings.TrimSpace(cfg.Method)
	if method == "" {
		method = http.MethodGet
	}
	method = strings.ToUpper(method)

	headers := http.Header{}
	for key, value := range cfg.Headers {
		trimmedKey := strings.TrimSpace(key)
		if trimmedKey == "" {
			return nil, fmt.Errorf("invalid header key %q", key)
		}
		if strings.ContainsAny(trimmedKey, "\r\n") {
			return nil, fmt.Errorf("invalid header key %q", key)
		}
		canonicalKey := http.CanonicalHeaderKey(trimmedKey)
		if strings.ContainsAny(value, "\r\n") {
			return nil, fmt.Errorf("invalid header value for %s", canonicalKey)
		}
		headers.Set(canonicalKey, value)
	}

	merged, err := mergeParams(target, cfg.Params)
	if err != nil {
		return nil, err
	}

	params := make(map[string]string, len(cfg.Params))
	for k, v := range cfg.Params {
		params[k] = v
	}

	return &RequestBuilder{
		method:  method,
		target:  merged,
		headers: headers,
		params:  params,
	}, nil
}

// mergeParams folds the configured query parameters into the target URL,
// preserving any query string already present.
func mergeParams(target string, params map[string]string) (string, error) {
	if len(params) == 0 {
		return target, nil
	}
	parsed, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("parse target URL: %w", err)
	}
	query := parsed.Query()
	for k, v := range params {
		query.Set(k, v)
	}
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

// Build creates a fresh request from the template bound to ctx.
func (b *RequestBuilder) Build(ctx context.Context) (*http.Request, error) {
	if b == nil {
		return nil, errors.New("builder cannot be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	req, err := http.NewRequestWithContext(ctx, b.method, b.target, nil)
	if err != nil {
		return nil, err
	}

	if b.headers != nil {
		req.Header = make(http.Header, len(b.headers))
		for key, values := range b.headers {
			for _, val := range values {
				req.Header.Add(key, val)
			}
		}
	}

	return req, nil
}

// Method returns the upper-cased HTTP method of the template.
func (b *RequestBuilder) Method() string { return b.method }

// Target returns the final request URL with query parameters merged.
func (b *RequestBuilder) Target() string { return b.target }

// Headers returns the template headers as a plain map for record echoing.
func (b *RequestBuilder) Headers() map[string]string {
	out := make(map[string]string, len(b.headers))
	for key, values := range b.headers {
		out[key] = strings.Join(values, ", ")
	}
	return out
}

// Params returns a copy of the configured query parameters.
func (b *RequestBuilder) Params() map[string]string {
	out := make(map[string]string, len(b.params))
	for k, v := range b.params {
		out[k] = v
	}
	return out
}

// NewClient returns an HTTP client sized for the worker budget. The
// keep-alive pool matches the concurrency so every worker can hold a warm
// connection; redirects are not followed so 3xx responses are observed as-is.
func NewClient(timeout time.Duration, concurrency int) *http.Client {
	if timeout < 0 {
		timeout = 0
	}
	if concurrency < 1 {
		concurrency = 1
	}

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          concurrency,
		MaxIdleConnsPerHost:   concurrency,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
