// Package httpclient builds the immutable request template and the shared
// pooled HTTP client used by every worker.
//
// The [RequestBuilder] is constructed once per run from configuration: the
// method is upper-cased, header keys canonicalized, and query parameters
// merged into the target URL up front, so Build only stamps a context onto a
// fresh *http.Request. All workers share one builder read-only.
//
// [NewClient] returns an *http.Client tuned for sustained load: keep-alive
// connection reuse sized to the worker budget and redirects left unfollowed
// so the observed status code is the one the server actually returned.
package httpclient
