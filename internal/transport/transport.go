// Package transport turns scheduled upstream calls into HTTP requests.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// ErrUpstreamStatus is wrapped by StatusError for non-2xx responses.
var ErrUpstreamStatus = errors.New("upstream returned non-success status")

// Call is one upstream request: method, url = baseUrl + path with parameters
// substituted, headers and an optional JSON body.
type Call struct {
	Method  string
	URL     string
	Query   url.Values
	Headers map[string]string
	Body    []byte
}

// Response is what came back from an upstream.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// StatusError reports a response outside the 2xx range.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d", ErrUpstreamStatus.Error(), e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return ErrUpstreamStatus
}

// Transport executes calls. Implementations return a non-nil Response
// together with a *StatusError when the upstream answered with a failure
// status, and a nil Response when the call never completed.
type Transport interface {
	Do(ctx context.Context, call Call) (*Response, error)
}

// Func adapts a function to the Transport interface.
type Func func(ctx context.Context, call Call) (*Response, error)

// Do calls f.
func (f Func) Do(ctx context.Context, call Call) (*Response, error) {
	return f(ctx, call)
}

// FullURL returns the call URL with its query string.
func (c Call) FullURL() string {
	if len(c.Query) == 0 {
		return c.URL
	}
	return c.URL + "?" + c.Query.Encode()
}
