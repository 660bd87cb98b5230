package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"
)

// HTTPTransport executes calls over HTTP.
type HTTPTransport struct {
	client *resty.Client
}

// NewHTTPTransport creates a transport with a per-call timeout.
// A zero timeout leaves calls bounded only by their context.
func NewHTTPTransport(callTimeout time.Duration) *HTTPTransport {
	client := resty.New().
		SetLogger(log.WithField("component", "transport")).
		SetHeader("Accept", "application/json")
	if callTimeout > 0 {
		client.SetTimeout(callTimeout)
	}
	return &HTTPTransport{client: client}
}

// Do implements Transport.
func (t *HTTPTransport) Do(ctx context.Context, call Call) (*Response, error) {
	req := t.client.R().
		SetContext(ctx).
		SetHeaders(call.Headers).
		SetQueryParamsFromValues(call.Query)
	if call.Body != nil {
		req.SetBody(call.Body)
	}

	start := time.Now()
	resp, err := req.Execute(call.Method, call.URL)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", call.Method, call.URL, err)
	}

	log.WithFields(log.Fields{
		"method":   call.Method,
		"url":      call.URL,
		"status":   resp.StatusCode(),
		"duration": time.Since(start),
	}).Debug("upstream call completed")

	out := &Response{
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Body:       resp.Body(),
	}
	if !resp.IsSuccess() {
		return out, &StatusError{StatusCode: out.StatusCode, Body: out.Body}
	}
	return out, nil
}
