// Package transport is the network collaborator of a conversation: it sends
// one fully specified request and returns the complete response. It never
// follows redirects, stores cookies or retries; those decisions belong to
// the conversation.
package transport

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Request is an outgoing request as it goes on the wire
type Request struct {
	Method string
	URL    *url.URL
	Header http.Header
	// Body is streamed once; nil for no body
	Body io.Reader
	// ContentLength is -1 when unknown
	ContentLength int64
}

// Response is a complete response. Repeated headers such as Set-Cookie
// keep their order.
type Response struct {
	Status     int
	StatusText string
	Proto      string
	Header     http.Header
	Body       []byte
	URL        *url.URL
	Elapsed    time.Duration
}

// Transport sends requests
type Transport interface {
	RoundTrip(ctx context.Context, req *Request) (*Response, error)
}

// Func adapts a function to Transport
type Func func(ctx context.Context, req *Request) (*Response, error)

// RoundTrip calls f
func (f Func) RoundTrip(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}
