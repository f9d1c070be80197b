// Package testutil provides testing utilities and helpers for conversation tests.
package testutil

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"testing"

	"github.com/GriffinCanCode/headless/internal/transport"
	"github.com/stretchr/testify/mock"
)

// MockTransport is a mock implementation of transport.Transport for testing.
// Request bodies are read before the call is matched, so expectations can
// inspect them through Sent.
type MockTransport struct {
	mock.Mock
	Sent []SentRequest
}

// SentRequest is a request as the mock received it.
type SentRequest struct {
	Method string
	URL    string
	Header http.Header
	Body   string
}

// RoundTrip mocks the RoundTrip method.
func (m *MockTransport) RoundTrip(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	sent := SentRequest{Method: req.Method, URL: req.URL.String(), Header: req.Header.Clone()}
	if req.Body != nil {
		data, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		sent.Body = string(data)
	}
	m.Sent = append(m.Sent, sent)

	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	resp := *args.Get(0).(*transport.Response)
	resp.URL = req.URL
	resp.Header = resp.Header.Clone()
	return &resp, args.Error(1)
}

// NewMockTransport creates a new mock transport with no default behaviors.
func NewMockTransport(t *testing.T) *MockTransport {
	t.Helper()
	m := new(MockTransport)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Last returns the most recent request the mock received.
func (m *MockTransport) Last(t *testing.T) SentRequest {
	t.Helper()
	if len(m.Sent) == 0 {
		t.Fatal("no request was sent")
	}
	return m.Sent[len(m.Sent)-1]
}

// OnRequest sets up an expectation for method and rawURL.
func (m *MockTransport) OnRequest(method, rawURL string) *mock.Call {
	return m.On("RoundTrip", mock.Anything, RequestTo(method, rawURL))
}

// RequestTo matches a transport request by method and absolute URL.
func RequestTo(method, rawURL string) interface{} {
	return mock.MatchedBy(func(req *transport.Request) bool {
		return req.Method == method && req.URL.String() == rawURL
	})
}

// Response builds a response with the given status, body and header pairs.
func Response(status int, body string, headerPairs ...string) *transport.Response {
	header := make(http.Header)
	for i := 0; i+1 < len(headerPairs); i += 2 {
		header.Add(headerPairs[i], headerPairs[i+1])
	}
	return &transport.Response{
		Status:     status,
		StatusText: http.StatusText(status),
		Proto:      "HTTP/1.1",
		Header:     header,
		Body:       []byte(body),
	}
}

// HTML builds a 200 text/html response.
func HTML(body string, headerPairs ...string) *transport.Response {
	return Response(http.StatusOK, body, append([]string{"Content-Type", "text/html; charset=utf-8"}, headerPairs...)...)
}

// Redirect builds a redirect response to location.
func Redirect(status int, location string, headerPairs ...string) *transport.Response {
	return Response(status, "", append([]string{"Location", location}, headerPairs...)...)
}

// MustParseURL parses rawURL or fails the test.
func MustParseURL(t *testing.T, rawURL string) *url.URL {
	t.Helper()
	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("invalid URL %q: %v", rawURL, err)
	}
	return u
}
