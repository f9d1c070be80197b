package conversation

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/GriffinCanCode/headless/internal/transport"
	"github.com/bytedance/sonic"
	"github.com/cespare/xxhash/v2"
	"github.com/pb33f/harhar"
)

const harVersion = "1.2"

// DefaultMaxBodySize is how many request body bytes an entry keeps
const DefaultMaxBodySize = 64 << 10

// Recorder keeps every exchange of a conversation as HTTP Archive entries,
// including the hops of a redirect chain and authentication retries.
type Recorder struct {
	creator harhar.Creator
	entries []harhar.Entry
	// fingerprints of response bodies, parallel to entries
	fingerprints []uint64
	maxBodySize  int
}

// NewRecorder creates an empty recorder
func NewRecorder(name, version string) *Recorder {
	return &Recorder{
		creator:     harhar.Creator{Name: name, Version: version},
		maxBodySize: DefaultMaxBodySize,
	}
}

// SetMaxBodySize caps the request body bytes kept per entry. Bodies stream
// to the server in full; only the recorded copy is cut. Zero keeps no body.
func (r *Recorder) SetMaxBodySize(n int) {
	if n < 0 {
		n = 0
	}
	r.maxBodySize = n
}

// bodyCapture keeps the first limit bytes written to it and counts the rest
type bodyCapture struct {
	buf   bytes.Buffer
	limit int
	total int
}

func (r *Recorder) capture() *bodyCapture {
	return &bodyCapture{limit: r.maxBodySize}
}

func (b *bodyCapture) Write(p []byte) (int, error) {
	b.total += len(p)
	if room := b.limit - b.buf.Len(); room > 0 {
		b.buf.Write(p[:min(room, len(p))])
	}
	return len(p), nil
}

func (b *bodyCapture) truncated() bool { return b.total > b.buf.Len() }

// record appends one exchange. body holds what was sent, nil for none.
func (r *Recorder) record(started time.Time, req *transport.Request, body *bodyCapture, resp *transport.Response) {
	entry := harhar.Entry{
		Start:    started.UTC().Format(time.RFC3339Nano),
		Time:     float64(resp.Elapsed) / float64(time.Millisecond),
		Request:  harRequest(req, body),
		Response: harResponse(resp),
	}
	r.entries = append(r.entries, entry)
	r.fingerprints = append(r.fingerprints, xxhash.Sum64(resp.Body))
}

func harRequest(req *transport.Request, body *bodyCapture) harhar.Request {
	out := harhar.Request{
		Method:      req.Method,
		URL:         req.URL.String(),
		HTTPVersion: "HTTP/1.1",
		Headers:     nameValuePairs(req.Header),
		HeadersSize: -1,
	}
	for name, values := range req.URL.Query() {
		for _, v := range values {
			out.QueryParams = append(out.QueryParams, harhar.NameValuePair{Name: name, Value: v})
		}
	}
	sort.SliceStable(out.QueryParams, func(i, j int) bool {
		return out.QueryParams[i].Name < out.QueryParams[j].Name
	})
	if cookie := req.Header.Get("Cookie"); cookie != "" {
		out.Cookies = parseCookieHeader(cookie)
	}
	if body != nil && body.total > 0 {
		out.BodySize = body.total
		out.Body = harhar.BodyType{
			MIMEType: req.Header.Get("Content-Type"),
			Content:  body.buf.String(),
		}
		if body.truncated() {
			out.Comment = fmt.Sprintf("body truncated to %d of %d bytes", body.buf.Len(), body.total)
		}
	}
	return out
}

func harResponse(resp *transport.Response) harhar.Response {
	proto := resp.Proto
	if proto == "" {
		proto = "HTTP/1.1"
	}
	out := harhar.Response{
		StatusCode:  resp.Status,
		StatusText:  resp.StatusText,
		HTTPVersion: proto,
		Headers:     nameValuePairs(resp.Header),
		HeadersSize: -1,
		BodySize:    len(resp.Body),
		Body: harhar.BodyResponseType{
			Size:     len(resp.Body),
			MIMEType: resp.Header.Get("Content-Type"),
			Content:  string(resp.Body),
		},
	}
	for _, c := range (&http.Response{Header: resp.Header}).Cookies() {
		out.Cookies = append(out.Cookies, harhar.Cookie{Name: c.Name, Value: c.Value})
	}
	return out
}

func nameValuePairs(h http.Header) []harhar.NameValuePair {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)

	var pairs []harhar.NameValuePair
	for _, name := range names {
		for _, v := range h[name] {
			pairs = append(pairs, harhar.NameValuePair{Name: name, Value: v})
		}
	}
	return pairs
}

func parseCookieHeader(value string) []harhar.Cookie {
	req := http.Request{Header: http.Header{"Cookie": {value}}}
	var out []harhar.Cookie
	for _, c := range req.Cookies() {
		out = append(out, harhar.Cookie{Name: c.Name, Value: c.Value})
	}
	return out
}

// Len returns the number of recorded exchanges
func (r *Recorder) Len() int { return len(r.entries) }

// Entries returns the recorded exchanges in order
func (r *Recorder) Entries() []harhar.Entry {
	return append([]harhar.Entry(nil), r.entries...)
}

// Fingerprint returns a hash of the i-th response body, for spotting pages
// that did not change between exchanges
func (r *Recorder) Fingerprint(i int) (string, error) {
	if i < 0 || i >= len(r.fingerprints) {
		return "", fmt.Errorf("no exchange %d", i)
	}
	return strconv.FormatUint(r.fingerprints[i], 16), nil
}

type harDocument struct {
	Log harLog `json:"log"`
}

type harLog struct {
	Version string         `json:"version"`
	Creator harhar.Creator `json:"creator"`
	Entries []harhar.Entry `json:"entries"`
}

// MarshalJSON encodes the recording as a HAR document
func (r *Recorder) MarshalJSON() ([]byte, error) {
	entries := r.entries
	if entries == nil {
		entries = []harhar.Entry{}
	}
	return sonic.Marshal(harDocument{Log: harLog{
		Version: harVersion,
		Creator: r.creator,
		Entries: entries,
	}})
}

// WriteTo writes the HAR document to w
func (r *Recorder) WriteTo(w io.Writer) (int64, error) {
	data, err := r.MarshalJSON()
	if err != nil {
		return 0, fmt.Errorf("failed to encode HAR: %w", err)
	}
	n, err := w.Write(data)
	return int64(n), err
}
