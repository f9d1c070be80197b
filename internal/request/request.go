package request

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/GriffinCanCode/headless/internal/form"
	"github.com/GriffinCanCode/headless/internal/shared/errs"
	"github.com/GriffinCanCode/headless/internal/transport"
	"github.com/google/uuid"
	"golang.org/x/text/encoding/htmlindex"
)

const (
	MethodGet     = http.MethodGet
	MethodHead    = http.MethodHead
	MethodPost    = http.MethodPost
	MethodPut     = http.MethodPut
	MethodDelete  = http.MethodDelete
	MethodOptions = http.MethodOptions
	MethodPatch   = http.MethodPatch
)

// Options control how a request serializes its parameters
type Options struct {
	// Charset is used for parameter text unless the form declares an
	// accept-charset it supports
	Charset string
	// PostIncludesCharset appends the charset to a url-encoded POST's
	// Content-Type
	PostIncludesCharset bool
	// Permissive accepts parameters the form does not define
	Permissive bool
	// Multipart makes a hand-built POST send multipart/form-data
	Multipart bool
}

// DefaultOptions returns UTF-8, strict validation, url-encoded bodies
func DefaultOptions() Options {
	return Options{Charset: "utf-8"}
}

type config struct {
	Options
	button     *form.Button
	x, y       int
	positioned bool
}

// Option configures a new request
type Option func(*config)

// WithOptions replaces all serialization options
func WithOptions(o Options) Option {
	return func(c *config) { c.Options = o }
}

// WithCharset sets the parameter charset
func WithCharset(charset string) Option {
	return func(c *config) { c.Charset = charset }
}

// WithPermissive accepts parameters the form does not define
func WithPermissive() Option {
	return func(c *config) { c.Permissive = true }
}

// WithMultipart sends a hand-built POST as multipart/form-data
func WithMultipart() Option {
	return func(c *config) { c.Multipart = true }
}

// WithButton submits the form with button b
func WithButton(b *form.Button) Option {
	return func(c *config) { c.button = b }
}

// WithClick submits the form by clicking image button b at (x, y)
func WithClick(b *form.Button, x, y int) Option {
	return func(c *config) {
		c.button = b
		c.x, c.y, c.positioned = x, y, true
	}
}

// WebRequest is one outgoing request: a method, a target URL and the
// parameters to send. It may be prepared any number of times but sent once.
type WebRequest struct {
	method string
	target *url.URL
	holder ParameterHolder
	header http.Header

	body        []byte
	contentType string

	// query as written in a hand-built URL, sent as is while the
	// parameters still encode to parsedQuery
	rawQuery    string
	parsedQuery string

	charset       *charsetEncoder
	opts          Options
	boundary      string
	frame         string
	bypassCookies bool
	consumed      bool
}

func newConfig(opts []Option) config {
	cfg := config{Options: DefaultOptions()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Charset == "" {
		cfg.Charset = "utf-8"
	}
	return cfg
}

func newWebRequest(method string, target *url.URL, holder ParameterHolder, cfg config, charset string) (*WebRequest, error) {
	enc, err := newCharsetEncoder(charset)
	if err != nil {
		return nil, err
	}
	target = cloneURL(target)
	target.Fragment = ""
	target.RawFragment = ""
	return &WebRequest{
		method:   strings.ToUpper(method),
		target:   target,
		holder:   holder,
		header:   make(http.Header),
		charset:  enc,
		opts:     cfg.Options,
		boundary: "----HeadlessBoundary" + strings.ReplaceAll(uuid.NewString(), "-", ""),
	}, nil
}

// New builds a request by hand. For methods without a body, parameters
// already in the URL's query become the initial parameters, in order.
func New(method, rawURL string, opts ...Option) (*WebRequest, error) {
	target, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid request URL %q: %w", rawURL, err)
	}
	cfg := newConfig(opts)
	holder := newUncheckedHolder(cfg.Multipart)
	if SendsBody(method) {
		return newWebRequest(method, target, holder, cfg, cfg.Charset)
	}
	if err := parseQuery(holder, target.RawQuery); err != nil {
		return nil, fmt.Errorf("invalid query in %q: %w", rawURL, err)
	}
	r, err := newWebRequest(method, target, holder, cfg, cfg.Charset)
	if err != nil {
		return nil, err
	}
	if r.parsedQuery, err = r.QueryString(); err != nil {
		return nil, err
	}
	r.rawQuery = target.RawQuery
	return r, nil
}

// NewGet builds a GET request for rawURL
func NewGet(rawURL string, opts ...Option) (*WebRequest, error) {
	return New(MethodGet, rawURL, opts...)
}

// NewHead builds a HEAD request for rawURL
func NewHead(rawURL string, opts ...Option) (*WebRequest, error) {
	return New(MethodHead, rawURL, opts...)
}

// NewPost builds a POST request whose parameters travel in the body
func NewPost(rawURL string, opts ...Option) (*WebRequest, error) {
	return New(MethodPost, rawURL, opts...)
}

// NewDelete builds a DELETE request for rawURL
func NewDelete(rawURL string, opts ...Option) (*WebRequest, error) {
	return New(MethodDelete, rawURL, opts...)
}

// NewOptions builds an OPTIONS request for rawURL
func NewOptions(rawURL string, opts ...Option) (*WebRequest, error) {
	return New(MethodOptions, rawURL, opts...)
}

// NewPut builds a PUT request that sends body verbatim
func NewPut(rawURL string, body []byte, contentType string, opts ...Option) (*WebRequest, error) {
	r, err := New(MethodPut, rawURL, opts...)
	if err != nil {
		return nil, err
	}
	r.body = append([]byte{}, body...)
	r.contentType = contentType
	return r, nil
}

// NewFormRequest builds the submission of f, resolving its action against
// base. The request works on a copy of f, so later changes to f do not
// affect it and changes to the request do not show in f.
func NewFormRequest(f *form.Form, base *url.URL, opts ...Option) (*WebRequest, error) {
	cfg := newConfig(opts)

	snapshot := f.Clone()
	holder := newFormHolder(snapshot, cfg.Permissive)

	if cfg.button != nil {
		b := cfg.button
		idx := f.IndexOfButton(b)
		if idx < 0 || !b.IsSubmit() {
			return nil, errs.IllegalSubmitButton(b.Name(), b.Value())
		}
		if b.Disabled() {
			return nil, errs.DisabledSubmitButton(b.Name(), b.Value())
		}
		holder.button = snapshot.Buttons()[idx]
		if cfg.positioned {
			if err := holder.setClickPosition(cfg.x, cfg.y); err != nil {
				return nil, err
			}
		}
	} else if cfg.positioned {
		return nil, errs.IllegalButtonPosition("")
	}

	target, err := resolveAction(base, f.Action())
	if err != nil {
		return nil, err
	}

	charset := cfg.Charset
	if accepted := acceptedCharset(f.AcceptCharset()); accepted != "" {
		charset = accepted
	}
	return newWebRequest(f.Method(), target, holder, cfg, charset)
}

func resolveAction(base *url.URL, action string) (*url.URL, error) {
	ref, err := url.Parse(strings.TrimSpace(action))
	if err != nil {
		return nil, fmt.Errorf("invalid form action %q: %w", action, err)
	}
	if base == nil {
		return ref, nil
	}
	return base.ResolveReference(ref), nil
}

// acceptedCharset returns the first charset of an accept-charset list that
// can be encoded
func acceptedCharset(list string) string {
	for _, label := range strings.FieldsFunc(list, func(r rune) bool { return r == ' ' || r == ',' }) {
		if _, err := htmlindex.Get(label); err == nil {
			return label
		}
	}
	return ""
}

func parseQuery(h *uncheckedHolder, raw string) error {
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		name, err := url.QueryUnescape(k)
		if err != nil {
			return err
		}
		value, err := url.QueryUnescape(v)
		if err != nil {
			return err
		}
		h.add(name, value)
	}
	return nil
}

func cloneURL(u *url.URL) *url.URL {
	if u == nil {
		return &url.URL{}
	}
	c := *u
	if u.User != nil {
		user := *u.User
		c.User = &user
	}
	return &c
}

// Method returns the HTTP method
func (r *WebRequest) Method() string { return r.method }

// Charset returns the canonical name of the parameter charset
func (r *WebRequest) Charset() string { return r.charset.name }

// IsMultipart reports whether parameters are sent as multipart/form-data
func (r *WebRequest) IsMultipart() bool {
	return r.hasBody() && r.holder.IsMultipart()
}

// Header holds extra headers sent with the request
func (r *WebRequest) Header() http.Header { return r.header }

// SetHeader sets one extra header
func (r *WebRequest) SetHeader(name, value string) { r.header.Set(name, value) }

// Holder exposes the request's parameter set
func (r *WebRequest) Holder() ParameterHolder { return r.holder }

// Frame returns the frame the response is destined for
func (r *WebRequest) Frame() string { return r.frame }

// SetFrame directs the response to the named frame
func (r *WebRequest) SetFrame(name string) { r.frame = name }

// BypassCookies reports whether the conversation's cookies are left out
func (r *WebRequest) BypassCookies() bool { return r.bypassCookies }

// SetBypassCookies makes the request go out without the conversation's
// cookies
func (r *WebRequest) SetBypassCookies(bypass bool) { r.bypassCookies = bypass }

// SetParameter replaces the values of a parameter
func (r *WebRequest) SetParameter(name string, values ...string) error {
	return r.holder.SetParameter(name, values...)
}

// SetFiles replaces the files of a file parameter
func (r *WebRequest) SetFiles(name string, files ...form.UploadFile) error {
	return r.holder.SetFiles(name, files...)
}

// RemoveParameter clears a parameter
func (r *WebRequest) RemoveParameter(name string) error {
	return r.holder.RemoveParameter(name)
}

// ParameterNames returns parameter names in submission order
func (r *WebRequest) ParameterNames() []string { return r.holder.ParameterNames() }

// ParameterValues returns the current values of a parameter
func (r *WebRequest) ParameterValues(name string) []string {
	return r.holder.ParameterValues(name)
}

// ParameterValue returns the first value of a parameter, or ""
func (r *WebRequest) ParameterValue(name string) string {
	if values := r.holder.ParameterValues(name); len(values) > 0 {
		return values[0]
	}
	return ""
}

// SetImageButtonClickPosition sets where the submitting image button was
// clicked
func (r *WebRequest) SetImageButtonClickPosition(x, y int) error {
	h, ok := r.holder.(*formHolder)
	if !ok {
		return errs.IllegalButtonPosition("")
	}
	return h.setClickPosition(x, y)
}

// URL returns the target as it will be requested, including the encoded
// query of a bodiless request. A hand-built URL keeps its query byte for
// byte until its parameters change.
func (r *WebRequest) URL() (*url.URL, error) {
	target := cloneURL(r.target)
	if r.hasBody() {
		return target, nil
	}
	query, err := r.QueryString()
	if err != nil {
		return nil, err
	}
	if r.rawQuery != "" && query == r.parsedQuery {
		query = r.rawQuery
	}
	target.RawQuery = query
	return target, nil
}

// QueryString returns the url-encoded parameters
func (r *WebRequest) QueryString() (string, error) {
	enc := &urlEncoder{charset: r.charset}
	if err := r.holder.Process(enc); err != nil {
		return "", err
	}
	return enc.String(), nil
}

func (r *WebRequest) hasBody() bool {
	return SendsBody(r.method)
}

// SendsBody reports whether requests with method carry their parameters in
// a body rather than the query string
func SendsBody(method string) bool {
	switch strings.ToUpper(method) {
	case MethodPost, MethodPut, MethodPatch:
		return true
	}
	return false
}

// Prepare serializes the request. Every call yields an equivalent request
// with a fresh body; all validation and encoding happens before the body is
// produced. A multipart body streams file contents as it is read and must
// be read to the end or closed.
func (r *WebRequest) Prepare() (*transport.Request, error) {
	target, err := r.URL()
	if err != nil {
		return nil, err
	}
	out := &transport.Request{
		Method:        r.method,
		URL:           target,
		Header:        r.header.Clone(),
		ContentLength: -1,
	}

	switch {
	case !r.hasBody():
		out.ContentLength = 0
	case r.body != nil:
		out.Body = bytes.NewReader(r.body)
		out.ContentLength = int64(len(r.body))
		if r.contentType != "" && out.Header.Get("Content-Type") == "" {
			out.Header.Set("Content-Type", r.contentType)
		}
	case r.holder.IsMultipart():
		collector := &partCollector{charset: r.charset}
		if err := r.holder.Process(collector); err != nil {
			return nil, err
		}
		pr, pw := io.Pipe()
		go func() {
			pw.CloseWithError(writeMultipart(pw, r.boundary, collector.parts))
		}()
		out.Body = pr
		out.Header.Set("Content-Type", "multipart/form-data; boundary="+r.boundary)
	default:
		body, err := r.QueryString()
		if err != nil {
			return nil, err
		}
		out.Body = strings.NewReader(body)
		out.ContentLength = int64(len(body))
		contentType := form.EncodingURL
		if r.opts.PostIncludesCharset {
			contentType += "; charset=" + r.charset.name
		}
		out.Header.Set("Content-Type", contentType)
	}
	return out, nil
}

// Redirected returns an unsent copy of r aimed at target, for a redirect
// that keeps the method and body
func (r *WebRequest) Redirected(target *url.URL) *WebRequest {
	dup := *r
	dup.target = cloneURL(target)
	dup.target.Fragment = ""
	dup.target.RawFragment = ""
	dup.header = r.header.Clone()
	dup.consumed = false
	return &dup
}

// Target returns the URL the request was built for, before any query
// encoding
func (r *WebRequest) Target() *url.URL { return cloneURL(r.target) }

// Consume marks the request as sent. A request goes out once; consuming it
// again panics.
func (r *WebRequest) Consume() {
	if r.consumed {
		panic(fmt.Sprintf("request %s %s has already been sent", r.method, r.target))
	}
	r.consumed = true
}

// Consumed reports whether the request has been sent
func (r *WebRequest) Consumed() bool { return r.consumed }

// String renders the method and target for logs
func (r *WebRequest) String() string {
	return r.method + " " + r.target.String()
}
