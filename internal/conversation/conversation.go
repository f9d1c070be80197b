package conversation

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/GriffinCanCode/headless/internal/cookies"
	"github.com/GriffinCanCode/headless/internal/form"
	"github.com/GriffinCanCode/headless/internal/infrastructure/config"
	"github.com/GriffinCanCode/headless/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/headless/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/headless/internal/request"
	"github.com/GriffinCanCode/headless/internal/shared/errs"
	"github.com/GriffinCanCode/headless/internal/shared/id"
	"github.com/GriffinCanCode/headless/internal/transport"
	"go.uber.org/zap"
)

// TopFrame names the main window
const TopFrame = "_top"

// State is where a conversation is in its request cycle
type State int

const (
	Idle State = iota
	RequestPrepared
	AwaitingResponse
	ResponseReceived
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case RequestPrepared:
		return "request_prepared"
	case AwaitingResponse:
		return "awaiting_response"
	case ResponseReceived:
		return "response_received"
	default:
		return "unknown"
	}
}

// Options configures one conversation
type Options struct {
	MaxRedirects    int
	FollowRedirects bool
	// StrictStatus turns 404 and 5xx responses into errors, and a 401 that
	// no stored credentials could answer. The response is still returned
	// alongside the error.
	StrictStatus   bool
	UserAgent      string
	CookiePolicy   cookies.Policy
	Request        request.Options
	EditableHidden bool
}

// DefaultOptions returns the conversation defaults
func DefaultOptions() Options {
	return Options{
		MaxRedirects:    10,
		FollowRedirects: true,
		UserAgent:       "headless/1.0",
		CookiePolicy:    cookies.StrictPolicy(),
		Request:         request.DefaultOptions(),
	}
}

// OptionsFromConfig maps loaded configuration onto conversation options
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		MaxRedirects:    cfg.Conversation.MaxRedirects,
		FollowRedirects: cfg.Conversation.FollowRedirects,
		StrictStatus:    cfg.Conversation.StrictStatus,
		UserAgent:       cfg.Conversation.UserAgent,
		CookiePolicy: cookies.Policy{
			StrictDomain: cfg.Cookies.StrictDomain,
			StrictPath:   cfg.Cookies.StrictPath,
		},
		Request: request.Options{
			Charset:             cfg.Forms.DefaultCharset,
			PostIncludesCharset: cfg.Forms.PostIncludesCharset,
			Permissive:          !cfg.Forms.ValidateParameters,
		},
		EditableHidden: cfg.Forms.EditableHidden,
	}
}

// Option configures a conversation
type Option func(*WebConversation)

// WithOptions replaces the conversation options
func WithOptions(o Options) Option {
	return func(c *WebConversation) { c.opts = o }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *WebConversation) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics reports exchanges to m
func WithMetrics(m *monitoring.Metrics) Option {
	return func(c *WebConversation) { c.metrics = m }
}

// WithRecorder records every exchange to r
func WithRecorder(r *Recorder) Option {
	return func(c *WebConversation) { c.recorder = r }
}

// WithTracer times every GetResponse and each hop within it as spans
func WithTracer(t *tracing.Tracer) Option {
	return func(c *WebConversation) { c.tracer = t }
}

// WithJar shares an existing cookie jar. The conversation's cookie policy
// is not applied to it.
func WithJar(jar *cookies.Jar) Option {
	return func(c *WebConversation) { c.jar = jar }
}

// WebConversation drives a sequence of exchanges that share cookies,
// credentials and default headers. It is not safe for concurrent use.
type WebConversation struct {
	id        id.ConversationID
	transport transport.Transport
	jar       *cookies.Jar
	opts      Options
	logger    *zap.Logger
	metrics   *monitoring.Metrics
	recorder  *Recorder
	tracer    *tracing.Tracer

	headers            http.Header
	authorization      string
	proxyAuthorization string
	credentials        map[string]credential
	// Authorization values that satisfied a challenge, by host
	hostAuth map[string]string

	frames     map[string]*WebResponse
	frameOrder []string
	history    []*WebResponse

	state  State
	closed bool
}

// New creates a conversation sending through t
func New(t transport.Transport, opts ...Option) *WebConversation {
	c := &WebConversation{
		id:          id.NewConversationID(),
		transport:   t,
		opts:        DefaultOptions(),
		logger:      zap.NewNop(),
		headers:     make(http.Header),
		credentials: make(map[string]credential),
		hostAuth:    make(map[string]string),
		frames:      make(map[string]*WebResponse),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("conversation").With(zap.String("conversation_id", c.id.String()))
	if c.jar == nil {
		c.jar = cookies.NewJar(cookies.WithPolicy(c.opts.CookiePolicy), cookies.WithLogger(c.logger))
	}
	if c.metrics != nil {
		c.metrics.ConversationOpened()
	}
	return c
}

func (c *WebConversation) ID() id.ConversationID { return c.id }
func (c *WebConversation) State() State          { return c.state }
func (c *WebConversation) Jar() *cookies.Jar     { return c.jar }
func (c *WebConversation) Options() Options      { return c.opts }
func (c *WebConversation) Recorder() *Recorder   { return c.recorder }

// CookieValue returns the value of the named cookie, or ""
func (c *WebConversation) CookieValue(name string) string {
	return c.jar.CookieValue(name)
}

// PutCookie adds a cookie sent to every host
func (c *WebConversation) PutCookie(name, value string) {
	c.jar.PutCookie(name, value)
}

// SetHeader sets a header sent with every request. An empty value removes
// it. Headers set on a request take precedence.
func (c *WebConversation) SetHeader(name, value string) {
	if value == "" {
		c.headers.Del(name)
		return
	}
	c.headers.Set(name, value)
}

// SetAuthorization sends Basic credentials with every request
func (c *WebConversation) SetAuthorization(user, password string) {
	c.authorization = basicAuth(user, password)
}

// SetProxyAuthorization sends Basic proxy credentials with every request
func (c *WebConversation) SetProxyAuthorization(user, password string) {
	c.proxyAuthorization = basicAuth(user, password)
}

// SetCredentials registers credentials offered when a server challenges
// for realm. AnyRealm answers every realm without its own entry.
func (c *WebConversation) SetCredentials(realm, user, password string) {
	c.credentials[realm] = credential{user: user, password: password}
}

// CurrentPage returns the page in the main window
func (c *WebConversation) CurrentPage() *WebResponse {
	return c.frames[TopFrame]
}

// Frame returns the page last loaded into the named frame
func (c *WebConversation) Frame(name string) (*WebResponse, bool) {
	resp, ok := c.frames[name]
	return resp, ok
}

// FrameNames lists the loaded frames in load order
func (c *WebConversation) FrameNames() []string {
	return append([]string(nil), c.frameOrder...)
}

// History returns every final response in the order received
func (c *WebConversation) History() []*WebResponse {
	return append([]*WebResponse(nil), c.history...)
}

// Forms parses the forms of resp with this conversation's options
func (c *WebConversation) Forms(resp *WebResponse) ([]*form.Form, error) {
	var opts []form.ParseOption
	if c.opts.EditableHidden {
		opts = append(opts, form.WithEditableHidden())
	}
	return resp.Forms(opts...)
}

// Get fetches rawURL into the main window
func (c *WebConversation) Get(ctx context.Context, rawURL string) (*WebResponse, error) {
	req, err := request.NewGet(rawURL, request.WithOptions(c.opts.Request))
	if err != nil {
		return nil, err
	}
	return c.GetResponse(ctx, req)
}

// Submit sends f, read from resp, into the frame resp was loaded in. The
// form's action resolves against resp's URL and parameters are encoded in
// resp's charset unless the form accepts another.
func (c *WebConversation) Submit(ctx context.Context, resp *WebResponse, f *form.Form, opts ...request.Option) (*WebResponse, error) {
	base := []request.Option{
		request.WithOptions(c.opts.Request),
		request.WithCharset(resp.Charset()),
	}
	req, err := request.NewFormRequest(f, resp.URL(), append(base, opts...)...)
	if err != nil {
		c.recordValidation(err)
		return nil, err
	}
	req.SetFrame(resp.Frame())
	return c.GetResponse(ctx, req)
}

// FetchFrames loads every frame and iframe of resp, sharing this
// conversation's cookies
func (c *WebConversation) FetchFrames(ctx context.Context, resp *WebResponse) ([]*WebResponse, error) {
	refs, err := resp.Frames()
	if err != nil {
		return nil, err
	}
	loaded := make([]*WebResponse, 0, len(refs))
	for _, ref := range refs {
		req, err := request.NewGet(ref.Src.String(), request.WithOptions(c.opts.Request))
		if err != nil {
			return loaded, err
		}
		req.SetFrame(ref.Name)
		frame, err := c.GetResponse(ctx, req)
		if frame == nil {
			return loaded, err
		}
		loaded = append(loaded, frame)
		if err != nil {
			return loaded, err
		}
	}
	return loaded, nil
}

// GetResponse sends req, following redirects, and returns the final
// response. Parameter errors are reported before anything is sent. In
// strict mode a failure status returns the response together with its
// error.
func (c *WebConversation) GetResponse(ctx context.Context, req *request.WebRequest) (*WebResponse, error) {
	frame := req.Frame()
	if frame == "" {
		frame = TopFrame
	}

	span, ctx := c.tracer.StartSpan(ctx, "conversation.get_response")
	span.SetTag("conversation_id", c.id.String())
	span.SetTag("method", req.Method())
	span.SetTag("url", req.Target().String())
	span.SetTag("frame", frame)

	current := req
	for hops := 0; ; hops++ {
		raw, sent, err := c.exchange(ctx, current)
		if err != nil {
			c.state = Idle
			c.tracer.End(span, err)
			return nil, err
		}

		resp := newWebResponse(raw, sent, frame)
		next := c.redirect(current, resp)
		if next == nil {
			c.finish(frame, resp)
			err = c.checkStatus(resp)
			span.SetStatus(resp.status)
			span.SetTag("redirects", strconv.Itoa(hops))
			c.tracer.End(span, err)
			return resp, err
		}
		if hops >= c.opts.MaxRedirects {
			c.state = Idle
			c.logger.Warn("Redirect limit reached",
				zap.String("url", resp.url.String()),
				zap.Int("max_redirects", c.opts.MaxRedirects))
			err = errs.TooManyRedirects(req.Target().String())
			c.tracer.End(span, err)
			return nil, err
		}
		if c.metrics != nil {
			c.metrics.RecordRedirect()
		}
		c.logger.Debug("Following redirect",
			zap.Int("status", resp.status),
			zap.String("from", resp.url.String()),
			zap.String("to", next.Target().String()),
			zap.String("method", next.Method()))
		current = next
	}
}

// exchange sends one request, answering at most one authentication
// challenge. Single-use cookies go out with every attempt and are spent
// when the exchange is over.
func (c *WebConversation) exchange(ctx context.Context, req *request.WebRequest) (*transport.Response, *url.URL, error) {
	wire, err := c.prepare(req)
	if err != nil {
		return nil, nil, err
	}
	req.Consume()
	if !req.BypassCookies() {
		defer c.jar.SpendSingleUse(wire.URL)
	}

	raw, err := c.roundTrip(ctx, wire)
	if err != nil {
		return nil, nil, err
	}
	if raw.Status != http.StatusUnauthorized || !c.answerChallenge(wire, raw) {
		return raw, wire.URL, nil
	}

	if c.metrics != nil {
		c.metrics.RecordAuthRetry()
	}
	c.logger.Debug("Retrying with credentials", zap.String("url", wire.URL.String()))
	if wire, err = c.prepare(req); err != nil {
		return nil, nil, err
	}
	if raw, err = c.roundTrip(ctx, wire); err != nil {
		return nil, nil, err
	}
	if raw.Status == http.StatusUnauthorized {
		delete(c.hostAuth, wire.URL.Host)
	}
	return raw, wire.URL, nil
}

// prepare encodes req and adds the conversation's headers and cookies
func (c *WebConversation) prepare(req *request.WebRequest) (*transport.Request, error) {
	wire, err := req.Prepare()
	if err != nil {
		c.recordValidation(err)
		return nil, err
	}

	for name, values := range c.headers {
		if wire.Header.Get(name) == "" {
			wire.Header[name] = append([]string(nil), values...)
		}
	}
	if wire.Header.Get("User-Agent") == "" && c.opts.UserAgent != "" {
		wire.Header.Set("User-Agent", c.opts.UserAgent)
	}
	if wire.Header.Get("Authorization") == "" {
		if auth, ok := c.hostAuth[wire.URL.Host]; ok {
			wire.Header.Set("Authorization", auth)
		} else if c.authorization != "" {
			wire.Header.Set("Authorization", c.authorization)
		}
	}
	if wire.Header.Get("Proxy-Authorization") == "" && c.proxyAuthorization != "" {
		wire.Header.Set("Proxy-Authorization", c.proxyAuthorization)
	}
	if !req.BypassCookies() {
		if cookie := c.jar.CookieHeaderField(wire.URL); cookie != "" {
			if existing := wire.Header.Get("Cookie"); existing != "" {
				cookie = existing + "; " + cookie
			}
			wire.Header.Set("Cookie", cookie)
		}
	}

	c.state = RequestPrepared
	return wire, nil
}

// roundTrip transmits wire and folds the response's cookies into the jar
func (c *WebConversation) roundTrip(ctx context.Context, wire *transport.Request) (*transport.Response, error) {
	body := wire.Body
	var captured *bodyCapture
	if c.recorder != nil && body != nil {
		captured = c.recorder.capture()
		wire.Body = io.TeeReader(body, captured)
	}

	span, ctx := c.tracer.StartSpan(ctx, "conversation.round_trip")
	span.SetTag("method", wire.Method)
	span.SetTag("url", wire.URL.String())

	c.state = AwaitingResponse
	started := time.Now()
	raw, err := c.transport.RoundTrip(ctx, wire)
	if closer, ok := body.(io.Closer); ok {
		closer.Close()
	}
	if err != nil {
		c.tracer.End(span, err)
		if c.metrics != nil {
			c.metrics.RecordTransportError(wire.Method)
		}
		c.logger.Warn("Request failed",
			zap.String("method", wire.Method),
			zap.String("url", wire.URL.String()),
			zap.Error(err))
		if errs.KindOf(err) == errs.KindTransport {
			return nil, err
		}
		return nil, errs.Transport(wire.URL.String(), err)
	}
	if raw.Elapsed == 0 {
		raw.Elapsed = time.Since(started)
	}
	if raw.Header == nil {
		raw.Header = make(http.Header)
	}
	span.SetStatus(raw.Status)
	c.tracer.End(span, nil)

	c.logger.Debug("Response received",
		zap.String("method", wire.Method),
		zap.String("url", wire.URL.String()),
		zap.Int("status", raw.Status),
		zap.Duration("elapsed", raw.Elapsed))
	if c.metrics != nil {
		c.metrics.RecordRequest(wire.Method, raw.Status, raw.Elapsed, len(raw.Body))
	}

	result := c.jar.UpdateFrom(raw.Header, wire.URL)
	if c.metrics != nil && (len(result.Accepted) > 0 || len(result.Rejected) > 0) {
		reasons := make([]string, len(result.Rejected))
		for i, r := range result.Rejected {
			reasons[i] = r.Reason.String()
		}
		c.metrics.RecordCookies(len(result.Accepted), reasons)
	}

	if c.recorder != nil {
		c.recorder.record(started, wire, captured, raw)
	}
	c.state = ResponseReceived
	return raw, nil
}

// answerChallenge picks credentials for a Basic challenge in raw and
// reports whether a retry would send something new
func (c *WebConversation) answerChallenge(wire *transport.Request, raw *transport.Response) bool {
	for _, value := range raw.Header.Values("WWW-Authenticate") {
		ch := parseChallenge(value)
		if ch.scheme != "basic" {
			continue
		}
		cred, ok := c.credentials[ch.params["realm"]]
		if !ok {
			cred, ok = c.credentials[AnyRealm]
		}
		if !ok {
			continue
		}
		auth := cred.header()
		if wire.Header.Get("Authorization") == auth {
			return false
		}
		c.hostAuth[wire.URL.Host] = auth
		return true
	}
	return false
}

// redirect builds the follow-up request for a redirect response, or nil
func (c *WebConversation) redirect(req *request.WebRequest, resp *WebResponse) *request.WebRequest {
	if !c.opts.FollowRedirects {
		return nil
	}
	status := resp.Status()
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
	default:
		return nil
	}
	location := resp.HeaderField("Location")
	if location == "" {
		return nil
	}
	target, err := resp.url.Parse(strings.TrimSpace(location))
	if err != nil {
		c.logger.Warn("Ignoring malformed redirect",
			zap.String("url", resp.url.String()),
			zap.String("location", location))
		return nil
	}

	method := req.Method()
	switch {
	case status == http.StatusSeeOther && method != request.MethodHead:
		method = request.MethodGet
	case (status == http.StatusMovedPermanently || status == http.StatusFound) && method == request.MethodPost:
		method = request.MethodGet
	}

	crossHost := target.Host != resp.url.Host
	if method == req.Method() && request.SendsBody(method) {
		next := req.Redirected(target)
		if crossHost {
			next.Header().Del("Authorization")
		}
		return next
	}
	next, err := request.New(method, target.String(), request.WithOptions(c.opts.Request))
	if err != nil {
		c.logger.Warn("Ignoring unusable redirect",
			zap.String("location", target.String()),
			zap.Error(err))
		return nil
	}
	for name, values := range req.Header() {
		if crossHost && strings.EqualFold(name, "Authorization") {
			continue
		}
		for _, v := range values {
			next.Header().Add(name, v)
		}
	}
	next.SetFrame(req.Frame())
	next.SetBypassCookies(req.BypassCookies())
	return next
}

func (c *WebConversation) checkStatus(resp *WebResponse) error {
	if !c.opts.StrictStatus {
		return nil
	}
	if err := errs.HTTPStatus(resp.url.String(), resp.status); err != nil {
		return err
	}
	return nil
}

// finish stores a final response in its frame. A new main page discards
// the frames of the old one.
func (c *WebConversation) finish(frame string, resp *WebResponse) {
	if frame == TopFrame {
		c.frames = map[string]*WebResponse{TopFrame: resp}
		c.frameOrder = []string{TopFrame}
	} else {
		if _, ok := c.frames[frame]; !ok {
			c.frameOrder = append(c.frameOrder, frame)
		}
		c.frames[frame] = resp
	}
	c.history = append(c.history, resp)
	c.state = ResponseReceived
}

func (c *WebConversation) recordValidation(err error) {
	kind := errs.KindOf(err)
	if !kind.Validation() {
		return
	}
	c.logger.Debug("Request rejected before sending", zap.String("kind", kind.String()), zap.Error(err))
	if c.metrics != nil {
		c.metrics.RecordValidationFailure(kind.String())
	}
}

// Close ends the conversation. The jar stays usable.
func (c *WebConversation) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.state = Idle
	if c.metrics != nil {
		c.metrics.ConversationClosed()
	}
}
