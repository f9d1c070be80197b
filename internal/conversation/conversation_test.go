package conversation

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/GriffinCanCode/headless/internal/infrastructure/config"
	"github.com/GriffinCanCode/headless/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/headless/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/headless/internal/request"
	"github.com/GriffinCanCode/headless/internal/shared/errs"
	"github.com/GriffinCanCode/headless/internal/testutil"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const loginPage = `<html><head><title>Login</title></head><body>
<form name="login" method="POST" action="/login">
  <input type="text" name="user">
  <input type="hidden" name="token" value="t1">
  <select name="lang"><option>en</option><option>fr</option></select>
  <input type="submit" name="go" value="Go">
  <input type="submit" name="later" value="Later" disabled>
</form>
</body></html>`

func TestCookiesAreFoldedAndAttached(t *testing.T) {
	m := testutil.NewMockTransport(t)
	m.OnRequest("GET", "http://www.example.com/").
		Return(testutil.HTML("<p>hi</p>", "Set-Cookie", "session=abc", "Set-Cookie", "theme=dark; Path=/"), nil).Once()
	m.OnRequest("GET", "http://www.example.com/next").
		Return(testutil.HTML("<p>next</p>"), nil).Once()

	conv := New(m)
	_, err := conv.Get(context.Background(), "http://www.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "abc", conv.CookieValue("session"))

	_, err = conv.Get(context.Background(), "http://www.example.com/next")
	require.NoError(t, err)
	assert.Equal(t, "session=abc; theme=dark", m.Last(t).Header.Get("Cookie"))
	assert.Equal(t, "headless/1.0", m.Last(t).Header.Get("User-Agent"))
	assert.Equal(t, ResponseReceived, conv.State())
}

func TestCookiesAreNotSentToOtherHosts(t *testing.T) {
	m := testutil.NewMockTransport(t)
	m.OnRequest("GET", "http://www.example.com/").
		Return(testutil.HTML("", "Set-Cookie", "session=abc"), nil).Once()
	m.OnRequest("GET", "http://other.test/").
		Return(testutil.HTML(""), nil).Once()

	conv := New(m)
	_, err := conv.Get(context.Background(), "http://www.example.com/")
	require.NoError(t, err)
	_, err = conv.Get(context.Background(), "http://other.test/")
	require.NoError(t, err)

	assert.Empty(t, m.Last(t).Header.Get("Cookie"))
}

func TestRejectedCookiesAreCounted(t *testing.T) {
	m := testutil.NewMockTransport(t)
	m.OnRequest("GET", "http://www.some.example.com/").
		Return(testutil.HTML("", "Set-Cookie", "bad=1; Domain=.example.com", "Set-Cookie", "good=1"), nil).Once()

	metrics := monitoring.NewMetrics(nil)
	conv := New(m, WithMetrics(metrics))
	_, err := conv.Get(context.Background(), "http://www.some.example.com/")
	require.NoError(t, err)

	assert.Equal(t, []string{"good"}, conv.Jar().CookieNames())
	assert.Equal(t, 1.0, promtest.ToFloat64(metrics.CookiesAccepted))
	assert.Equal(t, 1.0, promtest.ToFloat64(metrics.CookiesRejected.WithLabelValues("DOMAIN_TOO_MANY_LEVELS")))
}

func TestSingleUseCookieIsSentOnce(t *testing.T) {
	m := testutil.NewMockTransport(t)
	m.OnRequest("GET", "http://www.example.com/a").Return(testutil.HTML(""), nil).Once()
	m.OnRequest("GET", "http://www.example.com/b").Return(testutil.HTML(""), nil).Once()

	conv := New(m)
	conv.Jar().PutSingleUseCookie("nonce", "42", "www.example.com", "/")

	_, err := conv.Get(context.Background(), "http://www.example.com/a")
	require.NoError(t, err)
	assert.Equal(t, "nonce=42", m.Last(t).Header.Get("Cookie"))

	_, err = conv.Get(context.Background(), "http://www.example.com/b")
	require.NoError(t, err)
	assert.Empty(t, m.Last(t).Header.Get("Cookie"))
}

func TestBypassCookies(t *testing.T) {
	m := testutil.NewMockTransport(t)
	m.OnRequest("GET", "http://www.example.com/").Return(testutil.HTML(""), nil).Once()

	conv := New(m)
	conv.PutCookie("session", "abc")

	req, err := request.NewGet("http://www.example.com/")
	require.NoError(t, err)
	req.SetBypassCookies(true)
	_, err = conv.GetResponse(context.Background(), req)
	require.NoError(t, err)

	assert.Empty(t, m.Last(t).Header.Get("Cookie"))
}

func TestSubmitPostRedirectsToGet(t *testing.T) {
	m := testutil.NewMockTransport(t)
	m.OnRequest("GET", "http://www.example.com/start").Return(testutil.HTML(loginPage), nil).Once()
	m.OnRequest("POST", "http://www.example.com/login").
		Return(testutil.Redirect(http.StatusSeeOther, "/home?tab=1", "Set-Cookie", "session=xyz"), nil).Once()
	m.OnRequest("GET", "http://www.example.com/home?tab=1").
		Return(testutil.HTML("<title>Home</title>"), nil).Once()

	metrics := monitoring.NewMetrics(nil)
	conv := New(m, WithMetrics(metrics))
	page, err := conv.Get(context.Background(), "http://www.example.com/start")
	require.NoError(t, err)

	login, err := page.FormWithName("login")
	require.NoError(t, err)
	require.NoError(t, login.SetParameter("user", "alice"))
	require.NoError(t, login.SetParameter("lang", "fr"))

	home, err := conv.Submit(context.Background(), page, login)
	require.NoError(t, err)

	require.Len(t, m.Sent, 3)
	assert.Equal(t, "user=alice&token=t1&lang=fr", m.Sent[1].Body)
	assert.Equal(t, "application/x-www-form-urlencoded", m.Sent[1].Header.Get("Content-Type"))
	assert.Equal(t, "GET", m.Sent[2].Method)
	assert.Empty(t, m.Sent[2].Body)
	assert.Equal(t, "session=xyz", m.Sent[2].Header.Get("Cookie"))

	title, err := home.Title()
	require.NoError(t, err)
	assert.Equal(t, "Home", title)
	assert.Equal(t, "http://www.example.com/home?tab=1", home.URL().String())
	assert.Equal(t, 1.0, promtest.ToFloat64(metrics.Redirects))
	assert.Len(t, conv.History(), 2)
}

func TestTemporaryRedirectKeepsMethodAndBody(t *testing.T) {
	m := testutil.NewMockTransport(t)
	m.OnRequest("POST", "http://www.example.com/upload").
		Return(testutil.Redirect(http.StatusTemporaryRedirect, "http://www.example.com/v2/upload"), nil).Once()
	m.OnRequest("POST", "http://www.example.com/v2/upload").
		Return(testutil.Response(http.StatusCreated, "ok"), nil).Once()

	req, err := request.NewPost("http://www.example.com/upload")
	require.NoError(t, err)
	require.NoError(t, req.SetParameter("a", "1"))

	conv := New(m)
	resp, err := conv.GetResponse(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, resp.Status())
	require.Len(t, m.Sent, 2)
	assert.Equal(t, "a=1", m.Sent[0].Body)
	assert.Equal(t, "a=1", m.Sent[1].Body)
}

func TestCrossHostRedirectDropsAuthorization(t *testing.T) {
	m := testutil.NewMockTransport(t)
	m.OnRequest("PUT", "http://www.example.com/doc").
		Return(testutil.Redirect(http.StatusTemporaryRedirect, "http://storage.example.net/doc"), nil).Once()
	m.OnRequest("PUT", "http://storage.example.net/doc").
		Return(testutil.Response(http.StatusNoContent, ""), nil).Once()

	req, err := request.NewPut("http://www.example.com/doc", []byte("v1"), "text/plain")
	require.NoError(t, err)
	req.SetHeader("Authorization", "Bearer t0k")

	_, err = New(m).GetResponse(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, m.Sent, 2)
	assert.Equal(t, "Bearer t0k", m.Sent[0].Header.Get("Authorization"))
	assert.Empty(t, m.Sent[1].Header.Get("Authorization"))
	assert.Equal(t, "v1", m.Sent[1].Body)
}

func TestFoundRedirectKeepsGetHeaders(t *testing.T) {
	m := testutil.NewMockTransport(t)
	m.OnRequest("GET", "http://www.example.com/old").
		Return(testutil.Redirect(http.StatusFound, "/new"), nil).Once()
	m.OnRequest("GET", "http://www.example.com/new").
		Return(testutil.HTML(""), nil).Once()

	req, err := request.NewGet("http://www.example.com/old")
	require.NoError(t, err)
	req.SetHeader("X-Trace", "abc")

	_, err = New(m).GetResponse(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "abc", m.Last(t).Header.Get("X-Trace"))
}

func TestTooManyRedirects(t *testing.T) {
	m := testutil.NewMockTransport(t)
	m.OnRequest("GET", "http://www.example.com/loop").
		Return(testutil.Redirect(http.StatusFound, "/loop"), nil)

	opts := DefaultOptions()
	opts.MaxRedirects = 2
	conv := New(m, WithOptions(opts))

	resp, err := conv.Get(context.Background(), "http://www.example.com/loop")
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, errs.ErrTooManyRedirects)
	assert.Len(t, m.Sent, 3)
	assert.Equal(t, Idle, conv.State())
}

func TestRedirectsNotFollowed(t *testing.T) {
	m := testutil.NewMockTransport(t)
	m.OnRequest("GET", "http://www.example.com/old").
		Return(testutil.Redirect(http.StatusMovedPermanently, "/new"), nil).Once()

	opts := DefaultOptions()
	opts.FollowRedirects = false
	resp, err := New(m, WithOptions(opts)).Get(context.Background(), "http://www.example.com/old")
	require.NoError(t, err)
	assert.Equal(t, http.StatusMovedPermanently, resp.Status())
	assert.Equal(t, "/new", resp.HeaderField("Location"))
}

func TestBasicChallengeIsAnsweredOnce(t *testing.T) {
	m := testutil.NewMockTransport(t)
	challenge := testutil.Response(http.StatusUnauthorized, "", "WWW-Authenticate", `Basic realm="members"`)
	m.OnRequest("GET", "http://www.example.com/private").Return(challenge, nil).Once()
	m.OnRequest("GET", "http://www.example.com/private").Return(testutil.HTML("secret"), nil).Once()
	m.OnRequest("GET", "http://www.example.com/more").Return(testutil.HTML("more"), nil).Once()

	metrics := monitoring.NewMetrics(nil)
	conv := New(m, WithMetrics(metrics))
	conv.SetCredentials("members", "alice", "secret")

	resp, err := conv.Get(context.Background(), "http://www.example.com/private")
	require.NoError(t, err)
	assert.Equal(t, "secret", string(resp.Body()))

	require.Len(t, m.Sent, 2)
	assert.Empty(t, m.Sent[0].Header.Get("Authorization"))
	assert.Equal(t, "Basic YWxpY2U6c2VjcmV0", m.Sent[1].Header.Get("Authorization"))
	assert.Equal(t, 1.0, promtest.ToFloat64(metrics.AuthRetries))

	_, err = conv.Get(context.Background(), "http://www.example.com/more")
	require.NoError(t, err)
	assert.Equal(t, "Basic YWxpY2U6c2VjcmV0", m.Last(t).Header.Get("Authorization"))
}

func TestSingleUseCookieSurvivesChallengeRetry(t *testing.T) {
	m := testutil.NewMockTransport(t)
	challenge := testutil.Response(http.StatusUnauthorized, "", "WWW-Authenticate", `Basic realm="members"`)
	m.OnRequest("GET", "http://www.example.com/private").Return(challenge, nil).Once()
	m.OnRequest("GET", "http://www.example.com/private").Return(testutil.HTML("secret"), nil).Once()
	m.OnRequest("GET", "http://www.example.com/after").Return(testutil.HTML(""), nil).Once()

	conv := New(m)
	conv.SetCredentials("members", "u", "p")
	conv.Jar().PutSingleUseCookie("ticket", "t1", "www.example.com", "/")

	_, err := conv.Get(context.Background(), "http://www.example.com/private")
	require.NoError(t, err)
	require.Len(t, m.Sent, 2)
	assert.Equal(t, "ticket=t1", m.Sent[0].Header.Get("Cookie"))
	assert.Equal(t, "ticket=t1", m.Sent[1].Header.Get("Cookie"))
	assert.Equal(t, "Basic dTpw", m.Sent[1].Header.Get("Authorization"))

	_, err = conv.Get(context.Background(), "http://www.example.com/after")
	require.NoError(t, err)
	assert.Empty(t, m.Last(t).Header.Get("Cookie"))
}

func TestWrongCredentialsAreNotRetriedForever(t *testing.T) {
	m := testutil.NewMockTransport(t)
	challenge := testutil.Response(http.StatusUnauthorized, "", "WWW-Authenticate", `Basic realm="members"`)
	m.OnRequest("GET", "http://www.example.com/private").Return(challenge, nil).Twice()

	opts := DefaultOptions()
	opts.StrictStatus = true
	conv := New(m, WithOptions(opts))
	conv.SetCredentials(AnyRealm, "alice", "wrong")

	resp, err := conv.Get(context.Background(), "http://www.example.com/private")
	require.NotNil(t, resp)
	assert.ErrorIs(t, err, errs.ErrAuthorizationRequired)
	assert.Len(t, m.Sent, 2)
}

func TestUnknownRealmIsNotAnswered(t *testing.T) {
	m := testutil.NewMockTransport(t)
	challenge := testutil.Response(http.StatusUnauthorized, "", "WWW-Authenticate", `Basic realm="admins"`)
	m.OnRequest("GET", "http://www.example.com/private").Return(challenge, nil).Once()

	conv := New(m)
	conv.SetCredentials("members", "alice", "secret")

	resp, err := conv.Get(context.Background(), "http://www.example.com/private")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.Status())
}

func TestAuthorizationHeaders(t *testing.T) {
	m := testutil.NewMockTransport(t)
	m.OnRequest("GET", "http://www.example.com/").Return(testutil.HTML(""), nil).Once()

	conv := New(m)
	conv.SetAuthorization("bob", "pw")
	conv.SetProxyAuthorization("proxy", "pw")
	conv.SetHeader("Accept-Language", "fr")

	_, err := conv.Get(context.Background(), "http://www.example.com/")
	require.NoError(t, err)

	sent := m.Last(t)
	assert.Equal(t, "Basic Ym9iOnB3", sent.Header.Get("Authorization"))
	assert.Equal(t, "Basic cHJveHk6cHc=", sent.Header.Get("Proxy-Authorization"))
	assert.Equal(t, "fr", sent.Header.Get("Accept-Language"))
}

func TestFailureStatusIsNotAnErrorByDefault(t *testing.T) {
	m := testutil.NewMockTransport(t)
	m.OnRequest("GET", "http://www.example.com/missing").
		Return(testutil.Response(http.StatusNotFound, "gone"), nil).Once()

	assert.False(t, DefaultOptions().StrictStatus)
	resp, err := New(m).Get(context.Background(), "http://www.example.com/missing")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.Status())
	assert.Equal(t, "gone", string(resp.Body()))
}

func TestStrictStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		strict bool
		want   error
	}{
		{name: "not found", status: http.StatusNotFound, strict: true, want: errs.ErrNotFound},
		{name: "server error", status: http.StatusBadGateway, strict: true, want: errs.ErrServerError},
		{name: "bad request passes", status: http.StatusBadRequest, strict: true},
		{name: "lenient not found", status: http.StatusNotFound, strict: false},
		{name: "lenient server error", status: http.StatusInternalServerError, strict: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testutil.NewMockTransport(t)
			m.OnRequest("GET", "http://www.example.com/x").
				Return(testutil.Response(tt.status, "body"), nil).Once()

			opts := DefaultOptions()
			opts.StrictStatus = tt.strict
			resp, err := New(m, WithOptions(opts)).Get(context.Background(), "http://www.example.com/x")

			require.NotNil(t, resp)
			assert.Equal(t, tt.status, resp.Status())
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestTransportFailure(t *testing.T) {
	m := testutil.NewMockTransport(t)
	cause := errors.New("connection refused")
	m.OnRequest("GET", "http://www.example.com/").Return(nil, cause).Once()

	metrics := monitoring.NewMetrics(nil)
	conv := New(m, WithMetrics(metrics))
	resp, err := conv.Get(context.Background(), "http://www.example.com/")

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, errs.ErrTransport)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, Idle, conv.State())
	assert.Equal(t, 1.0, promtest.ToFloat64(metrics.TransportErrors.WithLabelValues("GET")))
}

func TestValidationFailsBeforeSending(t *testing.T) {
	m := testutil.NewMockTransport(t)
	m.OnRequest("GET", "http://www.example.com/start").Return(testutil.HTML(loginPage), nil).Once()

	metrics := monitoring.NewMetrics(nil)
	conv := New(m, WithMetrics(metrics))
	page, err := conv.Get(context.Background(), "http://www.example.com/start")
	require.NoError(t, err)

	forms, err := conv.Forms(page)
	require.NoError(t, err)
	login := forms[0]

	_, err = conv.Submit(context.Background(), page, login, request.WithButton(login.SubmitButton("later", "")))
	assert.ErrorIs(t, err, errs.ErrDisabledSubmitButton)
	assert.Len(t, m.Sent, 1)
	assert.Equal(t, 1.0, promtest.ToFloat64(metrics.ValidationFailures.WithLabelValues("disabled_submit_button")))
}

func TestSubmitWithButton(t *testing.T) {
	m := testutil.NewMockTransport(t)
	m.OnRequest("GET", "http://www.example.com/start").Return(testutil.HTML(loginPage), nil).Once()
	m.OnRequest("POST", "http://www.example.com/login").Return(testutil.HTML("done"), nil).Once()

	conv := New(m)
	page, err := conv.Get(context.Background(), "http://www.example.com/start")
	require.NoError(t, err)
	login, err := page.FormWithName("login")
	require.NoError(t, err)

	_, err = conv.Submit(context.Background(), page, login, request.WithButton(login.SubmitButton("go", "Go")))
	require.NoError(t, err)
	assert.Equal(t, "user=&token=t1&lang=en&go=Go", m.Last(t).Body)
}

func TestFramesShareCookies(t *testing.T) {
	m := testutil.NewMockTransport(t)
	m.OnRequest("GET", "http://www.example.com/dir/index.html").Return(testutil.HTML(
		`<body><iframe name="left" src="/left.html"></iframe><iframe name="right" src="right.html"></iframe></body>`,
		"Set-Cookie", "session=abc; Path=/"), nil).Once()
	m.OnRequest("GET", "http://www.example.com/left.html").Return(testutil.HTML("left"), nil).Once()
	m.OnRequest("GET", "http://www.example.com/dir/right.html").Return(testutil.HTML("right"), nil).Once()
	m.OnRequest("GET", "http://www.example.com/other").Return(testutil.HTML("other"), nil).Once()

	conv := New(m)
	top, err := conv.Get(context.Background(), "http://www.example.com/dir/index.html")
	require.NoError(t, err)

	frames, err := conv.FetchFrames(context.Background(), top)
	require.NoError(t, err)
	require.Len(t, frames, 2)

	assert.Equal(t, []string{TopFrame, "left", "right"}, conv.FrameNames())
	left, ok := conv.Frame("left")
	require.True(t, ok)
	assert.Equal(t, "left", string(left.Body()))
	assert.Equal(t, "left", left.Frame())
	assert.Equal(t, "session=abc", m.Sent[1].Header.Get("Cookie"))
	assert.Same(t, top, conv.CurrentPage())

	_, err = conv.Get(context.Background(), "http://www.example.com/other")
	require.NoError(t, err)
	assert.Equal(t, []string{TopFrame}, conv.FrameNames())
}

func TestRecorderCapturesRedirectChain(t *testing.T) {
	m := testutil.NewMockTransport(t)
	m.OnRequest("POST", "http://www.example.com/login").
		Return(testutil.Redirect(http.StatusFound, "/home"), nil).Once()
	m.OnRequest("GET", "http://www.example.com/home").
		Return(testutil.HTML("home"), nil).Once()

	rec := NewRecorder("headless", "test")
	conv := New(m, WithRecorder(rec))

	req, err := request.NewPost("http://www.example.com/login")
	require.NoError(t, err)
	require.NoError(t, req.SetParameter("user", "alice"))
	_, err = conv.GetResponse(context.Background(), req)
	require.NoError(t, err)

	require.Equal(t, 2, rec.Len())
	entries := rec.Entries()
	assert.Equal(t, "POST", entries[0].Request.Method)
	assert.Equal(t, "user=alice", entries[0].Request.Body.Content)
	assert.Equal(t, "user=alice", m.Sent[0].Body)
	assert.Equal(t, http.StatusFound, entries[0].Response.StatusCode)
	assert.Equal(t, "GET", entries[1].Request.Method)
	assert.Equal(t, "home", entries[1].Response.Body.Content)
}

func TestRequestIsSentOnce(t *testing.T) {
	m := testutil.NewMockTransport(t)
	m.OnRequest("GET", "http://www.example.com/").Return(testutil.HTML(""), nil).Once()

	conv := New(m)
	req, err := request.NewGet("http://www.example.com/")
	require.NoError(t, err)
	_, err = conv.GetResponse(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, req.Consumed())
	assert.Panics(t, func() { _, _ = conv.GetResponse(context.Background(), req) })
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Conversation.MaxRedirects = 3
	cfg.Cookies.StrictDomain = false
	cfg.Forms.ValidateParameters = false
	cfg.Forms.EditableHidden = true

	opts := OptionsFromConfig(cfg)
	assert.Equal(t, 3, opts.MaxRedirects)
	assert.False(t, opts.StrictStatus)
	assert.False(t, opts.CookiePolicy.StrictDomain)
	assert.True(t, opts.CookiePolicy.StrictPath)
	assert.True(t, opts.Request.Permissive)
	assert.True(t, opts.EditableHidden)
	assert.Equal(t, "utf-8", opts.Request.Charset)
}

func TestActiveConversationsGauge(t *testing.T) {
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	conv := New(testutil.NewMockTransport(t), WithMetrics(metrics))
	assert.Equal(t, 1.0, promtest.ToFloat64(metrics.ActiveConversations))

	conv.Close()
	conv.Close()
	assert.Equal(t, 0.0, promtest.ToFloat64(metrics.ActiveConversations))
}

func TestTracerRecordsEveryHop(t *testing.T) {
	m := testutil.NewMockTransport(t)
	m.OnRequest("GET", "http://www.example.com/old").
		Return(testutil.Redirect(http.StatusFound, "/new"), nil).Once()
	m.OnRequest("GET", "http://www.example.com/new").
		Return(testutil.HTML(""), nil).Once()

	core, logs := observer.New(zapcore.DebugLevel)
	tracer := tracing.New(zap.New(core), 0)

	_, err := New(m, WithTracer(tracer)).Get(context.Background(), "http://www.example.com/old")
	require.NoError(t, err)
	tracer.Close()

	spans := logs.FilterMessage("span completed").All()
	require.Len(t, spans, 3)
	assert.Equal(t, "conversation.round_trip", spans[0].ContextMap()["operation"])
	assert.Equal(t, int64(302), spans[0].ContextMap()["status"])
	assert.Equal(t, "http://www.example.com/new", spans[1].ContextMap()["url"])

	top := spans[2].ContextMap()
	assert.Equal(t, "conversation.get_response", top["operation"])
	assert.Equal(t, "1", top["redirects"])
	assert.Equal(t, int64(200), top["status"])
	assert.Equal(t, spans[0].ContextMap()["trace_id"], top["trace_id"])
	assert.Equal(t, top["span_id"], spans[0].ContextMap()["parent_id"])
}
