package conversation

import (
	"net/http"
	"testing"

	"github.com/GriffinCanCode/headless/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResponse(t *testing.T, raw string, body string, headerPairs ...string) *WebResponse {
	t.Helper()
	resp := testutil.Response(http.StatusOK, body, headerPairs...)
	return newWebResponse(resp, testutil.MustParseURL(t, raw), TopFrame)
}

func TestResponseBasics(t *testing.T) {
	resp := newTestResponse(t, "http://www.example.com/page", "<title> Hello </title>",
		"Content-Type", "text/html; charset=ISO-8859-1",
		"X-Multi", "a", "X-Multi", "b")

	assert.Equal(t, http.StatusOK, resp.Status())
	assert.Equal(t, "OK", resp.StatusText())
	assert.Equal(t, "text/html", resp.ContentType())
	assert.True(t, resp.IsHTML())
	assert.Equal(t, "windows-1252", resp.Charset())
	assert.Equal(t, []string{"a", "b"}, resp.HeaderFields("X-Multi"))
	assert.NotEmpty(t, resp.ID())

	title, err := resp.Title()
	require.NoError(t, err)
	assert.Equal(t, "Hello", title)
	assert.Equal(t, "200 OK http://www.example.com/page", resp.String())
}

func TestResponseSniffsContentType(t *testing.T) {
	resp := newTestResponse(t, "http://www.example.com/", `{"ok":true}`)
	assert.Equal(t, "application/json", resp.ContentType())
	assert.False(t, resp.IsHTML())
}

func TestResponseDecodesLegacyCharset(t *testing.T) {
	resp := newTestResponse(t, "http://www.example.com/", "caf\xe9", "Content-Type", "text/plain; charset=iso-8859-1")
	text, err := resp.Text()
	require.NoError(t, err)
	assert.Equal(t, "café", text)
}

func TestResponseFormsAreCached(t *testing.T) {
	resp := newTestResponse(t, "http://www.example.com/", loginPage, "Content-Type", "text/html")

	forms, err := resp.Forms()
	require.NoError(t, err)
	require.Len(t, forms, 1)
	require.NoError(t, forms[0].SetParameter("user", "bob"))

	again, err := resp.FormWithName("login")
	require.NoError(t, err)
	assert.Same(t, forms[0], again)
	assert.Equal(t, "bob", again.ParameterValue("user"))

	_, err = resp.FormWithName("missing")
	assert.Error(t, err)
}

func TestResponseFrames(t *testing.T) {
	resp := newTestResponse(t, "http://www.example.com/a/b.html",
		`<body><iframe src="c.html"></iframe><iframe name="named" src="/d.html"></iframe></body>`,
		"Content-Type", "text/html")

	frames, err := resp.Frames()
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, "_top.0", frames[0].Name)
	assert.Equal(t, "http://www.example.com/a/c.html", frames[0].Src.String())
	assert.Equal(t, "named", frames[1].Name)
	assert.Equal(t, "http://www.example.com/d.html", frames[1].Src.String())
}

func TestResponseXPath(t *testing.T) {
	resp := newTestResponse(t, "http://www.example.com/",
		`<ul><li class="x">one</li><li>two</li><li class="x"> three </li></ul>`,
		"Content-Type", "text/html")

	texts, err := resp.XPathText(`//li[@class="x"]`)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "three"}, texts)

	_, err = resp.XPath("//li[")
	assert.Error(t, err)
}

func TestResponseJSON(t *testing.T) {
	resp := newTestResponse(t, "http://www.example.com/api", `{"user":{"name":"alice","roles":["a","b"]}}`,
		"Content-Type", "application/json")

	assert.Equal(t, "alice", resp.JSON("user.name").String())
	assert.Equal(t, int64(2), resp.JSON("user.roles.#").Int())
	assert.False(t, resp.JSON("user.missing").Exists())
}

func TestResponseSanitized(t *testing.T) {
	resp := newTestResponse(t, "http://www.example.com/",
		`<p onclick="steal()">hi</p><script>alert(1)</script>`, "Content-Type", "text/html")

	clean, err := resp.Sanitized()
	require.NoError(t, err)
	assert.NotContains(t, clean, "script")
	assert.NotContains(t, clean, "onclick")
	assert.Contains(t, clean, "hi")
}

func TestParseChallenge(t *testing.T) {
	c := parseChallenge(`Basic realm="my \"special\" realm", charset=UTF-8`)
	assert.Equal(t, "basic", c.scheme)
	assert.Equal(t, `my "special" realm`, c.params["realm"])
	assert.Equal(t, "UTF-8", c.params["charset"])

	c = parseChallenge("Digest")
	assert.Equal(t, "digest", c.scheme)
	assert.Empty(t, c.params)
}
