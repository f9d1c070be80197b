package conversation

import (
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/GriffinCanCode/headless/internal/document"
	"github.com/GriffinCanCode/headless/internal/form"
	"github.com/GriffinCanCode/headless/internal/shared/id"
	"github.com/GriffinCanCode/headless/internal/transport"
	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/gabriel-vasile/mimetype"
	"github.com/tidwall/gjson"
	"golang.org/x/net/html"
)

// FrameRef is a <frame> or <iframe> found in a page
type FrameRef struct {
	Name string
	Src  *url.URL
}

// WebResponse is one received page. Parsed views of the body are built on
// first use and cached.
type WebResponse struct {
	id         id.ExchangeID
	status     int
	statusText string
	proto      string
	header     http.Header
	body       []byte
	url        *url.URL
	frame      string
	elapsed    time.Duration

	doc    *goquery.Document
	docErr error
	forms  []*form.Form
	parsed bool
}

func newWebResponse(raw *transport.Response, target *url.URL, frame string) *WebResponse {
	u := raw.URL
	if u == nil {
		u = target
	}
	header := raw.Header
	if header == nil {
		header = make(http.Header)
	}
	statusText := raw.StatusText
	if statusText == "" {
		statusText = http.StatusText(raw.Status)
	}
	return &WebResponse{
		id:         id.NewExchangeID(),
		status:     raw.Status,
		statusText: statusText,
		proto:      raw.Proto,
		header:     header,
		body:       raw.Body,
		url:        u,
		frame:      frame,
		elapsed:    raw.Elapsed,
	}
}

func (r *WebResponse) ID() id.ExchangeID      { return r.id }
func (r *WebResponse) Status() int            { return r.status }
func (r *WebResponse) StatusText() string     { return r.statusText }
func (r *WebResponse) Proto() string          { return r.proto }
func (r *WebResponse) Header() http.Header    { return r.header }
func (r *WebResponse) Body() []byte           { return r.body }
func (r *WebResponse) Frame() string          { return r.frame }
func (r *WebResponse) Elapsed() time.Duration { return r.elapsed }

// URL returns the address the response was received from
func (r *WebResponse) URL() *url.URL {
	u := *r.url
	return &u
}

// HeaderField returns the first value of a response header
func (r *WebResponse) HeaderField(name string) string {
	return r.header.Get(name)
}

// HeaderFields returns every value of a response header in received order
func (r *WebResponse) HeaderFields(name string) []string {
	return r.header.Values(name)
}

// ContentType returns the media type, sniffed from the body when the server
// did not declare one
func (r *WebResponse) ContentType() string {
	if declared := r.header.Get("Content-Type"); declared != "" {
		if mediaType, _, err := mime.ParseMediaType(declared); err == nil {
			return mediaType
		}
	}
	mt := mimetype.Detect(r.body).String()
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	return mt
}

// IsHTML reports whether the body is an HTML document
func (r *WebResponse) IsHTML() bool {
	ct := r.ContentType()
	return ct == "text/html" || ct == "application/xhtml+xml"
}

// Charset returns the canonical name of the body's character set
func (r *WebResponse) Charset() string {
	return document.Charset(r.body, r.header.Get("Content-Type"))
}

// Text returns the body decoded to UTF-8
func (r *WebResponse) Text() (string, error) {
	return document.Text(r.body, r.header.Get("Content-Type"))
}

// Document returns the parsed HTML tree
func (r *WebResponse) Document() (*goquery.Document, error) {
	if r.doc == nil && r.docErr == nil {
		r.doc, r.docErr = document.Load(r.body, r.header.Get("Content-Type"))
	}
	return r.doc, r.docErr
}

// Title returns the text of the page's <title>
func (r *WebResponse) Title() (string, error) {
	doc, err := r.Document()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(doc.Find("title").First().Text()), nil
}

// Forms returns the page's forms in document order. The same Form values are
// returned on every call, so changes made to them persist until submission.
func (r *WebResponse) Forms(opts ...form.ParseOption) ([]*form.Form, error) {
	if r.parsed {
		return r.forms, nil
	}
	doc, err := r.Document()
	if err != nil {
		return nil, err
	}
	r.forms = form.FromDocument(doc, opts...)
	r.parsed = true
	return r.forms, nil
}

// FormWithName returns the first form whose name or id is name
func (r *WebResponse) FormWithName(name string) (*form.Form, error) {
	forms, err := r.Forms()
	if err != nil {
		return nil, err
	}
	for _, f := range forms {
		if f.Name() == name || f.ID() == name {
			return f, nil
		}
	}
	return nil, fmt.Errorf("no form named %q in %s", name, r.url)
}

// Frames lists the named frames and iframes of the page with their
// resolved sources
func (r *WebResponse) Frames() ([]FrameRef, error) {
	doc, err := r.Document()
	if err != nil {
		return nil, err
	}
	var refs []FrameRef
	doc.Find("frame[src], iframe[src]").Each(func(i int, s *goquery.Selection) {
		src, err := url.Parse(strings.TrimSpace(s.AttrOr("src", "")))
		if err != nil {
			return
		}
		name := s.AttrOr("name", "")
		if name == "" {
			name = fmt.Sprintf("%s.%d", r.frame, i)
		}
		refs = append(refs, FrameRef{Name: name, Src: r.url.ResolveReference(src)})
	})
	return refs, nil
}

// XPath returns the nodes matching expr
func (r *WebResponse) XPath(expr string) ([]*html.Node, error) {
	node, err := document.LoadNode(r.body, r.header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}
	nodes, err := htmlquery.QueryAll(node, expr)
	if err != nil {
		return nil, fmt.Errorf("invalid xpath %q: %w", expr, err)
	}
	return nodes, nil
}

// XPathText returns the inner text of each node matching expr
func (r *WebResponse) XPathText(expr string) ([]string, error) {
	nodes, err := r.XPath(expr)
	if err != nil {
		return nil, err
	}
	texts := make([]string, len(nodes))
	for i, n := range nodes {
		texts[i] = strings.TrimSpace(htmlquery.InnerText(n))
	}
	return texts, nil
}

// JSON looks up a gjson path in a JSON body
func (r *WebResponse) JSON(path string) gjson.Result {
	return gjson.GetBytes(r.body, path)
}

// Sanitized returns the decoded body with scripts and unsafe markup removed
func (r *WebResponse) Sanitized() (string, error) {
	text, err := r.Text()
	if err != nil {
		return "", err
	}
	return document.Sanitize(text), nil
}

// String renders the status line for logs
func (r *WebResponse) String() string {
	return fmt.Sprintf("%d %s %s", r.status, r.statusText, r.url)
}
