package request

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/GriffinCanCode/headless/internal/form"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// charsetEncoder converts UTF-8 parameter text to the request charset.
// Characters the charset cannot represent become numeric character
// references, as browsers send them.
type charsetEncoder struct {
	name string
	enc  *encoding.Encoder
}

func newCharsetEncoder(label string) (*charsetEncoder, error) {
	e, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	name, err := htmlindex.Name(e)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	c := &charsetEncoder{name: name}
	if name != "utf-8" {
		c.enc = encoding.HTMLEscapeUnsupported(e.NewEncoder())
	}
	return c, nil
}

func (c *charsetEncoder) encode(s string) (string, error) {
	if c.enc == nil {
		return s, nil
	}
	out, err := c.enc.String(s)
	if err != nil {
		return "", fmt.Errorf("failed to encode %q as %s: %w", s, c.name, err)
	}
	return out, nil
}

// urlEncoder collects application/x-www-form-urlencoded pairs
type urlEncoder struct {
	charset *charsetEncoder
	pairs   []string
}

func (u *urlEncoder) escape(s string) (string, error) {
	encoded, err := u.charset.encode(s)
	if err != nil {
		return "", err
	}
	return url.QueryEscape(encoded), nil
}

func (u *urlEncoder) AddParameter(name, value string) error {
	n, err := u.escape(name)
	if err != nil {
		return err
	}
	v, err := u.escape(value)
	if err != nil {
		return err
	}
	u.pairs = append(u.pairs, n+"="+v)
	return nil
}

// AddFile sends only the filename, as a browser does for a file control
// in a url-encoded submission
func (u *urlEncoder) AddFile(name string, file form.UploadFile) error {
	return u.AddParameter(name, file.Filename)
}

func (u *urlEncoder) String() string {
	return strings.Join(u.pairs, "&")
}

type part struct {
	name  string
	value string
	file  *form.UploadFile
}

// partCollector gathers multipart parts before anything is written, so
// encoding failures surface before the body starts streaming
type partCollector struct {
	charset *charsetEncoder
	parts   []part
}

func (c *partCollector) AddParameter(name, value string) error {
	v, err := c.charset.encode(value)
	if err != nil {
		return err
	}
	c.parts = append(c.parts, part{name: name, value: v})
	return nil
}

func (c *partCollector) AddFile(name string, file form.UploadFile) error {
	c.parts = append(c.parts, part{name: name, file: &file})
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// writeMultipart streams parts to w. File contents are copied straight
// from their source.
func writeMultipart(w io.Writer, boundary string, parts []part) error {
	mw := multipart.NewWriter(w)
	if err := mw.SetBoundary(boundary); err != nil {
		return err
	}

	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		disposition := fmt.Sprintf(`form-data; name="%s"`, quoteEscaper.Replace(p.name))
		if p.file == nil {
			h.Set("Content-Disposition", disposition)
			pw, err := mw.CreatePart(h)
			if err != nil {
				return err
			}
			if _, err := io.WriteString(pw, p.value); err != nil {
				return err
			}
			continue
		}

		contentType := p.file.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h.Set("Content-Disposition", disposition+fmt.Sprintf(`; filename="%s"`, quoteEscaper.Replace(p.file.Filename)))
		h.Set("Content-Type", contentType)
		pw, err := mw.CreatePart(h)
		if err != nil {
			return err
		}
		if err := copyFile(pw, *p.file); err != nil {
			return err
		}
	}
	return mw.Close()
}

func copyFile(w io.Writer, file form.UploadFile) error {
	rc, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open upload %s: %w", file.Filename, err)
	}
	defer rc.Close()
	if _, err := io.Copy(w, rc); err != nil {
		return fmt.Errorf("failed to stream upload %s: %w", file.Filename, err)
	}
	return nil
}
