// Package document turns response bytes into parsed HTML trees.
//
// It is the parser collaborator of the form engine: bytes plus a declared
// content type go in, a goquery document (CSS selectors) or an htmlquery node
// (XPath) comes out. The character set is taken from, in order, a byte order
// mark, the Content-Type charset parameter, a <meta> prescan, and finally
// statistical detection with chardet.
//
// Built on:
//   - goquery: CSS selectors over the parsed tree
//   - htmlquery: XPath support
//   - chardet + x/net/html/charset: charset detection and decoding
//   - bluemonday: sanitized rendering for display
package document

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// MaxSize limits parsed documents to 10MB
const MaxSize = 10 * 1024 * 1024

var sanitizer = bluemonday.UGCPolicy()

func validate(data []byte) error {
	if len(data) > MaxSize {
		return fmt.Errorf("document exceeds maximum size of %d bytes", MaxSize)
	}
	return nil
}

// DetectCharset guesses the charset of raw bytes
func DetectCharset(data []byte) string {
	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(data)
	if err != nil || result == nil {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}

// Charset returns the canonical charset name for data served with contentType
func Charset(data []byte, contentType string) string {
	_, name, certain := charset.DetermineEncoding(data, contentType)
	if certain || utf8.Valid(data) {
		return name
	}
	if _, detected := charset.Lookup(DetectCharset(data)); detected != "" {
		return detected
	}
	return name
}

// Reader returns a UTF-8 reader over data and the charset it was decoded from
func Reader(data []byte, contentType string) (io.Reader, string) {
	name := Charset(data, contentType)
	r, err := charset.NewReaderLabel(name, bytes.NewReader(data))
	if err != nil {
		return bytes.NewReader(data), "utf-8"
	}
	return r, name
}

// Text decodes data to a UTF-8 string
func Text(data []byte, contentType string) (string, error) {
	r, _ := Reader(data, contentType)
	decoded, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to decode document: %w", err)
	}
	return string(decoded), nil
}

// Load parses data into a goquery document
func Load(data []byte, contentType string) (*goquery.Document, error) {
	if err := validate(data); err != nil {
		return nil, err
	}
	r, _ := Reader(data, contentType)
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return doc, nil
}

// LoadString parses an already decoded HTML string
func LoadString(htmlStr string) (*goquery.Document, error) {
	if err := validate([]byte(htmlStr)); err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
}

// LoadNode parses data into an XPath-queryable node
func LoadNode(data []byte, contentType string) (*html.Node, error) {
	if err := validate(data); err != nil {
		return nil, err
	}
	r, _ := Reader(data, contentType)
	node, err := htmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return node, nil
}

// Sanitize strips scripts, handlers and unsafe markup from HTML
func Sanitize(htmlStr string) string {
	return sanitizer.Sanitize(htmlStr)
}
