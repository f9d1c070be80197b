package document

import (
	"strings"
	"testing"

	"github.com/antchfx/htmlquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCharset(t *testing.T) {
	tests := []struct {
		name        string
		data        []byte
		contentType string
		expected    string
	}{
		{
			name:        "declared in content type",
			data:        []byte("<html><body>plain</body></html>"),
			contentType: "text/html; charset=ISO-8859-1",
			expected:    "windows-1252",
		},
		{
			name:        "declared in meta",
			data:        []byte(`<html><head><meta charset="shift_jis"></head><body>x</body></html>`),
			contentType: "text/html",
			expected:    "shift_jis",
		},
		{
			name:        "utf-8 without declaration",
			data:        []byte("<html><body>caf\xc3\xa9</body></html>"),
			contentType: "text/html",
			expected:    "utf-8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Charset(tt.data, tt.contentType))
		})
	}
}

func TestLoadDecodesLatin1(t *testing.T) {
	data := []byte("<html><body><p id=\"x\">caf\xe9</p></body></html>")

	doc, err := Load(data, "text/html; charset=iso-8859-1")
	require.NoError(t, err)
	assert.Equal(t, "café", doc.Find("#x").Text())
}

func TestLoadNode(t *testing.T) {
	node, err := LoadNode([]byte(`<html><body><a href="/next">Next</a></body></html>`), "text/html")
	require.NoError(t, err)

	link := htmlquery.FindOne(node, "//a")
	require.NotNil(t, link)
	assert.Equal(t, "/next", htmlquery.SelectAttr(link, "href"))
}

func TestLoadRejectsOversizedDocuments(t *testing.T) {
	_, err := Load([]byte(strings.Repeat("a", MaxSize+1)), "text/html")
	assert.Error(t, err)
}

func TestSanitize(t *testing.T) {
	out := Sanitize(`<p onclick="steal()">hi<script>alert(1)</script></p>`)
	assert.NotContains(t, out, "script")
	assert.NotContains(t, out, "onclick")
	assert.Contains(t, out, "hi")
}
