package transport

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBody(t *testing.T) {
	payload := []byte("hello, decoded world")

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, _ = gw.Write(payload)
	require.NoError(t, gw.Close())

	var zl bytes.Buffer
	zw := zlib.NewWriter(&zl)
	_, _ = zw.Write(payload)
	require.NoError(t, zw.Close())

	var raw bytes.Buffer
	fw, err := flate.NewWriter(&raw, flate.DefaultCompression)
	require.NoError(t, err)
	_, _ = fw.Write(payload)
	require.NoError(t, fw.Close())

	tests := []struct {
		name    string
		coding  string
		body    []byte
		decoded bool
	}{
		{name: "gzip", coding: "gzip", body: gz.Bytes(), decoded: true},
		{name: "already inflated gzip", coding: "gzip", body: payload, decoded: true},
		{name: "zlib deflate", coding: "deflate", body: zl.Bytes(), decoded: true},
		{name: "raw deflate", coding: "Deflate", body: raw.Bytes(), decoded: true},
		{name: "identity", coding: "", body: payload, decoded: false},
		{name: "unknown coding", coding: "br", body: payload, decoded: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, decoded, err := decodeBody(tt.coding, tt.body)
			require.NoError(t, err)
			assert.Equal(t, tt.decoded, decoded)
			if tt.coding == "br" {
				return
			}
			assert.Equal(t, payload, out)
		})
	}
}
