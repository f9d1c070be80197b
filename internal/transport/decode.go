package transport

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// AcceptEncoding lists the content codings decodeBody understands
const AcceptEncoding = "gzip, deflate, zstd"

// decodeBody undoes a Content-Encoding. It reports false when the coding is
// identity or unknown and the body was left as is.
func decodeBody(coding string, body []byte) ([]byte, bool, error) {
	switch strings.ToLower(strings.TrimSpace(coding)) {
	case "gzip", "x-gzip":
		// resty inflates gzip itself but leaves the header in place
		if len(body) < 2 || body[0] != 0x1f || body[1] != 0x8b {
			return body, true, nil
		}
		r, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, false, fmt.Errorf("invalid gzip body: %w", err)
		}
		defer r.Close()
		return readDecoded(r)
	case "deflate":
		// "deflate" is zlib-wrapped by the RFC but often sent raw
		if r, err := zlib.NewReader(bytes.NewReader(body)); err == nil {
			defer r.Close()
			return readDecoded(r)
		}
		r := flate.NewReader(bytes.NewReader(body))
		defer r.Close()
		return readDecoded(r)
	case "zstd":
		d, err := zstd.NewReader(nil)
		if err != nil {
			return nil, false, err
		}
		defer d.Close()
		out, err := d.DecodeAll(body, nil)
		if err != nil {
			return nil, false, fmt.Errorf("invalid zstd body: %w", err)
		}
		return out, true, nil
	default:
		return body, false, nil
	}
}

func readDecoded(r io.Reader) ([]byte, bool, error) {
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, false, fmt.Errorf("failed to decode body: %w", err)
	}
	return out, true, nil
}
