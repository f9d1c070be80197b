package form

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

// UploadFile describes one file submitted through a file control. The
// contents are opened on demand so large files are streamed, not buffered.
type UploadFile struct {
	// Filename is sent in the Content-Disposition of the part
	Filename string
	// ContentType is sent as the Content-Type of the part
	ContentType string

	open func() (io.ReadCloser, error)
}

// Open returns a reader over the file contents. A zero UploadFile, which a
// file control submits when nothing was chosen, yields an empty reader.
func (f UploadFile) Open() (io.ReadCloser, error) {
	if f.open == nil {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}
	return f.open()
}

// FileFromBytes builds an upload from memory. An empty contentType is
// detected from the data.
func FileFromBytes(filename string, data []byte, contentType string) UploadFile {
	if contentType == "" {
		contentType = mimetype.Detect(data).String()
	}
	return UploadFile{
		Filename:    filename,
		ContentType: contentType,
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// FileFromPath builds an upload that streams the file at path. An empty
// contentType is detected from the file header.
func FileFromPath(path, contentType string) (UploadFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return UploadFile{}, fmt.Errorf("failed to stat upload: %w", err)
	}
	if info.IsDir() {
		return UploadFile{}, fmt.Errorf("upload %s is a directory", path)
	}
	if contentType == "" {
		mt, err := mimetype.DetectFile(path)
		if err != nil {
			return UploadFile{}, fmt.Errorf("failed to detect content type: %w", err)
		}
		contentType = mt.String()
	}
	return UploadFile{
		Filename:    filepath.Base(path),
		ContentType: contentType,
		open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}
