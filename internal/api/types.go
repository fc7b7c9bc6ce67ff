package api

import (
	"io"
	"os"
	"path/filepath"
)

// FileListResponse is the body of GET /files.
type FileListResponse struct {
	Files []string `json:"files"`
}

// MessageResponse is the success body of POST /upload and POST /process.
// Filename and Files are optional extras some server versions include.
type MessageResponse struct {
	Message  string   `json:"message"`
	Filename string   `json:"filename,omitempty"`
	Files    []string `json:"files,omitempty"`
}

// errorResponse is the body of any application-level failure.
type errorResponse struct {
	Error string `json:"error"`
}

// UploadFile is one part of a multipart upload. Open is called once, when the
// part is written, so payloads are streamed rather than held in memory.
type UploadFile struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// UploadFileFromPath describes a local file for upload without opening it.
func UploadFileFromPath(path string, size int64) UploadFile {
	return UploadFile{
		Name: filepath.Base(path),
		Size: size,
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

// UploadObserver receives per-part callbacks while an upload body is written.
// Wrap may return r unchanged.
type UploadObserver interface {
	Wrap(index int, name string, size int64, r io.Reader) io.Reader
	Done(index int, err error)
}

// Download is an open binary response. Callers must Close it.
type Download struct {
	Body io.ReadCloser
	// Size is the Content-Length, or -1 when unknown.
	Size int64
	// FileName comes from Content-Disposition when present.
	FileName  string
	RequestID string
}

// Close releases the response body.
func (d *Download) Close() error {
	return d.Body.Close()
}
