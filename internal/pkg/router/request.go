package router

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

// Request wraps http.Request with helpers for inbound handlers.
type Request struct {
	// Request is the underlying http.Request.
	*http.Request
}

// DecodeBody decodes the JSON body into dst.
func (r *Request) DecodeBody(dst any) error {
	if r == nil || r.Body == nil {
		return goerror.NewInvalidFormat()
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return goerror.NewInvalidFormat()
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return goerror.NewInvalidFormat()
	}

	return nil
}

// ParseMultipart parses a multipart/form-data body, spilling parts beyond
// maxMemory to temporary files. Call RemoveMultipart when done.
func (r *Request) ParseMultipart(maxMemory int64) error {
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "multipart/form-data") {
		return goerror.NewInvalidFormat("Invalid request content-type")
	}

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		if errors.Is(err, multipart.ErrMessageTooLarge) {
			return goerror.NewInvalidFormat("Request body too large")
		}
		return goerror.NewInvalidFormat()
	}

	return nil
}

// RemoveMultipart deletes temporary files created by ParseMultipart.
func (r *Request) RemoveMultipart() {
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}

// FormText returns the trimmed value of a form field.
func (r *Request) FormText(name string) string {
	return strings.TrimSpace(r.FormValue(name))
}

// FormFileHeader returns the first file uploaded under name, or nil.
func (r *Request) FormFileHeader(name string) *multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	files := r.MultipartForm.File[name]
	if len(files) == 0 {
		return nil
	}
	return files[0]
}
