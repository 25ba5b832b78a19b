/*
Package req provides helpers for HTTP request parsing and data binding.

It wraps JSON and multipart form parsing with the application's error taxonomy
so handlers can bind inputs in one call.
*/
package req

import (
	"encoding/json"
	"net/http"
	"strings"

	"minimessenger/internal/pkg/errs"
)

const (
	// MaxFormMemory is the memory ceiling (32 MB) for non-file multipart fields;
	// larger file parts spill to temporary files.
	MaxFormMemory int64 = 32 << 20

	// MaxRequestFileSize caps the entire request body (25 MB) including files,
	// enforced via http.MaxBytesReader.
	MaxRequestFileSize int64 = 25 << 20
)

// BindJSON binds the JSON request body to dst, rejecting unknown fields and
// trailing content.
func BindJSON(r *http.Request, dst any) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrExtraContentInBody)
	}

	return nil
}

// SetupMultipart parses multipart or URL-encoded form data under the request
// body size limit.
func SetupMultipart(w http.ResponseWriter, r *http.Request) *errs.CustomError {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestFileSize)

	err := r.ParseMultipartForm(MaxFormMemory)

	if err != nil {
		if strings.Contains(err.Error(), "request body too large") {
			return errs.NewError(errs.ErrRequestEntityTooLarge)
		}

		return errs.NewError(errs.ErrFormParseFailed)
	}

	return nil
}
