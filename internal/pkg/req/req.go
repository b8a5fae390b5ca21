/*
Package req provides helper functions for HTTP request parsing and data binding.

It encapsulates JSON body binding with strict decoding, returning unified
custom errors for malformed input.
*/
package req

import (
	"encoding/json"
	"net/http"
	"strings"

	"peerchat/internal/pkg/errs"
)

// MaxBodyBytes caps the size of a JSON request body (64 KB). The API surface
// only carries small control payloads.
const MaxBodyBytes int64 = 64 << 10

// BindJSON binds the JSON data from the HTTP request body to the destination
// struct dst, rejecting unknown fields and trailing content.
func BindJSON(w http.ResponseWriter, r *http.Request, dst any) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	return nil
}
