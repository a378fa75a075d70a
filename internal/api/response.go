package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// maxBodyBytes bounds inbound documents.
const maxBodyBytes = 1 << 20

// respond writes v as a 200 JSON document.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		s.writeFailure(w, r, fmt.Errorf("failed to encode response: %w", err))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// decodeJSON decodes the body strictly: unknown fields, trailing data and
// oversized bodies are rejected with ErrBadRequest.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return badRequest("body exceeds %d bytes", tooLarge.Limit)
		}
		return badRequest("malformed JSON or unknown fields: %v", err)
	}

	// Trailing data check
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return badRequest("trailing data after JSON object")
	}

	return nil
}

// required dereferences a mandatory inbound field.
func required[T any](v *T, field string) (T, error) {
	if v == nil {
		var zero T
		return zero, badRequest("missing field %q", field)
	}
	return *v, nil
}

// empty is the body of endpoints that return no data.
type empty struct{}
