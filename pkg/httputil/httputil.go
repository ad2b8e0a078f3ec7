// Package httputil centralizes JSON encoding and error translation for HTTP
// handlers so every endpoint returns the same envelope shape.
package httputil

import (
	"encoding/json"
	"net/http"

	"fraudshield/pkg/faults"
)

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ErrorBody is the error envelope returned by every endpoint.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteError translates a fault into its HTTP status and envelope. Unknown
// errors map to 500 INTERNAL without leaking internals.
func WriteError(w http.ResponseWriter, err error) {
	code := faults.CodeOf(err)
	body := ErrorBody{Error: string(code)}
	if f, ok := err.(*faults.Fault); ok && code != faults.CodeInternal {
		body.Message = f.Message
	}
	WriteJSON(w, faults.ToHTTPStatus(code), body)
}

// Decode parses a JSON request body into T, enforcing a size cap and
// rejecting unknown fields.
func Decode[T any](r *http.Request, maxBytes int64) (T, error) {
	var v T
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return v, faults.Wrap(faults.CodeInvalidInput, "malformed request body", err)
	}
	return v, nil
}
