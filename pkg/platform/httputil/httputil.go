// Package httputil holds the JSON envelope helpers shared by handlers.
package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// MaxBodyBytes caps request bodies.
const MaxBodyBytes = 64 << 10

// Failure is the body of every non-2xx JSON response.
type Failure struct {
	OK      bool              `json:"ok"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// Message is the body of simple successful responses.
type Message struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteFailure writes {ok:false, message}.
func WriteFailure(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Failure{OK: false, Message: message})
}

// DecodeJSON reads a JSON body of at most MaxBodyBytes into T. Unknown fields
// are ignored; trailing data after the first value is rejected.
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request) (T, error) {
	var v T
	if r.Body == nil {
		return v, errors.New("empty body")
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(&v); err != nil {
		return v, fmt.Errorf("decode body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return v, errors.New("decode body: unexpected data after JSON value")
	}
	return v, nil
}
