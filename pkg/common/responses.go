package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Envelope is the response body shape shared by every endpoint: a message
// plus endpoint-specific fields.
type Envelope map[string]interface{}

// Message starts an envelope with msg.
func Message(msg string) Envelope {
	return Envelope{"message": msg}
}

// With adds one field to the envelope.
func (e Envelope) With(key string, value interface{}) Envelope {
	e[key] = value
	return e
}

// RespondJSON sends a JSON response
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// RespondMessage sends {message} with status.
func RespondMessage(w http.ResponseWriter, status int, msg string) {
	RespondJSON(w, status, Message(msg))
}

// ErrEmptyBody is returned by ParseJSONBody for a missing body.
var ErrEmptyBody = errors.New("request body is empty")

// ParseJSONBody parses a JSON request body of at most maxBytes. Unknown fields
// are rejected.
func ParseJSONBody(w http.ResponseWriter, r *http.Request, v interface{}, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		}
		return fmt.Errorf("malformed JSON: %w", err)
	}
	if decoder.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}
