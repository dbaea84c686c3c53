package errors

import (
	"net/http"
	"strings"
)

// FieldError is one failed field check.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors aggregates field failures before they are returned as a
// single 400.
type ValidationErrors struct {
	Errors []FieldError
}

// NewValidationErrors creates an empty collection
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{}
}

// Add records a failure for field
func (v *ValidationErrors) Add(field, message string) {
	v.Errors = append(v.Errors, FieldError{Field: field, Message: message})
}

// HasErrors reports whether any failure was recorded
func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

// Err returns nil when empty, otherwise a validation AppError whose message
// is the first failure and whose details list all of them.
func (v *ValidationErrors) Err() error {
	if !v.HasErrors() {
		return nil
	}
	msgs := make([]string, len(v.Errors))
	for i, e := range v.Errors {
		msgs[i] = e.Message
	}
	appErr := newAppError(ErrorTypeValidation, http.StatusBadRequest, v.Errors[0].Message)
	appErr.Details = map[string]interface{}{"fields": v.ToMap()}
	if len(msgs) > 1 {
		appErr.Details["summary"] = strings.Join(msgs, "; ")
	}
	return appErr
}

// ToMap groups messages by field
func (v *ValidationErrors) ToMap() map[string][]string {
	result := make(map[string][]string, len(v.Errors))
	for _, e := range v.Errors {
		result[e.Field] = append(result[e.Field], e.Message)
	}
	return result
}
