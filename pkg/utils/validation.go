package utils

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	pkgerrors "matflow/pkg/errors"
)

var validate = validator.New()

// ValidateStruct validates a request struct by its `validate` tags. Failures
// become a 400 whose message names the first offending field.
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return pkgerrors.NewValidationError(err.Error())
	}
	collected := pkgerrors.NewValidationErrors()
	for _, e := range fieldErrs {
		collected.Add(strings.ToLower(e.Field()), formatFieldError(e))
	}
	return collected.Err()
}

// formatFieldError formats a single field validation error
func formatFieldError(e validator.FieldError) string {
	field := capitalize(e.Field())

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required!", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters!", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters!", field, e.Param())
	case "email":
		return "Invalid email!"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s!", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid!", field)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
