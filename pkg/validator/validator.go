// Package validator provides composable validation rules producing
// field-level errors suitable for API responses.
package validator

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"
)

// ValidationError represents a single validation error.
type ValidationError struct {
	Field   string
	Message string
}

// ValidationErrors represents a collection of validation errors.
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}

	parts := make([]string, 0, len(ve))
	for _, err := range ve {
		parts = append(parts, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Fields groups messages by field name for the API error body.
func (ve ValidationErrors) Fields() map[string][]string {
	if len(ve) == 0 {
		return nil
	}
	fields := make(map[string][]string, len(ve))
	for _, err := range ve {
		fields[err.Field] = append(fields[err.Field], err.Message)
	}
	return fields
}

// Rule represents a single validation rule.
type Rule struct {
	Check func() bool
	Error ValidationError
}

// Apply executes the rules and returns ValidationErrors for every failed
// check, or nil when all pass.
func Apply(rules ...Rule) error {
	var errs ValidationErrors
	for _, rule := range rules {
		if !rule.Check() {
			errs = append(errs, rule.Error)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ExtractValidationErrors unwraps ValidationErrors from an error, returning
// nil if the error is of a different kind.
func ExtractValidationErrors(err error) ValidationErrors {
	if err == nil {
		return nil
	}
	if ve, ok := err.(ValidationErrors); ok {
		return ve
	}
	return nil
}

// Required fails when the trimmed value is empty.
func Required(field, value string) Rule {
	return Rule{
		Check: func() bool { return strings.TrimSpace(value) != "" },
		Error: ValidationError{Field: field, Message: "is required"},
	}
}

// ValidEmail fails when the value is not an addr-spec per RFC 5322.
func ValidEmail(field, value string) Rule {
	return Rule{
		Check: func() bool {
			addr, err := mail.ParseAddress(value)
			return err == nil && addr.Address == value
		},
		Error: ValidationError{Field: field, Message: "must be a valid email address"},
	}
}

// MaxLen fails when the value exceeds max characters.
func MaxLen(field, value string, max int) Rule {
	return Rule{
		Check: func() bool { return utf8.RuneCountInString(value) <= max },
		Error: ValidationError{Field: field, Message: fmt.Sprintf("must be at most %d characters", max)},
	}
}

// MinLen fails when the value is shorter than min characters.
func MinLen(field, value string, min int) Rule {
	return Rule{
		Check: func() bool { return utf8.RuneCountInString(value) >= min },
		Error: ValidationError{Field: field, Message: fmt.Sprintf("must be at least %d characters", min)},
	}
}

// DateNotBefore fails when value precedes earliest. Zero values pass so the
// rule composes with Required.
func DateNotBefore(field string, value, earliest time.Time) Rule {
	return Rule{
		Check: func() bool { return value.IsZero() || earliest.IsZero() || !value.Before(earliest) },
		Error: ValidationError{Field: field, Message: "must not be before " + earliest.Format("2006-01-02")},
	}
}
