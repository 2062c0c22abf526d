package form

import (
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// Validation error codes.
const (
	CodeRequired = "required"
	CodeTooLong  = "too-long"
)

// ValidationError is a violated constraint of a single form field.
type ValidationError struct {
	Field string
	Code  string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Code
}

// Message returns the text shown next to the field.
func (e *ValidationError) Message() string {
	switch e.Code {
	case CodeRequired:
		return e.Field + " is required"
	case CodeTooLong:
		return "Max 50 chars"
	default:
		return "Invalid value"
	}
}

// ValidationErrors maps field names to their validation error. It blocks a submission.
type ValidationErrors map[string]*ValidationError

func (ve ValidationErrors) Error() string {
	fields := make([]string, 0, len(ve))
	for f := range ve {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, ve[f].Error())
	}
	return "invalid form: " + strings.Join(msgs, ", ")
}

// codes translates validator tags into our error codes.
var codes = map[string]string{
	"required": CodeRequired,
	"max":      CodeTooLong,
}

// validate is safe for concurrent use and caches struct metadata, so one instance is shared.
var validate = validator.New(validator.WithRequiredStructEnabled())

// check validates v and converts the validator's errors into ValidationErrors.
func check(v Values) error {
	return convert(validate.Struct(v))
}

// convert turns the field errors of the validator into ValidationErrors. Any other error is
// wrapped and returned as is.
func convert(err error) error {
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Wrap(err, "validate form")
	}
	ve := make(ValidationErrors)
	for _, fe := range fieldErrs {
		code, ok := codes[fe.Tag()]
		if !ok {
			code = fe.Tag()
		}
		ve[fe.Field()] = &ValidationError{Field: fe.Field(), Code: code}
	}
	return ve
}
