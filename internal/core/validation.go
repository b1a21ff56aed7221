package core

import (
	"errors"
	"sort"
	"strings"
)

// FieldError ties a validation failure to the input field that caused it.
type FieldError struct {
	Field string
	Err   error
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e FieldError) Unwrap() error {
	return e.Err
}

// ValidationErrors collects every field failure of a single input.
type ValidationErrors []FieldError

// Add records a failure for field.
func (v *ValidationErrors) Add(field string, err error) {
	*v = append(*v, FieldError{Field: field, Err: err})
}

// OrNil returns nil when nothing was recorded.
func (v ValidationErrors) OrNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, fe := range v {
		msgs[i] = fe.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Unwrap exposes the underlying sentinels to errors.Is.
func (v ValidationErrors) Unwrap() []error {
	errs := make([]error, len(v))
	for i, fe := range v {
		errs[i] = fe
	}
	return errs
}

// Fields returns the failures keyed by field name.
func (v ValidationErrors) Fields() map[string]string {
	out := make(map[string]string, len(v))
	for _, fe := range v {
		if _, seen := out[fe.Field]; !seen {
			out[fe.Field] = fe.Err.Error()
		}
	}
	return out
}

// FieldNames returns the sorted names of the failing fields.
func (v ValidationErrors) FieldNames() []string {
	names := make([]string, 0, len(v))
	for field := range v.Fields() {
		names = append(names, field)
	}
	sort.Strings(names)
	return names
}

// AsValidation extracts ValidationErrors from err if present.
func AsValidation(err error) (ValidationErrors, bool) {
	var v ValidationErrors
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
