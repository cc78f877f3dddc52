package errors

import (
	stderrors "errors"
	"fmt"
	"unicode"
	"unicode/utf8"
)

// Kind classifies an application error. The set is closed.
type Kind int

const (
	KindValidation Kind = iota + 1000
	KindNotFound
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// AppError represents an application error
type AppError struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	// Field names the offending form field of a validation error, if any.
	Field string `json:"field,omitempty"`
	Err   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Validation reports bad, missing or out-of-range input, or a violated precondition.
func Validation(message string) *AppError {
	return &AppError{
		Kind:    KindValidation,
		Message: message,
	}
}

// Invalid is a validation error caused by one input field.
func Invalid(field, message string) *AppError {
	return &AppError{
		Kind:    KindValidation,
		Message: message,
		Field:   field,
	}
}

// NotFound reports that the referenced resource does not exist.
func NotFound(resource string, err error) *AppError {
	return &AppError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found", capitalize(resource)),
		Err:     err,
	}
}

// Persistence reports a store failure during op.
func Persistence(op string, err error) *AppError {
	return &AppError{
		Kind:    KindPersistence,
		Message: fmt.Sprintf("Failed to %s", op),
		Err:     err,
	}
}

// KindOf returns the kind of the first AppError in err's chain. Errors that
// carry no kind are store failures.
func KindOf(err error) Kind {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindPersistence
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the user-facing message of err.
func Message(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// FieldOf returns the form field a validation error blames, or "" when the
// error is not about a single input.
func FieldOf(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}

func capitalize(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[n:]
}
