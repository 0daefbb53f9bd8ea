// Package apperr classifies failures into the categories the pipeline and
// its entry points act on.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the category of a failure.
type Kind string

const (
	// KindConfiguration marks a missing key, model or invalid setting.
	KindConfiguration Kind = "configuration"
	// KindParse marks a malformed response from the AI tool.
	KindParse Kind = "parse"
	// KindService marks a failed subprocess or remote API call.
	KindService Kind = "service"
	// KindIO marks a filesystem failure.
	KindIO Kind = "io"
	// KindValidation marks a bad request from the caller.
	KindValidation Kind = "validation"
)

// Error is a classified error with the operation that produced it.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, msg)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// Configuration creates a configuration error.
func Configuration(op, message string) *Error {
	return &Error{Kind: KindConfiguration, Op: op, Message: message}
}

// Validation creates an error for invalid caller input.
func Validation(op, message string) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: message}
}

// Parse creates a parse error wrapping cause.
func Parse(op, message string, cause error) *Error {
	return &Error{Kind: KindParse, Op: op, Message: message, Err: cause}
}

// Service creates a service error wrapping cause.
func Service(op, message string, cause error) *Error {
	return &Error{Kind: KindService, Op: op, Message: message, Err: cause}
}

// IO creates a filesystem error wrapping cause.
func IO(op, message string, cause error) *Error {
	return &Error{Kind: KindIO, Op: op, Message: message, Err: cause}
}

// KindOf reports the kind of the first classified error in err's chain.
func KindOf(err error) (Kind, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind, true
	}
	return "", false
}

// IsKind reports whether err carries the given kind anywhere in its chain.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
