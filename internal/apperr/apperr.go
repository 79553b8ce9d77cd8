package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the HTTP layer.
type Kind string

const (
	KindValidation          Kind = "validation"
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	KindUpstreamProtocol    Kind = "upstream_protocol"
	KindFormatting          Kind = "formatting"
	KindUnexpected          Kind = "unexpected"
)

// Error is a failure that has already been turned into a client-facing message.
type Error struct {
	Kind    Kind
	Message string

	// Attempts is the number of upstream calls made, when retries were involved.
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func Validation(msg string) *Error {
	return New(KindValidation, msg)
}

func Protocol(msg string) *Error {
	return New(KindUpstreamProtocol, msg)
}

// Unavailable reports an upstream that kept failing after the given number of attempts.
func Unavailable(err error, attempts int, format string, args ...any) *Error {
	e := Wrap(KindUpstreamUnavailable, err, format, args...)
	e.Attempts = attempts
	return e
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Ensure converts any error into an *Error, tagging unknown ones as unexpected.
func Ensure(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := As(err); ok {
		return e
	}
	return Wrap(KindUnexpected, err, "An unexpected error occurred: %v", err)
}
