package interpreter

import (
	"errors"
	"fmt"
)

// Code classifies why a command failed.
type Code string

// Error codes. All but CodeUpstreamOperationFailure are caused by the
// command text itself.
const (
	CodeInvalidSyntax            Code = "InvalidSyntax"
	CodeUnsupportedVerb          Code = "UnsupportedVerb"
	CodeUnsupportedResource      Code = "UnsupportedResource"
	CodeMissingRequiredArgument  Code = "MissingRequiredArgument"
	CodeInvalidOptionValue       Code = "InvalidOptionValue"
	CodeUpstreamOperationFailure Code = "UpstreamOperationFailure"
)

// ClientCaused reports whether the code describes a malformed or
// unsupported command rather than a failure of the cluster call.
func (c Code) ClientCaused() bool {
	switch c {
	case CodeInvalidSyntax, CodeUnsupportedVerb, CodeUnsupportedResource,
		CodeMissingRequiredArgument, CodeInvalidOptionValue:
		return true
	default:
		return false
	}
}

// String returns the code name.
func (c Code) String() string {
	return string(c)
}

// Error is the failure produced for a command. Err holds the underlying
// cause when there is one, usually the cluster client error.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// upstreamError keeps the client's message as is so callers see the
// original diagnostic.
func upstreamError(err error) *Error {
	return &Error{
		Code:    CodeUpstreamOperationFailure,
		Message: err.Error(),
		Err:     err,
	}
}

// CodeOf returns the code carried by err. Errors that did not originate in
// the interpreter are treated as upstream failures.
func CodeOf(err error) Code {
	var ierr *Error
	if errors.As(err, &ierr) {
		return ierr.Code
	}
	return CodeUpstreamOperationFailure
}
