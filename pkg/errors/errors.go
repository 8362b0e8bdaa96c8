package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed client error. Remote failures additionally carry
// the raw `message`/`error` fields of the server payload so the translation
// layer can normalise them into a single user-facing string.
type Error struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	Status      int    `json:"status"`
	DataMessage string `json:"-"`
	DataError   string `json:"-"`
	Err         error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Remote builds an Error out of a non-2xx server response.
func Remote(status int, dataMessage, dataError string) *Error {
	code := CodeServerValidation
	if status == http.StatusUnauthorized {
		code = CodeInvalidCredentials
	}
	msg := dataMessage
	if msg == "" {
		msg = dataError
	}
	if msg == "" {
		msg = fmt.Sprintf("request failed with status %d", status)
	}
	return &Error{Code: code, Status: status, Message: msg, DataMessage: dataMessage, DataError: dataError}
}

// Error codes for the client taxonomy.
const (
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeServerValidation   = "SERVER_VALIDATION"
	CodeLocalValidation    = "VALIDATION_ERROR"
	CodeTransport          = "TRANSPORT_ERROR"
	CodeNoSession          = "NO_SESSION"
)

// Predefined errors for common scenarios.
var (
	ErrValidation = New(CodeLocalValidation, http.StatusBadRequest, "validation failed")
	ErrTransport  = New(CodeTransport, 0, "request failed")
	ErrNoSession  = New(CodeNoSession, http.StatusUnauthorized, "no active session")
)

// FromError normalises any error into an *Error. Unknown errors are treated
// as transport failures: they carry no server payload.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrTransport.Code, ErrTransport.Status, ErrTransport.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// IsTransport reports whether err is a network-level failure with no
// structured server payload behind it.
func IsTransport(err error) bool {
	e := FromError(err)
	return e != nil && e.Code == CodeTransport
}

// IsLocalValidation reports whether err was raised before anything was sent.
func IsLocalValidation(err error) bool {
	e := FromError(err)
	return e != nil && e.Code == CodeLocalValidation
}
