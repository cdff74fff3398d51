// Package goerror carries the client-facing message and HTTP mapping of an
// error next to its cause.
package goerror

import (
	"fmt"
	"net/http"
)

// Type tells whether the caller or the server is at fault.
type Type int

const (
	TypeServer Type = iota
	TypeBusiness
	TypeValidation
)

func (t Type) String() string {
	switch t {
	case TypeServer:
		return "ERROR_TYPE_SERVER"
	case TypeBusiness:
		return "ERROR_TYPE_BUSINESS"
	case TypeValidation:
		return "ERROR_TYPE_VALIDATION"
	default:
		return "ERROR_TYPE_UNKNOWN"
	}
}

// Code is a stable identifier that picks the HTTP status.
type Code int

const (
	CodeInternal Code = iota
	CodeInvalidFormat
	CodeInvalidInput
	CodeUnauthorized
	CodeTooManyRequest
	CodeUnavailable
	CodeTimeout
	CodeTooLarge
)

var codeTable = [...]struct {
	name   string
	status int
}{
	CodeInternal:       {"ERROR_CODE_INTERNAL", http.StatusInternalServerError},
	CodeInvalidFormat:  {"ERROR_CODE_INVALID_FORMAT", http.StatusBadRequest},
	CodeInvalidInput:   {"ERROR_CODE_INVALID_INPUT", http.StatusBadRequest},
	CodeUnauthorized:   {"ERROR_CODE_UNAUTHORIZED", http.StatusUnauthorized},
	CodeTooManyRequest: {"ERROR_CODE_TOO_MANY_REQUESTS", http.StatusTooManyRequests},
	CodeUnavailable:    {"ERROR_CODE_UNAVAILABLE", http.StatusServiceUnavailable},
	CodeTimeout:        {"ERROR_CODE_TIMEOUT", http.StatusGatewayTimeout},
	CodeTooLarge:       {"ERROR_CODE_TOO_LARGE", http.StatusRequestEntityTooLarge},
}

func (c Code) String() string {
	if c < 0 || int(c) >= len(codeTable) {
		return codeTable[CodeInternal].name
	}
	return codeTable[c].name
}

// HTTPStatus returns the response status for c. Unknown codes map to 500.
func (c Code) HTTPStatus() int {
	if c < 0 || int(c) >= len(codeTable) {
		return http.StatusInternalServerError
	}
	return codeTable[c].status
}

// Error pairs a message safe to show clients with an optional cause that
// stays server side unless the router exposes details.
type Error struct {
	err     error
	msg     string
	errType Type
	code    Code
}

// Error returns the cause's text when there is one, else the message.
func (e *Error) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return e.msg
}

// String is the verbose form used in logs.
func (e *Error) String() string {
	return fmt.Sprintf("%s/%s: %s (cause: %v)", e.errType, e.code, e.msg, e.err)
}

func (e *Error) Msg() string { return e.msg }

func (e *Error) Type() Type { return e.errType }

func (e *Error) Code() Code { return e.code }

func (e *Error) Unwrap() error { return e.err }

// StatusCode maps the error code to an HTTP status code.
func (e *Error) StatusCode() int { return e.code.HTTPStatus() }

// NewServer wraps err as a 500. The message defaults to
// "Internal server error".
func NewServer(err error, msg ...string) error {
	m := "Internal server error"
	if len(msg) > 0 {
		m = msg[0]
	}
	return &Error{err: err, msg: m, errType: TypeServer, code: CodeInternal}
}

// NewBusiness reports a rule the request broke.
func NewBusiness(msg string, code Code) error {
	return &Error{msg: msg, errType: TypeBusiness, code: code}
}

// NewInvalidFormat reports a body that could not be decoded. The message
// defaults to "Invalid request body".
func NewInvalidFormat(msg ...string) error {
	m := "Invalid request body"
	if len(msg) > 0 {
		m = msg[0]
	}
	return &Error{msg: m, errType: TypeValidation, code: CodeInvalidFormat}
}
