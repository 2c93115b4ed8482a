package goerror

import (
	"errors"
	"fmt"
)

// Sentinels returned by storage adapters and mapped by use cases.
var (
	ErrNotFound = errors.New("resource not found")
	ErrConflict = errors.New("resource conflict")
)

// Error carries a user-facing message, a Type and a Code next to an optional
// cause. Msg is what clients see; Error() prefers the cause for logs.
type Error struct {
	err    error
	msg    string
	typ    Type
	code   Code
	fields map[string]string
}

func (e *Error) Error() string {
	switch {
	case e.err != nil:
		return e.err.Error()
	case e.msg != "":
		return e.msg
	}

	switch e.typ {
	case TypeValidation:
		return "Validation violation"
	case TypeBusiness:
		return "Logical business not meet with requirement"
	default:
		return "Internal error"
	}
}

// String is a verbose form for debugging.
func (e *Error) String() string {
	return fmt.Sprintf("type=%s code=%s msg=%q cause=%v", e.typ, e.code, e.msg, e.err)
}

func (e *Error) Msg() string { return e.msg }
func (e *Error) Type() Type { return e.typ }
func (e *Error) Code() Code { return e.code }
func (e *Error) Fields() map[string]string { return e.fields }
func (e *Error) Unwrap() error { return e.err }

// StatusCode is the HTTP status for the error's code.
func (e *Error) StatusCode() int { return e.code.Status() }

// As returns the *Error inside err, or nil when err is not one.
func As(err error) *Error {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr
	}
	return nil
}

// NewServer hides err behind a generic message.
func NewServer(err error) error {
	return &Error{err: err, msg: "Internal server error", typ: TypeServer, code: CodeInternal}
}

// NewBusiness reports a rule violation with a client-facing message.
func NewBusiness(msg string, code Code) error {
	return &Error{msg: msg, typ: TypeBusiness, code: code}
}

// NewDelivery reports a notification the gateway did not accept. msg is shown
// to the client; err is kept for logs.
func NewDelivery(err error, msg string) error {
	return &Error{err: err, msg: msg, typ: TypeServer, code: CodeDeliveryFailed}
}

// NewInvalidInput wraps a validator error, or builds one from field/message
// pairs. An odd number of pairs is treated as a malformed request.
func NewInvalidInput(err error, kv ...string) error {
	const msg = "Validation error"
	if err != nil {
		return &Error{err: err, msg: msg, typ: TypeValidation, code: CodeInvalidInput}
	}
	if len(kv)%2 != 0 {
		return NewInvalidFormat()
	}

	fields := make(map[string]string, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		fields[kv[i]] = kv[i+1]
	}
	return &Error{msg: msg, typ: TypeValidation, code: CodeInvalidInput, fields: fields}
}

// NewInvalidFormat reports a body that could not be decoded. The first msg,
// if any, replaces the default message.
func NewInvalidFormat(msgs ...string) error {
	msg := "Invalid request body"
	if len(msgs) > 0 {
		msg = msgs[0]
	}
	return &Error{msg: msg, typ: TypeValidation, code: CodeInvalidFormat}
}
