package errors

import (
	"errors"
	"net/http"
	"strings"
)

type ErrCode string

const (
	ErrCodeNotImplemented    ErrCode = "NotImplemented"
	ErrCodeNotFound          ErrCode = "NotFound"
	ErrCodeUnauthorized      ErrCode = "Unauthorized"
	ErrCodeServiceFailure    ErrCode = "ServiceFailure"
	ErrCodeAPIBadRequest     ErrCode = "BadRequest"
	ErrCodeInvalidImage      ErrCode = "InvalidImage"
	ErrCodeOversized         ErrCode = "Oversized"
	ErrCodeUnsupportedMethod ErrCode = "UnsupportedMethod"
	ErrCodeDeleteFailed      ErrCode = "DeleteFailed"
	ErrCodeDependencyFailure ErrCode = "DependencyFailure"
)

// Err is the error type flowing between the layers of the photo service. Its Code survives all the way
// up to the http boundary, where it is flattened into a status code.
type Err struct {
	Code  ErrCode
	msg   string
	cause error
}

func (e *Err) Error() string {
	return e.msg
}

// Trace returns the stacktrace associated with the error
func (e *Err) Trace() string {
	b := &strings.Builder{}
	b.WriteString(e.msg)
	err, indent := errors.Unwrap(e), 1
	for err != nil {
		b.WriteString("\n")
		b.WriteString(strings.Repeat("\t", indent))
		b.WriteString("Caused by: ")
		b.WriteString(err.Error())
		err = errors.Unwrap(err)
		indent++
	}
	return b.String()
}

func (e *Err) Unwrap() error {
	return e.cause
}

func (e *Err) WithCause(c error) *Err {
	e.cause = c
	return e
}

func (e *Err) WithMsg(m string) *Err {
	e.msg = m
	return e
}

// prefer appSpecificErr(msg) over appSpecificErr(msg, cause) since the latter's method signature has less
// readability - user needs to look up docs to know the 2nd param is for cause, while the first one can use
// WithCause() to be explicit
func newErr(c ErrCode, m string) *Err {
	return &Err{Code: c, msg: m}
}

func NewServiceFailure(m string) *Err {
	return newErr(ErrCodeServiceFailure, m)
}

func NewDependencyFailure(m string) *Err {
	return newErr(ErrCodeDependencyFailure, m)
}

func NewNotFound(m string) *Err {
	return newErr(ErrCodeNotFound, m)
}

func NewUnauthorized(m string) *Err {
	return newErr(ErrCodeUnauthorized, m)
}

func NewBadInput(m string) *Err {
	return newErr(ErrCodeAPIBadRequest, m)
}

func NewInvalidImage(m string) *Err {
	return newErr(ErrCodeInvalidImage, m)
}

func NewOversized() *Err {
	return newErr(ErrCodeOversized, "data oversized")
}

func NewUnsupportedMethod(method string) *Err {
	return newErr(ErrCodeUnsupportedMethod, "unsupported http method "+method)
}

func NewDeleteFailed(m string) *Err {
	return newErr(ErrCodeDeleteFailed, m)
}

func NewNotImplemented() *Err {
	return newErr(ErrCodeNotImplemented, "Not implemented")
}

// CodeOf returns the code of the first *Err found in err's chain, or ErrCodeServiceFailure if there is none
func CodeOf(err error) ErrCode {
	var e *Err
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeServiceFailure
}

// StatusCode returns the http response status code associated with the Err value
func (e *Err) StatusCode() int {
	switch e.Code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeAPIBadRequest, ErrCodeInvalidImage, ErrCodeUnsupportedMethod, ErrCodeDeleteFailed:
		return http.StatusBadRequest
	case ErrCodeOversized:
		return http.StatusRequestEntityTooLarge
	case ErrCodeNotImplemented:
		return http.StatusNotImplemented
	case ErrCodeDependencyFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
