package apierr

import (
	"fmt"
	"net/http"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// Stable codes for the session lifecycle. Handlers map these onto HTTP
// statuses; clients branch on Code, never on message text.
const (
	CodeSessionNotFound     = "SESSION_NOT_FOUND"
	CodeSessionExpired      = "SESSION_EXPIRED"
	CodeSessionNotPriceable = "SESSION_NOT_PRICEABLE"
	CodeSessionState        = "SESSION_STATE"
	CodeBadRequest          = "BAD_REQUEST"
)

func SessionNotFound(err error) *Error {
	return New(http.StatusNotFound, CodeSessionNotFound, err)
}

func SessionExpired(err error) *Error {
	return New(http.StatusGone, CodeSessionExpired, err)
}

func SessionNotPriceable(err error) *Error {
	return New(http.StatusConflict, CodeSessionNotPriceable, err)
}

func SessionState(err error) *Error {
	return New(http.StatusConflict, CodeSessionState, err)
}
