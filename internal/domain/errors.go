package domain

import (
	"errors"
	"fmt"
)

// ErrorCode identifies recoverable, user-surfaced failures.
type ErrorCode string

const (
	ErrorCodeStartup          ErrorCode = "startup"
	ErrorCodePermissionDenied ErrorCode = "permission_denied"
	ErrorCodeCapture          ErrorCode = "capture"
	ErrorCodeUpload           ErrorCode = "upload"
	ErrorCodeAPI              ErrorCode = "api"
	ErrorCodePlayback         ErrorCode = "playback"
)

// Error is the typed failure returned across the core. StatusCode is set for
// HTTP failures that got a response.
type Error struct {
	Code       ErrorCode
	Detail     string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.Detail != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Detail, e.Err)
	case e.Detail != "":
		return fmt.Sprintf("%s: %s", e.Code, e.Detail)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a typed error.
func NewError(code ErrorCode, detail string, err error) *Error {
	return &Error{Code: code, Detail: detail, Err: err}
}

// IsCode reports whether err carries the given code anywhere in its chain.
func IsCode(err error, code ErrorCode) bool {
	var typed *Error
	if !errors.As(err, &typed) {
		return false
	}
	return typed.Code == code
}

// Detail returns the user-facing detail of a typed error, or err.Error().
func Detail(err error) string {
	if err == nil {
		return ""
	}
	var typed *Error
	if errors.As(err, &typed) && typed.Detail != "" {
		return typed.Detail
	}
	return err.Error()
}
