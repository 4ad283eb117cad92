// Package errors defines the coded errors shared by the chart engine, the
// server and its client.
//
// A code survives the trip over HTTP: the server answers with
// [HTTPStatus] and {"error", "code"}, and the client rebuilds an error
// with [FromStatus]. Callers branch on codes, never on messages:
//
//	if errors.Is(err, errors.ErrCodeStaleResponse) {
//	    return nil // a newer request superseded this one
//	}
//	if errors.IsAuth(err) {
//	    // revert the optimistic change and ask for a new login
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a machine-readable error code.
type Code string

const (
	// Bad input: request bodies, settings, employee files.
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidFormat   Code = "INVALID_FORMAT"
	ErrCodeInvalidTree     Code = "INVALID_TREE"
	ErrCodeInvalidSettings Code = "INVALID_SETTINGS"

	// Missing data. NO_ROOT means the directory produced no tree at all.
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeNoRoot       Code = "NO_ROOT"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Transport. STALE_RESPONSE marks a response superseded by a newer
	// request on the same channel.
	ErrCodeNetwork       Code = "NETWORK_ERROR"
	ErrCodeTimeout       Code = "TIMEOUT"
	ErrCodeRateLimited   Code = "RATE_LIMITED"
	ErrCodeStaleResponse Code = "STALE_RESPONSE"

	// Authentication. SESSION_EXPIRED is a 401 on a call made with a
	// session that used to be valid.
	ErrCodeUnauthorized   Code = "UNAUTHORIZED"
	ErrCodeForbidden      Code = "FORBIDDEN"
	ErrCodeSessionExpired Code = "SESSION_EXPIRED"

	ErrCodeExportFailed Code = "EXPORT_FAILED"
)

// Error is a coded error with an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an error with code and a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an error with code and message that wraps cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether the outermost *Error in err's chain has code.
func Is(err error, code Code) bool {
	return GetCode(err) == code && code != ""
}

// GetCode returns the code of the outermost *Error in err's chain, or "".
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the message without code or cause. Plain errors
// are returned as they print.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsAuth reports whether err asks for a new login.
func IsAuth(err error) bool {
	switch GetCode(err) {
	case ErrCodeUnauthorized, ErrCodeSessionExpired:
		return true
	}
	return false
}

// HTTPStatus is the status the server answers err with.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidFormat, ErrCodeInvalidTree, ErrCodeInvalidSettings:
		return http.StatusBadRequest
	case ErrCodeNotFound, ErrCodeNoRoot, ErrCodeFileNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized, ErrCodeSessionExpired:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// FromStatus rebuilds an error from a non-2xx response. code is the
// response's "code" field and wins when present; otherwise the status
// decides.
func FromStatus(status int, code Code, msg string) *Error {
	if code != "" {
		return New(code, "%s", msg)
	}
	switch {
	case status == http.StatusUnauthorized:
		return New(ErrCodeUnauthorized, "%s", msg)
	case status == http.StatusForbidden:
		return New(ErrCodeForbidden, "%s", msg)
	case status == http.StatusNotFound:
		return New(ErrCodeNotFound, "%s", msg)
	case status == http.StatusTooManyRequests:
		return New(ErrCodeRateLimited, "%s", msg)
	case status == http.StatusGatewayTimeout:
		return New(ErrCodeTimeout, "%s", msg)
	case status >= 400 && status < 500:
		return New(ErrCodeInvalidInput, "%s", msg)
	}
	return New(ErrCodeNetwork, "unexpected status %d: %s", status, msg)
}
