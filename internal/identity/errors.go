package identity

import (
	"errors"
	"strings"
)

// Provider error codes the dashboard maps to user-facing messages.
const (
	CodeNotAuthorized         = "NotAuthorizedException"
	CodeUserNotFound          = "UserNotFoundException"
	CodeUserNotConfirmed      = "UserNotConfirmedException"
	CodeCodeMismatch          = "CodeMismatchException"
	CodeExpiredCode           = "ExpiredCodeException"
	CodeInvalidPassword       = "InvalidPasswordException"
	CodeLimitExceeded         = "LimitExceededException"
	CodeTooManyRequests       = "TooManyRequestsException"
	CodeInvalidParameter      = "InvalidParameterException"
	CodePasswordResetRequired = "PasswordResetRequiredException"
)

// Error is a failure reported by the identity provider.
type Error struct {
	Code       string
	Message    string
	StatusCode int
	// Err is the service exception the error was built from, if any.
	Err error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the provider error code carried by err, or "".
func CodeOf(err error) string {
	var idErr *Error
	if errors.As(err, &idErr) {
		return idErr.Code
	}
	return ""
}

// MessageOf returns the provider's own message for err, or "".
func MessageOf(err error) string {
	var idErr *Error
	if errors.As(err, &idErr) {
		return idErr.Message
	}
	return ""
}

// normalizeCode strips the namespace the service may prefix to error types,
// e.g. "com.amazonaws...#NotAuthorizedException" or
// "NotAuthorizedException:http://internal.amazon.com/...".
func normalizeCode(raw string) string {
	if i := strings.LastIndex(raw, "#"); i >= 0 {
		raw = raw[i+1:]
	}
	if i := strings.Index(raw, ":"); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimSpace(raw)
}
