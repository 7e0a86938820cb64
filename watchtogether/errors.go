package watchtogether

import (
	"errors"
	"fmt"
)

// ErrorCode represents a categorized error type.
type ErrorCode int

const (
	ErrorUnknown ErrorCode = iota

	// ErrorAuthRequired means identity resolution was rejected as
	// unauthorized. Room entry must not proceed.
	ErrorAuthRequired

	// ErrorUnreachable means the identity endpoint could not be reached.
	ErrorUnreachable

	// ErrorConnectFailed means the room connection handshake did not
	// complete, or reconnection attempts were exhausted.
	ErrorConnectFailed

	// ErrorMalformedFrame means an inbound frame could not be decoded.
	ErrorMalformedFrame

	// ErrorNotConnected means a send was attempted while the connection
	// was not open.
	ErrorNotConnected

	ErrorTimeout
	ErrorInvalidConfig
)

// String returns the string representation of an ErrorCode.
func (e ErrorCode) String() string {
	switch e {
	case ErrorUnknown:
		return "unknown"
	case ErrorAuthRequired:
		return "auth_required"
	case ErrorUnreachable:
		return "unreachable"
	case ErrorConnectFailed:
		return "connect_failed"
	case ErrorMalformedFrame:
		return "malformed_frame"
	case ErrorNotConnected:
		return "not_connected"
	case ErrorTimeout:
		return "timeout"
	case ErrorInvalidConfig:
		return "invalid_config"
	default:
		return fmt.Sprintf("unknown_code_%d", e)
	}
}

// WatchError is a structured error with code and context.
type WatchError struct {
	Code    ErrorCode
	Message string
	Wrapped error
}

// Error implements the error interface.
func (e *WatchError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error for errors.Unwrap support.
func (e *WatchError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is support; two WatchErrors match on code.
func (e *WatchError) Is(target error) bool {
	t, ok := target.(*WatchError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewError creates a WatchError with the given code and message.
func NewError(code ErrorCode, message string) *WatchError {
	return &WatchError{Code: code, Message: message}
}

// WrapError wraps an existing error with a WatchError.
func WrapError(code ErrorCode, message string, err error) *WatchError {
	return &WatchError{Code: code, Message: message, Wrapped: err}
}

// CodeOf extracts the ErrorCode from err, or ErrorUnknown.
func CodeOf(err error) ErrorCode {
	var we *WatchError
	if errors.As(err, &we) {
		return we.Code
	}
	return ErrorUnknown
}

// IsAuthRequired reports whether err is an authorization failure from
// identity resolution.
func IsAuthRequired(err error) bool {
	return CodeOf(err) == ErrorAuthRequired
}

// IsConnectionError reports whether err relates to the room connection
// rather than a single frame or request.
func IsConnectionError(err error) bool {
	switch CodeOf(err) {
	case ErrorConnectFailed, ErrorNotConnected, ErrorTimeout:
		return true
	default:
		return false
	}
}
