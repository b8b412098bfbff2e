// Package errors provides the coded error taxonomy shared by the backend client and the chat router.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Transport: the request never produced a usable HTTP response.
	ErrCodeRemoteTransportFailed ErrorCode = "REMOTE_TRANSPORT_FAILED"
	ErrCodeRemoteTimeout         ErrorCode = "REMOTE_TIMEOUT"
	ErrCodeRemoteHTTPStatus      ErrorCode = "REMOTE_HTTP_STATUS"

	// Application: the backend answered but refused or returned garbage.
	ErrCodeRemoteApplication ErrorCode = "REMOTE_APPLICATION_ERROR"
	ErrCodeRemoteBadPayload  ErrorCode = "REMOTE_BAD_PAYLOAD"

	// Local validation, never sent to the backend.
	ErrCodeValidationFailed      ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidContractNumber ErrorCode = "INVALID_CONTRACT_NUMBER"
	ErrCodeNoEditFields          ErrorCode = "NO_EDIT_FIELDS"
	ErrCodeUnsupportedFormat     ErrorCode = "UNSUPPORTED_EXPORT_FORMAT"

	// Routing.
	ErrCodeUnknownCallback ErrorCode = "UNKNOWN_CALLBACK"
	ErrCodeUnknownCommand  ErrorCode = "UNKNOWN_COMMAND"

	ErrCodeContractNotFound ErrorCode = "CONTRACT_NOT_FOUND"
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error { return e.cause }

// WithMetadata attaches a key to the error and returns it.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. Remote Call Errors
// ==========================

// RemoteError is what a typed backend operation returns once every attempt failed.
type RemoteError struct {
	Action   string
	Attempts int
	Last     *StandardError
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote action %q failed after %d attempt(s): %s", e.Action, e.Attempts, e.Last.Message)
}

func (e *RemoteError) Unwrap() error { return e.Last }

// ==========================
// 3. Error Constructors
// ==========================

func NewTransportError(action string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRemoteTransportFailed,
		Message:   err.Error(),
		Details:   action,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewTimeoutError(action string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRemoteTimeout,
		Message:   "backend request timed out",
		Details:   action,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewHTTPStatusError(action string, status int) *StandardError {
	return &StandardError{
		Code:      ErrCodeRemoteHTTPStatus,
		Message:   fmt.Sprintf("HTTP %d", status),
		Details:   action,
		Timestamp: time.Now().UTC(),
		Metadata:  map[string]interface{}{"status": status},
	}
}

// NewApplicationError wraps an ok:false body. Empty messages get the stock text.
func NewApplicationError(action, message string) *StandardError {
	if message == "" {
		message = "API returned error"
	}
	return &StandardError{
		Code:      ErrCodeRemoteApplication,
		Message:   message,
		Details:   action,
		Timestamp: time.Now().UTC(),
	}
}

func NewBadPayloadError(action, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRemoteBadPayload,
		Message:   "unexpected response payload",
		Details:   details,
		Timestamp: time.Now().UTC(),
		Metadata:  map[string]interface{}{"action": action},
	}
}

func NewValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "validation failed",
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidContractNumberError(number string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidContractNumber,
		Message:   "invalid contract number",
		Details:   number,
		Timestamp: time.Now().UTC(),
	}
}

func NewNoEditFieldsError(input string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNoEditFields,
		Message:   "no fields to update",
		Details:   input,
		Timestamp: time.Now().UTC(),
	}
}

func NewUnsupportedFormatError(format string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnsupportedFormat,
		Message:   "unsupported export format",
		Details:   format,
		Timestamp: time.Now().UTC(),
	}
}

func NewUnknownCallbackError(raw string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownCallback,
		Message:   "unknown action",
		Details:   raw,
		Timestamp: time.Now().UTC(),
	}
}

func NewContractNotFoundError(number string) *StandardError {
	return &StandardError{
		Code:      ErrCodeContractNotFound,
		Message:   "contract not found",
		Details:   number,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Utility Functions
// ==========================

// AsStandard extracts a StandardError from err, looking through RemoteError.
func AsStandard(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// Normalize always yields a StandardError; foreign errors become INTERNAL_ERROR.
func Normalize(err error) *StandardError {
	if stdErr, ok := AsStandard(err); ok {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "unexpected error",
		Details:   err.Error(),
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// HasCode reports whether err (or anything it wraps) carries code.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandard(err)
	return ok && stdErr.Code == code
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case code == ErrCodeRemoteApplication || code == ErrCodeRemoteBadPayload:
		return "APPLICATION"
	case strings.HasPrefix(codeStr, "REMOTE_"):
		return "TRANSPORT"
	case strings.HasPrefix(codeStr, "UNKNOWN_"):
		return "ROUTING"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION") ||
		strings.Contains(codeStr, "UNSUPPORTED") || code == ErrCodeNoEditFields:
		return "VALIDATION"
	case strings.Contains(codeStr, "NOT_FOUND"):
		return "NOT_FOUND"
	default:
		return "OTHER"
	}
}
