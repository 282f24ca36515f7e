package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode classifies a chat operation failure.
type ErrorCode string

const (
	// ErrCodeInvalidRequest indicates user-correctable invalid input.
	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
	// ErrCodeUnauthorized indicates authentication failure.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeResourceConflict indicates a duplicate username or email at registration.
	ErrCodeResourceConflict ErrorCode = "RESOURCE_CONFLICT"
	// ErrCodeQuotaExhausted indicates the completion provider reported a rate or quota limit.
	ErrCodeQuotaExhausted ErrorCode = "QUOTA_EXHAUSTED"
	// ErrCodeStorageError indicates a durability layer fault.
	ErrCodeStorageError ErrorCode = "STORAGE_ERROR"
	// ErrCodeProviderError indicates any other completion provider failure.
	ErrCodeProviderError ErrorCode = "PROVIDER_ERROR"
)

// ChatError is a structured error carried from the service layer to the
// HTTP boundary, where Code decides the status and the caller-visible message.
type ChatError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ChatError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ChatError) Unwrap() error {
	return e.Cause
}

// HTTPStatus maps the error code to its HTTP status.
func (e *ChatError) HTTPStatus() int {
	switch e.Code {
	case ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeResourceConflict:
		return http.StatusConflict
	case ErrCodeQuotaExhausted:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Convenience constructors for common error types.

// InvalidRequest creates an invalid request error.
func InvalidRequest(msg string) *ChatError {
	return &ChatError{Code: ErrCodeInvalidRequest, Message: msg}
}

// Unauthorized creates an unauthorized error.
func Unauthorized(msg string) *ChatError {
	return &ChatError{Code: ErrCodeUnauthorized, Message: msg}
}

// ResourceConflict creates a resource conflict error.
func ResourceConflict(msg string) *ChatError {
	return &ChatError{Code: ErrCodeResourceConflict, Message: msg}
}

// QuotaExhausted creates a quota exhausted error.
func QuotaExhausted(msg string, cause error) *ChatError {
	return &ChatError{Code: ErrCodeQuotaExhausted, Message: msg, Cause: cause}
}

// StorageError creates a storage error.
func StorageError(msg string, cause error) *ChatError {
	return &ChatError{Code: ErrCodeStorageError, Message: msg, Cause: cause}
}

// ProviderError creates a provider error.
func ProviderError(msg string, cause error) *ChatError {
	return &ChatError{Code: ErrCodeProviderError, Message: msg, Cause: cause}
}

// IsCode checks if an error is of a specific code.
func IsCode(err error, code ErrorCode) bool {
	if chatErr, ok := err.(*ChatError); ok {
		return chatErr.Code == code
	}
	return false
}

// GetCodeFromError extracts the error code from any error.
// Returns the provided default code if the error is not a ChatError.
func GetCodeFromError(err error, defaultCode ErrorCode) ErrorCode {
	if chatErr, ok := err.(*ChatError); ok {
		return chatErr.Code
	}
	return defaultCode
}
