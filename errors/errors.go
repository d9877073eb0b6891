package errors

import (
	stderrors "errors"
	"fmt"
)

// StoreError is the unified persistence-layer error type.
type StoreError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *StoreError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *StoreError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *StoreError) WithCause(cause error) *StoreError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *StoreError) WithDetail(key string, value any) *StoreError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new StoreError with automatic retryable detection.
func New(code ErrorCode, message string) *StoreError {
	return &StoreError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// --- Common Error Constructors ---

// Transport creates a StoreError for a failed remote call.
func Transport(operation string, cause error) *StoreError {
	return &StoreError{
		Code: ErrCodeTransport, Message: fmt.Sprintf("remote %s failed", operation),
		Retryable: true,
		Details:   map[string]any{"operation": operation},
		Cause:     cause,
	}
}

// Timeout creates a StoreError for a remote call that timed out.
func Timeout(operation string, cause error) *StoreError {
	return &StoreError{
		Code: ErrCodeTimeout, Message: fmt.Sprintf("remote %s timed out", operation),
		Retryable: true,
		Details:   map[string]any{"operation": operation},
		Cause:     cause,
	}
}

// Unavailable creates a StoreError for a temporarily unavailable remote API.
func Unavailable(cause error) *StoreError {
	return &StoreError{
		Code: ErrCodeUnavailable, Message: "remote API is temporarily unavailable",
		Retryable: true, Cause: cause,
	}
}

// NotFound creates a StoreError for an object that does not exist remotely.
func NotFound(entity, id string) *StoreError {
	details := map[string]any{"entity": entity}
	if id != "" {
		details["id"] = id
	}
	return &StoreError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("%s not found", entity),
		Retryable: false, Details: details,
	}
}

// Conflict creates a StoreError for a save rejected by the server.
func Conflict(entity, id string, cause error) *StoreError {
	return &StoreError{
		Code: ErrCodeConflict, Message: fmt.Sprintf("save of %s rejected by server", entity),
		Retryable: false,
		Details:   map[string]any{"entity": entity, "id": id},
		Cause:     cause,
	}
}

// Validation creates a StoreError for an invalid request or snapshot.
func Validation(message string) *StoreError {
	return &StoreError{
		Code: ErrCodeValidation, Message: message,
		Retryable: false,
	}
}

// Unauthorized creates a StoreError for rejected credentials.
func Unauthorized(cause error) *StoreError {
	return &StoreError{
		Code: ErrCodeUnauthorized, Message: "remote API rejected the credentials",
		Retryable: false, Cause: cause,
	}
}

// Cancelled creates a StoreError for a context cancelled mid-operation.
func Cancelled(operation string, cause error) *StoreError {
	return &StoreError{
		Code: ErrCodeCancelled, Message: fmt.Sprintf("%s cancelled", operation),
		Retryable: false,
		Details:   map[string]any{"operation": operation},
		Cause:     cause,
	}
}

// CacheCorruption creates a StoreError for an invariant violation in the
// snapshot cache. The store logs these and falls back to a remote fetch;
// they never surface to the calling context.
func CacheCorruption(key string, reason string) *StoreError {
	return &StoreError{
		Code: ErrCodeCacheCorruption, Message: fmt.Sprintf("cache entry %q is corrupt: %s", key, reason),
		Retryable: false,
		Details:   map[string]any{"key": key},
	}
}

// Internal creates a StoreError for an unexpected adapter failure.
func Internal(cause error) *StoreError {
	return &StoreError{
		Code: ErrCodeInternal, Message: "unexpected store failure",
		Retryable: false, Cause: cause,
	}
}

// --- Inspection helpers ---

// AsStoreError extracts a *StoreError from an error chain.
func AsStoreError(err error) (*StoreError, bool) {
	var se *StoreError
	ok := stderrors.As(err, &se)
	return se, ok
}

// IsNotFound reports whether err is a NOT_FOUND persistence error.
func IsNotFound(err error) bool {
	se, ok := AsStoreError(err)
	return ok && se.Code == ErrCodeNotFound
}

// IsConflict reports whether err is a CONFLICT persistence error.
func IsConflict(err error) bool {
	se, ok := AsStoreError(err)
	return ok && se.Code == ErrCodeConflict
}

// IsCancelled reports whether err is a CANCELLED persistence error.
func IsCancelled(err error) bool {
	se, ok := AsStoreError(err)
	return ok && se.Code == ErrCodeCancelled
}

// IsRetryable reports whether err carries a retryable persistence error.
func IsRetryable(err error) bool {
	se, ok := AsStoreError(err)
	return ok && se.Retryable
}
