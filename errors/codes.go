package errors

// ErrorCode represents a machine-readable persistence error code.
type ErrorCode string

// Transport/availability errors (retryable).
const (
	// ErrCodeTransport indicates the remote API could not be reached or
	// returned a transport-level failure.
	ErrCodeTransport ErrorCode = "TRANSPORT_ERROR"
	// ErrCodeTimeout indicates a remote call timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeUnavailable indicates the remote API is temporarily unavailable.
	ErrCodeUnavailable ErrorCode = "UNAVAILABLE"
)

// Request outcome errors.
const (
	// ErrCodeNotFound indicates the requested object does not exist remotely.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeConflict indicates the server rejected a save due to a stale
	// version or constraint violation.
	ErrCodeConflict ErrorCode = "CONFLICT"
	// ErrCodeValidation indicates the request or one of its snapshots is invalid.
	ErrCodeValidation ErrorCode = "VALIDATION"
	// ErrCodeUnauthorized indicates the remote API rejected the credentials.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
)

// Internal errors.
const (
	// ErrCodeCancelled indicates the calling context was cancelled mid-operation.
	ErrCodeCancelled ErrorCode = "CANCELLED"
	// ErrCodeCacheCorruption indicates an invariant violation detected while
	// reading the snapshot cache. Treated as a cache miss by the store.
	ErrCodeCacheCorruption ErrorCode = "CACHE_CORRUPTION"
	// ErrCodeInternal indicates an unexpected adapter failure.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeTransport:   true,
	ErrCodeTimeout:     true,
	ErrCodeUnavailable: true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
