package errors

import "fmt"

// Error types for gzinspector operations
var (
	// ErrEndOfStream is returned when no member header can be read at the
	// expected offset. It signals normal termination, not a failure.
	ErrEndOfStream = &GzipError{Code: "END_OF_STREAM", Message: "end of stream"}

	// ErrInvalidMagic is returned when a supposed member start does not
	// begin with the gzip magic pair 0x1f 0x8b
	ErrInvalidMagic = &GzipError{Code: "INVALID_MAGIC", Message: "invalid gzip magic bytes"}

	// ErrDecompressFailed is returned when a member cannot be decompressed
	// after all boundary-recovery strategies have been exhausted
	ErrDecompressFailed = &GzipError{Code: "DECOMPRESS_FAILED", Message: "decompression failed"}

	// ErrChunkTooLarge is returned when an accumulated candidate member
	// exceeds the safety ceiling without yielding a decodable span
	ErrChunkTooLarge = &GzipError{Code: "CHUNK_TOO_LARGE", Message: "chunk exceeds size limit"}
)

// GzipError represents a structured error in gzinspector operations
type GzipError struct {
	Code    string                 // Error code for programmatic handling
	Message string                 // Human-readable error message
	Cause   error                  // Underlying error, if any
	Details map[string]interface{} // Additional context
}

// Error implements the error interface
func (e *GzipError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	if len(e.Details) > 0 {
		return fmt.Sprintf("[%s] %s (details: %v)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *GzipError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a GzipError with the same code, so that
// errors.Is matches sentinel errors against their WithCause/WithDetail copies
func (e *GzipError) Is(target error) bool {
	t, ok := target.(*GzipError)
	return ok && t.Code == e.Code
}

// WithCause adds a cause to the error
func (e *GzipError) WithCause(cause error) *GzipError {
	return &GzipError{
		Code:    e.Code,
		Message: e.Message,
		Cause:   cause,
		Details: e.Details,
	}
}

// WithDetail adds a detail key-value pair to the error
func (e *GzipError) WithDetail(key string, value interface{}) *GzipError {
	details := make(map[string]interface{})
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &GzipError{
		Code:    e.Code,
		Message: e.Message,
		Cause:   e.Cause,
		Details: details,
	}
}

// WithMessage overrides the error message
func (e *GzipError) WithMessage(message string) *GzipError {
	return &GzipError{
		Code:    e.Code,
		Message: message,
		Cause:   e.Cause,
		Details: e.Details,
	}
}

// IsGzipError checks if an error is a GzipError
func IsGzipError(err error) bool {
	_, ok := err.(*GzipError)
	return ok
}

// GetErrorCode extracts the error code from a GzipError
func GetErrorCode(err error) string {
	if gzErr, ok := err.(*GzipError); ok {
		return gzErr.Code
	}
	return ""
}
