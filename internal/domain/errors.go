package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{Code: code, Message: message, Err: err}
}

// Common domain error codes
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeConfiguration = "CONFIGURATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeUnavailable   = "UNAVAILABLE"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// Configuration errors. Invalid chunking parameters are surfaced to the
// caller rather than silently corrected: a window that cannot advance would
// loop forever.
var (
	ErrInvalidChunkSize    = NewDomainError(ErrCodeConfiguration, "chunk size must be positive")
	ErrInvalidChunkOverlap = NewDomainError(ErrCodeConfiguration, "chunk overlap must be smaller than chunk size")
)

// Not found errors
var (
	ErrCacheEntryNotFound  = NewDomainError(ErrCodeNotFound, "cache entry not found")
	ErrDocumentNotFound    = NewDomainError(ErrCodeNotFound, "document not found")
	ErrAnalysisJobNotFound = NewDomainError(ErrCodeNotFound, "analysis job not found")
)

// Availability errors. ErrEmbeddingUnavailable means both the primary and
// fallback providers failed; callers must not conflate it with a 0.0 score.
// ErrCacheStoreUnavailable is fatal for any call that needed a cache
// decision: treating "unknown" as fresh or stale would give wrong
// re-analysis decisions.
var (
	ErrEmbeddingUnavailable  = NewDomainError(ErrCodeUnavailable, "no embedding provider available")
	ErrCacheStoreUnavailable = NewDomainError(ErrCodeUnavailable, "cache store unavailable")
)
