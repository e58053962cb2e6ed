// Package errors provides the standardized error taxonomy of the assistant.
// Every processor turn converts these into scripted user-facing responses;
// they never cross the public boundary as panics or raw errors.
package errors

import (
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeParseAmbiguous      ErrorCode = "PARSE_AMBIGUOUS"
	ErrCodeAnalysisUnavailable ErrorCode = "ANALYSIS_UNAVAILABLE"
	ErrCodeProductNotFound     ErrorCode = "PRODUCT_NOT_FOUND"
	ErrCodeValidation          ErrorCode = "VALIDATION_ERROR"
	ErrCodeUnknownInputKind    ErrorCode = "UNKNOWN_INPUT_KIND"
	ErrCodeSessionStoreFailed  ErrorCode = "SESSION_STORE_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// NewParseAmbiguousError marks a quantity parse that fell below its floor.
// Recovered locally by re-prompting with suggestions, never surfaced.
func NewParseAmbiguousError(text string) *StandardError {
	return &StandardError{
		Code:      ErrCodeParseAmbiguous,
		Message:   "Quantity expression could not be resolved",
		Details:   fmt.Sprintf("text: %q", text),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAnalysisUnavailableError wraps an analysis-backend failure, timeout, or
// empty result. Recovered with a scripted apology and bounded re-offer.
func NewAnalysisUnavailableError(err error) *StandardError {
	details := "no detected foods"
	if err != nil {
		details = err.Error()
	}
	return &StandardError{
		Code:      ErrCodeAnalysisUnavailable,
		Message:   "Analysis backend unavailable or returned no result",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewProductNotFoundError marks a barcode the product database does not know.
func NewProductNotFoundError(code string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProductNotFound,
		Message:   "Product not found for barcode",
		Details:   fmt.Sprintf("barcode: %s", code),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationError marks a malformed structured command or out-of-range
// manual values. Surfaced as a direct user-facing message, no retry implied.
func NewValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidation,
		Message:   "Invalid command or manual entry values",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnknownInputKindError marks an unsupported InputKind. This is the only
// condition treated as a caller programming error: logged, generic fallback
// message returned.
func NewUnknownInputKindError(kind string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownInputKind,
		Message:   "Unsupported input kind",
		Details:   fmt.Sprintf("kind: %s", kind),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionStoreFailedError wraps a Redis session load/save failure.
func NewSessionStoreFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionStoreFailed,
		Message:   "Session store operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// IsRetryable checks whether err is a retryable StandardError.
func IsRetryable(err error) bool {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr.Retryable
	}
	return false
}

// CodeOf extracts the error code, or "" for foreign errors.
func CodeOf(err error) ErrorCode {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr.Code
	}
	return ""
}
