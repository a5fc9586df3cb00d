package errors

import "net/http"

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Connection/Availability errors (retryable)
const (
	// ErrCodeServiceUnavailable indicates the service is temporarily unavailable.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeTimeout indicates the request timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeRateLimited indicates the client is rate limited.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
)

// Pipeline stage errors
const (
	// ErrCodeUnsupportedFormat indicates the input audio could not be decoded.
	ErrCodeUnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"
	// ErrCodeIO indicates a temporary artifact could not be read or written.
	ErrCodeIO ErrorCode = "IO_ERROR"
	// ErrCodeTranscription indicates the speech-to-text backend failed.
	ErrCodeTranscription ErrorCode = "TRANSCRIPTION_ERROR"
	// ErrCodeDiarization indicates the diarization backend failed.
	ErrCodeDiarization ErrorCode = "DIARIZATION_ERROR"
	// ErrCodeCancelled indicates the caller cancelled the job.
	ErrCodeCancelled ErrorCode = "CANCELLED"
)

// Resource errors
const (
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
)

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
	// ErrCodeTooLarge indicates an upload past the body size limit.
	ErrCodeTooLarge ErrorCode = "PAYLOAD_TOO_LARGE"
)

// Authentication errors
const (
	// ErrCodeUnauthorized indicates the request is unauthorized.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeForbidden indicates the caller is authenticated but not permitted.
	ErrCodeForbidden ErrorCode = "FORBIDDEN"
)

// Internal errors
const (
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Stage failures are retryable only as a whole-job resubmission; the caller
// decides. Timeouts and collaborator outages are flagged so clients can
// surface a "try again" hint.
var retryableCodes = map[ErrorCode]bool{
	ErrCodeServiceUnavailable: true,
	ErrCodeTimeout:            true,
	ErrCodeRateLimited:        true,
	ErrCodeTranscription:      true,
	ErrCodeDiarization:        true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}

var httpStatuses = map[ErrorCode]int{
	ErrCodeUnsupportedFormat:  http.StatusUnsupportedMediaType,
	ErrCodeIO:                 http.StatusInternalServerError,
	ErrCodeTranscription:      http.StatusBadGateway,
	ErrCodeDiarization:        http.StatusBadGateway,
	ErrCodeCancelled:          499,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeRateLimited:        http.StatusTooManyRequests,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeInvalidInput:       http.StatusBadRequest,
	ErrCodeMissingField:       http.StatusBadRequest,
	ErrCodeTooLarge:           http.StatusRequestEntityTooLarge,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeInternal:           http.StatusInternalServerError,
}

// HTTPStatusOf returns the HTTP status the constructors use for code.
// Unknown codes map to 500.
func HTTPStatusOf(code ErrorCode) int {
	if s, ok := httpStatuses[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}
