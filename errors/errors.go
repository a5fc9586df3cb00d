package errors

import (
	"fmt"
	"maps"
)

// AppError is an error with a stable code, an HTTP status and a retry hint.
// Job failures and API error bodies are both built from it.
type AppError struct {
	Code       ErrorCode      `json:"code"`
	Message    string         `json:"message"`
	Retryable  bool           `json:"retryable"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Cause      error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithCause attaches cause and returns e.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges details into e and returns e.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any, len(details))
	}
	maps.Copy(e.Details, details)
	return e
}

// WithDetail sets one detail and returns e.
func (e *AppError) WithDetail(key string, value any) *AppError {
	return e.WithDetails(map[string]any{key: value})
}

// New builds an AppError whose status and retry hint follow from code.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: HTTPStatusOf(code),
		Retryable:  IsRetryableCode(code),
	}
}

func newf(code ErrorCode, details map[string]any, format string, args ...any) *AppError {
	e := New(code, fmt.Sprintf(format, args...))
	if len(details) > 0 {
		e.Details = details
	}
	return e
}

// UnsupportedFormat reports input audio that ffmpeg could not decode.
func UnsupportedFormat(source, reason string) *AppError {
	return newf(ErrCodeUnsupportedFormat, map[string]any{"source": source},
		"Unsupported audio format: %s", reason)
}

// IOError reports a failed read or write of a temporary artifact.
func IOError(op string, cause error) *AppError {
	return newf(ErrCodeIO, map[string]any{"operation": op},
		"Audio artifact %s failed.", op).WithCause(cause)
}

// TranscriptionFailed wraps a speech-to-text backend failure.
func TranscriptionFailed(backend string, cause error) *AppError {
	return newf(ErrCodeTranscription, map[string]any{"backend": backend},
		"Transcription with %s failed.", backend).WithCause(cause)
}

// DiarizationFailed wraps a diarization backend failure.
func DiarizationFailed(backend string, cause error) *AppError {
	return newf(ErrCodeDiarization, map[string]any{"backend": backend},
		"Diarization with %s failed.", backend).WithCause(cause)
}

// Cancelled reports a job whose context ended during stage.
func Cancelled(stage string) *AppError {
	return newf(ErrCodeCancelled, map[string]any{"stage": stage}, "The job was cancelled.")
}

// Timeout reports an operation that ran past its deadline.
func Timeout(operation string) *AppError {
	return newf(ErrCodeTimeout, map[string]any{"operation": operation},
		"The request took too long. Please try again.")
}

// ServiceUnavailable reports a collaborator (ffmpeg, a backend) that cannot
// be reached right now.
func ServiceUnavailable(service string) *AppError {
	return newf(ErrCodeServiceUnavailable, map[string]any{"service": service},
		"The %s is temporarily unavailable. Please try again.", service)
}

// RateLimited reports a rejected call from a limiter.
func RateLimited() *AppError {
	return New(ErrCodeRateLimited, "Too many requests. Please wait a moment and try again.")
}

// NotFound reports an unknown resource. An empty id is left out of the details.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return newf(ErrCodeNotFound, details, "The requested %s was not found.", resource)
}

// InvalidInput reports a bad request parameter.
func InvalidInput(field, reason string) *AppError {
	var details map[string]any
	if field != "" {
		details = map[string]any{"field": field}
	}
	return newf(ErrCodeInvalidInput, details, "Invalid input: %s", reason)
}

// MissingField reports a required form field or part that was absent.
func MissingField(field string) *AppError {
	return newf(ErrCodeMissingField, map[string]any{"field": field},
		"Missing required field: %s", field)
}

// TooLarge reports an upload cut off at limit bytes.
func TooLarge(limit int64) *AppError {
	return newf(ErrCodeTooLarge, map[string]any{"limit_bytes": limit},
		"The upload exceeds the %d byte limit.", limit)
}

// Unauthorized reports a missing or invalid credential.
func Unauthorized(reason string) *AppError {
	if reason == "" {
		reason = "Authentication required."
	}
	return New(ErrCodeUnauthorized, reason)
}

// Forbidden reports a valid credential without the needed scope.
func Forbidden(reason string) *AppError {
	return New(ErrCodeForbidden, reason)
}

// Internal wraps an unexpected error. The cause is never shown to clients.
func Internal(cause error) *AppError {
	return New(ErrCodeInternal, "An unexpected error occurred. Please try again or contact support.").WithCause(cause)
}
