package errors

import stderrors "errors"

// ErrorResponse is the JSON body of every non-job API error:
//
//	{"error": {"code": "NOT_FOUND", "message": "...", "retryable": false}}
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody is the payload of ErrorResponse.
type ErrorBody struct {
	Code      ErrorCode      `json:"code"`
	Message   string         `json:"message"`
	Retryable bool           `json:"retryable"`
	Details   map[string]any `json:"details,omitempty"`
}

// ToResponse builds the API body for e. The cause is never exposed.
func (e *AppError) ToResponse() ErrorResponse {
	return ErrorResponse{Error: ErrorBody{
		Code:      e.Code,
		Message:   e.Message,
		Retryable: e.Retryable,
		Details:   e.Details,
	}}
}

// AsAppError returns the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := stderrors.As(err, &appErr)
	return appErr, ok
}

// Wrap returns the AppError in err's chain, or err as an internal error when
// the chain holds none.
func Wrap(err error) *AppError {
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return Internal(err)
}

// CodeOf returns the code of the first AppError in err's chain, or
// ErrCodeInternal when there is none.
func CodeOf(err error) ErrorCode {
	return Wrap(err).Code
}
