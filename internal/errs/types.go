package errs

import (
	"net/http"
)

// Machine codes of the webhook error taxonomy.
const (
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeBadFormat        = "BAD_FORMAT"
	CodeMissingField     = "MISSING_FIELD"
	CodeInvalidEnum      = "INVALID_ENUM"
	CodeInvalidValue     = "INVALID_VALUE"
	CodeStorageFailure   = "STORAGE_FAILURE"
	CodeInternalError    = "INTERNAL_ERROR"
	CodeNotFound         = "NOT_FOUND"
)

// NewMethodNotAllowedError creates the 405 returned for anything but POST.
func NewMethodNotAllowedError() *HTTPError {
	return &HTTPError{
		Code:     CodeMethodNotAllowed,
		Title:    "Method not allowed",
		Message:  "Only POST requests are accepted",
		Status:   http.StatusMethodNotAllowed,
		Override: true,
	}
}

// NewUnauthorizedError creates a 401 Unauthorized HTTPError.
func NewUnauthorizedError(message string, override bool) *HTTPError {
	return &HTTPError{
		Code:     CodeUnauthorized,
		Title:    http.StatusText(http.StatusUnauthorized),
		Message:  message,
		Status:   http.StatusUnauthorized,
		Override: override,
	}
}

// NewBadRequestError creates a 400 Bad Request HTTPError.
//
// A nil code defaults to "BAD_REQUEST". The message doubles as the
// envelope title, which is what TradingView shows in its alert log.
func NewBadRequestError(message string, override bool, code *string, errors []FieldError) *HTTPError {
	formattedCode := MakeUpperCaseWithUnderscores(http.StatusText(http.StatusBadRequest))
	if code != nil {
		formattedCode = *code
	}

	return &HTTPError{
		Code:     formattedCode,
		Title:    message,
		Message:  message,
		Status:   http.StatusBadRequest,
		Override: override,
		Errors:   errors,
	}
}

// NewNotFoundError creates a 404 Not Found HTTPError.
func NewNotFoundError(message string, override bool) *HTTPError {
	return &HTTPError{
		Code:     CodeNotFound,
		Title:    http.StatusText(http.StatusNotFound),
		Message:  message,
		Status:   http.StatusNotFound,
		Override: override,
	}
}

// NewStorageError creates the 500 returned when the signal could not be saved.
func NewStorageError() *HTTPError {
	return &HTTPError{
		Code:     CodeStorageFailure,
		Title:    "Database error",
		Message:  "Failed to save trading signal",
		Status:   http.StatusInternalServerError,
		Override: true,
	}
}

// NewInternalServerError creates a generic 500 Internal Server Error HTTPError.
//
// The message is the status text; callers attach the real cause with
// WithCause so it reaches the logs but never the client.
func NewInternalServerError() *HTTPError {
	return &HTTPError{
		Code:     CodeInternalError,
		Title:    http.StatusText(http.StatusInternalServerError),
		Message:  http.StatusText(http.StatusInternalServerError),
		Status:   http.StatusInternalServerError,
		Override: false,
	}
}

// NewBodyParseError creates the 500 returned when the request body is not JSON.
func NewBodyParseError(cause error) *HTTPError {
	return &HTTPError{
		Code:     CodeInternalError,
		Title:    http.StatusText(http.StatusInternalServerError),
		Message:  "Failed to parse request body as JSON",
		Status:   http.StatusInternalServerError,
		Override: true,
		cause:    cause,
	}
}
