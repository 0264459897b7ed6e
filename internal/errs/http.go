package errs

import "strings"

// FieldError represents a field-level validation error.
// Example:
//
//	{ "field": "price", "error": "Invalid price value" }
type FieldError struct {
	// Field is the payload key the error relates to (e.g. "price").
	Field string `json:"field"`

	// Error is the human-readable error message.
	Error string `json:"error"`
}

// HTTPError is the main custom error type for API responses.
//
// Fields:
//   - Code: machine-friendly error code (e.g. "INVALID_ENUM").
//   - Title: short summary rendered as the envelope's "error" key.
//   - Message: human-friendly message.
//   - Status: HTTP status code.
//   - Override: when false in production, the error handler replaces the
//     message of a 5xx with the generic status text.
//   - Errors: list of per-field errors (validation).
//   - Details: diagnostic data, rendered only in development.
type HTTPError struct {
	Code     string `json:"code"`
	Title    string `json:"error"`
	Message  string `json:"message"`
	Status   int    `json:"-"`
	Override bool   `json:"-"`

	Errors  []FieldError `json:"errors,omitempty"`
	Details any          `json:"details,omitempty"`

	// cause is kept for logs and errors.Is/As; it is never serialized.
	cause error
}

// Error makes *HTTPError satisfy the built-in `error` interface.
func (e *HTTPError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

// Unwrap exposes the underlying cause, if any.
func (e *HTTPError) Unwrap() error {
	return e.cause
}

// Is reports true for any *HTTPError target.
// It does not compare Code or Status.
func (e *HTTPError) Is(target error) bool {
	_, ok := target.(*HTTPError)
	return ok
}

// WithMessage returns a copy of this HTTPError with Message replaced.
func (e *HTTPError) WithMessage(message string) *HTTPError {
	clone := *e
	clone.Message = message
	return &clone
}

// WithCause returns a copy of this HTTPError carrying cause.
func (e *HTTPError) WithCause(cause error) *HTTPError {
	clone := *e
	clone.cause = cause
	return &clone
}

// WithDetails returns a copy of this HTTPError carrying diagnostic details.
func (e *HTTPError) WithDetails(details any) *HTTPError {
	clone := *e
	clone.Details = details
	return &clone
}

// MakeUpperCaseWithUnderscores converts a string into UPPER_CASE_WITH_UNDERSCORES.
//
// Example:
//
//	"Method Not Allowed" -> "METHOD_NOT_ALLOWED"
func MakeUpperCaseWithUnderscores(str string) string {
	return strings.ToUpper(strings.ReplaceAll(str, " ", "_"))
}
