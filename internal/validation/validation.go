// Package validation decides whether a decoded webhook body is a usable
// trading signal.
//
// ValidateSignal applies the payload rules in a fixed order and reports
// only the first violation, so identical malformed inputs always blame
// the same field with the same message. Enum membership is checked with
// the `validator` library; everything else is a plain type switch over
// the decoded JSON.
package validation

import (
	"errors"
	"math"
	"strings"

	"github.com/deppfellow/signal-webhook/internal/errs"
	"github.com/deppfellow/signal-webhook/internal/model"
	"github.com/go-playground/validator/v10"
)

// Kind classifies a validation failure.
type Kind string

const (
	KindBadFormat    Kind = errs.CodeBadFormat
	KindMissingField Kind = errs.CodeMissingField
	KindInvalidEnum  Kind = errs.CodeInvalidEnum
	KindInvalidValue Kind = errs.CodeInvalidValue
)

// Error is the first rule a payload broke.
type Error struct {
	Kind    Kind
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// HTTPError converts e into the 400 response body.
func (e *Error) HTTPError() *errs.HTTPError {
	code := string(e.Kind)

	var fieldErrors []errs.FieldError
	if e.Field != "" {
		fieldErrors = []errs.FieldError{{Field: e.Field, Error: e.Message}}
	}

	return errs.NewBadRequestError(e.Message, true, &code, fieldErrors)
}

// AsHTTPError returns the 400 for a validation error and leaves every other error untouched.
func AsHTTPError(err error) error {
	var verr *Error
	if errors.As(err, &verr) {
		return verr.HTTPError().WithCause(err)
	}
	return err
}

var (
	actionRule    = "oneof=" + joinActions(" ")
	timeframeRule = "oneof=" + strings.Join(model.Timeframes, " ")

	msgInvalidAction    = "Invalid action. Must be one of: " + joinActions(", ")
	msgInvalidTimeframe = "Invalid timeframe. Must be one of: " + strings.Join(model.Timeframes, ", ")
)

func joinActions(sep string) string {
	names := make([]string, len(model.Actions))
	for i, a := range model.Actions {
		names[i] = string(a)
	}
	return strings.Join(names, sep)
}

// validate is safe for concurrent use once constructed.
var validate = validator.New()

// oneOf reports whether v is a string accepted by a validator oneof rule.
// Non-strings never match; oneof panics on kinds it does not support.
func oneOf(v any, rule string) bool {
	s, ok := v.(string)
	if !ok || s == "" {
		return false
	}
	return validate.Var(s, rule) == nil
}

// ValidateSignal checks raw, the result of decoding a request body, and
// returns it typed as a Payload. The payload is not modified.
//
// Rule order:
//  1. raw must be a JSON object
//  2. symbol: non-empty string
//  3. action: present and one of buy, sell, close
//  4. price, quantity: when present, coerce to a finite number > 0
//  5. timeframe: when present, one of the supported resolutions
//  6. indicators: when present, a JSON object
func ValidateSignal(raw any) (model.Payload, error) {
	obj, ok := asObject(raw)
	if !ok {
		return nil, &Error{Kind: KindBadFormat, Message: "Invalid payload format"}
	}

	if sym, ok := obj["symbol"].(string); !ok || sym == "" {
		return nil, &Error{Kind: KindMissingField, Field: "symbol", Message: "Missing or invalid symbol"}
	}

	action, present := obj["action"]
	if !present || action == nil {
		return nil, &Error{Kind: KindMissingField, Field: "action", Message: "Missing required field: action"}
	}
	if !oneOf(action, actionRule) {
		return nil, &Error{Kind: KindInvalidEnum, Field: "action", Message: msgInvalidAction}
	}

	for _, field := range []string{"price", "quantity"} {
		v, present := obj[field]
		if !present {
			continue
		}
		if !isPositiveNumber(v) {
			return nil, &Error{Kind: KindInvalidValue, Field: field, Message: "Invalid " + field + " value"}
		}
	}

	if tf, present := obj["timeframe"]; present && !oneOf(tf, timeframeRule) {
		return nil, &Error{Kind: KindInvalidEnum, Field: "timeframe", Message: msgInvalidTimeframe}
	}

	if ind, present := obj["indicators"]; present {
		if _, ok := ind.(map[string]any); !ok {
			return nil, &Error{Kind: KindBadFormat, Field: "indicators", Message: "Invalid indicators format"}
		}
	}

	return obj, nil
}

func asObject(raw any) (model.Payload, bool) {
	switch v := raw.(type) {
	case model.Payload:
		return v, v != nil
	case map[string]any:
		return v, v != nil
	default:
		return nil, false
	}
}

// isPositiveNumber rejects NaN, ±Inf and anything <= 0.
func isPositiveNumber(v any) bool {
	n := model.ToNumber(v)
	return !math.IsNaN(n) && !math.IsInf(n, 0) && n > 0
}
