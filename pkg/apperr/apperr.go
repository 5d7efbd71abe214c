// Package apperr defines the single structured error type returned by business operations.
//
// Every rule violation is an *Error carrying a machine code, a human message, an HTTP status
// and optional details. Anything else reaching the HTTP boundary is treated as internal.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an Error.
type Kind int

const (
	Internal Kind = iota
	AuthenticationMissing
	AuthenticationInvalid
	AuthorizationDenied
	ValidationFailed
	NotFound
	NotModifiable
	CannotCancel
	InvalidTransition
	Conflict
	PaymentAuthorizationFailed
	RateLimited
)

var kindNames = map[Kind]string{
	Internal:                   "internal",
	AuthenticationMissing:      "authentication_missing",
	AuthenticationInvalid:      "authentication_invalid",
	AuthorizationDenied:        "authorization_denied",
	ValidationFailed:           "validation_failed",
	NotFound:                   "not_found",
	NotModifiable:              "not_modifiable",
	CannotCancel:               "cannot_cancel",
	InvalidTransition:          "invalid_transition",
	Conflict:                   "conflict",
	PaymentAuthorizationFailed: "payment_authorization_failed",
	RateLimited:                "rate_limited",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Status returns the HTTP status paired with the kind.
func (k Kind) Status() int {
	switch k {
	case AuthenticationMissing, AuthenticationInvalid:
		return http.StatusUnauthorized
	case AuthorizationDenied:
		return http.StatusForbidden
	case ValidationFailed:
		return http.StatusUnprocessableEntity
	case NotFound:
		return http.StatusNotFound
	case NotModifiable, CannotCancel, InvalidTransition, Conflict, PaymentAuthorizationFailed:
		return http.StatusBadRequest
	case RateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error is a business error safe to show to API clients.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Status  int
	Details map[string]any
	// Challenge is sent as WWW-Authenticate when set.
	Challenge string
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// New builds an Error whose status follows its kind.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Status: kind.Status()}
}

// Newf is New with a formatted message.
func Newf(kind Kind, code, format string, args ...any) *Error {
	return New(kind, code, fmt.Sprintf(format, args...))
}

// WithDetail returns e with key set in its details.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithChallenge returns e with the WWW-Authenticate challenge set.
func (e *Error) WithChallenge(scheme string) *Error {
	e.Challenge = scheme
	return e
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err carries an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == kind
}

// Validation is shorthand for a VALIDATION_FAILED error on one field.
func Validation(field, message string) *Error {
	return New(ValidationFailed, "VALIDATION_FAILED", message).WithDetail("field", field)
}
